// Package ledger declares the persistence ports of the bot.
package ledger

import (
	"context"
	"time"

	"finbot/internal/core"
)

// Ports implemented by the storage adapters.
type (
	TransactionRepository interface {
		// InsertTransaction stores t and returns it with ID and CreatedAt set.
		InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		// ListTransactions returns the newest transactions first; limit <= 0 means all.
		ListTransactions(ctx context.Context, userID int64, limit int) ([]core.Transaction, error)
		// ListTransactionsBetween returns transactions created in [from, to), newest first.
		ListTransactionsBetween(ctx context.Context, userID int64, from, to time.Time) ([]core.Transaction, error)
		ClearTransactions(ctx context.Context, userID int64) (int64, error)
		// GetTransaction returns nil, nil when id does not exist.
		GetTransaction(ctx context.Context, id int64) (*core.Transaction, error)
		UpdateTransaction(ctx context.Context, id int64, patch core.TransactionPatch) (bool, error)
		DeleteTransaction(ctx context.Context, id int64) (bool, error)
		Statistics(ctx context.Context, userID int64) (core.Statistics, error)
	}

	RuleRepository interface {
		// AddCategoryRule returns false when the user already has a rule with that name.
		AddCategoryRule(ctx context.Context, rule core.CategoryRule) (bool, error)
		// CategoryRules returns the user's rules in insertion order.
		CategoryRules(ctx context.Context, userID int64) ([]core.CategoryRule, error)
		DeleteCategoryRule(ctx context.Context, userID int64, name string) (bool, error)
	}

	Repository interface {
		TransactionRepository
		RuleRepository
		Ping(ctx context.Context) error
		Close() error
	}
)
