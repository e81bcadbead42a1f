// Package storage implements the ledger repository on SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"finbot/internal/core"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so that text order equals chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const dsnPragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// Option configures a SQLiteRepository.
type Option func(*SQLiteRepository)

// WithClock overrides the time source used for created_at.
func WithClock(now func() time.Time) Option {
	return func(r *SQLiteRepository) { r.now = now }
}

func NewSQLiteRepository(dbPath string, opts ...Option) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := buildDSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{db: db, now: time.Now}
	for _, opt := range opts {
		opt(repo)
	}
	return repo, nil
}

func buildDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + dsnPragmas
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return storageErr("ping", err)
	}
	return nil
}

// InsertTransaction stores t; ID and CreatedAt are assigned here.
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.CreatedAt = r.now().UTC()

	res, err := r.db.ExecContext(ctx, insertTransactionSQL,
		t.UserID, t.Amount, t.Description, string(t.Kind), t.Category, t.CreatedAt.Format(timeLayout))
	if err != nil {
		return core.Transaction{}, storageErr("insert transaction", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, storageErr("insert transaction id", err)
	}
	t.ID = id

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"user_id", t.UserID,
		"amount", t.Amount,
		"kind", t.Kind,
		"category", t.Category)

	return t, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64, limit int) ([]core.Transaction, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, listTransactionsSQL+" LIMIT ?", userID, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, listTransactionsSQL, userID)
	}
	if err != nil {
		return nil, storageErr("list transactions", err)
	}
	return scanTransactions(rows)
}

func (r *SQLiteRepository) ListTransactionsBetween(ctx context.Context, userID int64, from, to time.Time) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, listTransactionsBetweenSQL,
		userID, from.UTC().Format(timeLayout), to.UTC().Format(timeLayout))
	if err != nil {
		return nil, storageErr("list transactions between", err)
	}
	return scanTransactions(rows)
}

func (r *SQLiteRepository) ClearTransactions(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, clearTransactionsSQL, userID)
	if err != nil {
		return 0, storageErr("clear transactions", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("clear transactions rows", err)
	}
	slog.InfoContext(ctx, "Transactions cleared", "user_id", userID, "deleted", n)
	return n, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, getTransactionSQL, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get transaction", err)
	}
	return &t, nil
}

// UpdateTransaction writes only the fields set in patch. An empty patch or a
// missing row reports false.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id int64, patch core.TransactionPatch) (bool, error) {
	if patch.IsEmpty() {
		return false, nil
	}
	if err := patch.Validate(); err != nil {
		return false, err
	}

	var (
		sets []string
		args []any
	)
	if patch.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, *patch.Amount)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Kind != nil {
		sets = append(sets, "type = ?")
		args = append(args, string(*patch.Kind))
	}
	if patch.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *patch.Category)
	}
	args = append(args, id)

	query := "UPDATE transactions SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, storageErr("update transaction", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("update transaction rows", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Transaction updated", "id", id, "fields", len(sets))
	}
	return n > 0, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, deleteTransactionSQL, id)
	if err != nil {
		return false, storageErr("delete transaction", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("delete transaction rows", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) Statistics(ctx context.Context, userID int64) (core.Statistics, error) {
	var count, income, expense int64
	err := r.db.QueryRowContext(ctx, statisticsSQL, userID).Scan(&count, &income, &expense)
	if err != nil {
		return core.Statistics{}, storageErr("statistics", err)
	}
	return core.NewStatistics(count, income, expense), nil
}

// AddCategoryRule inserts a personal rule. A duplicate name for the same user
// is reported as false and leaves the existing rule untouched.
func (r *SQLiteRepository) AddCategoryRule(ctx context.Context, rule core.CategoryRule) (bool, error) {
	rule.Name = strings.TrimSpace(rule.Name)
	if err := rule.Validate(); err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, insertRuleSQL,
		rule.UserID, rule.Name, strings.Join(rule.Keywords, ","), r.now().UTC().Format(timeLayout))
	if err != nil {
		return false, storageErr("insert category rule", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("insert category rule rows", err)
	}
	if n == 0 {
		slog.InfoContext(ctx, "Duplicate category rule rejected", "user_id", rule.UserID, "name", rule.Name)
		return false, nil
	}
	return true, nil
}

func (r *SQLiteRepository) CategoryRules(ctx context.Context, userID int64) ([]core.CategoryRule, error) {
	rows, err := r.db.QueryContext(ctx, listRulesSQL, userID)
	if err != nil {
		return nil, storageErr("list category rules", err)
	}
	defer rows.Close()

	out := []core.CategoryRule{}
	for rows.Next() {
		var name, keywords string
		if err := rows.Scan(&name, &keywords); err != nil {
			return nil, storageErr("scan category rule", err)
		}
		out = append(out, core.CategoryRule{UserID: userID, Name: name, Keywords: core.ParseKeywords(keywords)})
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate category rules", err)
	}
	return out, nil
}

func (r *SQLiteRepository) DeleteCategoryRule(ctx context.Context, userID int64, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx, deleteRuleSQL, userID, strings.TrimSpace(name))
	if err != nil {
		return false, storageErr("delete category rule", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("delete category rule rows", err)
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s rowScanner) (core.Transaction, error) {
	var (
		t         core.Transaction
		kind      string
		createdAt string
	)
	if err := s.Scan(&t.ID, &t.UserID, &t.Amount, &t.Description, &kind, &t.Category, &createdAt); err != nil {
		return core.Transaction{}, err
	}
	t.Kind = core.Kind(kind)
	ts, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	t.CreatedAt = ts
	return t, nil
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()
	out := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, storageErr("scan transaction", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate transactions", err)
	}
	return out, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, core.ErrStorage, err)
}
