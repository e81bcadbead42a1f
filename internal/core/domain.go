package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const (
	// IncomeCategory is the fixed category of every income transaction.
	IncomeCategory = "доход"
	// DefaultCategory is returned by the classifier when nothing matches.
	DefaultCategory = "другое"
	// DefaultDescription is used when an entry has no text after the amount.
	DefaultDescription = "без категории"
)

type (
	Kind string

	Transaction struct {
		ID          int64
		UserID      int64
		Amount      int64 // smallest currency unit
		Description string
		Kind        Kind
		Category    string
		CreatedAt   time.Time
	}

	// CategoryRule is a user-defined category with the keywords that select it.
	CategoryRule struct {
		UserID   int64
		Name     string
		Keywords []string
	}

	// Category is a name/keywords pair used for listings.
	Category struct {
		Name     string
		Keywords []string
	}

	// TransactionPatch carries the fields to change; nil fields are left untouched.
	TransactionPatch struct {
		Amount      *int64
		Description *string
		Kind        *Kind
		Category    *string
	}

	Statistics struct {
		Count        int64
		TotalIncome  int64
		TotalExpense int64
		Balance      int64
	}
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrStorage    = errors.New("storage failure")

	ErrInvalidAmount    = fmt.Errorf("%w: amount must be a positive integer", ErrValidation)
	ErrEmptyDescription = fmt.Errorf("%w: empty description", ErrValidation)
	ErrInvalidKind      = fmt.Errorf("%w: unknown transaction kind", ErrValidation)
	ErrMalformedEntry   = fmt.Errorf("%w: malformed entry", ErrValidation)
	ErrMalformedCommand = fmt.Errorf("%w: malformed command", ErrValidation)
	ErrEmptyCategory    = fmt.Errorf("%w: empty category name", ErrValidation)
	ErrNoKeywords       = fmt.Errorf("%w: category needs at least one keyword", ErrValidation)
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

// Opposite flips income to expense and back.
func (k Kind) Opposite() Kind {
	if k == Income {
		return Expense
	}
	return Income
}

func (k Kind) String() string {
	return string(k)
}

func (t Transaction) Validate() error {
	if t.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing.
func (p TransactionPatch) IsEmpty() bool {
	return p.Amount == nil && p.Description == nil && p.Kind == nil && p.Category == nil
}

// Validate checks the fields that are set.
func (p TransactionPatch) Validate() error {
	if p.Amount != nil && *p.Amount <= 0 {
		return ErrInvalidAmount
	}
	if p.Description != nil {
		if strings.TrimSpace(*p.Description) == "" {
			return ErrEmptyDescription
		}
	}
	if p.Kind != nil && !p.Kind.Valid() {
		return ErrInvalidKind
	}
	if p.Category != nil && strings.TrimSpace(*p.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// Apply returns a copy of t with the patch applied.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Kind != nil {
		t.Kind = *p.Kind
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	return t
}

func (r CategoryRule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyCategory
	}
	if len(r.Keywords) == 0 {
		return ErrNoKeywords
	}
	return nil
}

// NewStatistics derives the balance from the two totals.
func NewStatistics(count, income, expense int64) Statistics {
	return Statistics{
		Count:        count,
		TotalIncome:  income,
		TotalExpense: expense,
		Balance:      income - expense,
	}
}
