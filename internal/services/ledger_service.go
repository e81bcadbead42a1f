package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"finbot/internal/amqp"
	"finbot/internal/cache"
	"finbot/internal/categories"
	"finbot/internal/core"
	"finbot/internal/ledger"
)

// EventPublisher sends change notifications to the mirror worker.
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev *amqp.TransactionEvent) error
}

// LedgerService orchestrates transactions and category rules across the
// repository, the classifier and the event publisher.
type LedgerService struct {
	repo       ledger.Repository
	classifier *categories.Classifier
	publisher  EventPublisher
	rules      cache.Cache[[]core.CategoryRule]
	now        func() time.Time
	loc        *time.Location
	table      *categories.Table
}

type Option func(*LedgerService)

// WithPublisher enables change events. A nil publisher disables them.
func WithPublisher(p EventPublisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

// WithRulesCache caches per-user rules between classifications.
func WithRulesCache(c cache.Cache[[]core.CategoryRule]) Option {
	return func(s *LedgerService) { s.rules = c }
}

// WithTable replaces the global category table.
func WithTable(t *categories.Table) Option {
	return func(s *LedgerService) { s.table = t }
}

func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

// WithLocation sets the time zone used to resolve calendar months.
func WithLocation(loc *time.Location) Option {
	return func(s *LedgerService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewLedgerService(repo ledger.Repository, opts ...Option) *LedgerService {
	s := &LedgerService{
		repo: repo,
		now:  time.Now,
		loc:  time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.classifier = categories.NewClassifier(s, s.table)
	return s
}

// Add records a new transaction. Expenses are classified now and the label
// is kept as is; income always carries the income category.
func (s *LedgerService) Add(ctx context.Context, userID, amount int64, description string, kind core.Kind) (core.Transaction, error) {
	if amount <= 0 {
		return core.Transaction{}, core.ErrInvalidAmount
	}
	if !kind.Valid() {
		return core.Transaction{}, core.ErrInvalidKind
	}
	description = strings.TrimSpace(description)
	if description == "" {
		description = core.DefaultDescription
	}

	category, err := s.DeriveCategory(ctx, userID, kind, description)
	if err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.repo.InsertTransaction(ctx, core.Transaction{
		UserID:      userID,
		Amount:      amount,
		Description: description,
		Kind:        kind,
		Category:    category,
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publish(ctx, amqp.EventCreated, saved.ID, userID)
	return saved, nil
}

// DeriveCategory returns the category a transaction of kind with description gets.
func (s *LedgerService) DeriveCategory(ctx context.Context, userID int64, kind core.Kind, description string) (string, error) {
	if kind == core.Income {
		return core.IncomeCategory, nil
	}
	category, err := s.classifier.Classify(ctx, userID, description)
	if err != nil {
		return "", fmt.Errorf("classify: %w", err)
	}
	return category, nil
}

// Classify exposes the classifier for callers that re-derive categories.
func (s *LedgerService) Classify(ctx context.Context, userID int64, description string) (string, error) {
	return s.classifier.Classify(ctx, userID, description)
}

func (s *LedgerService) List(ctx context.Context, userID int64, limit int) ([]core.Transaction, error) {
	return s.repo.ListTransactions(ctx, userID, limit)
}

// ListByMonth returns a calendar month's transactions, newest first. A zero
// year or month selects the current month.
func (s *LedgerService) ListByMonth(ctx context.Context, userID int64, year int, month time.Month) ([]core.Transaction, error) {
	from, to := s.MonthRange(year, month)
	return s.repo.ListTransactionsBetween(ctx, userID, from, to)
}

// MonthRange returns [first instant, first instant of next month) in the
// service location.
func (s *LedgerService) MonthRange(year int, month time.Month) (time.Time, time.Time) {
	if year == 0 || month == 0 {
		now := s.now().In(s.loc)
		year, month = now.Year(), now.Month()
	}
	from := time.Date(year, month, 1, 0, 0, 0, 0, s.loc)
	return from, from.AddDate(0, 1, 0)
}

// Now returns the service clock reading in its location.
func (s *LedgerService) Now() time.Time {
	return s.now().In(s.loc)
}

func (s *LedgerService) Clear(ctx context.Context, userID int64) (int64, error) {
	n, err := s.repo.ClearTransactions(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, amqp.EventCleared, 0, userID)
	return n, nil
}

// Get returns nil, nil when the transaction does not exist.
func (s *LedgerService) Get(ctx context.Context, id int64) (*core.Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

// Update applies patch as given; it never re-derives the category.
func (s *LedgerService) Update(ctx context.Context, id int64, patch core.TransactionPatch) (bool, error) {
	ok, err := s.repo.UpdateTransaction(ctx, id, patch)
	if err != nil || !ok {
		return ok, err
	}
	if s.publisher != nil {
		if t, err := s.repo.GetTransaction(ctx, id); err == nil && t != nil {
			s.publish(ctx, amqp.EventUpdated, id, t.UserID)
		}
	}
	return true, nil
}

func (s *LedgerService) Delete(ctx context.Context, id int64) (bool, error) {
	var owner int64
	if s.publisher != nil {
		if t, err := s.repo.GetTransaction(ctx, id); err == nil && t != nil {
			owner = t.UserID
		}
	}
	ok, err := s.repo.DeleteTransaction(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	if owner != 0 {
		s.publish(ctx, amqp.EventDeleted, id, owner)
	}
	return true, nil
}

func (s *LedgerService) Statistics(ctx context.Context, userID int64) (core.Statistics, error) {
	return s.repo.Statistics(ctx, userID)
}

// AddCategoryRule stores a personal rule; false means the name is taken.
func (s *LedgerService) AddCategoryRule(ctx context.Context, userID int64, name string, keywords []string) (bool, error) {
	ok, err := s.repo.AddCategoryRule(ctx, core.CategoryRule{UserID: userID, Name: name, Keywords: keywords})
	if err != nil {
		return false, err
	}
	if ok {
		s.invalidateRules(userID)
		slog.InfoContext(ctx, "Category rule added", "user_id", userID, "name", name, "keywords", len(keywords))
	}
	return ok, nil
}

// CategoryRules returns the user's rules in insertion order.
func (s *LedgerService) CategoryRules(ctx context.Context, userID int64) ([]core.CategoryRule, error) {
	key := rulesKey(userID)
	if s.rules != nil {
		if rules, ok := s.rules.Get(key); ok {
			return rules, nil
		}
	}
	rules, err := s.repo.CategoryRules(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.rules != nil {
		s.rules.Set(key, rules)
	}
	return rules, nil
}

func (s *LedgerService) DeleteCategoryRule(ctx context.Context, userID int64, name string) (bool, error) {
	ok, err := s.repo.DeleteCategoryRule(ctx, userID, name)
	if err != nil {
		return false, err
	}
	if ok {
		s.invalidateRules(userID)
	}
	return ok, nil
}

// AllCategories lists global categories merged with the user's own.
func (s *LedgerService) AllCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rules, err := s.CategoryRules(ctx, userID)
	if err != nil {
		return nil, err
	}
	return categories.Merge(s.classifier.Table(), rules), nil
}

// StandardCategories lists the global table only.
func (s *LedgerService) StandardCategories() []core.Category {
	return s.classifier.Table().List()
}

// CategoryNames returns the labels offered when a user picks a category by hand.
func (s *LedgerService) CategoryNames(ctx context.Context, userID int64) ([]string, error) {
	all, err := s.AllCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(all)+1)
	for _, c := range all {
		names = append(names, c.Name)
	}
	return append(names, s.classifier.Table().Default), nil
}

func (s *LedgerService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *LedgerService) invalidateRules(userID int64) {
	if s.rules != nil {
		s.rules.Delete(rulesKey(userID))
	}
}

func (s *LedgerService) publish(ctx context.Context, eventType amqp.EventType, transactionID, userID int64) {
	if s.publisher == nil {
		return
	}
	ev := amqp.NewTransactionEvent(eventType, transactionID, userID)
	if err := s.publisher.PublishEvent(ctx, ev); err != nil {
		// The local write already succeeded.
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"type", eventType,
			"transaction_id", transactionID,
			"error", err)
	}
}

// Close closes the repository and the publisher when it can be closed.
func (s *LedgerService) Close() error {
	var errs []error
	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	return errors.Join(errs...)
}

func rulesKey(userID int64) string {
	return "rules:" + strconv.FormatInt(userID, 10)
}
