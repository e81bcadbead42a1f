// Package memory is a process-local ledger repository used for development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"finbot/internal/core"
)

type Store struct {
	mu     sync.Mutex
	now    func() time.Time
	nextID int64
	items  []core.Transaction
	rules  []core.CategoryRule
}

func New() *Store {
	return &Store{now: time.Now}
}

// NewWithClock returns a store whose created_at values come from now.
func NewWithClock(now func() time.Time) *Store {
	return &Store{now: now}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) InsertTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t.ID = s.nextID
	t.CreatedAt = s.now().UTC()
	s.items = append(s.items, t)
	return t, nil
}

func (s *Store) ListTransactions(_ context.Context, userID int64, limit int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.filter(func(t core.Transaction) bool { return t.UserID == userID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ListTransactionsBetween(_ context.Context, userID int64, from, to time.Time) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter(func(t core.Transaction) bool {
		return t.UserID == userID && !t.CreatedAt.Before(from) && t.CreatedAt.Before(to)
	}), nil
}

func (s *Store) ClearTransactions(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	var removed int64
	for _, t := range s.items {
		if t.UserID == userID {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	s.items = kept
	return removed, nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (*core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		t := s.items[i]
		return &t, nil
	}
	return nil, nil
}

func (s *Store) UpdateTransaction(_ context.Context, id int64, patch core.TransactionPatch) (bool, error) {
	if patch.IsEmpty() {
		return false, nil
	}
	if err := patch.Validate(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	s.items[i] = patch.Apply(s.items[i])
	return true, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true, nil
}

func (s *Store) Statistics(_ context.Context, userID int64) (core.Statistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count, income, expense int64
	for _, t := range s.items {
		if t.UserID != userID {
			continue
		}
		count++
		if t.Kind == core.Income {
			income += t.Amount
		} else {
			expense += t.Amount
		}
	}
	return core.NewStatistics(count, income, expense), nil
}

func (s *Store) AddCategoryRule(_ context.Context, rule core.CategoryRule) (bool, error) {
	rule.Name = strings.TrimSpace(rule.Name)
	if err := rule.Validate(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rules {
		if r.UserID == rule.UserID && r.Name == rule.Name {
			return false, nil
		}
	}
	rule.Keywords = append([]string(nil), rule.Keywords...)
	s.rules = append(s.rules, rule)
	return true, nil
}

func (s *Store) CategoryRules(_ context.Context, userID int64) ([]core.CategoryRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.CategoryRule{}
	for _, r := range s.rules {
		if r.UserID == userID {
			r.Keywords = append([]string(nil), r.Keywords...)
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) DeleteCategoryRule(_ context.Context, userID int64, name string) (bool, error) {
	name = strings.TrimSpace(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.rules {
		if r.UserID == userID && r.Name == name {
			s.rules = append(s.rules[:i], s.rules[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// filter returns matching items newest first. Callers hold the lock.
func (s *Store) filter(keep func(core.Transaction) bool) []core.Transaction {
	out := []core.Transaction{}
	for _, t := range s.items {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *Store) indexOf(id int64) int {
	for i, t := range s.items {
		if t.ID == id {
			return i
		}
	}
	return -1
}
