package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"finbot/internal/amqp"
	"finbot/internal/cache"
	"finbot/internal/core"
	"finbot/internal/storage/memory"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []*amqp.TransactionEvent
	err    error
}

func (f *fakePublisher) PublishEvent(_ context.Context, ev *amqp.TransactionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

func (f *fakePublisher) types() []amqp.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]amqp.EventType, len(f.events))
	for i, ev := range f.events {
		out[i] = ev.Type
	}
	return out
}

func newService(t *testing.T, opts ...Option) (*LedgerService, *fakePublisher) {
	t.Helper()
	pub := &fakePublisher{}
	opts = append([]Option{WithPublisher(pub)}, opts...)
	return NewLedgerService(memory.New(), opts...), pub
}

func TestAddClassifiesExpenses(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	tx, err := svc.Add(ctx, 1, 500, "food", core.Expense)
	if err != nil {
		t.Fatal(err)
	}
	if tx.Category != "еда" {
		t.Fatalf("category = %q, want еда", tx.Category)
	}

	income, err := svc.Add(ctx, 1, 50000, "salary", core.Income)
	if err != nil {
		t.Fatal(err)
	}
	if income.Category != core.IncomeCategory {
		t.Fatalf("income category = %q", income.Category)
	}

	plain, _ := svc.Add(ctx, 1, 10, "   ", core.Expense)
	if plain.Description != core.DefaultDescription {
		t.Fatalf("blank description should default, got %q", plain.Description)
	}
}

func TestAddRejectsBadInput(t *testing.T) {
	svc, pub := newService(t)
	ctx := context.Background()
	if _, err := svc.Add(ctx, 1, 0, "x", core.Expense); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.Add(ctx, 1, 5, "x", "transfer"); !errors.Is(err, core.ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
	if len(pub.types()) != 0 {
		t.Fatalf("rejected adds must not publish")
	}
}

func TestScenarioAddThenClear(t *testing.T) {
	svc, pub := newService(t)
	ctx := context.Background()

	svc.Add(ctx, 1, 500, "food", core.Expense)
	svc.Add(ctx, 1, 50000, "salary", core.Income)

	stats, _ := svc.Statistics(ctx, 1)
	if stats != (core.Statistics{Count: 2, TotalIncome: 50000, TotalExpense: 500, Balance: 49500}) {
		t.Fatalf("unexpected stats %+v", stats)
	}

	if _, err := svc.Clear(ctx, 1); err != nil {
		t.Fatal(err)
	}
	list, _ := svc.List(ctx, 1, 0)
	if len(list) != 0 {
		t.Fatalf("list should be empty after clear: %+v", list)
	}
	stats, _ = svc.Statistics(ctx, 1)
	if stats != (core.Statistics{}) {
		t.Fatalf("stats should be zero after clear: %+v", stats)
	}

	want := []amqp.EventType{amqp.EventCreated, amqp.EventCreated, amqp.EventCleared}
	got := pub.types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
}

func TestDuplicateRuleScenario(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	ok, err := svc.AddCategoryRule(ctx, 1, "Freelance", []string{"project", "upwork"})
	if err != nil || !ok {
		t.Fatalf("first add: %v, %v", ok, err)
	}
	ok, err = svc.AddCategoryRule(ctx, 1, "Freelance", []string{"other"})
	if err != nil || ok {
		t.Fatalf("duplicate: %v, %v", ok, err)
	}
	rules, _ := svc.CategoryRules(ctx, 1)
	if len(rules) != 1 || len(rules[0].Keywords) != 2 {
		t.Fatalf("rule set changed by duplicate: %+v", rules)
	}

	tx, _ := svc.Add(ctx, 1, 3000, "upwork payout", core.Expense)
	if tx.Category != "Freelance" {
		t.Fatalf("personal rule should win, got %q", tx.Category)
	}
}

func TestRulesCacheInvalidation(t *testing.T) {
	rulesCache := cache.NewLRUCache[[]core.CategoryRule](16, time.Hour)
	svc, _ := newService(t, WithRulesCache(rulesCache))
	ctx := context.Background()

	if c, _ := svc.Classify(ctx, 1, "latte"); c != core.DefaultCategory {
		t.Fatalf("unexpected category %q", c)
	}
	if rulesCache.Size() != 1 {
		t.Fatalf("rules should be cached after classification")
	}

	svc.AddCategoryRule(ctx, 1, "Кофе", []string{"latte"})
	if c, _ := svc.Classify(ctx, 1, "latte"); c != "Кофе" {
		t.Fatalf("new rule not visible, got %q", c)
	}

	svc.DeleteCategoryRule(ctx, 1, "Кофе")
	if c, _ := svc.Classify(ctx, 1, "latte"); c != core.DefaultCategory {
		t.Fatalf("deleted rule still applied, got %q", c)
	}
}

func TestUpdateDoesNotRederiveCategory(t *testing.T) {
	svc, pub := newService(t)
	ctx := context.Background()
	tx, _ := svc.Add(ctx, 1, 100, "такси", core.Expense)

	kind := core.Income
	ok, err := svc.Update(ctx, tx.ID, core.TransactionPatch{Kind: &kind})
	if err != nil || !ok {
		t.Fatalf("update: %v, %v", ok, err)
	}
	got, _ := svc.Get(ctx, tx.ID)
	if got.Category != "транспорт" {
		t.Fatalf("store must not recompute category, got %q", got.Category)
	}
	if types := pub.types(); types[len(types)-1] != amqp.EventUpdated {
		t.Fatalf("expected update event, got %v", types)
	}

	if ok, _ := svc.Update(ctx, 999, core.TransactionPatch{Kind: &kind}); ok {
		t.Fatalf("missing id should report false")
	}
}

func TestDeletePublishesOwner(t *testing.T) {
	svc, pub := newService(t)
	ctx := context.Background()
	tx, _ := svc.Add(ctx, 9, 100, "кино", core.Expense)

	if ok, _ := svc.Delete(ctx, tx.ID); !ok {
		t.Fatalf("delete should succeed")
	}
	pub.mu.Lock()
	last := pub.events[len(pub.events)-1]
	pub.mu.Unlock()
	if last.Type != amqp.EventDeleted || last.UserID != 9 || last.TransactionID != tx.ID {
		t.Fatalf("unexpected delete event %+v", last)
	}
	if ok, _ := svc.Delete(ctx, tx.ID); ok {
		t.Fatalf("second delete should report false")
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewLedgerService(memory.New(), WithPublisher(pub))
	if _, err := svc.Add(context.Background(), 1, 10, "x", core.Expense); err != nil {
		t.Fatalf("publish errors must not surface: %v", err)
	}
}

func TestMonthRange(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)
	now := time.Date(2024, 12, 31, 22, 30, 0, 0, time.UTC) // already January in MSK
	svc := NewLedgerService(memory.New(), WithClock(func() time.Time { return now }), WithLocation(loc))

	from, to := svc.MonthRange(0, 0)
	if from.Year() != 2025 || from.Month() != time.January || to.Month() != time.February {
		t.Fatalf("unexpected current month range %v - %v", from, to)
	}

	from, to = svc.MonthRange(2024, time.February)
	if from.Day() != 1 || to.Sub(from) != 29*24*time.Hour {
		t.Fatalf("unexpected leap february range %v - %v", from, to)
	}
}

func TestListByMonth(t *testing.T) {
	clock := time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC)
	store := memory.NewWithClock(func() time.Time { return clock })
	svc := NewLedgerService(store, WithClock(func() time.Time { return clock }), WithLocation(time.UTC))
	ctx := context.Background()

	svc.Add(ctx, 1, 100, "март", core.Expense)
	clock = time.Date(2024, 4, 1, 1, 0, 0, 0, time.UTC)
	svc.Add(ctx, 1, 200, "апрель", core.Expense)

	march, _ := svc.ListByMonth(ctx, 1, 2024, time.March)
	if len(march) != 1 || march[0].Description != "март" {
		t.Fatalf("unexpected march rows %+v", march)
	}
	current, _ := svc.ListByMonth(ctx, 1, 0, 0)
	if len(current) != 1 || current[0].Description != "апрель" {
		t.Fatalf("unexpected current month rows %+v", current)
	}
}

func TestAllCategoriesAndNames(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	svc.AddCategoryRule(ctx, 1, "Фриланс", []string{"проект"})

	all, _ := svc.AllCategories(ctx, 1)
	if all[len(all)-1].Name != "Фриланс" {
		t.Fatalf("personal category should be appended: %+v", all)
	}
	names, _ := svc.CategoryNames(ctx, 1)
	if names[len(names)-1] != core.DefaultCategory {
		t.Fatalf("default label should be offered last: %v", names)
	}
	if len(svc.StandardCategories()) != len(all)-1 {
		t.Fatalf("standard list should exclude personal categories")
	}
}

func TestCloseWithoutPublisher(t *testing.T) {
	svc := NewLedgerService(memory.New())
	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
