package memory

import (
	"context"
	"testing"
	"time"

	"finbot/internal/core"
	"finbot/internal/ledger"
)

var _ ledger.Repository = (*Store)(nil)

func TestStoreTransactions(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	s := NewWithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})
	ctx := context.Background()

	a, err := s.InsertTransaction(ctx, core.Transaction{UserID: 1, Amount: 100, Description: "a", Kind: core.Expense, Category: "другое"})
	if err != nil || a.ID != 1 {
		t.Fatalf("unexpected insert: %+v, %v", a, err)
	}
	s.InsertTransaction(ctx, core.Transaction{UserID: 1, Amount: 200, Description: "b", Kind: core.Income, Category: core.IncomeCategory})
	s.InsertTransaction(ctx, core.Transaction{UserID: 2, Amount: 300, Description: "c", Kind: core.Expense, Category: "другое"})

	list, _ := s.ListTransactions(ctx, 1, 0)
	if len(list) != 2 || list[0].Description != "b" {
		t.Fatalf("expected newest first: %+v", list)
	}
	if one, _ := s.ListTransactions(ctx, 1, 1); len(one) != 1 {
		t.Fatalf("limit ignored: %+v", one)
	}

	stats, _ := s.Statistics(ctx, 1)
	if stats != (core.Statistics{Count: 2, TotalIncome: 200, TotalExpense: 100, Balance: 100}) {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	desc := "новое"
	if ok, _ := s.UpdateTransaction(ctx, a.ID, core.TransactionPatch{Description: &desc}); !ok {
		t.Fatalf("update should succeed")
	}
	if got, _ := s.GetTransaction(ctx, a.ID); got.Description != "новое" {
		t.Fatalf("update not applied: %+v", got)
	}
	if ok, _ := s.UpdateTransaction(ctx, a.ID, core.TransactionPatch{}); ok {
		t.Fatalf("empty patch should report false")
	}

	if n, _ := s.ClearTransactions(ctx, 1); n != 2 {
		t.Fatalf("clear removed %d, want 2", n)
	}
	if got, _ := s.GetTransaction(ctx, a.ID); got != nil {
		t.Fatalf("cleared transaction still visible")
	}
	if rest, _ := s.ListTransactions(ctx, 2, 0); len(rest) != 1 {
		t.Fatalf("other user affected: %+v", rest)
	}
}

func TestStoreRules(t *testing.T) {
	s := New()
	ctx := context.Background()
	if ok, _ := s.AddCategoryRule(ctx, core.CategoryRule{UserID: 1, Name: "Freelance", Keywords: []string{"project"}}); !ok {
		t.Fatalf("first add should succeed")
	}
	if ok, _ := s.AddCategoryRule(ctx, core.CategoryRule{UserID: 1, Name: " Freelance ", Keywords: []string{"x"}}); ok {
		t.Fatalf("duplicate should be rejected")
	}
	rules, _ := s.CategoryRules(ctx, 1)
	if len(rules) != 1 || rules[0].Keywords[0] != "project" {
		t.Fatalf("duplicate must not mutate existing rule: %+v", rules)
	}
	if ok, _ := s.DeleteCategoryRule(ctx, 1, "Freelance"); !ok {
		t.Fatalf("delete should succeed")
	}
	if ok, _ := s.DeleteCategoryRule(ctx, 1, "Freelance"); ok {
		t.Fatalf("second delete should fail")
	}
}
