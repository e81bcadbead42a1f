// Package report aggregates transactions into category breakdowns, month
// summaries and multi-month history.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"finbot/internal/core"
)

// DefaultHistoryMonths is the length of the history report.
const DefaultHistoryMonths = 6

const historyConcurrency = 4

var hundred = decimal.NewFromInt(100)

// CategoryShare is one category's part of the expense total.
type CategoryShare struct {
	Name    string
	Amount  int64
	Percent decimal.Decimal
}

// MonthSummary aggregates one calendar month.
type MonthSummary struct {
	Year       int
	Month      time.Month
	Count      int
	Income     int64
	Expense    int64
	Categories []CategoryShare
}

func (m MonthSummary) Balance() int64 {
	return m.Income - m.Expense
}

func (m MonthSummary) Empty() bool {
	return m.Income == 0 && m.Expense == 0
}

// ChartRenderer turns aggregates into images. Implementations are optional.
type ChartRenderer interface {
	ExpensesChart(ctx context.Context, byCategory map[string]int64) ([]byte, error)
	HistoryChart(ctx context.Context, months []MonthSummary) ([]byte, error)
}

// MonthLister loads a calendar month of a user's transactions.
type MonthLister interface {
	ListByMonth(ctx context.Context, userID int64, year int, month time.Month) ([]core.Transaction, error)
}

// ExpenseBreakdown sums expenses per category, largest first, with each
// category's share of the total rounded to one decimal place.
func ExpenseBreakdown(txs []core.Transaction) ([]CategoryShare, int64) {
	sums := make(map[string]int64)
	var total int64
	for _, t := range txs {
		if t.Kind != core.Expense {
			continue
		}
		category := t.Category
		if category == "" {
			category = core.DefaultCategory
		}
		sums[category] += t.Amount
		total += t.Amount
	}

	shares := make([]CategoryShare, 0, len(sums))
	for name, amount := range sums {
		shares = append(shares, CategoryShare{Name: name, Amount: amount, Percent: Percent(amount, total)})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Amount != shares[j].Amount {
			return shares[i].Amount > shares[j].Amount
		}
		return shares[i].Name < shares[j].Name
	})
	return shares, total
}

// Percent returns part/total*100 rounded to one decimal; zero total gives zero.
func Percent(part, total int64) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part).Mul(hundred).Div(decimal.NewFromInt(total)).Round(1)
}

// Summarize builds a month summary from that month's transactions.
func Summarize(year int, month time.Month, txs []core.Transaction) MonthSummary {
	s := MonthSummary{Year: year, Month: month, Count: len(txs)}
	for _, t := range txs {
		switch t.Kind {
		case core.Income:
			s.Income += t.Amount
		case core.Expense:
			s.Expense += t.Amount
		}
	}
	s.Categories, _ = ExpenseBreakdown(txs)
	return s
}

// ByCategory flattens shares into the map handed to chart renderers.
func ByCategory(shares []CategoryShare) map[string]int64 {
	out := make(map[string]int64, len(shares))
	for _, s := range shares {
		out[s.Name] = s.Amount
	}
	return out
}

// History loads the last n months up to and including now's month and
// returns them oldest first. Months are fetched concurrently.
func History(ctx context.Context, lister MonthLister, userID int64, now time.Time, n int) ([]MonthSummary, error) {
	if n <= 0 {
		n = DefaultHistoryMonths
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	out := make([]MonthSummary, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(historyConcurrency)
	for i := 0; i < n; i++ {
		m := first.AddDate(0, -(n - 1 - i), 0)
		g.Go(func() error {
			txs, err := lister.ListByMonth(ctx, userID, m.Year(), m.Month())
			if err != nil {
				return fmt.Errorf("load %04d-%02d: %w", m.Year(), m.Month(), err)
			}
			out[i] = Summarize(m.Year(), m.Month(), txs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Totals sums income and expense across months.
func Totals(months []MonthSummary) (income, expense int64) {
	for _, m := range months {
		income += m.Income
		expense += m.Expense
	}
	return income, expense
}
