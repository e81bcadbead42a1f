package categories

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"finbot/internal/core"
)

type fakeRules struct {
	rules map[int64][]core.CategoryRule
	err   error
	calls int
}

func (f *fakeRules) CategoryRules(_ context.Context, userID int64) ([]core.CategoryRule, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rules[userID], nil
}

func TestDefaultTableLoads(t *testing.T) {
	tbl := DefaultTable()
	if tbl.Default != core.DefaultCategory {
		t.Fatalf("default = %q, want %q", tbl.Default, core.DefaultCategory)
	}
	if len(tbl.Categories) == 0 {
		t.Fatalf("embedded table is empty")
	}
	if tbl.Names()[0] != "еда" {
		t.Fatalf("table order not preserved: %v", tbl.Names())
	}
}

func TestClassifyGlobalTable(t *testing.T) {
	c := NewClassifier(nil, nil)
	cases := []struct {
		desc string
		want string
	}{
		{"Продукты в Пятерочке", "еда"},
		{"ТАКСИ домой", "транспорт"},
		{"аптека", "здоровье"},
		{"", core.DefaultCategory},
		{"что-то непонятное", core.DefaultCategory},
	}
	for _, tc := range cases {
		got, err := c.Classify(context.Background(), 1, tc.desc)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", tc.desc, err)
		}
		if got != tc.want {
			t.Fatalf("Classify(%q) = %q, want %q", tc.desc, got, tc.want)
		}
	}
}

func TestPersonalRulesWinOverGlobal(t *testing.T) {
	src := &fakeRules{rules: map[int64][]core.CategoryRule{
		7: {
			{UserID: 7, Name: "Кофейни", Keywords: []string{"кофе"}},
			{UserID: 7, Name: "Фриланс", Keywords: []string{"проект", "кофе"}},
		},
	}}
	c := NewClassifier(src, nil)

	got, err := c.Classify(context.Background(), 7, "Кофе у дома")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Кофейни" {
		t.Fatalf("first inserted rule should win, got %q", got)
	}

	// Another user's rules do not apply.
	got, _ = c.Classify(context.Background(), 8, "кофе у дома")
	if got != "еда" {
		t.Fatalf("user 8 should fall back to global table, got %q", got)
	}
}

func TestClassifyIsStable(t *testing.T) {
	src := &fakeRules{rules: map[int64][]core.CategoryRule{
		1: {{Name: "Фриланс", Keywords: []string{"проект"}}},
	}}
	c := NewClassifier(src, nil)
	first, _ := c.Classify(context.Background(), 1, "оплата проекта")
	for i := 0; i < 5; i++ {
		again, _ := c.Classify(context.Background(), 1, "оплата проекта")
		if again != first {
			t.Fatalf("classification changed between calls: %q vs %q", first, again)
		}
	}
	if first != "Фриланс" {
		t.Fatalf("got %q, want Фриланс", first)
	}
}

func TestClassifyRuleSourceError(t *testing.T) {
	boom := errors.New("db down")
	c := NewClassifier(&fakeRules{err: boom}, nil)
	if _, err := c.Classify(context.Background(), 1, "такси"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped rule error, got %v", err)
	}
}

func TestBlankKeywordsNeverMatch(t *testing.T) {
	rules := []core.CategoryRule{{Name: "Пусто", Keywords: []string{" ", ""}}}
	if _, ok := MatchRules(rules, "что угодно"); ok {
		t.Fatalf("blank keywords must not match")
	}
}

func TestParseTable(t *testing.T) {
	tbl, err := ParseTable([]byte(`
categories:
  - name: Б
    keywords: [" Бар ", ""]
  - name: А
    keywords: [бар]
`))
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Default != core.DefaultCategory {
		t.Fatalf("missing default should fall back to %q", core.DefaultCategory)
	}
	if !reflect.DeepEqual(tbl.Categories[0].Keywords, []string{"бар"}) {
		t.Fatalf("keywords not normalized: %v", tbl.Categories[0].Keywords)
	}
	if name, _ := tbl.Match("бар на углу"); name != "Б" {
		t.Fatalf("declared order should decide, got %q", name)
	}

	if _, err := ParseTable([]byte("categories:\n  - name: x\n  - name: x\n")); err == nil {
		t.Fatalf("duplicate names should be rejected")
	}
	if _, err := ParseTable([]byte("categories:\n  - keywords: [a]\n")); err == nil {
		t.Fatalf("nameless category should be rejected")
	}
}

func TestMerge(t *testing.T) {
	tbl := &Table{Default: "другое", Categories: []Entry{
		{Name: "еда", Keywords: []string{"хлеб"}},
		{Name: "транспорт", Keywords: []string{"такси"}},
	}}
	personal := []core.CategoryRule{
		{Name: "транспорт", Keywords: []string{"самокат"}},
		{Name: "Фриланс", Keywords: []string{"проект"}},
	}
	got := Merge(tbl, personal)
	want := []core.Category{
		{Name: "еда", Keywords: []string{"хлеб"}},
		{Name: "транспорт", Keywords: []string{"самокат"}},
		{Name: "Фриланс", Keywords: []string{"проект"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v\nwant %+v", got, want)
	}
	if tbl.Categories[1].Keywords[0] != "такси" {
		t.Fatalf("merge must not mutate the table")
	}
}
