package categories

import (
	"context"
	"fmt"
	"strings"

	"finbot/internal/core"
)

// RuleSource provides a user's personal rules in insertion order.
type RuleSource interface {
	CategoryRules(ctx context.Context, userID int64) ([]core.CategoryRule, error)
}

// Classifier maps descriptions to categories.
type Classifier struct {
	rules RuleSource
	table *Table
}

// NewClassifier builds a classifier; a nil table means the embedded one.
func NewClassifier(rules RuleSource, table *Table) *Classifier {
	if table == nil {
		table = DefaultTable()
	}
	return &Classifier{rules: rules, table: table}
}

// Classify returns the category for description. Personal rules are tried
// before the global table; unmatched text gets the table's default label.
func (c *Classifier) Classify(ctx context.Context, userID int64, description string) (string, error) {
	var personal []core.CategoryRule
	if c.rules != nil {
		var err error
		personal, err = c.rules.CategoryRules(ctx, userID)
		if err != nil {
			return "", fmt.Errorf("load category rules: %w", err)
		}
	}
	return c.ClassifyWith(personal, description), nil
}

// ClassifyWith classifies against an already loaded rule set.
func (c *Classifier) ClassifyWith(personal []core.CategoryRule, description string) string {
	lower := strings.ToLower(description)
	if name, ok := MatchRules(personal, lower); ok {
		return name
	}
	if name, ok := c.table.Match(lower); ok {
		return name
	}
	return c.table.Default
}

// Table returns the global table in use.
func (c *Classifier) Table() *Table {
	return c.table
}

// MatchRules applies personal rules in order; the first rule with a keyword
// contained in lower wins.
func MatchRules(rules []core.CategoryRule, lower string) (string, bool) {
	for _, r := range rules {
		for _, kw := range r.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" && strings.Contains(lower, kw) {
				return r.Name, true
			}
		}
	}
	return "", false
}

// Merge builds the display list: global categories in table order, with a
// personal rule replacing the keywords of a same-named global entry, followed
// by the personal-only categories in insertion order.
func Merge(table *Table, personal []core.CategoryRule) []core.Category {
	merged := table.List()
	index := make(map[string]int, len(merged))
	for i, c := range merged {
		index[c.Name] = i
	}
	for _, r := range personal {
		kws := append([]string(nil), r.Keywords...)
		if i, ok := index[r.Name]; ok {
			merged[i].Keywords = kws
			continue
		}
		index[r.Name] = len(merged)
		merged = append(merged, core.Category{Name: r.Name, Keywords: kws})
	}
	return merged
}
