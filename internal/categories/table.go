// Package categories assigns category labels to transaction descriptions by
// keyword matching: personal rules first, then the global table, then the
// default label.
package categories

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"finbot/internal/core"
)

//go:embed categories.yaml
var defaultTableYAML []byte

// Entry is one global category and its keywords.
type Entry struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Table is the ordered global keyword table.
type Table struct {
	Default    string  `yaml:"default"`
	Categories []Entry `yaml:"categories"`
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// DefaultTable returns the embedded global table.
func DefaultTable() *Table {
	defaultOnce.Do(func() {
		t, err := ParseTable(defaultTableYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded categories table: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// LoadTable reads a table from a YAML file. An empty path yields the embedded table.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories file: %w", err)
	}
	return ParseTable(data)
}

// ParseTable decodes and normalizes a YAML table.
func ParseTable(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	if strings.TrimSpace(t.Default) == "" {
		t.Default = core.DefaultCategory
	}

	seen := make(map[string]struct{}, len(t.Categories))
	entries := make([]Entry, 0, len(t.Categories))
	for i, e := range t.Categories {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("category #%d has no name", i+1)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("category %q declared twice", name)
		}
		seen[name] = struct{}{}
		entries = append(entries, Entry{Name: name, Keywords: normalizeKeywords(e.Keywords)})
	}
	t.Categories = entries
	return &t, nil
}

// Match returns the first category whose keyword occurs in the lowercased text.
func (t *Table) Match(lower string) (string, bool) {
	for _, e := range t.Categories {
		if containsAny(lower, e.Keywords) {
			return e.Name, true
		}
	}
	return "", false
}

// List returns a copy of the table as display categories.
func (t *Table) List() []core.Category {
	out := make([]core.Category, len(t.Categories))
	for i, e := range t.Categories {
		out[i] = core.Category{Name: e.Name, Keywords: append([]string(nil), e.Keywords...)}
	}
	return out
}

// Names returns the category names in table order.
func (t *Table) Names() []string {
	out := make([]string, len(t.Categories))
	for i, e := range t.Categories {
		out[i] = e.Name
	}
	return out
}

func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, kw := range in {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		out = append(out, kw)
	}
	return out
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
