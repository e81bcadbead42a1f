// Package core provides the finance domain types and the parsing of user entries.
//
// This file contains the parsers for free-text entries such as "500 еда" or
// "+50000 зарплата" and for comma separated keyword lists.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// Entry is a parsed new-transaction message.
type Entry struct {
	Amount      int64
	Description string
	Kind        Kind
}

// ParseEntry parses "<amount> [description]" where a leading '+' marks income.
//
// Examples:
//
//	ParseEntry("500 еда")          -> {500, "еда", expense}
//	ParseEntry("+50000 зарплата")  -> {50000, "зарплата", income}
//	ParseEntry("1500")             -> {1500, "без категории", expense}
//	ParseEntry("еда 500")          -> ErrMalformedEntry
func ParseEntry(text string) (Entry, error) {
	text = strings.TrimSpace(text)
	kind := Expense
	if strings.HasPrefix(text, "+") {
		kind = Income
		text = strings.TrimSpace(text[1:])
	}

	head, rest := splitFirstField(text)
	amount, err := parseAmountToken(head)
	if err != nil {
		return Entry{}, err
	}

	description := strings.TrimSpace(rest)
	if description == "" {
		description = DefaultDescription
	}

	return Entry{Amount: amount, Description: description, Kind: kind}, nil
}

// ParseAmountInput parses a bare amount typed during an amount edit.
// "+N" means income and "N" means expense.
func ParseAmountInput(text string) (int64, Kind, error) {
	text = strings.TrimSpace(text)
	kind := Expense
	if strings.HasPrefix(text, "+") {
		kind = Income
		text = strings.TrimSpace(text[1:])
	}
	amount, err := parseAmountToken(text)
	if err != nil {
		return 0, "", err
	}
	return amount, kind, nil
}

// ParseKeywords splits a comma separated keyword list, trimming blanks.
func ParseKeywords(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// FormatAmount renders an integer amount with comma thousands separators.
func FormatAmount(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func parseAmountToken(tok string) (int64, error) {
	if tok == "" {
		return 0, ErrMalformedEntry
	}
	v, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, ErrMalformedEntry
	}
	if v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

func splitFirstField(s string) (string, string) {
	idx := strings.IndexFunc(s, unicode.IsSpace)
	if idx < 0 {
		return s, ""
	}
	return s[:idx], s[idx:]
}
