// Package memory is an in-process mirror sink used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	ports "finbot/internal/sheets"
)

type Sink struct {
	mu   sync.Mutex
	rows []ports.MirrorRow
	err  error
}

var _ ports.RowWriter = (*Sink)(nil)

func New() *Sink {
	return &Sink{}
}

// AppendRow stores the row and returns a synthetic row reference.
func (s *Sink) AppendRow(_ context.Context, row ports.MirrorRow) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Sink) Rows() []ports.MirrorRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.MirrorRow(nil), s.rows...)
}

// FailWith makes subsequent appends return err; nil restores normal operation.
func (s *Sink) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
