// Package sheets defines the spreadsheet mirror port and its row format.
package sheets

import (
	"context"
	"strconv"
	"time"

	"finbot/internal/core"
)

// Header is the first row of a mirror sheet. Values returns cells in this order.
var Header = []string{
	"event_id", "event", "recorded_at", "user_id", "transaction_id",
	"created_at", "type", "amount", "category", "description",
}

// MirrorRow is one appended line of the audit sheet. Delete and clear events
// produce tombstone rows that carry only the identifiers.
type MirrorRow struct {
	EventID       string
	Event         string
	RecordedAt    time.Time
	UserID        int64
	TransactionID int64
	CreatedAt     time.Time
	Kind          core.Kind
	Amount        int64
	Category      string
	Description   string
}

// SnapshotRow copies t into a row for the given event.
func SnapshotRow(eventID, event string, recordedAt time.Time, t core.Transaction) MirrorRow {
	return MirrorRow{
		EventID:       eventID,
		Event:         event,
		RecordedAt:    recordedAt,
		UserID:        t.UserID,
		TransactionID: t.ID,
		CreatedAt:     t.CreatedAt,
		Kind:          t.Kind,
		Amount:        t.Amount,
		Category:      t.Category,
		Description:   t.Description,
	}
}

// Tombstone reports whether the row marks a removal.
func (r MirrorRow) Tombstone() bool {
	return r.Kind == ""
}

// Values renders the row as sheet cells.
func (r MirrorRow) Values() []any {
	txID, created, amount := "", "", ""
	if r.TransactionID != 0 {
		txID = strconv.FormatInt(r.TransactionID, 10)
	}
	if !r.CreatedAt.IsZero() {
		created = r.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !r.Tombstone() {
		amount = strconv.FormatInt(r.Amount, 10)
	}
	return []any{
		r.EventID,
		r.Event,
		r.RecordedAt.UTC().Format(time.RFC3339),
		strconv.FormatInt(r.UserID, 10),
		txID,
		created,
		string(r.Kind),
		amount,
		r.Category,
		r.Description,
	}
}

// RowWriter appends mirror rows and returns a reference to the written range.
type RowWriter interface {
	AppendRow(ctx context.Context, row MirrorRow) (rowRef string, err error)
}
