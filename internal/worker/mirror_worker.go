package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finbot/internal/amqp"
	"finbot/internal/cache"
	"finbot/internal/core"
	"finbot/internal/sheets"
)

const (
	defaultSeenSize = 4096
	defaultSeenTTL  = time.Hour
)

// TransactionReader loads the current state of a transaction; nil, nil
// means it no longer exists.
type TransactionReader interface {
	GetTransaction(ctx context.Context, id int64) (*core.Transaction, error)
}

// MirrorWorker appends one sheet row per transaction event. Created and
// updated events carry a snapshot read from storage; deletes and clears
// become tombstone rows.
type MirrorWorker struct {
	source TransactionReader
	sink   sheets.RowWriter
	seen   cache.Cache[struct{}]
	now    func() time.Time
}

type Option func(*MirrorWorker)

// WithSeenCache replaces the cache of processed event ids used to drop
// redelivered messages.
func WithSeenCache(c cache.Cache[struct{}]) Option {
	return func(w *MirrorWorker) { w.seen = c }
}

func WithClock(now func() time.Time) Option {
	return func(w *MirrorWorker) { w.now = now }
}

func NewMirrorWorker(source TransactionReader, sink sheets.RowWriter, opts ...Option) *MirrorWorker {
	w := &MirrorWorker{
		source: source,
		sink:   sink,
		seen:   cache.NewLRUCache[struct{}](defaultSeenSize, defaultSeenTTL),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Seen exposes the dedup cache so callers can register it for sweeping.
func (w *MirrorWorker) Seen() cache.Cache[struct{}] {
	return w.seen
}

// HandleEvent mirrors a single event. A returned error asks the broker to
// redeliver it.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	if _, dup := w.seen.Get(ev.ID); dup {
		slog.DebugContext(ctx, "Skipping already mirrored event", "event_id", ev.ID)
		return nil
	}

	slog.InfoContext(ctx, "Processing transaction event",
		"event_id", ev.ID,
		"type", ev.Type,
		"transaction_id", ev.TransactionID,
		"user_id", ev.UserID)

	row, ok, err := w.rowFor(ctx, ev)
	if err != nil {
		return err
	}
	if !ok {
		w.seen.Set(ev.ID, struct{}{})
		return nil
	}

	ref, err := w.sink.AppendRow(ctx, row)
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}
	w.seen.Set(ev.ID, struct{}{})

	slog.InfoContext(ctx, "Transaction event mirrored",
		"event_id", ev.ID,
		"type", ev.Type,
		"sheets_ref", ref)
	return nil
}

func (w *MirrorWorker) rowFor(ctx context.Context, ev *amqp.TransactionEvent) (sheets.MirrorRow, bool, error) {
	recorded := ev.Timestamp
	if recorded.IsZero() {
		recorded = w.now()
	}

	switch ev.Type {
	case amqp.EventCreated, amqp.EventUpdated:
		t, err := w.source.GetTransaction(ctx, ev.TransactionID)
		if err != nil {
			return sheets.MirrorRow{}, false, fmt.Errorf("get transaction %d: %w", ev.TransactionID, err)
		}
		if t == nil {
			// Removed before we got here; its delete event writes the tombstone.
			slog.WarnContext(ctx, "Transaction no longer exists, skipping snapshot",
				"event_id", ev.ID, "transaction_id", ev.TransactionID)
			return sheets.MirrorRow{}, false, nil
		}
		return sheets.SnapshotRow(ev.ID, string(ev.Type), recorded, *t), true, nil
	case amqp.EventDeleted, amqp.EventCleared:
		return sheets.MirrorRow{
			EventID:       ev.ID,
			Event:         string(ev.Type),
			RecordedAt:    recorded,
			UserID:        ev.UserID,
			TransactionID: ev.TransactionID,
		}, true, nil
	default:
		slog.WarnContext(ctx, "Ignoring unknown event type", "event_id", ev.ID, "type", ev.Type)
		return sheets.MirrorRow{}, false, nil
	}
}
