package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType tells the consumer what happened to a transaction.
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
	// EventCleared covers all of a user's transactions; TransactionID is zero.
	EventCleared EventType = "cleared"
)

// TransactionEvent is a lightweight change notification. The consumer loads
// the current transaction state from the database itself.
type TransactionEvent struct {
	ID            string    `json:"id"`
	Type          EventType `json:"type"`
	TransactionID int64     `json:"transaction_id,omitempty"`
	UserID        int64     `json:"user_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionEvent(eventType EventType, transactionID, userID int64) *TransactionEvent {
	return &TransactionEvent{
		ID:            uuid.NewString(),
		Type:          eventType,
		TransactionID: transactionID,
		UserID:        userID,
		Timestamp:     time.Now().UTC(),
	}
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and checks an event body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	switch ev.Type {
	case EventCreated, EventUpdated, EventDeleted:
		if ev.TransactionID <= 0 {
			return nil, fmt.Errorf("event %s: missing transaction id", ev.Type)
		}
	case EventCleared:
	default:
		return nil, fmt.Errorf("unknown event type %q", ev.Type)
	}
	if ev.UserID == 0 {
		return nil, fmt.Errorf("event %s: missing user id", ev.Type)
	}
	return &ev, nil
}
