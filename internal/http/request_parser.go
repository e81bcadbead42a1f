package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"finbot/internal/bot"
)

// maxEventBytes bounds the request body of /api/events.
const maxEventBytes = 16 << 10

var (
	errMissingUser  = errors.New("user_id must be positive")
	errEventPayload = errors.New("exactly one of text or button is required")
)

// parseEvent decodes and validates a JSON event body.
func parseEvent(w http.ResponseWriter, r *http.Request) (bot.Event, error) {
	var ev bot.Event
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ev); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			return bot.Event{}, fmt.Errorf("request body exceeds %d bytes", tooBig.Limit)
		case errors.Is(err, io.EOF):
			return bot.Event{}, errors.New("request body is empty")
		default:
			return bot.Event{}, fmt.Errorf("invalid JSON: %w", err)
		}
	}

	ev.Text = sanitizeInput(ev.Text)
	ev.Button = strings.TrimSpace(ev.Button)
	ev.FirstName = sanitizeInput(ev.FirstName)

	if ev.UserID <= 0 {
		return bot.Event{}, errMissingUser
	}
	if (ev.Text == "") == (ev.Button == "") {
		return bot.Event{}, errEventPayload
	}
	return ev, nil
}

// sanitizeInput trims s and drops control characters other than tab and
// line breaks.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
