package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"finbot/internal/core"
	ports "finbot/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSheets serves the three Values endpoints the client uses.
type fakeSheets struct {
	mu      sync.Mutex
	header  [][]any
	updates int
	appends [][]any
	paths   []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet:
		json.NewEncoder(w).Encode(map[string]any{"range": "A1:J1", "values": f.header})
	case r.Method == http.MethodPut:
		var vr gsheet.ValueRange
		json.NewDecoder(r.Body).Decode(&vr)
		f.header = vr.Values
		f.updates++
		json.NewEncoder(w).Encode(map[string]any{"updatedRange": "A1:J1"})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		var vr gsheet.ValueRange
		json.NewDecoder(r.Body).Decode(&vr)
		f.appends = append(f.appends, vr.Values...)
		json.NewEncoder(w).Encode(map[string]any{
			"updates": map[string]any{"updatedRange": "'2024 Операции'!A2:J2"},
		})
	default:
		http.Error(w, "unexpected request", http.StatusBadRequest)
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatal(err)
	}
	return NewWithService(svc, "sheet-id", "")
}

func TestAppendRowWritesHeaderOnce(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)
	recorded := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	row := ports.SnapshotRow("ev-1", "created", recorded, core.Transaction{
		ID: 7, UserID: 1, Amount: 500, Description: "food", Kind: core.Expense, Category: "еда", CreatedAt: recorded,
	})

	ref, err := c.AppendRow(context.Background(), row)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "'2024 Операции'!A2:J2" {
		t.Fatalf("unexpected ref %q", ref)
	}
	if _, err := c.AppendRow(context.Background(), row); err != nil {
		t.Fatalf("second append: %v", err)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.updates != 1 || !isHeader(fake.header[0]) {
		t.Fatalf("header should be written once, got %d updates: %v", fake.updates, fake.header)
	}
	if len(fake.appends) != 2 {
		t.Fatalf("expected two appended rows, got %d", len(fake.appends))
	}
	cols := toStrings(fake.appends[0])
	if cols[0] != "ev-1" || cols[4] != "7" || cols[7] != "500" || cols[8] != "еда" {
		t.Fatalf("unexpected row %v", cols)
	}
	if !strings.Contains(fake.paths[0], "2024 Операции") {
		t.Fatalf("row should go to the year tab, path %q", fake.paths[0])
	}
}

func TestAppendRowKeepsForeignHeader(t *testing.T) {
	fake := &fakeSheets{header: [][]any{{"something", "else"}}}
	c := newTestClient(t, fake)

	_, err := c.AppendRow(context.Background(), ports.MirrorRow{
		EventID: "ev-2", Event: "cleared", RecordedAt: time.Now(), UserID: 3,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if fake.updates != 0 {
		t.Fatalf("existing header must not be overwritten")
	}
	if cols := toStrings(fake.appends[0]); cols[6] != "" || cols[7] != "" {
		t.Fatalf("tombstone should leave kind and amount empty: %v", cols)
	}
}

func TestAppendRowWithoutService(t *testing.T) {
	c := &Client{}
	if _, err := c.AppendRow(context.Background(), ports.MirrorRow{}); err == nil {
		t.Fatal("expected error without a service")
	}
}

func TestNewRequiresSpreadsheet(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "x"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Операции", 2025, "2025 Операции"},
		{"", 2023, ""},
		{"Audit Log", 2022, "2022 Audit Log"},
		{"2025 Already Prefixed", 2024, "2025 Already Prefixed"},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}

func TestQuoteSheet(t *testing.T) {
	if got := quoteSheet("Bob's 2024"); got != "'Bob''s 2024'" {
		t.Fatalf("quoteSheet = %q", got)
	}
}
