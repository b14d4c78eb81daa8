package gsheets

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/interview-automator/internal/sheet"
)

type fakeSheets struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
}

func (f *fakeSheets) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		body, _ := io.ReadAll(r.Body)
		f.requests = append(f.requests, r)
		f.bodies = append(f.bodies, string(body))
		f.mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"error":{"code":401,"message":"missing token","status":"UNAUTHENTICATED"}}`)
			return
		}

		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/values/'Interview Scores'"):
			w.Header().Set("Content-Encoding", "gzip")
			gz := gzip.NewWriter(w)
			defer gz.Close()
			io.WriteString(gz, `{"range":"'Interview Scores'!A1:C3","majorDimension":"ROWS","values":[["Full Name","Overall"],["Ravi Kumar","0"]]}`)
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/values:batchUpdate"):
			io.WriteString(w, `{"totalUpdatedCells":1}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":{"code":404,"message":"Requested entity was not found.","status":"NOT_FOUND"}}`)
		}
	}
}

func newTestClient(t *testing.T, token string) (*Client, *fakeSheets) {
	t.Helper()

	fake := &fakeSheets{}
	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)

	client, err := NewWithToken(zap.NewNop(), token, map[string]string{
		"Interview Scores":    "https://docs.google.com/spreadsheets/d/abc123-XYZ_9/edit#gid=0",
		"Interview Schedules": "abc123-XYZ_9",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	client.APIURL = server.URL

	return client, fake
}

func TestReadTable(t *testing.T) {
	client, fake := newTestClient(t, "test-token")

	rows, err := client.ReadTable(context.Background(), "Interview Scores")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rows) != 2 || rows[1][0] != "Ravi Kumar" || rows[1][1] != "0" {
		t.Fatalf("unexpected rows: %v", rows)
	}

	req := fake.requests[0]
	if !strings.Contains(req.URL.Path, "/spreadsheets/abc123-XYZ_9/") {
		t.Fatalf("expected spreadsheet id in path, got %s", req.URL.Path)
	}
	if req.URL.Query().Get("valueRenderOption") != "FORMATTED_VALUE" {
		t.Fatalf("unexpected query: %s", req.URL.RawQuery)
	}
}

func TestWriteCells(t *testing.T) {
	client, fake := newTestClient(t, "test-token")

	err := client.WriteCells(context.Background(), "Interview Scores", []sheet.Cell{
		{Row: 3, Col: 2, Value: "8.0"},
		{Row: 3, Col: 4, Value: "duplicate"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var body batchUpdateRequest
	if err := json.Unmarshal([]byte(fake.bodies[0]), &body); err != nil {
		t.Fatalf("bad request body: %v", err)
	}

	if body.ValueInputOption != "USER_ENTERED" || len(body.Data) != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.Data[0].Range != "'Interview Scores'!B3" || body.Data[0].Values[0][0] != "8.0" {
		t.Fatalf("unexpected first range: %+v", body.Data[0])
	}
	if body.Data[1].Range != "'Interview Scores'!D3" {
		t.Fatalf("unexpected second range: %+v", body.Data[1])
	}

	if err := client.WriteCells(context.Background(), "Interview Scores", nil); err != nil {
		t.Fatalf("empty write must be a no-op: %v", err)
	}
	if len(fake.requests) != 1 {
		t.Fatalf("expected a single request, got %d", len(fake.requests))
	}
}

func TestAPIErrors(t *testing.T) {
	client, _ := newTestClient(t, "wrong")

	_, err := client.ReadTable(context.Background(), "Interview Scores")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected api error 401, got %v", err)
	}

	_, err = client.ReadTable(context.Background(), "Form Responses 1")
	if !errors.Is(err, sheet.ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}
}

func TestSpreadsheetID(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"https://docs.google.com/spreadsheets/d/1AbC-d_E/edit#gid=0": "1AbC-d_E",
		"  1AbC-d_E  ": "1AbC-d_E",
		"":             "",
	}
	for ref, want := range tests {
		if got := SpreadsheetID(ref); got != want {
			t.Fatalf("SpreadsheetID(%q) = %q, want %q", ref, got, want)
		}
	}

	if _, err := NewWithToken(zap.NewNop(), "t", map[string]string{"Form Responses 1": " "}); err == nil {
		t.Fatalf("expected error for unconfigured spreadsheet")
	}
}
