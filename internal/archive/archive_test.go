package archive

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSnapshotURL_WithTimestampBuildsDirectURL(t *testing.T) {
	l := &Locator{}
	got, err := l.SnapshotURL(context.Background(), "https://example.com/page", "20240102")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://web.archive.org/web/20240102/https://example.com/page"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestSnapshotURL_DefaultsSchemeToHTTP(t *testing.T) {
	l := &Locator{}
	got, err := l.SnapshotURL(context.Background(), "example.com", "20240102150405")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://web.archive.org/web/20240102150405/http://example.com"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestSnapshotURL_RejectsMalformedTimestamp(t *testing.T) {
	l := &Locator{}
	for _, ts := range []string{"2024", "20241301", "20240102999999", "yesterday"} {
		if _, err := l.SnapshotURL(context.Background(), "example.com", ts); err == nil {
			t.Fatalf("expected error for timestamp %q", ts)
		}
	}
}

func TestSnapshotURL_QueriesAvailabilityAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("url"); got != "http://example.com" {
			t.Errorf("unexpected url param: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"archived_snapshots":{"closest":{"url":"https://web.archive.org/web/20230101000000/http://example.com","available":true,"timestamp":"20230101000000","status":"200"}}}`))
	}))
	defer srv.Close()

	l := &Locator{AvailabilityURL: srv.URL, UserAgent: "pagediff-test"}
	got, err := l.SnapshotURL(context.Background(), "example.com", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://web.archive.org/web/20230101000000/http://example.com" {
		t.Fatalf("unexpected snapshot url: %q", got)
	}
}

func TestSnapshotURL_NoSnapshotIsSentinelError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"archived_snapshots":{}}`))
	}))
	defer srv.Close()

	l := &Locator{AvailabilityURL: srv.URL}
	_, err := l.SnapshotURL(context.Background(), "example.com", "")
	if !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
}

func TestSnapshotURL_EmptyURLRejected(t *testing.T) {
	l := &Locator{}
	if _, err := l.SnapshotURL(context.Background(), "   ", "20240102"); err == nil {
		t.Fatalf("expected error for empty url")
	}
}
