package eaapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chelhq/chel-stats/internal/platform/logging"
	"github.com/chelhq/chel-stats/internal/platform/resilience"
)

const matchesBody = `[
	{
		"matchId": "m-1",
		"timestamp": 1784505600,
		"clubs": {"club-1": {"goals": 3, "details": {"name": "Night Shift HC"}}}
	},
	{
		"matchId": "m-2",
		"timestamp": 1784502000,
		"clubs": {"club-1": {"goals": 1}}
	}
]`

func TestClient_FetchClubMatches(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/clubs/matches" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("clubIds"); got != "club-1" {
			t.Errorf("unexpected clubIds: %s", got)
		}
		if got := r.URL.Query().Get("platform"); got != defaultPlatform {
			t.Errorf("unexpected platform: %s", got)
		}
		w.Header().Set("content-type", "application/json")
		_, _ = w.Write([]byte(matchesBody))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL: server.URL,
		Logger:  logging.NewNop(),
	})

	matches, payloads, err := client.FetchClubMatches(context.Background(), "club-1", "")
	if err != nil {
		t.Fatalf("fetch club matches: %v", err)
	}

	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].ID() != "m-1" || matches[1].ID() != "m-2" {
		t.Fatalf("feed order not preserved: %s, %s", matches[0].ID(), matches[1].ID())
	}

	if len(payloads) != 2 {
		t.Fatalf("expected 2 archive payloads, got %d", len(payloads))
	}
	first := payloads[0]
	if first.Source != payloadSource || first.ClubID != "club-1" || first.MatchID != "m-1" {
		t.Fatalf("unexpected payload identity: %+v", first)
	}
	if first.PayloadHash == "" || first.PayloadJSON == "" {
		t.Fatal("expected payload body and hash")
	}
}

func TestClient_FetchClubMatches_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(matchesBody))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL:    server.URL,
		MaxRetries: 2,
		Logger:     logging.NewNop(),
	})

	matches, _, err := client.FetchClubMatches(context.Background(), "club-1", "")
	if err != nil {
		t.Fatalf("expected retry to recover: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches after retry, got %d", len(matches))
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("expected 2 requests, got %d", got)
	}
}

func TestClient_FetchClubMatches_DoesNotRetryClientError(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL:    server.URL,
		MaxRetries: 3,
		Logger:     logging.NewNop(),
	})

	_, _, err := client.FetchClubMatches(context.Background(), "club-1", "")
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if IsTransient(err) {
		t.Fatalf("404 should not classify as transient: %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected a single request, got %d", got)
	}
}

func TestClient_CircuitBreakerRejectsAfterFailures(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL: server.URL,
		Logger:  logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	})

	if _, _, err := client.FetchClubMatches(context.Background(), "club-1", ""); err == nil {
		t.Fatal("expected upstream failure")
	}

	if err := client.breaker.Allow(); err == nil {
		t.Fatal("expected breaker to be open after threshold failures")
	}
}

func TestDecodeMatches_Shapes(t *testing.T) {
	t.Parallel()

	direct, err := decodeMatches([]byte(`[{"matchId":"m-1"}]`))
	if err != nil || len(direct) != 1 || direct[0].ID() != "m-1" {
		t.Fatalf("direct array decode failed: %v %+v", err, direct)
	}

	wrapped, err := decodeMatches([]byte(`{"matches":[{"matchId":"m-2"}]}`))
	if err != nil || len(wrapped) != 1 || wrapped[0].ID() != "m-2" {
		t.Fatalf("wrapped decode failed: %v %+v", err, wrapped)
	}

	empty, err := decodeMatches([]byte("null"))
	if err != nil || empty != nil {
		t.Fatalf("null decode failed: %v %+v", err, empty)
	}

	if _, err := decodeMatches([]byte(`not json`)); err == nil {
		t.Fatal("expected decode error for junk payload")
	}
}
