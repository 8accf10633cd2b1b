package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/chelhq/chel-stats/internal/usecase"
)

func sampleRecap() usecase.Recap {
	return usecase.Recap{
		MatchID:       "combined-m-2-m-1",
		CombinedCount: 2,
		ScoreLine:     "Night Shift HC 5 - Bench Warmers 3",
		SkaterLines:   []string{"azhockeynut (C): 3G 1A, 9 shots"},
		GoalieLines:   []string{"wallguy (G): 15/15 saves, 100.0%"},
	}
}

func TestDiscordPublisher_Publish(t *testing.T) {
	t.Parallel()

	var received atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		received.Store(string(buf))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	publisher := NewDiscordPublisher(DiscordPublisherConfig{
		WebhookURL: server.URL,
		Username:   "chel-stats",
	}, nil)

	if err := publisher.Publish(context.Background(), sampleRecap()); err != nil {
		t.Fatalf("publish recap: %v", err)
	}

	body, _ := received.Load().(string)
	if !strings.Contains(body, "Night Shift HC 5 - Bench Warmers 3") {
		t.Fatalf("score line missing from webhook body: %s", body)
	}
	if !strings.Contains(body, "across 2 games") {
		t.Fatalf("session note missing from webhook body: %s", body)
	}
	if !strings.Contains(body, `"username":"chel-stats"`) {
		t.Fatalf("username missing from webhook body: %s", body)
	}
}

func TestDiscordPublisher_Publish_RetriesRateLimit(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	publisher := NewDiscordPublisher(DiscordPublisherConfig{
		WebhookURL: server.URL,
		MaxRetries: 1,
	}, nil)

	if err := publisher.Publish(context.Background(), sampleRecap()); err != nil {
		t.Fatalf("expected retry to recover: %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("expected 2 webhook posts, got %d", got)
	}
}

func TestDiscordPublisher_Publish_RequiresWebhookURL(t *testing.T) {
	t.Parallel()

	publisher := NewDiscordPublisher(DiscordPublisherConfig{}, nil)

	if err := publisher.Publish(context.Background(), sampleRecap()); err == nil {
		t.Fatal("expected configuration error")
	}
}

func TestRenderContent_TruncatesLongRecaps(t *testing.T) {
	t.Parallel()

	recap := sampleRecap()
	for i := 0; i < 200; i++ {
		recap.SkaterLines = append(recap.SkaterLines, strings.Repeat("x", 40))
	}

	content := renderContent(recap)
	if len(content) > discordContentLimit {
		t.Fatalf("content length %d exceeds limit", len(content))
	}
	if !strings.HasSuffix(content, "...") {
		t.Fatalf("expected truncation marker, got tail %q", content[len(content)-8:])
	}
}
