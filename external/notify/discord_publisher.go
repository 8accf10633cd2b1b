package notify

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"

	"github.com/chelhq/chel-stats/internal/platform/resilience"
	"github.com/chelhq/chel-stats/internal/usecase"
)

// Discord rejects message content longer than this.
const discordContentLimit = 2000

var errDiscordTransient = crerr.New("discord transient failure")

type DiscordPublisherConfig struct {
	WebhookURL     string
	Username       string
	Timeout        time.Duration
	MaxRetries     int
	CircuitBreaker resilience.CircuitBreakerConfig
}

// DiscordPublisher posts recaps to a Discord webhook.
type DiscordPublisher struct {
	client         *fasthttp.Client
	webhookURL     string
	username       string
	timeout        time.Duration
	maxRetries     int
	logger         *slog.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewDiscordPublisher(cfg DiscordPublisherConfig, logger *slog.Logger) *DiscordPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &DiscordPublisher{
		client:         &fasthttp.Client{},
		webhookURL:     strings.TrimSpace(cfg.WebhookURL),
		username:       strings.TrimSpace(cfg.Username),
		timeout:        timeout,
		maxRetries:     maxRetries,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (p *DiscordPublisher) Publish(ctx context.Context, recap usecase.Recap) error {
	if p.webhookURL == "" {
		return crerr.New("discord webhook url is required")
	}
	if p.circuitEnabled {
		if err := p.breaker.Allow(); err != nil {
			p.logger.WarnContext(ctx, "discord circuit breaker rejected request", "state", p.breaker.State())
			return fmt.Errorf("discord is temporarily unavailable: %w", err)
		}
	}

	body, err := sonic.Marshal(map[string]any{
		"content":  renderContent(recap),
		"username": p.username,
	})
	if err != nil {
		return crerr.Wrap(err, "marshal discord message")
	}

	callErr := p.post(ctx, body)
	p.recordCircuitResult(callErr)
	if callErr != nil {
		return callErr
	}

	p.logger.InfoContext(ctx, "discord recap posted", "match_id", recap.MatchID)
	return nil
}

func (p *DiscordPublisher) post(ctx context.Context, body []byte) error {
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		status, respBody, err := p.doOnce(body)
		if err != nil {
			lastErr = fmt.Errorf("%w: post webhook: %v", errDiscordTransient, err)
		} else if status/100 == 2 {
			return nil
		} else if isRetryableStatus(status) {
			lastErr = fmt.Errorf("%w: post webhook status=%d body=%s", errDiscordTransient, status, strings.TrimSpace(respBody))
		} else {
			return fmt.Errorf("post webhook status=%d body=%s", status, strings.TrimSpace(respBody))
		}

		if attempt == p.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("discord webhook request failed")
	}
	return lastErr
}

func (p *DiscordPublisher) doOnce(body []byte) (int, string, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(p.webhookURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	if err := p.client.DoTimeout(req, resp, p.timeout); err != nil {
		return 0, "", err
	}

	respBody := string(resp.Body())
	if len(respBody) > 512 {
		respBody = respBody[:512] + "..."
	}
	return resp.StatusCode(), respBody, nil
}

func (p *DiscordPublisher) recordCircuitResult(err error) {
	if !p.circuitEnabled || p.breaker == nil {
		return
	}
	if err != nil && stderrors.Is(err, errDiscordTransient) {
		p.breaker.RecordFailure()
		return
	}
	p.breaker.RecordSuccess()
}

func renderContent(recap usecase.Recap) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("**")
	_, _ = buf.WriteString(recap.ScoreLine)
	_, _ = buf.WriteString("**")
	if recap.CombinedCount > 1 {
		_, _ = buf.WriteString(fmt.Sprintf(" _(across %d games)_", recap.CombinedCount))
	}
	for _, line := range recap.SkaterLines {
		_ = buf.WriteByte('\n')
		_, _ = buf.WriteString(line)
	}
	for _, line := range recap.GoalieLines {
		_ = buf.WriteByte('\n')
		_, _ = buf.WriteString(line)
	}

	content := buf.String()
	if len(content) > discordContentLimit {
		content = content[:discordContentLimit-3] + "..."
	}
	return content
}

func isRetryableStatus(status int) bool {
	return status == fasthttp.StatusTooManyRequests || status >= fasthttp.StatusInternalServerError
}
