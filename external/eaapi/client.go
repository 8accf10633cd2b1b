package eaapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/chelhq/chel-stats/internal/domain/eamatch"
	"github.com/chelhq/chel-stats/internal/domain/rawdata"
	"github.com/chelhq/chel-stats/internal/platform/logging"
	"github.com/chelhq/chel-stats/internal/platform/resilience"
)

const (
	defaultBaseURL   = "https://proclubs.ea.com/api/nhl"
	defaultPlatform  = "common-gen5"
	defaultMatchType = "club_private"

	payloadSource = "eaapi"

	maxResponseBytes = 6 << 20
)

var errEAAPITransient = crerr.New("ea api transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Platform       string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the EA proclubs stats API. The API is public but flaky:
// responses are retried on transient failures and guarded by a circuit
// breaker, and concurrent fetches of the same feed collapse into one request.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	platform       string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
	now            func() time.Time
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	platform := strings.TrimSpace(cfg.Platform)
	if platform == "" {
		platform = defaultPlatform
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		platform:       platform,
		maxRetries:     maxRetries,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		now:            time.Now,
	}
}

// FetchClubMatches returns the club's recent match snapshots plus archive
// payloads for each snapshot. The EA feed delivers matches newest first; the
// order is preserved.
func (c *Client) FetchClubMatches(ctx context.Context, clubID, matchType string) ([]eamatch.Match, []rawdata.Payload, error) {
	clubID = strings.TrimSpace(clubID)
	if clubID == "" {
		return nil, nil, fmt.Errorf("club id is required")
	}
	matchType = strings.TrimSpace(matchType)
	if matchType == "" {
		matchType = defaultMatchType
	}

	path := "/clubs/matches"
	query := map[string]string{
		"clubIds":   clubID,
		"matchType": matchType,
		"platform":  c.platform,
	}

	raw, err := c.doRequest(ctx, path, query)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch club matches club=%s match_type=%s: %w", clubID, matchType, err)
	}

	matches, err := decodeMatches(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("decode club matches club=%s: %w", clubID, err)
	}

	fetchedAt := c.now().UTC()
	payloads := make([]rawdata.Payload, 0, len(matches))
	for _, m := range matches {
		encoded, marshalErr := sonic.Marshal(map[string]any(m))
		if marshalErr != nil {
			continue
		}
		payloads = append(payloads, rawdata.Payload{
			Source:      payloadSource,
			EntityType:  "match",
			EntityKey:   path + "?matchType=" + matchType,
			ClubID:      clubID,
			MatchID:     m.ID(),
			PayloadJSON: string(encoded),
			PayloadHash: hashPayload(encoded),
			FetchedAt:   fetchedAt,
		})
	}

	return matches, payloads, nil
}

// IsTransient reports whether the error came from a retryable upstream
// condition rather than a bad request or decode failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errEAAPITransient)
}

func (c *Client) doRequest(ctx context.Context, path string, query map[string]string) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "ea api circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("ea api is temporarily unavailable: %w", err)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && IsTransient(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}
	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errEAAPITransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errEAAPITransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: ea api status=%d body=%s", errEAAPITransient, resp.StatusCode, abbreviateBody(raw))
			} else {
				return nil, fmt.Errorf("ea api status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("ea api request failed")
	}
	c.logger.WarnContext(ctx, "ea api request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

// decodeMatches accepts the two shapes the feed is known to use: a bare JSON
// array of matches, or an object with a "matches" array.
func decodeMatches(raw []byte) ([]eamatch.Match, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	var direct []map[string]any
	if err := sonic.Unmarshal([]byte(trimmed), &direct); err == nil {
		return toMatches(direct), nil
	}

	var wrapped struct {
		Matches []map[string]any `json:"matches"`
	}
	if err := sonic.Unmarshal([]byte(trimmed), &wrapped); err != nil {
		return nil, fmt.Errorf("decode matches payload: %w", err)
	}
	return toMatches(wrapped.Matches), nil
}

func toMatches(items []map[string]any) []eamatch.Match {
	out := make([]eamatch.Match, 0, len(items))
	for _, item := range items {
		if len(item) == 0 {
			continue
		}
		out = append(out, eamatch.Match(item))
	}
	return out
}

func hashPayload(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
