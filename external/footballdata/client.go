package footballdata

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/anto2887/prediction-league/internal/domain/rawdata"
	"github.com/anto2887/prediction-league/internal/platform/logging"
	"github.com/anto2887/prediction-league/internal/platform/ratelimit"
	"github.com/anto2887/prediction-league/internal/platform/resilience"
	"github.com/anto2887/prediction-league/internal/usecase"
)

const (
	sourceName       = "api-football"
	apiKeyHeader     = "x-apisports-key"
	quotaMinuteLeft  = "x-ratelimit-requests-remaining"
	defaultTimeout   = 20 * time.Second
	defaultAttempts  = 5
	defaultBackoff   = 2 * time.Second
	defaultCap       = 60 * time.Second
	defaultPerMinute = 30
	defaultMargin    = 10
)

var errTransient = crerr.New("football data transient failure")

// ErrMissingAPIKey marks a configuration failure. A sync run hitting it must
// fail, but callers (the scheduler in particular) keep running.
var ErrMissingAPIKey = crerr.New("football data api key unavailable")

// SecretSource resolves the API key at request time so key rotation needs no
// restart.
type SecretSource interface {
	Get(ctx context.Context, name string) (string, error)
}

type ClientConfig struct {
	BaseURL          string
	APIKeySecretName string
	Timeout          time.Duration
	// MaxAttempts bounds retries on 429/5xx responses.
	MaxAttempts int
	// BackoffBase doubles per attempt and never exceeds BackoffCap.
	BackoffBase time.Duration
	BackoffCap  time.Duration
	// RequestsPerMinute is the provider quota; SafetyMargin requests are kept
	// in reserve below it.
	RequestsPerMinute int
	SafetyMargin      int
	CircuitBreaker    resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	secrets        SecretSource
	secretName     string
	limiter        *ratelimit.WindowLimiter
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
	logger         *logging.Logger
	maxAttempts    int
	backoffBase    time.Duration
	backoffCap     time.Duration
	sleep          func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg ClientConfig, secrets SecretSource, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultAttempts
	}
	backoffBase := cfg.BackoffBase
	if backoffBase <= 0 {
		backoffBase = defaultBackoff
	}
	backoffCap := cfg.BackoffCap
	if backoffCap <= 0 {
		backoffCap = defaultCap
	}
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = defaultPerMinute
	}
	margin := cfg.SafetyMargin
	if margin < 0 {
		margin = defaultMargin
	}
	if margin >= perMinute {
		margin = perMinute - 1
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     &http.Client{Timeout: timeout},
		baseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		secrets:        secrets,
		secretName:     strings.TrimSpace(cfg.APIKeySecretName),
		limiter:        ratelimit.NewWindowLimiter(perMinute-margin, time.Minute),
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		logger:         logger,
		maxAttempts:    maxAttempts,
		backoffBase:    backoffBase,
		backoffCap:     backoffCap,
		sleep:          sleepContext,
	}
}

func (c *Client) FetchFixturesByDate(ctx context.Context, providerLeagueID int64, season int, date time.Time) ([]usecase.ExternalFixture, []rawdata.Payload, error) {
	query := url.Values{}
	query.Set("league", strconv.FormatInt(providerLeagueID, 10))
	query.Set("season", strconv.Itoa(season))
	query.Set("date", date.UTC().Format("2006-01-02"))
	return c.fetchFixtures(ctx, query)
}

func (c *Client) FetchFixturesByRound(ctx context.Context, providerLeagueID int64, season int, round string) ([]usecase.ExternalFixture, []rawdata.Payload, error) {
	query := url.Values{}
	query.Set("league", strconv.FormatInt(providerLeagueID, 10))
	query.Set("season", strconv.Itoa(season))
	query.Set("round", round)
	return c.fetchFixtures(ctx, query)
}

func (c *Client) FetchFixturesBySeason(ctx context.Context, providerLeagueID int64, season int) ([]usecase.ExternalFixture, []rawdata.Payload, error) {
	query := url.Values{}
	query.Set("league", strconv.FormatInt(providerLeagueID, 10))
	query.Set("season", strconv.Itoa(season))
	return c.fetchFixtures(ctx, query)
}

func (c *Client) FetchLiveFixtures(ctx context.Context, providerLeagueID int64) ([]usecase.ExternalFixture, []rawdata.Payload, error) {
	query := url.Values{}
	query.Set("live", "all")
	query.Set("league", strconv.FormatInt(providerLeagueID, 10))
	return c.fetchFixtures(ctx, query)
}

// fetchFixtures walks every page of /fixtures for the query.
func (c *Client) fetchFixtures(ctx context.Context, query url.Values) ([]usecase.ExternalFixture, []rawdata.Payload, error) {
	var fixtures []usecase.ExternalFixture
	var payloads []rawdata.Payload

	page := 1
	for {
		if page > 1 {
			query.Set("page", strconv.Itoa(page))
		}

		envelope, raw, err := c.getFixturesPage(ctx, query)
		if err != nil {
			return nil, nil, err
		}

		payloads = append(payloads, rawdata.Payload{
			Source:      sourceName,
			Endpoint:    "/fixtures?" + query.Encode(),
			PayloadJSON: raw,
		})
		for _, item := range envelope.Response {
			fixtures = append(fixtures, mapFixtureItem(item))
		}

		if envelope.Paging.Total <= envelope.Paging.Current || envelope.Paging.Total == 0 {
			break
		}
		page = envelope.Paging.Current + 1
	}

	return fixtures, payloads, nil
}

func (c *Client) getFixturesPage(ctx context.Context, query url.Values) (fixturesEnvelope, string, error) {
	key := "/fixtures?" + query.Encode()
	v, err, _ := c.flight.Do(key, func() (any, error) {
		body, err := c.executeRequest(ctx, "/fixtures", query)
		if err != nil {
			return nil, err
		}

		var envelope fixturesEnvelope
		if err := sonic.Unmarshal(body, &envelope); err != nil {
			return nil, crerr.Wrap(err, "decode fixtures response")
		}
		if msg := envelope.Errors.join(); msg != "" {
			// The provider reports request-level problems inside a 200
			// response; these never get better on retry.
			return nil, crerr.Newf("provider rejected request: %s", msg)
		}
		return fixturesPage{envelope: envelope, raw: string(body)}, nil
	})
	if err != nil {
		return fixturesEnvelope{}, "", err
	}

	page, _ := v.(fixturesPage)
	return page.envelope, page.raw, nil
}

type fixturesPage struct {
	envelope fixturesEnvelope
	raw      string
}

// executeRequest performs one logical GET with rate limiting, retries and
// backoff. Transient failures (429, 5xx, transport errors) retry until the
// attempt ceiling; everything else returns immediately.
func (c *Client) executeRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "football data circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("football data is temporarily unavailable: %w", err)
		}
	}

	apiKey, err := c.apiKey(ctx)
	if err != nil {
		return nil, err
	}

	requestURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		requestURL += "?" + encoded
	}
	c.logger.DebugContext(ctx, "football data request", "preview", buildRequestPreview(requestURL))

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, c.backoffDelay(attempt)); err != nil {
				return nil, err
			}
		}
		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, err
		}

		body, retryable, err := c.doOnce(ctx, requestURL, apiKey)
		if err == nil {
			c.recordCircuitResult(nil)
			return body, nil
		}

		lastErr = c.sanitizeError(err, apiKey)
		c.recordCircuitResult(lastErr)
		if !retryable {
			return nil, lastErr
		}
		c.logger.WarnContext(ctx, "football data request retrying",
			"attempt", attempt+1,
			"max_attempts", c.maxAttempts,
			"error", lastErr,
		)
	}

	return nil, crerr.Wrapf(lastErr, "football data request failed after %d attempts", c.maxAttempts)
}

func (c *Client) doOnce(ctx context.Context, requestURL, apiKey string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, false, crerr.Wrap(err, "create football data request")
	}
	req.Header.Set(apiKeyHeader, apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %v", errTransient, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	c.observeQuota(resp.Header)

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, true, fmt.Errorf("%w: read response body: %v", errTransient, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return nil, true, fmt.Errorf("%w: status=%d body=%s", errTransient, resp.StatusCode, truncateForLog(string(body), 512))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, crerr.Newf("football data request failed: status=%d body=%s", resp.StatusCode, truncateForLog(string(body), 512))
	}

	return body, false, nil
}

func (c *Client) apiKey(ctx context.Context) (string, error) {
	if c.secrets == nil || c.secretName == "" {
		return "", fmt.Errorf("%w: no secret source configured", ErrMissingAPIKey)
	}

	key, err := c.secrets.Get(ctx, c.secretName)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingAPIKey, err)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("%w: secret %q is empty", ErrMissingAPIKey, c.secretName)
	}
	return key, nil
}

// backoffDelay doubles per attempt and is hard-capped.
func (c *Client) backoffDelay(attempt int) time.Duration {
	delay := c.backoffBase
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.backoffCap {
			return c.backoffCap
		}
	}
	if delay > c.backoffCap {
		return c.backoffCap
	}
	return delay
}

func (c *Client) observeQuota(header http.Header) {
	raw := strings.TrimSpace(header.Get(quotaMinuteLeft))
	if raw == "" {
		return
	}
	remaining, err := strconv.Atoi(raw)
	if err != nil {
		return
	}
	c.limiter.ObserveRemaining(remaining)
}

func (c *Client) recordCircuitResult(err error) {
	if !c.circuitEnabled || c.breaker == nil {
		return
	}
	if err == nil {
		c.breaker.RecordSuccess()
		return
	}
	if stderrors.Is(err, errTransient) {
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}

func (c *Client) sanitizeError(err error, apiKey string) error {
	if err == nil || apiKey == "" {
		return err
	}
	msg := strings.ReplaceAll(err.Error(), apiKey, "***")
	if msg == err.Error() {
		return err
	}
	if stderrors.Is(err, errTransient) {
		return fmt.Errorf("%w: %s", errTransient, msg)
	}
	return crerr.New(msg)
}

func buildRequestPreview(requestURL string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("curl -H '")
	_, _ = buf.WriteString(apiKeyHeader)
	_, _ = buf.WriteString(": ***' '")
	_, _ = buf.WriteString(requestURL)
	_, _ = buf.WriteString("'")
	return buf.String()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}
