package client

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vinayprograms/meshkit/errors"
	"github.com/vinayprograms/meshkit/logging"
	"github.com/vinayprograms/meshkit/ratelimit"
	"github.com/vinayprograms/meshkit/retry"
	"github.com/vinayprograms/meshkit/tasks"
)

// Defaults.
const (
	DefaultBaseURL           = "https://api.meshy.ai/v2"
	DefaultRequestsPerSecond = 20
	DefaultHTTPTimeout       = 2 * time.Minute
)

// RetryHook observes retry decisions: the 0-based attempt that failed,
// the backoff before the next attempt, and the classified cause.
// Callers may supply one to feed their own metrics or logging sink.
type RetryHook func(attempt int, delay time.Duration, cause error)

// Config holds the settings for a Client. Zero values fall back to
// defaults; only APIKey is required.
type Config struct {
	// APIKey is the static bearer credential sent on every call.
	APIKey string

	// BaseURL overrides the service endpoint.
	BaseURL string

	// MaxRetries bounds retries after the first attempt. Zero selects
	// the default; a negative value disables retries entirely.
	MaxRetries int

	// BaseDelay and MaxDelay shape the retry backoff.
	BaseDelay time.Duration
	MaxDelay  time.Duration

	// RetryableStatuses overrides the default retryable set
	// (429 and the 5xx family).
	RetryableStatuses []int

	// RequestsPerSecond is the admission ceiling for this client's
	// credential tier. The tier is fixed at construction.
	RequestsPerSecond int

	// PollMaxAttempts and PollInterval bound the task poller.
	PollMaxAttempts int
	PollInterval    time.Duration

	// HTTPClient overrides the underlying transport.
	HTTPClient *http.Client

	// Logger receives request and poll events; nil uses a default
	// stdout logger.
	Logger *logging.Logger

	// OnRetry, when set, is invoked before each backoff sleep.
	OnRetry RetryHook
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api key is required")
	}
	if c.BaseURL != "" {
		if _, err := url.Parse(c.BaseURL); err != nil {
			return fmt.Errorf("invalid base url: %w", err)
		}
	}
	return nil
}

// Client talks to the generation service. One Client owns one rate
// gate, one retry policy, and one poller, shared by all four endpoint
// families.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	gate       *ratelimit.Gate
	policy     *retry.Policy
	poller     *tasks.Poller
	logger     *logging.Logger
	onRetry    RetryHook

	// Endpoint families. Each holds only its resource path and
	// payload shapes; all control logic lives in the shared client.
	TextTo3D  *TextTo3DService
	Rigging   *RiggingService
	Retexture *RetextureService
	Animation *AnimationService
}

// New creates a Client from the configuration.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	gate, err := ratelimit.NewGate(rps)
	if err != nil {
		return nil, err
	}

	maxRetries := cfg.MaxRetries
	switch {
	case maxRetries == 0:
		maxRetries = retry.DefaultMaxRetries
	case maxRetries < 0:
		maxRetries = 0
	}
	policy := retry.New(maxRetries, cfg.BaseDelay, cfg.MaxDelay)
	policy.RetryableStatuses = cfg.RetryableStatuses

	poller := tasks.NewPoller(cfg.PollMaxAttempts, cfg.PollInterval)

	logger := cfg.Logger
	if logger == nil {
		logger = logging.New()
	}
	poller.Logger = logger.WithComponent("poller")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}

	c := &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		gate:       gate,
		policy:     policy,
		poller:     poller,
		logger:     logger.WithComponent("client"),
		onRetry:    cfg.OnRetry,
	}
	c.TextTo3D = &TextTo3DService{service{client: c, resource: "text-to-3d"}}
	c.Rigging = &RiggingService{service{client: c, resource: "rigging"}}
	c.Retexture = &RetextureService{service{client: c, resource: "retexture"}}
	c.Animation = &AnimationService{service{client: c, resource: "animations"}}
	return c, nil
}

// Gate exposes the client's rate gate, mainly for tests and metrics.
func (c *Client) Gate() *ratelimit.Gate {
	return c.gate
}

// Close releases the client's rate gate. In-flight calls waiting on
// admission fail with ratelimit.ErrClosed.
func (c *Client) Close() error {
	return c.gate.Close()
}

// do performs one logical API call: admission, send, classification,
// retry. On success the response body is decoded into out (ignored when
// out is nil). On failure the returned error is the last classified
// error, never a generic exhaustion error, so callers can branch on its
// code.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrCodeBadRequest, "encoding request body")
		}
	}

	requestID := uuid.NewString()
	log := c.logger.WithRequestID(requestID)
	start := time.Now()

	var lastErr *errors.Error
	for attempt := 0; ; attempt++ {
		if err := c.gate.Admit(ctx); err != nil {
			return errors.Wrap(err, "awaiting rate admission")
		}

		status, respBody, err := c.send(ctx, method, path, requestID, payload)
		switch {
		case err != nil:
			lastErr = classifyTransport(ctx, err)
		case status >= 200 && status < 300:
			// One window entry per completed call, not per attempt
			c.gate.Record()
			log.RequestDone(method, path, status, time.Since(start))
			if out == nil || len(respBody) == 0 {
				return nil
			}
			if derr := json.Unmarshal(respBody, out); derr != nil {
				return errors.WrapWithCode(derr, errors.ErrCodeUnexpected, "decoding response body")
			}
			return nil
		default:
			lastErr = errors.Classify(status, respBody)
		}

		if !c.policy.ShouldRetry(lastErr, attempt) {
			log.RequestFailed(method, path, attempt+1, lastErr)
			return lastErr
		}

		delay := c.policy.DelayFor(attempt)
		log.RequestRetry(method, path, attempt, delay, lastErr)
		if c.onRetry != nil {
			c.onRetry(attempt, delay, lastErr)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Wrap(ctx.Err(), "waiting to retry")
		case <-timer.C:
		}
	}
}

// send performs a single HTTP attempt.
func (c *Client) send(ctx context.Context, method, path, requestID string, payload []byte) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, respBody, nil
}

// classifyTransport maps a failure without a response to TIMEOUT or
// TRANSPORT.
func classifyTransport(ctx context.Context, err error) *errors.Error {
	if ctx.Err() != nil {
		return errors.Wrap(ctx.Err(), "request aborted")
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.Timeout("request timed out", errors.WithCause(err))
	}
	return errors.Transport(err)
}
