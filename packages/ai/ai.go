package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"docsync-agent/packages/config"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
)

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("no content generated")

// Generator produces text for a prompt. The pipeline depends on this interface only.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// backend is one concrete model API.
type backend interface {
	complete(ctx context.Context, prompt string) (string, error)
	Close() error
}

// Client is the Generator used in production: it rate limits, bounds every call with a
// timeout and retries transient failures with exponential backoff.
type Client struct {
	backend        backend
	limiter        *rate.Limiter
	timeout        time.Duration
	maxRetries     int
	initialBackoff time.Duration
	log            *zap.SugaredLogger
}

// NewClient creates the configured backend.
func NewClient(ctx context.Context, cfg config.AIConfig, timeout time.Duration, log *zap.SugaredLogger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key for provider %q not set", cfg.Provider)
	}

	var (
		b   backend
		err error
	)
	switch cfg.Provider {
	case "", "gemini":
		b, err = newGeminiBackend(ctx, cfg)
	case "openai":
		b, err = newOpenAIBackend(cfg)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
	if err != nil {
		log.Errorw("Failed to create model client", "provider", cfg.Provider, "error", err)
		return nil, err
	}

	log.Infow("Model client ready", "provider", cfg.Provider, "model", cfg.Model)
	return newClient(b, cfg, timeout, log), nil
}

func newClient(b backend, cfg config.AIConfig, timeout time.Duration, log *zap.SugaredLogger) *Client {
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}
	return &Client{
		backend:        b,
		limiter:        rate.NewLimiter(limit, 1),
		timeout:        timeout,
		maxRetries:     cfg.MaxRetries,
		initialBackoff: 2 * time.Second,
		log:            log,
	}
}

// Generate sends prompt to the model and returns the response text as written. A blank answer is
// retried and finally reported as ErrEmptyResponse.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	attempt := 0
	operation := func() (string, error) {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return "", backoff.Permanent(err)
		}

		callCtx := ctx
		if c.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		text, err := c.backend.complete(callCtx, prompt)
		if err == nil && strings.TrimSpace(text) == "" {
			err = ErrEmptyResponse
		}
		if err != nil {
			if ctx.Err() != nil || !IsRetryable(err) {
				return "", backoff.Permanent(err)
			}
			c.log.Warnw("Model call failed, retrying", "attempt", attempt, "error", err)
			return "", err
		}
		return text, nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initialBackoff
	policy.MaxInterval = 30 * time.Second

	text, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(c.maxRetries+1)),
	)
	if err != nil {
		return "", fmt.Errorf("model call failed after %d attempt(s): %w", attempt, err)
	}
	return text, nil
}

// Close releases the backend.
func (c *Client) Close() error {
	return c.backend.Close()
}

// IsRetryable reports whether a model error is worth another attempt.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrEmptyResponse) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 408, 429, 500, 502, 503, 504:
			return true
		default:
			return false
		}
	}

	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"connection reset", "connection refused", "timeout", "temporarily unavailable",
		"service unavailable", "resource exhausted", "rate limit", "too many requests", "eof",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
