package backend

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryConfig configures retry behavior for transient collaborator failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultRetryConfig returns the standard retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 500 * time.Millisecond,
		MaxWait:     5 * time.Second,
		Multiplier:  2.0,
	}
}

// RetryBackend is a decorator that retries transient errors with
// exponential backoff and jitter.
type RetryBackend struct {
	inner  Backend
	config RetryConfig
}

var _ Backend = (*RetryBackend)(nil)

// WithRetry wraps a Backend with retry logic.
func WithRetry(b Backend, cfg RetryConfig) *RetryBackend {
	return &RetryBackend{inner: b, config: cfg}
}

func (r *RetryBackend) SubmitResponse(ctx context.Context, answer string) (*SubmitResult, error) {
	return retryCall(r, ctx, func() (*SubmitResult, error) {
		return r.inner.SubmitResponse(ctx, answer)
	})
}

func (r *RetryBackend) CurrentQuestion(ctx context.Context) (*CurrentQuestionResult, error) {
	return retryCall(r, ctx, func() (*CurrentQuestionResult, error) {
		return r.inner.CurrentQuestion(ctx)
	})
}

func (r *RetryBackend) QueryKnowledge(ctx context.Context, question string) (*KnowledgeAnswer, error) {
	return retryCall(r, ctx, func() (*KnowledgeAnswer, error) {
		return r.inner.QueryKnowledge(ctx, question)
	})
}

func (r *RetryBackend) AnalyzeIntent(ctx context.Context, text string) (*IntentResult, error) {
	return retryCall(r, ctx, func() (*IntentResult, error) {
		return r.inner.AnalyzeIntent(ctx, text)
	})
}

// AppendMessage is not retried: the message store is best effort and the
// caller logs failures instead of blocking the turn.
func (r *RetryBackend) AppendMessage(ctx context.Context, rec MessageRecord) error {
	return r.inner.AppendMessage(ctx, rec)
}

func retryCall[T any](r *RetryBackend, ctx context.Context, fn func() (*T, error)) (*T, error) {
	var lastErr error

	for attempt := range r.config.MaxAttempts {
		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !shouldRetry(err) {
			return nil, err
		}
		if attempt == r.config.MaxAttempts-1 {
			break
		}

		wait := r.backoff(attempt, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	return nil, lastErr
}

// shouldRetry determines if an error is retryable.
func shouldRetry(err error) bool {
	// Context errors are never retried.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// A malformed payload will not improve on retry.
	var malformed *ErrMalformedPayload
	if errors.As(err, &malformed) {
		return false
	}

	var rl *ErrRateLimit
	if errors.As(err, &rl) {
		return true
	}
	var unavail *ErrServiceUnavailable
	if errors.As(err, &unavail) {
		return true
	}

	// Other errors (4xx contract violations) are not transient.
	return false
}

// backoff computes the wait duration for the given attempt.
func (r *RetryBackend) backoff(attempt int, err error) time.Duration {
	// Respect Retry-After for rate limits.
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	if wait > float64(r.config.MaxWait) {
		wait = float64(r.config.MaxWait)
	}

	// ±20% jitter.
	jitter := wait * 0.2 * (2*rand.Float64() - 1)
	wait += jitter

	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
