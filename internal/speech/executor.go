package speech

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// minBackoff is the floor applied to any computed wait so a zero or
// negative value never produces a busy retry loop.
const minBackoff = 100 * time.Millisecond

// RetryPolicy bounds how a single logical call may be retried when the
// service answers with HTTP 429.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 3
	}
	if p.BaseBackoff <= 0 {
		p.BaseBackoff = 2 * time.Second
	}
	return p
}

// backoffForAttempt computes the wait before the next attempt. A
// server-supplied Retry-After hint wins when it parses as a
// non-negative number of seconds; otherwise base * 2^(attempt-1).
func (p RetryPolicy) backoffForAttempt(response *http.Response, attempt int) time.Duration {
	wait := p.BaseBackoff * (1 << (attempt - 1))
	if response != nil {
		if hint := response.Header.Get("Retry-After"); hint != "" {
			if seconds, err := strconv.ParseFloat(hint, 64); err == nil && seconds >= 0 {
				wait = time.Duration(seconds * float64(time.Second))
			}
		}
	}
	if wait < minBackoff {
		wait = minBackoff
	}
	return wait
}

// SleepFunc suspends for the given duration or until the context is
// cancelled. Tests substitute a recording implementation.
type SleepFunc func(ctx context.Context, d time.Duration) error

// SleepContext is the default SleepFunc.
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type ExecutorConfig struct {
	HTTPClient *http.Client
	// RPS/Burst configure client-side pacing applied before every
	// attempt, independent of the service's own throttling signals.
	RPS    float64
	Burst  int
	Sleep  SleepFunc
	Logger *log.Logger
}

// Executor wraps a single outbound call with rate-limit-aware retry.
// Every other component issues its requests through an Executor.
type Executor struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	sleep      SleepFunc
	logger     *log.Logger
}

func NewExecutor(config ExecutorConfig) *Executor {
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 5 * time.Minute}
	}
	if config.RPS <= 0 {
		config.RPS = 2
	}
	if config.Burst <= 0 {
		config.Burst = 4
	}
	if config.Sleep == nil {
		config.Sleep = SleepContext
	}
	return &Executor{
		httpClient: config.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(config.RPS), config.Burst),
		sleep:      config.Sleep,
		logger:     config.Logger,
	}
}

// Do issues the request, retrying only on HTTP 429 up to the policy's
// attempt bound. Any other response, success or failure, is returned
// immediately for the caller to interpret. When the retry budget runs
// out the last 429 response is returned rather than an error, so the
// caller can still inspect it.
func (e *Executor) Do(ctx context.Context, request *http.Request, policy RetryPolicy) (*http.Response, error) {
	policy = policy.normalized()

	for attempt := 1; ; attempt++ {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		if attempt > 1 {
			if request.GetBody != nil {
				body, err := request.GetBody()
				if err != nil {
					return nil, fmt.Errorf("rewind request body: %w", err)
				}
				request.Body = body
			}
		}

		response, err := e.httpClient.Do(request)
		if err != nil {
			return nil, fmt.Errorf("speech transport error: %w", err)
		}
		if response.StatusCode != http.StatusTooManyRequests || attempt >= policy.MaxAttempts {
			return response, nil
		}

		wait := policy.backoffForAttempt(response, attempt)
		_, _ = io.Copy(io.Discard, response.Body)
		_ = response.Body.Close()

		if e.logger != nil {
			e.logger.Printf(
				"throttled by service, retrying in %s (attempt %d/%d)",
				wait, attempt, policy.MaxAttempts,
			)
		}
		if err := e.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}
