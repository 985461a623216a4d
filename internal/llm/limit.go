package llm

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/visamate/visamate/internal/resilience"
)

// Limited throttles and guards another Generator. Calls wait for a token
// before each attempt, so retries are throttled too.
type Limited struct {
	next    Generator
	service string
	limiter *rate.Limiter
	breaker *resilience.Breaker
	retry   resilience.RetryConfig
	timeout time.Duration
}

// NewLimited allows requestsPerMinute calls with a burst of one. A
// non-positive rate disables throttling.
func NewLimited(next Generator, service string, requestsPerMinute float64) *Limited {
	limit := rate.Inf
	if requestsPerMinute > 0 {
		limit = rate.Limit(requestsPerMinute / 60)
	}
	return &Limited{
		next:    next,
		service: service,
		limiter: rate.NewLimiter(limit, 1),
		breaker: resilience.NewBreaker(service, resilience.DefaultBreakerConfig()),
		retry:   resilience.For(service, "complete"),
	}
}

// WithTimeout bounds each Complete call, rate-limit waits and retries
// included. A non-positive d leaves calls bounded only by the caller's
// context.
func (l *Limited) WithTimeout(d time.Duration) *Limited {
	l.timeout = d
	return l
}

func (l *Limited) Complete(ctx context.Context, prompt string) (string, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	return resilience.Guard(ctx, l.breaker, l.retry, func(ctx context.Context) (string, error) {
		if err := l.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "llm: rate limit wait")
		}
		return l.next.Complete(ctx, prompt)
	})
}
