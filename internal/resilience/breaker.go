package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned when a call is rejected by an open breaker.
var ErrCircuitOpen = eris.New("circuit breaker is open")

// BreakerConfig controls when a breaker opens and how long it stays open.
type BreakerConfig struct {
	FailureThreshold int
	Cooldown         time.Duration
}

// DefaultBreakerConfig opens after five consecutive failures for 30s.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{FailureThreshold: 5, Cooldown: 30 * time.Second}
}

// Breaker stops calling an upstream service after repeated failures. After
// the cooldown a single probe is let through; its result closes or reopens
// the breaker.
type Breaker struct {
	name string
	cfg  BreakerConfig

	mu        sync.Mutex
	failures  int
	openUntil time.Time
	probing   bool

	now func() time.Time
}

// NewBreaker creates a closed breaker for the named service.
func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	def := DefaultBreakerConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	return &Breaker{name: name, cfg: cfg, now: time.Now}
}

// Open reports whether calls are currently being rejected.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures >= b.cfg.FailureThreshold && b.now().Before(b.openUntil)
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures < b.cfg.FailureThreshold {
		return nil
	}
	if b.now().Before(b.openUntil) || b.probing {
		return eris.Wrapf(ErrCircuitOpen, "resilience: %s", b.name)
	}
	b.probing = true
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false

	// Context cancellation says nothing about the upstream's health.
	if err == nil || errors.Is(err, context.Canceled) {
		b.failures = 0
		return
	}
	b.failures++
	if b.failures >= b.cfg.FailureThreshold {
		b.openUntil = b.now().Add(b.cfg.Cooldown)
		if b.failures == b.cfg.FailureThreshold {
			zap.L().Warn("circuit breaker opened",
				zap.String("service", b.name),
				zap.Duration("cooldown", b.cfg.Cooldown),
				zap.Error(err),
			)
		}
	}
}

// Call runs fn through b.
func Call[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := b.allow(); err != nil {
		return zero, err
	}
	val, err := fn(ctx)
	b.record(err)
	return val, err
}

// Guard combines a breaker with retries. Retries happen inside a single
// breaker call, so one exhausted retry loop counts as one failure.
func Guard[T any](ctx context.Context, b *Breaker, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	return Call(ctx, b, func(ctx context.Context) (T, error) {
		return DoVal(ctx, cfg, fn)
	})
}
