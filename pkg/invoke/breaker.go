package invoke

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/aretw0/arbiter/pkg/contract"
	"github.com/aretw0/arbiter/pkg/domain"
)

// Default breaker settings.
const (
	DefaultBreakerMaxFailures uint32 = 3
	DefaultBreakerCooldown           = 10 * time.Second
)

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive timeouts before the circuit opens.
	MaxFailures uint32 `yaml:"max_failures" mapstructure:"max_failures"`
	// Cooldown is how long the circuit stays open before one probe call is let through.
	Cooldown time.Duration `yaml:"cooldown" mapstructure:"cooldown"`
}

// Breaker stops calling a participant that keeps timing out. While the circuit
// is open, Call fails at once and AsyncCall is dropped.
//
// Only timeouts and closed connections count as failures: a participant that
// answers with an error is alive.
type Breaker struct {
	inner   Channel
	name    string
	breaker *gobreaker.CircuitBreaker[any]
	logger  *slog.Logger
}

var _ Channel = (*Breaker)(nil)

// NewBreaker wraps inner. Zero fields in cfg take the defaults.
func NewBreaker(inner Channel, name string, cfg BreakerConfig, opts ...Option) *Breaker {
	s := newSettings(opts)

	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = DefaultBreakerMaxFailures
	}
	cooldown := cfg.Cooldown
	if cooldown == 0 {
		cooldown = DefaultBreakerCooldown
	}

	b := &Breaker{inner: inner, name: name, logger: s.logger}
	b.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "participant:" + name,
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: func(err error) bool {
			return !errors.Is(err, domain.ErrTimeout) && !errors.Is(err, domain.ErrClosed)
		},
	})
	return b
}

// State reports the circuit state.
func (b *Breaker) State() gobreaker.State {
	return b.breaker.State()
}

// AsyncCall forwards the call unless the circuit is open.
func (b *Breaker) AsyncCall(ctx context.Context, op *contract.Operation, args []any) {
	if b.breaker.State() == gobreaker.StateOpen {
		b.logger.Debug("async call dropped, circuit open", "participant", b.name, "op", op.Name())
		return
	}
	b.inner.AsyncCall(ctx, op, args)
}

// Call forwards the call through the circuit breaker.
func (b *Breaker) Call(ctx context.Context, op *contract.Operation, args []any) (any, error) {
	res, err := b.breaker.Execute(func() (any, error) {
		return b.inner.Call(ctx, op, args)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, invocationError(op, fmt.Errorf("participant %q circuit open: %w", b.name, err))
	}
	return res, err
}
