package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/arbiter/internal/logging"
	"github.com/aretw0/arbiter/pkg/domain"
	"github.com/aretw0/arbiter/pkg/fsm"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "arbiter"

// Call outcomes used as the "outcome" label.
const (
	OutcomeOK      = "ok"
	OutcomeTimeout = "timeout"
	OutcomeError   = "error"
)

// Metrics holds the collectors for one registry.
type Metrics struct {
	calls        *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	asyncCalls   *prometheus.CounterVec
	stateVisits  *prometheus.CounterVec
	games        *prometheus.CounterVec
	logins       *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_total",
			Help:      "Bounded calls made on participants, by outcome.",
		}, []string{"participant", "operation", "outcome"}),
		callDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_duration_seconds",
			Help:      "Duration of bounded calls made on participants.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"participant", "operation"}),
		asyncCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "async_calls_total",
			Help:      "Fire-and-forget calls dispatched to participants.",
		}, []string{"participant", "operation"}),
		stateVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_visits_total",
			Help:      "Game state visits.",
		}, []string{"state"}),
		games: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_total",
			Help:      "Finished game runs, by outcome.",
		}, []string{"outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Remote participant connection attempts, by outcome.",
		}, []string{"outcome"}),
	}

	for _, c := range []prometheus.Collector{m.calls, m.callDuration, m.asyncCalls, m.stateVisits, m.games, m.logins} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

// MustNewMetrics is NewMetrics that panics on registration errors.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	m, err := NewMetrics(reg)
	if err != nil {
		panic(err)
	}
	return m
}

// ObserveCall implements invoke.Observer.
func (m *Metrics) ObserveCall(participant, op string, elapsed time.Duration, err error) {
	m.calls.WithLabelValues(participant, op, Outcome(err)).Inc()
	m.callDuration.WithLabelValues(participant, op).Observe(elapsed.Seconds())
}

// ObserveAsync implements invoke.Observer.
func (m *Metrics) ObserveAsync(participant, op string) {
	m.asyncCalls.WithLabelValues(participant, op).Inc()
}

// ObserveGame counts a finished run.
func (m *Metrics) ObserveGame(err error) {
	m.games.WithLabelValues(Outcome(err)).Inc()
}

// ObserveLogin counts a connection attempt.
func (m *Metrics) ObserveLogin(accepted bool) {
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	m.logins.WithLabelValues(outcome).Inc()
}

// Outcome classifies err into one of the Outcome labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, domain.ErrTimeout):
		return OutcomeTimeout
	default:
		return OutcomeError
	}
}

// StateHooks returns fsm hooks that count state visits on m and log each
// transition. Either argument may be nil.
func StateHooks[S comparable](m *Metrics, logger *slog.Logger) fsm.Hooks[S] {
	if logger == nil {
		logger = logging.NewNop()
	}
	return fsm.Hooks[S]{
		OnEnter: func(ctx context.Context, state S) {
			name := fmt.Sprint(state)
			logger.Debug("state_enter", "state", name)
			if m != nil {
				m.stateVisits.WithLabelValues(name).Inc()
			}
		},
		OnLeave: func(ctx context.Context, state S) {
			logger.Debug("state_leave", "state", fmt.Sprint(state))
		},
		OnFinish: func(ctx context.Context, steps int) {
			logger.Info("game_finished", "steps", steps)
		},
	}
}
