package observability_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/arbiter/pkg/domain"
	"github.com/aretw0/arbiter/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	m.ObserveCall("ana", "Guess", 5*time.Millisecond, nil)
	m.ObserveCall("ana", "Guess", time.Second, &domain.TimeoutError{Operation: "Guess", Timeout: time.Second})
	m.ObserveCall("bob", "Guess", time.Millisecond, errors.New("boom"))
	m.ObserveAsync("bob", "Start")

	expected := `
# HELP arbiter_calls_total Bounded calls made on participants, by outcome.
# TYPE arbiter_calls_total counter
arbiter_calls_total{operation="Guess",outcome="error",participant="bob"} 1
arbiter_calls_total{operation="Guess",outcome="ok",participant="ana"} 1
arbiter_calls_total{operation="Guess",outcome="timeout",participant="ana"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "arbiter_calls_total"))
	assert.Equal(t, 2, testutil.CollectAndCount(reg, "arbiter_call_duration_seconds"))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "arbiter_async_calls_total"))
}

func TestMetrics_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)
	assert.Panics(t, func() { observability.MustNewMetrics(reg) })
}

func TestMetrics_GamesAndLogins(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.MustNewMetrics(reg)

	m.ObserveGame(nil)
	m.ObserveGame(domain.ErrAborted)
	m.ObserveLogin(true)
	m.ObserveLogin(false)
	m.ObserveLogin(false)

	expected := `
# HELP arbiter_logins_total Remote participant connection attempts, by outcome.
# TYPE arbiter_logins_total counter
arbiter_logins_total{outcome="accepted"} 1
arbiter_logins_total{outcome="rejected"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "arbiter_logins_total"))
	assert.Equal(t, 2, testutil.CollectAndCount(reg, "arbiter_games_total"))
}

func TestStateHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.MustNewMetrics(reg)
	hooks := observability.StateHooks[string](m, nil)

	ctx := context.Background()
	hooks.OnEnter(ctx, "Start")
	hooks.OnLeave(ctx, "Start")
	hooks.OnEnter(ctx, "Round")
	hooks.OnEnter(ctx, "Round")
	hooks.OnFinish(ctx, 3)

	expected := `
# HELP arbiter_state_visits_total Game state visits.
# TYPE arbiter_state_visits_total counter
arbiter_state_visits_total{state="Round"} 2
arbiter_state_visits_total{state="Start"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "arbiter_state_visits_total"))

	noMetrics := observability.StateHooks[int](nil, nil)
	assert.NotPanics(t, func() { noMetrics.OnEnter(ctx, 1) })
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, observability.OutcomeOK, observability.Outcome(nil))
	assert.Equal(t, observability.OutcomeTimeout, observability.Outcome(domain.ErrTimeout))
	assert.Equal(t, observability.OutcomeError, observability.Outcome(domain.ErrInvocation))
}
