package invoke_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/arbiter/pkg/domain"
	"github.com/aretw0/arbiter/pkg/invoke"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreaker_OpensOnTimeouts(t *testing.T) {
	rec := &recorder{}
	inner := newLocal(t, rec.target())
	b := invoke.NewBreaker(inner, "slow", invoke.BreakerConfig{MaxFailures: 2, Cooldown: time.Minute})
	ctx := context.Background()

	for range 2 {
		_, err := b.Call(ctx, opSleep, []any{100})
		require.ErrorIs(t, err, domain.ErrTimeout)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	start := time.Now()
	_, err := b.Call(ctx, opEcho, []any{"x"})
	assert.ErrorIs(t, err, domain.ErrInvocation)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Less(t, time.Since(start), 20*time.Millisecond)

	b.AsyncCall(ctx, opNote, []any{"dropped"})
	time.Sleep(250 * time.Millisecond)
	assert.Empty(t, rec.Notes())
}

func TestBreaker_TargetErrorsKeepCircuitClosed(t *testing.T) {
	rec := &recorder{}
	b := invoke.NewBreaker(invoke.NewDirect(rec.target()), "failing", invoke.BreakerConfig{MaxFailures: 1})
	ctx := context.Background()

	for range 3 {
		_, err := b.Call(ctx, opFail, nil)
		assert.ErrorIs(t, err, errBoom)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())

	res, err := b.Call(ctx, opEcho, []any{"alive"})
	require.NoError(t, err)
	assert.Equal(t, "alive", res)
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	rec := &recorder{}
	inner := newLocal(t, rec.target())
	b := invoke.NewBreaker(inner, "flaky", invoke.BreakerConfig{MaxFailures: 1, Cooldown: 100 * time.Millisecond})
	ctx := context.Background()

	_, err := b.Call(ctx, opSleep, []any{80})
	require.ErrorIs(t, err, domain.ErrTimeout)
	require.Equal(t, gobreaker.StateOpen, b.State())

	time.Sleep(150 * time.Millisecond)
	res, err := b.Call(ctx, opEcho, []any{"back"})
	require.NoError(t, err)
	assert.Equal(t, "back", res)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}
