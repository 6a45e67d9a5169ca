package invoke_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbiter/pkg/domain"
	"github.com/aretw0/arbiter/pkg/invoke"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirect(t *testing.T) {
	rec := &recorder{}
	ch := invoke.NewDirect(rec.target())
	ctx := context.Background()

	res, err := ch.Call(ctx, opEcho, []any{"hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", res)

	_, err = ch.Call(ctx, opFail, nil)
	assert.ErrorIs(t, err, domain.ErrInvocation)
	assert.ErrorIs(t, err, errBoom)

	_, err = ch.Call(ctx, opPanic, nil)
	assert.ErrorIs(t, err, domain.ErrInvocation)

	_, err = ch.Call(ctx, opEcho, []any{42})
	assert.ErrorIs(t, err, domain.ErrInvocation, "argument of the wrong type")

	ch.AsyncCall(ctx, opNote, []any{"a"})
	ch.AsyncCall(ctx, opFail, nil)
	assert.Equal(t, []string{"a"}, rec.Notes(), "direct async calls run on the caller's goroutine")
}

func TestDispatch_UnknownOperation(t *testing.T) {
	_, err := invoke.Dispatch{}.Invoke(context.Background(), opEcho, []any{"x"})
	assert.Error(t, err)
}
