package fsm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/arbiter/pkg/domain"
	"github.com/aretw0/arbiter/pkg/fsm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type state string

const (
	A state = "A"
	B state = "B"
	C state = "C"
	D state = "D"
)

type counter struct {
	n     int
	trail []state
}

func count(s state) fsm.Trigger[*counter] {
	return func(_ context.Context, c *counter) error {
		c.n++
		c.trail = append(c.trail, s)
		return nil
	}
}

func always(*counter) bool { return true }

func TestInstance_Linear(t *testing.T) {
	def, err := fsm.New[state, *counter](A).
		State(A).Do(count(A)).Go(B).
		State(B).Do(count(B)).Go(C).
		State(C).Do(count(C)).Go(D).
		Build()
	require.NoError(t, err)

	c := &counter{}
	inst := def.NewInstance(c)
	require.NoError(t, inst.Execute(context.Background()))

	assert.Equal(t, 3, c.n)
	assert.Equal(t, []state{A, B, C}, c.trail)
	assert.True(t, inst.IsFinished())
	assert.False(t, inst.IsRunning())
	assert.Equal(t, 4, inst.Steps())

	_, active := inst.Current()
	assert.False(t, active, "a finished run has no current state")
}

func TestInstance_FirstMatchingTransitionWins(t *testing.T) {
	def := fsm.New[state, *counter](A).
		State(A).
		When(always, B).
		When(always, C).
		State(B).Do(count(B)).
		State(C).Do(count(C)).
		MustBuild()

	for i := 0; i < 10; i++ {
		c := &counter{}
		require.NoError(t, def.NewInstance(c).Execute(context.Background()))
		assert.Equal(t, []state{B}, c.trail)
	}
}

func TestInstance_GuardsAreEvaluatedInOrder(t *testing.T) {
	def := fsm.New[state, *counter](A).
		State(A).Do(count(A)).
		When(func(c *counter) bool { return c.n > 5 }, D).
		When(func(c *counter) bool { return c.n < 3 }, A).
		Go(B).
		State(B).Do(count(B)).
		MustBuild()

	c := &counter{}
	require.NoError(t, def.NewInstance(c).Execute(context.Background()))
	assert.Equal(t, []state{A, A, A, B}, c.trail)
}

func TestInstance_NoTrueTransitionTerminates(t *testing.T) {
	def := fsm.New[state, *counter](A).
		State(A).Do(count(A)).When(func(*counter) bool { return false }, B).
		MustBuild()

	c := &counter{}
	inst := def.NewInstance(c)
	require.NoError(t, inst.Execute(context.Background()))
	assert.Equal(t, 1, c.n)
	assert.True(t, inst.IsFinished())
}

func TestInstance_ExecuteTwice(t *testing.T) {
	def := fsm.New[state, *counter](A).State(A).Do(count(A)).MustBuild()

	inst := def.NewInstance(&counter{})
	require.NoError(t, inst.Execute(context.Background()))
	assert.ErrorIs(t, inst.Execute(context.Background()), domain.ErrAlreadyExecuted)
}

func TestInstance_Reentrancy(t *testing.T) {
	var (
		inst   *fsm.Instance[state, *counter]
		nested error
	)
	def := fsm.New[state, *counter](A).
		State(A).Do(func(ctx context.Context, _ *counter) error {
			nested = inst.Execute(ctx)
			return nil
		}).
		MustBuild()

	inst = def.NewInstance(&counter{})
	require.NoError(t, inst.Execute(context.Background()))
	assert.ErrorIs(t, nested, domain.ErrAlreadyRunning)
}

func TestInstance_TriggerFailureAbortsRun(t *testing.T) {
	boom := errors.New("boom")
	def := fsm.New[state, *counter](A).
		State(A).Do(count(A)).Go(B).
		State(B).Do(func(context.Context, *counter) error { return boom }).Go(C).
		State(C).Do(count(C)).
		MustBuild()

	c := &counter{}
	inst := def.NewInstance(c)
	err := inst.Execute(context.Background())

	var runErr *domain.RunError
	require.True(t, errors.As(err, &runErr))
	assert.Equal(t, "B", runErr.State)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []state{A}, c.trail)

	// The instance is left neither running nor finished, and cannot be reused.
	assert.False(t, inst.IsRunning())
	assert.False(t, inst.IsFinished())
	current, active := inst.Current()
	assert.True(t, active)
	assert.Equal(t, B, current)
	assert.ErrorIs(t, inst.Execute(context.Background()), domain.ErrAborted)
}

func TestInstance_TriggerPanicAbortsRun(t *testing.T) {
	def := fsm.New[state, *counter](A).
		State(A).Do(func(context.Context, *counter) error { panic("bad trigger") }).
		MustBuild()

	err := def.NewInstance(&counter{}).Execute(context.Background())
	var runErr *domain.RunError
	assert.True(t, errors.As(err, &runErr))
}

func TestInstance_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	def := fsm.New[state, *counter](A).
		State(A).Do(func(context.Context, *counter) error { cancel(); return nil }).Go(B).
		State(B).Do(count(B)).
		MustBuild()

	c := &counter{}
	err := def.NewInstance(c).Execute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, c.trail)
}

func TestInstance_StepLimit(t *testing.T) {
	def := fsm.New[state, *counter](A).State(A).Do(count(A)).Go(A).MustBuild()

	c := &counter{}
	err := def.NewInstance(c, fsm.WithMaxSteps[state](5)).Execute(context.Background())
	assert.ErrorIs(t, err, fsm.ErrStepLimit)
	assert.Equal(t, 5, c.n)
}

func TestInstance_Hooks(t *testing.T) {
	def := fsm.New[state, *counter](A).
		State(A).Go(B).
		State(B).Go(C).
		MustBuild()

	var entered, left []state
	finished := -1
	hooks := fsm.Hooks[state]{
		OnEnter:  func(_ context.Context, s state) { entered = append(entered, s) },
		OnLeave:  func(_ context.Context, s state) { left = append(left, s) },
		OnFinish: func(_ context.Context, steps int) { finished = steps },
	}

	require.NoError(t, def.NewInstance(&counter{}, fsm.WithHooks(hooks)).Execute(context.Background()))
	assert.Equal(t, []state{A, B, C}, entered)
	assert.Equal(t, []state{A, B, C}, left)
	assert.Equal(t, 3, finished)
}

func TestDefinition_Describe(t *testing.T) {
	def := fsm.New[state, *counter](A).
		State(A).Do(count(A)).If("again", always, A).Go(B).
		State(B).When(always, C).
		MustBuild()

	infos := def.Describe()
	require.Len(t, infos, 3)

	assert.Equal(t, "A", infos[0].Name)
	assert.True(t, infos[0].Initial)
	assert.True(t, infos[0].Action)
	assert.Equal(t, []fsm.Edge{{To: "A", Label: "again"}, {To: "B"}}, infos[0].Edges)

	assert.Equal(t, []fsm.Edge{{To: "C", Label: "?"}}, infos[1].Edges)
	assert.True(t, infos[2].Terminal)
	assert.True(t, def.Terminal(C))
	assert.Equal(t, []state{A, B, C}, def.States())
}

func TestBuilder_Errors(t *testing.T) {
	_, err := fsm.New[state, *counter](A).State(A).Do(nil).Build()
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = fsm.New[state, *counter](A).State(A).When(nil, B).Build()
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestDefinition_IsReusable(t *testing.T) {
	b := fsm.New[state, *counter](A).State(A).Do(count(A)).Go(B)
	def, err := b.Build()
	require.NoError(t, err)

	// Configuring the builder further does not alter a built definition.
	b.State(B).Go(C)
	assert.True(t, def.Terminal(B))

	for i := 0; i < 3; i++ {
		c := &counter{}
		require.NoError(t, def.NewInstance(c).Execute(context.Background()))
		assert.Equal(t, 1, c.n)
	}
}
