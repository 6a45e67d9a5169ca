package fsm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/arbiter/internal/logging"
	"github.com/aretw0/arbiter/pkg/domain"
)

// ErrStepLimit aborts a run that visited more states than allowed.
var ErrStepLimit = errors.New("step limit reached")

// Hooks observe an execution. Nil hooks are skipped.
type Hooks[S comparable] struct {
	OnEnter  func(ctx context.Context, state S)
	OnLeave  func(ctx context.Context, state S)
	OnFinish func(ctx context.Context, steps int)
}

// Option configures an Instance.
type Option[S comparable] func(*instanceConfig[S])

type instanceConfig[S comparable] struct {
	hooks    Hooks[S]
	logger   *slog.Logger
	maxSteps int
}

// WithHooks registers lifecycle hooks.
func WithHooks[S comparable](hooks Hooks[S]) Option[S] {
	return func(c *instanceConfig[S]) {
		c.hooks = hooks
	}
}

// WithLogger sets the logger.
func WithLogger[S comparable](logger *slog.Logger) Option[S] {
	return func(c *instanceConfig[S]) {
		c.logger = logger
	}
}

// WithMaxSteps aborts the run after n state visits. Zero means no limit.
func WithMaxSteps[S comparable](n int) Option[S] {
	return func(c *instanceConfig[S]) {
		c.maxSteps = n
	}
}

// Instance is one execution of a Definition over a shared context.
// Execute succeeds at most once.
type Instance[S comparable, C any] struct {
	def    *Definition[S, C]
	shared C
	config instanceConfig[S]

	mu       sync.Mutex
	current  S
	active   bool
	running  bool
	finished bool
	aborted  bool
	steps    int
}

// NewInstance prepares an execution of d over shared.
func (d *Definition[S, C]) NewInstance(shared C, opts ...Option[S]) *Instance[S, C] {
	cfg := instanceConfig[S]{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Instance[S, C]{
		def:     d,
		shared:  shared,
		config:  cfg,
		current: d.initial,
		active:  true,
	}
}

// Execute runs the machine to completion.
//
// It fails with domain.ErrAlreadyRunning while another Execute is in progress
// and with domain.ErrAlreadyExecuted after a successful run. If a trigger fails,
// the run stops in that state with a *domain.RunError; the instance is then
// neither running nor finished, and later calls fail with domain.ErrAborted.
func (i *Instance[S, C]) Execute(ctx context.Context) error {
	i.mu.Lock()
	switch {
	case i.running:
		i.mu.Unlock()
		return domain.ErrAlreadyRunning
	case i.finished:
		i.mu.Unlock()
		return domain.ErrAlreadyExecuted
	case i.aborted:
		i.mu.Unlock()
		return domain.ErrAborted
	}
	i.running = true
	state := i.current
	i.mu.Unlock()

	logger := i.config.logger
	hooks := i.config.hooks
	steps := 0

	for {
		if err := ctx.Err(); err != nil {
			return i.abort(state, err)
		}
		if i.config.maxSteps > 0 && steps >= i.config.maxSteps {
			return i.abort(state, fmt.Errorf("%w (%d)", ErrStepLimit, i.config.maxSteps))
		}

		logger.Debug("entering state", "state", fmt.Sprint(state))
		if hooks.OnEnter != nil {
			hooks.OnEnter(ctx, state)
		}

		next, ok, err := i.step(ctx, state)
		if err != nil {
			return i.abort(state, err)
		}
		steps++

		if hooks.OnLeave != nil {
			hooks.OnLeave(ctx, state)
		}

		i.mu.Lock()
		i.steps = steps
		if !ok {
			var none S
			i.current, i.active = none, false
			i.running, i.finished = false, true
			i.mu.Unlock()
			break
		}
		i.current = next
		i.mu.Unlock()
		state = next
	}

	logger.Debug("state machine finished", "steps", steps)
	if hooks.OnFinish != nil {
		hooks.OnFinish(ctx, steps)
	}
	return nil
}

// step runs the trigger of state and picks the next state.
func (i *Instance[S, C]) step(ctx context.Context, state S) (next S, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if trigger := i.def.triggers[state]; trigger != nil {
		if err := trigger(ctx, i.shared); err != nil {
			return next, false, err
		}
	}
	next, ok = i.def.next(state, i.shared)
	return next, ok, nil
}

func (i *Instance[S, C]) abort(state S, cause error) error {
	i.mu.Lock()
	i.running = false
	i.aborted = true
	i.mu.Unlock()

	err := &domain.RunError{State: fmt.Sprint(state), Err: cause}
	i.config.logger.Warn("state machine aborted", "state", fmt.Sprint(state), "err", cause)
	return err
}

// Current returns the state being executed, or false once the run completed.
func (i *Instance[S, C]) Current() (S, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.current, i.active
}

// IsRunning reports whether Execute is in progress.
func (i *Instance[S, C]) IsRunning() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.running
}

// IsFinished reports whether Execute completed successfully.
func (i *Instance[S, C]) IsFinished() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.finished
}

// Steps returns the number of states visited so far.
func (i *Instance[S, C]) Steps() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.steps
}

// Context returns the shared context.
func (i *Instance[S, C]) Context() C {
	return i.shared
}
