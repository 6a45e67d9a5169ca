package invoke

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/arbiter/pkg/contract"
	"github.com/aretw0/arbiter/pkg/domain"
)

// Local runs calls on the participant's own Worker, so a slow participant only
// delays itself.
type Local struct {
	worker   *Worker
	target   Target
	timeouts *contract.Timeouts
	logger   *slog.Logger
}

var _ Channel = (*Local)(nil)

type outcome struct {
	value any
	err   error
}

// NewLocal builds a channel delivering calls to target through worker.
func NewLocal(worker *Worker, target Target, timeouts *contract.Timeouts, opts ...Option) *Local {
	s := newSettings(opts)
	return &Local{
		worker:   worker,
		target:   target,
		timeouts: timeouts,
		logger:   s.logger,
	}
}

// AsyncCall queues the call and returns.
func (l *Local) AsyncCall(ctx context.Context, op *contract.Operation, args []any) {
	taskCtx := context.WithoutCancel(ctx)
	err := l.worker.Submit(func() {
		if _, err := safeInvoke(taskCtx, l.target, op, args); err != nil {
			l.logger.Warn("async call failed", "op", op.Name(), "err", err)
		}
	})
	if err != nil {
		l.logger.Debug("async call dropped", "op", op.Name(), "err", err)
	}
}

// Call queues the call and waits for its outcome or the operation timeout.
// An outcome arriving after the timeout is discarded.
func (l *Local) Call(ctx context.Context, op *contract.Operation, args []any) (any, error) {
	timeout, bounded := l.timeouts.Lookup(op.Name())

	// Buffered so the worker never blocks on a caller that gave up.
	slot := make(chan outcome, 1)

	taskCtx, cancel := context.WithoutCancel(ctx), context.CancelFunc(func() {})
	if bounded {
		taskCtx, cancel = context.WithTimeout(taskCtx, timeout)
	}

	err := l.worker.Submit(func() {
		defer cancel()
		v, err := safeInvoke(taskCtx, l.target, op, args)
		slot <- outcome{value: v, err: err}
	})
	if err != nil {
		cancel()
		return nil, invocationError(op, err)
	}

	var expired <-chan time.Time
	if bounded {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case out := <-slot:
		if out.err != nil {
			return nil, invocationError(op, out.err)
		}
		return out.value, nil
	case <-expired:
		return nil, &domain.TimeoutError{Operation: op.Name(), Timeout: timeout}
	case <-ctx.Done():
		return nil, invocationError(op, ctx.Err())
	}
}
