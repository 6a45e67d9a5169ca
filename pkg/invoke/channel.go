package invoke

import (
	"context"
	"log/slog"

	"github.com/aretw0/arbiter/internal/logging"
	"github.com/aretw0/arbiter/pkg/contract"
	"github.com/aretw0/arbiter/pkg/domain"
)

// Channel is the calling contract shared by every participant transport.
type Channel interface {
	// AsyncCall delivers a call without waiting for it. Failures are logged.
	AsyncCall(ctx context.Context, op *contract.Operation, args []any)

	// Call delivers a call and waits for its result, bounded by the operation
	// timeout. Failures are returned as *domain.TimeoutError or
	// *domain.InvocationError.
	Call(ctx context.Context, op *contract.Operation, args []any) (any, error)
}

type settings struct {
	logger *slog.Logger
}

// Option configures channels, workers and the serve loop.
type Option func(*settings)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

func newSettings(opts []Option) settings {
	s := settings{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func invocationError(op *contract.Operation, err error) error {
	return &domain.InvocationError{Operation: op.Name(), Err: err}
}

// Direct invokes the target on the caller's goroutine.
type Direct struct {
	target Target
	logger *slog.Logger
}

var _ Channel = (*Direct)(nil)

// NewDirect wraps a target.
func NewDirect(target Target, opts ...Option) *Direct {
	s := newSettings(opts)
	return &Direct{target: target, logger: s.logger}
}

// AsyncCall runs the call and logs its failure.
func (d *Direct) AsyncCall(ctx context.Context, op *contract.Operation, args []any) {
	if _, err := safeInvoke(ctx, d.target, op, args); err != nil {
		d.logger.Warn("async call failed", "op", op.Name(), "err", err)
	}
}

// Call runs the call. There is no timeout: the caller's goroutine does the work.
func (d *Direct) Call(ctx context.Context, op *contract.Operation, args []any) (any, error) {
	res, err := safeInvoke(ctx, d.target, op, args)
	if err != nil {
		return nil, invocationError(op, err)
	}
	return res, nil
}
