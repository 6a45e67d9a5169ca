package invoke

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/arbiter/pkg/codec"
	"github.com/aretw0/arbiter/pkg/contract"
	"github.com/aretw0/arbiter/pkg/domain"
	"github.com/aretw0/arbiter/pkg/wire"
)

// Remote sends calls to a peer over a connector. Calls are not pipelined: a
// new call is only sent once the previous one resolved.
type Remote struct {
	conn     *wire.Connector
	ser      codec.Serializer
	timeouts *contract.Timeouts
	logger   *slog.Logger

	mu sync.Mutex
	// abandoned counts bounded calls that timed out. The peer still answers
	// them, in order, so that many responses are skipped before the next one.
	abandoned int
}

var _ Channel = (*Remote)(nil)

// NewRemote builds a channel over conn.
func NewRemote(conn *wire.Connector, ser codec.Serializer, timeouts *contract.Timeouts, opts ...Option) *Remote {
	s := newSettings(opts)
	return &Remote{
		conn:     conn,
		ser:      ser,
		timeouts: timeouts,
		logger:   s.logger,
	}
}

// Conn returns the underlying connector.
func (r *Remote) Conn() *wire.Connector {
	return r.conn
}

// AsyncCall sends the call as a notify, which the peer does not answer.
func (r *Remote) AsyncCall(_ context.Context, op *contract.Operation, args []any) {
	f, err := r.ser.Serialize(codec.Notify(op, args...))
	if err != nil {
		r.logger.Warn("async call not sent", "op", op.Name(), "err", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.conn.Send(f); err != nil {
		r.logger.Debug("async call lost", "op", op.Name(), "err", err)
	}
}

// Call sends the call and reads frames until its answer arrives, the operation
// timeout elapses, or the connection fails.
func (r *Remote) Call(ctx context.Context, op *contract.Operation, args []any) (any, error) {
	f, err := r.ser.Serialize(codec.Call(op, args...))
	if err != nil {
		return nil, invocationError(op, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.conn.Send(f); err != nil {
		return nil, invocationError(op, err)
	}

	timeout, bounded := r.timeouts.Lookup(op.Name())
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && (!bounded || d.Before(deadline)) {
		deadline, bounded = d, true
		if timeout == 0 {
			timeout = time.Until(d)
		}
	}

	for {
		var (
			reply wire.Frame
			ok    bool
		)
		if bounded {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				r.abandoned++
				return nil, &domain.TimeoutError{Operation: op.Name(), Timeout: timeout}
			}
			reply, ok = r.conn.ReceiveTimeout(remaining)
		} else {
			reply, ok = r.conn.Receive()
		}

		if !ok {
			if r.conn.IsClosed() {
				return nil, invocationError(op, domain.ErrClosed)
			}
			r.abandoned++
			return nil, &domain.TimeoutError{Operation: op.Name(), Timeout: timeout}
		}

		rec, err := r.ser.Deserialize(reply)
		if err != nil {
			_ = r.conn.Close()
			return nil, invocationError(op, err)
		}
		if rec.Kind == codec.KindCall || rec.Kind == codec.KindNotify {
			_ = r.conn.Close()
			return nil, invocationError(op, domain.Protocolf("call %s received while waiting for %s", rec.Operation.Name(), op.Name()))
		}
		if r.abandoned > 0 {
			r.abandoned--
			r.logger.Debug("discarding late answer", "op", rec.Operation.Name())
			continue
		}
		if rec.Operation != op {
			_ = r.conn.Close()
			return nil, invocationError(op, domain.Protocolf("answer for %s received while waiting for %s", rec.Operation.Name(), op.Name()))
		}
		if rec.Kind == codec.KindFault {
			return nil, invocationError(op, &domain.RemoteError{Message: rec.Fault})
		}
		return rec.Result, nil
	}
}

// Exit tells the peer to close and closes the connection.
func (r *Remote) Exit() {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.conn.Send(wire.Control(wire.CommandExit))
	_ = r.conn.Close()
}
