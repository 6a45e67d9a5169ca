package invoke

import (
	"context"

	"github.com/aretw0/arbiter/pkg/codec"
	"github.com/aretw0/arbiter/pkg/contract"
	"github.com/aretw0/arbiter/pkg/domain"
	"github.com/aretw0/arbiter/pkg/wire"
)

// Serve is the receiving side of a Remote channel. It reads calls from conn and
// delivers them to target. A call is answered with a response or fault frame; a
// notify is delivered with AsyncCall and never answered. The sender decides
// which, so both peers agree whatever their own timeout tables say.
//
// Serve returns nil when the peer sends exit or closes the connection, the
// context error when ctx ends, and a protocol error for frames it cannot
// handle. The connection is closed in every case.
func Serve(ctx context.Context, conn *wire.Connector, ser codec.Serializer, target Channel, opts ...Option) error {
	s := newSettings(opts)
	logger := s.logger

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer conn.Close()

	for {
		f, ok := conn.Receive()
		if !ok {
			if err := ctx.Err(); err != nil {
				return err
			}
			logger.Debug("connection closed by peer")
			return nil
		}

		if f.Command == wire.CommandExit {
			logger.Debug("exit requested by peer")
			return nil
		}

		rec, err := ser.Deserialize(f)
		if err != nil {
			logger.Warn("dropping connection", "command", f.Command, "err", err)
			return err
		}
		op := rec.Operation
		switch rec.Kind {
		case codec.KindNotify:
			target.AsyncCall(ctx, op, rec.Args)
			continue
		case codec.KindCall:
		default:
			err := domain.Protocolf("unexpected %s for %s", rec.Kind, op.Name())
			logger.Warn("dropping connection", "err", err)
			return err
		}

		reply := answer(ctx, target, op, rec.Args)
		out, err := ser.Serialize(reply)
		if err != nil {
			logger.Warn("answer not serializable", "op", op.Name(), "err", err)
			out, err = ser.Serialize(codec.Fault(op, err.Error()))
			if err != nil {
				return err
			}
		}
		if err := conn.Send(out); err != nil {
			return nil
		}
	}
}

func answer(ctx context.Context, target Channel, op *contract.Operation, args []any) codec.Record {
	res, err := target.Call(ctx, op, args)
	if err != nil {
		return codec.Fault(op, err.Error())
	}
	return codec.Response(op, res)
}
