package invoke

import (
	"context"
	"time"

	"github.com/aretw0/arbiter/pkg/contract"
)

// Observer receives one event per call going through an instrumented channel.
type Observer interface {
	ObserveCall(participant, op string, elapsed time.Duration, err error)
	ObserveAsync(participant, op string)
}

type instrumented struct {
	inner       Channel
	participant string
	observer    Observer
}

// Instrument reports every call made on ch to observer.
func Instrument(ch Channel, participant string, observer Observer) Channel {
	if observer == nil {
		return ch
	}
	return &instrumented{inner: ch, participant: participant, observer: observer}
}

func (i *instrumented) AsyncCall(ctx context.Context, op *contract.Operation, args []any) {
	i.observer.ObserveAsync(i.participant, op.Name())
	i.inner.AsyncCall(ctx, op, args)
}

func (i *instrumented) Call(ctx context.Context, op *contract.Operation, args []any) (any, error) {
	start := time.Now()
	res, err := i.inner.Call(ctx, op, args)
	i.observer.ObserveCall(i.participant, op.Name(), time.Since(start), err)
	return res, err
}
