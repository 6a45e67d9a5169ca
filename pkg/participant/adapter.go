// Package participant exposes a participant's operations to game code without
// revealing how the participant is reached.
package participant

import (
	"context"
	"fmt"

	"github.com/aretw0/arbiter/pkg/contract"
	"github.com/aretw0/arbiter/pkg/domain"
	"github.com/aretw0/arbiter/pkg/invoke"
)

// route is the precomputed dispatch decision for one operation.
type route struct {
	op      *contract.Operation
	bounded bool
	zero    any
}

// Adapter routes each operation of a contract to a channel. Operations with a
// timeout become blocking calls; the others are fire-and-forget and yield the
// zero value of their result type at once.
type Adapter struct {
	name    string
	channel invoke.Channel
	routes  map[string]route
}

// New builds an adapter. The routing table is fixed at construction.
func New(name string, c contract.Contract, channel invoke.Channel, timeouts *contract.Timeouts) (*Adapter, error) {
	index, err := c.Index()
	if err != nil {
		return nil, err
	}
	routes := make(map[string]route, len(index))
	for wireName, op := range index {
		_, bounded := timeouts.Lookup(wireName)
		routes[wireName] = route{op: op, bounded: bounded, zero: op.Result.Zero()}
	}
	return &Adapter{name: name, channel: channel, routes: routes}, nil
}

// Name is the participant name.
func (a *Adapter) Name() string {
	return a.name
}

// Bounded reports whether op waits for an answer.
func (a *Adapter) Bounded(op string) bool {
	return a.routes[op].bounded
}

// Invoke calls the operation named op.
func (a *Adapter) Invoke(ctx context.Context, op string, args ...any) (any, error) {
	r, ok := a.routes[op]
	if !ok {
		return nil, domain.Preconditionf("participant %s has no operation %q", a.name, op)
	}
	if !r.bounded {
		a.channel.AsyncCall(ctx, r.op, args)
		return r.zero, nil
	}
	res, err := a.channel.Call(ctx, r.op, args)
	if err != nil {
		return r.zero, err
	}
	if res == nil {
		return r.zero, nil
	}
	return res, nil
}

// Call invokes op and converts its result to T.
func Call[T any](ctx context.Context, a *Adapter, op string, args ...any) (T, error) {
	var zero T
	res, err := a.Invoke(ctx, op, args...)
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	v, ok := res.(T)
	if !ok {
		return zero, &domain.InvocationError{
			Operation: op,
			Err:       fmt.Errorf("result %v (%T) is not a %T", res, res, zero),
		}
	}
	return v, nil
}

// Tell invokes op and ignores its result. Errors of bounded operations are
// returned.
func Tell(ctx context.Context, a *Adapter, op string, args ...any) error {
	_, err := a.Invoke(ctx, op, args...)
	return err
}
