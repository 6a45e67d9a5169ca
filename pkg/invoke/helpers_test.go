package invoke_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aretw0/arbiter/pkg/contract"
	"github.com/aretw0/arbiter/pkg/invoke"
)

var (
	opEcho  = contract.Op("Echo", contract.String, contract.String)
	opSleep = contract.Op("Sleep", contract.Int, contract.Int)
	opFail  = contract.Op("Fail", nil)
	opPanic = contract.Op("Panic", nil)
	opNote  = contract.Op("Note", nil, contract.String)

	testContract = contract.New("test", opEcho, opSleep, opFail, opPanic, opNote)

	testTimeouts = contract.NewTimeouts(map[string]time.Duration{
		"Echo":  time.Second,
		"Sleep": 50 * time.Millisecond,
		"Fail":  time.Second,
		"Panic": time.Second,
	})
)

var errBoom = errors.New("boom")

// recorder is a participant implementation that remembers notes.
type recorder struct {
	mu    sync.Mutex
	notes []string
}

func (r *recorder) Notes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.notes...)
}

func (r *recorder) target() invoke.Dispatch {
	return invoke.Dispatch{
		"Echo": invoke.Handle1(func(_ context.Context, s string) (string, error) {
			return s, nil
		}),
		"Sleep": invoke.Handle1(func(_ context.Context, ms int) (int, error) {
			time.Sleep(time.Duration(ms) * time.Millisecond)
			return ms, nil
		}),
		"Fail": invoke.Handle0(func(context.Context) (any, error) {
			return nil, errBoom
		}),
		"Panic": invoke.Handle0(func(context.Context) (any, error) {
			panic("kaboom")
		}),
		"Note": invoke.Notify1(func(_ context.Context, s string) {
			r.mu.Lock()
			r.notes = append(r.notes, s)
			r.mu.Unlock()
		}),
	}
}
