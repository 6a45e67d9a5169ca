package invoke

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/aretw0/arbiter/pkg/contract"
)

// Target is the participant implementation a channel delivers calls to.
type Target interface {
	Invoke(ctx context.Context, op *contract.Operation, args []any) (any, error)
}

// HandlerFunc handles one operation.
type HandlerFunc func(ctx context.Context, args []any) (any, error)

// Dispatch is a Target built from a table of handlers keyed by wire name.
type Dispatch map[string]HandlerFunc

// Invoke routes the call to the handler registered for op.
func (d Dispatch) Invoke(ctx context.Context, op *contract.Operation, args []any) (any, error) {
	h, ok := d[op.Name()]
	if !ok {
		return nil, fmt.Errorf("no handler for operation %q", op.Name())
	}
	return h(ctx, args)
}

// TargetFunc adapts a function to Target.
type TargetFunc func(ctx context.Context, op *contract.Operation, args []any) (any, error)

func (f TargetFunc) Invoke(ctx context.Context, op *contract.Operation, args []any) (any, error) {
	return f(ctx, op, args)
}

// Handle0 wraps a handler without parameters.
func Handle0[R any](fn func(context.Context) (R, error)) HandlerFunc {
	return func(ctx context.Context, args []any) (any, error) {
		if err := arity(args, 0); err != nil {
			return nil, err
		}
		return fn(ctx)
	}
}

// Handle1 wraps a handler with one parameter.
func Handle1[A, R any](fn func(context.Context, A) (R, error)) HandlerFunc {
	return func(ctx context.Context, args []any) (any, error) {
		if err := arity(args, 1); err != nil {
			return nil, err
		}
		a, err := arg[A](args, 0)
		if err != nil {
			return nil, err
		}
		return fn(ctx, a)
	}
}

// Handle2 wraps a handler with two parameters.
func Handle2[A, B, R any](fn func(context.Context, A, B) (R, error)) HandlerFunc {
	return func(ctx context.Context, args []any) (any, error) {
		if err := arity(args, 2); err != nil {
			return nil, err
		}
		a, err := arg[A](args, 0)
		if err != nil {
			return nil, err
		}
		b, err := arg[B](args, 1)
		if err != nil {
			return nil, err
		}
		return fn(ctx, a, b)
	}
}

// Handle3 wraps a handler with three parameters.
func Handle3[A, B, C, R any](fn func(context.Context, A, B, C) (R, error)) HandlerFunc {
	return func(ctx context.Context, args []any) (any, error) {
		if err := arity(args, 3); err != nil {
			return nil, err
		}
		a, err := arg[A](args, 0)
		if err != nil {
			return nil, err
		}
		b, err := arg[B](args, 1)
		if err != nil {
			return nil, err
		}
		c, err := arg[C](args, 2)
		if err != nil {
			return nil, err
		}
		return fn(ctx, a, b, c)
	}
}

// Notify1 wraps a void handler with one parameter.
func Notify1[A any](fn func(context.Context, A)) HandlerFunc {
	return Handle1(func(ctx context.Context, a A) (any, error) {
		fn(ctx, a)
		return nil, nil
	})
}

// Notify2 wraps a void handler with two parameters.
func Notify2[A, B any](fn func(context.Context, A, B)) HandlerFunc {
	return Handle2(func(ctx context.Context, a A, b B) (any, error) {
		fn(ctx, a, b)
		return nil, nil
	})
}

// Notify3 wraps a void handler with three parameters.
func Notify3[A, B, C any](fn func(context.Context, A, B, C)) HandlerFunc {
	return Handle3(func(ctx context.Context, a A, b B, c C) (any, error) {
		fn(ctx, a, b, c)
		return nil, nil
	})
}

func arity(args []any, n int) error {
	if len(args) != n {
		return fmt.Errorf("expected %d arguments, got %d", n, len(args))
	}
	return nil
}

func arg[T any](args []any, i int) (T, error) {
	var zero T
	if args[i] == nil {
		return zero, nil
	}
	v, ok := args[i].(T)
	if !ok {
		return zero, fmt.Errorf("argument %d: expected %T, got %T", i, zero, args[i])
	}
	return v, nil
}

// safeInvoke calls the target, turning a panic into an error.
func safeInvoke(ctx context.Context, target Target, op *contract.Operation, args []any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v\n%s", op.Name(), r, debug.Stack())
		}
	}()
	return target.Invoke(ctx, op, args)
}
