package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrConfiguration is returned for fatal setup mistakes (duplicate operation
	// names, malformed timeouts).
	ErrConfiguration = errors.New("configuration error")

	// ErrPrecondition is returned when the caller violates an entry point contract.
	ErrPrecondition = errors.New("precondition failed")

	// ErrTimeout is returned when a bounded call was not answered in time.
	ErrTimeout = errors.New("call timed out")

	// ErrInvocation is returned when the target of a call failed.
	ErrInvocation = errors.New("invocation failed")

	// ErrProtocol is returned for frames that cannot be understood.
	ErrProtocol = errors.New("protocol error")

	// ErrClosed is returned when a connection or worker has been shut down.
	ErrClosed = errors.New("closed")

	// ErrAuthentication is returned when a peer could not prove its identity.
	ErrAuthentication = errors.New("authentication failed")

	// ErrAlreadyRunning is returned by Execute on an instance that is executing.
	ErrAlreadyRunning = errors.New("state machine is already running")

	// ErrAlreadyExecuted is returned by Execute on an instance that completed.
	ErrAlreadyExecuted = errors.New("state machine was already executed")

	// ErrAborted is returned by Execute on an instance whose previous run failed.
	ErrAborted = errors.New("state machine run was aborted")

	// ErrRunNotFound is returned by result stores for unknown run ids.
	ErrRunNotFound = errors.New("run not found")
)

// Configurationf builds a configuration error.
func Configurationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// Preconditionf builds a precondition error.
func Preconditionf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPrecondition, fmt.Sprintf(format, args...))
}

// Protocolf builds a protocol error.
func Protocolf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrProtocol, fmt.Sprintf(format, args...))
}

// TimeoutError reports a bounded call that did not complete within its budget.
type TimeoutError struct {
	Operation string
	Timeout   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("operation %q: no answer within %s", e.Operation, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// InvocationError reports a failure raised by the target of a call,
// or by the transport carrying it.
type InvocationError struct {
	Operation string
	Err       error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("operation %q: %v", e.Operation, e.Err)
}

// Is makes errors.Is(err, ErrInvocation) hold while keeping Unwrap on the cause.
func (e *InvocationError) Is(target error) bool { return target == ErrInvocation }

func (e *InvocationError) Unwrap() error { return e.Err }

// RemoteError carries an error message received from a peer.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string { return "remote: " + e.Message }

// RunError aborts a game: a state trigger failed.
type RunError struct {
	State string
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run aborted in state %s: %v", e.State, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }
