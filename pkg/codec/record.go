package codec

import (
	"github.com/aretw0/arbiter/pkg/contract"
	"github.com/aretw0/arbiter/pkg/wire"
)

// Kind tells calls from responses. A call waits for an answer, a notify does
// not.
type Kind int

const (
	KindCall Kind = iota
	KindResponse
	KindFault
	KindNotify
)

func (k Kind) String() string {
	switch k {
	case KindCall:
		return "call"
	case KindResponse:
		return "response"
	case KindFault:
		return "fault"
	case KindNotify:
		return "notify"
	}
	return "unknown"
}

// Record is one operation call or the answer to one.
// Calls and notifies carry Args, responses carry Result, faults carry Fault.
type Record struct {
	Kind      Kind
	Operation *contract.Operation
	Args      []any
	Result    any
	Fault     string
}

// Call builds a call record.
func Call(op *contract.Operation, args ...any) Record {
	return Record{Kind: KindCall, Operation: op, Args: args}
}

// Notify builds a fire-and-forget call record. The peer never answers it.
func Notify(op *contract.Operation, args ...any) Record {
	return Record{Kind: KindNotify, Operation: op, Args: args}
}

// Response builds a response record.
func Response(op *contract.Operation, result any) Record {
	return Record{Kind: KindResponse, Operation: op, Result: result}
}

// Fault builds a record reporting that op failed on the peer.
func Fault(op *contract.Operation, message string) Record {
	return Record{Kind: KindFault, Operation: op, Fault: message}
}

// Serializer converts records to frames and back.
type Serializer interface {
	Serialize(r Record) (wire.Frame, error)
	Deserialize(f wire.Frame) (Record, error)
}

// Factory builds a Serializer bound to a contract. Construction fails on an
// invalid contract.
type Factory func(c contract.Contract) (Serializer, error)

// DefaultFactory builds JSON serializers.
func DefaultFactory(c contract.Contract) (Serializer, error) {
	return NewJSON(c)
}
