package codec

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/arbiter/pkg/contract"
	"github.com/aretw0/arbiter/pkg/domain"
	"github.com/aretw0/arbiter/pkg/wire"
)

// Command prefixes.
const (
	CallPrefix     = " "
	NotifyPrefix   = "&"
	ResponsePrefix = "$"
	FaultPrefix    = "!"
)

// JSONSerializer is the default Serializer.
type JSONSerializer struct {
	contract string
	ops      map[string]*contract.Operation
}

var _ Serializer = (*JSONSerializer)(nil)

// NewJSON indexes the operations of c. Duplicate wire names are a
// configuration error.
func NewJSON(c contract.Contract) (*JSONSerializer, error) {
	ops, err := c.Index()
	if err != nil {
		return nil, err
	}
	return &JSONSerializer{contract: c.Name, ops: ops}, nil
}

// Serialize encodes r.
func (s *JSONSerializer) Serialize(r Record) (wire.Frame, error) {
	op := r.Operation
	if op == nil {
		return wire.Frame{}, fmt.Errorf("%s record without operation", r.Kind)
	}
	if known, ok := s.ops[op.Name()]; !ok || known != op {
		return wire.Frame{}, fmt.Errorf("operation %q is not part of contract %s", op.Name(), s.contract)
	}

	switch r.Kind {
	case KindCall, KindNotify:
		if len(r.Args) != len(op.Params) {
			return wire.Frame{}, fmt.Errorf("operation %s takes %d arguments, got %d", op.Name(), len(op.Params), len(r.Args))
		}
		raws := make([]json.RawMessage, len(r.Args))
		for i, arg := range r.Args {
			raw, err := op.Params[i].Encode(arg)
			if err != nil {
				return wire.Frame{}, fmt.Errorf("operation %s argument %d: %w", op.Name(), i, err)
			}
			raws[i] = raw
		}
		payload, err := json.Marshal(raws)
		if err != nil {
			return wire.Frame{}, err
		}
		prefix := CallPrefix
		if r.Kind == KindNotify {
			prefix = NotifyPrefix
		}
		return wire.Frame{Command: prefix + op.Name(), Payload: payload}, nil

	case KindResponse:
		payload, err := op.Result.Encode(r.Result)
		if err != nil {
			return wire.Frame{}, fmt.Errorf("operation %s result: %w", op.Name(), err)
		}
		return wire.Frame{Command: ResponsePrefix + op.Name(), Payload: payload}, nil

	case KindFault:
		payload, err := json.Marshal(r.Fault)
		if err != nil {
			return wire.Frame{}, err
		}
		return wire.Frame{Command: FaultPrefix + op.Name(), Payload: payload}, nil
	}
	return wire.Frame{}, fmt.Errorf("unknown record kind %d", r.Kind)
}

// Deserialize decodes f. Any failure is a protocol error.
func (s *JSONSerializer) Deserialize(f wire.Frame) (Record, error) {
	if len(f.Command) < 2 {
		return Record{}, domain.Protocolf("command %q is not an operation", f.Command)
	}
	prefix, name := f.Command[:1], f.Command[1:]

	op, ok := s.ops[name]
	if !ok {
		return Record{}, domain.Protocolf("unknown operation %q in contract %s", name, s.contract)
	}

	switch prefix {
	case CallPrefix, NotifyPrefix:
		var raws []json.RawMessage
		if err := json.Unmarshal(f.Payload, &raws); err != nil {
			return Record{}, domain.Protocolf("operation %s arguments: %v", name, err)
		}
		if len(raws) != len(op.Params) {
			return Record{}, domain.Protocolf("operation %s takes %d arguments, got %d", name, len(op.Params), len(raws))
		}
		var args []any
		if len(raws) > 0 {
			args = make([]any, len(raws))
		}
		for i, raw := range raws {
			v, err := op.Params[i].Decode(raw)
			if err != nil {
				return Record{}, domain.Protocolf("operation %s argument %d: %v", name, i, err)
			}
			args[i] = v
		}
		if prefix == NotifyPrefix {
			return Notify(op, args...), nil
		}
		return Call(op, args...), nil

	case ResponsePrefix:
		v, err := op.Result.Decode(f.Payload)
		if err != nil {
			return Record{}, domain.Protocolf("operation %s result: %v", name, err)
		}
		return Response(op, v), nil

	case FaultPrefix:
		var msg string
		if err := json.Unmarshal(f.Payload, &msg); err != nil {
			return Record{}, domain.Protocolf("operation %s fault: %v", name, err)
		}
		return Fault(op, msg), nil
	}
	return Record{}, domain.Protocolf("unknown command prefix %q", prefix)
}
