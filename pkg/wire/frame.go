package wire

import (
	"bytes"
	"fmt"

	"github.com/aretw0/arbiter/pkg/domain"
)

// Separator splits the command from the payload inside an encoded frame.
const Separator byte = '\n'

// Control commands understood by every peer.
const (
	CommandExit  = "exit"
	CommandAuth  = "Auth"
	CommandAck   = "Ack"
	CommandError = "Error"
)

// Frame is an immutable (command, payload) unit.
type Frame struct {
	Command string
	Payload []byte
}

// NewFrame builds a frame, copying the payload.
func NewFrame(command string, payload []byte) Frame {
	return Frame{Command: command, Payload: bytes.Clone(payload)}
}

// Control builds a frame that carries only a command, such as Ack or exit. Its
// payload is a lone separator, so the encoded frame is command, separator,
// separator.
func Control(command string) Frame {
	return Frame{Command: command, Payload: []byte{Separator}}
}

// Equal compares two frames by value. A nil and an empty payload are equal.
func (f Frame) Equal(other Frame) bool {
	return f.Command == other.Command && bytes.Equal(f.Payload, other.Payload)
}

func (f Frame) String() string {
	return fmt.Sprintf("%s (%d bytes)", f.Command, len(f.Payload))
}

// Encode concatenates the command, the separator and the payload.
func Encode(f Frame) []byte {
	buf := make([]byte, 0, len(f.Command)+1+len(f.Payload))
	buf = append(buf, f.Command...)
	buf = append(buf, Separator)
	return append(buf, f.Payload...)
}

// Decode splits data at the first separator.
func Decode(data []byte) (Frame, error) {
	i := bytes.IndexByte(data, Separator)
	if i < 0 {
		return Frame{}, domain.Protocolf("frame has no command separator (%d bytes)", len(data))
	}
	return Frame{
		Command: string(data[:i]),
		Payload: bytes.Clone(data[i+1:]),
	}, nil
}
