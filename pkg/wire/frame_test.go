package wire_test

import (
	"math/rand/v2"
	"testing"

	"github.com/aretw0/arbiter/pkg/domain"
	"github.com/aretw0/arbiter/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame_RoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		command string
		payload []byte
	}{
		{"call", " guess", []byte(`[3]`)},
		{"response", "$guess", []byte(`42`)},
		{"empty payload", wire.CommandAck, nil},
		{"control frame", wire.CommandExit, wire.Control(wire.CommandExit).Payload},
		{"empty command", "", []byte("x")},
		{"payload with separators", wire.CommandAuth, []byte("login=ana\npassword=pw\n")},
		{"binary payload", "bin", []byte{0, 1, 2, 255, '\n', 0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := wire.NewFrame(tc.command, tc.payload)
			out, err := wire.Decode(wire.Encode(in))
			require.NoError(t, err)
			assert.True(t, in.Equal(out), "got %v, want %v", out, in)
		})
	}
}

func TestFrame_RoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	alphabet := []byte("abcdefghijklmnopqrstuvwxyz $!=")
	for i := 0; i < 500; i++ {
		cmd := make([]byte, rng.IntN(12))
		for j := range cmd {
			cmd[j] = alphabet[rng.IntN(len(alphabet))]
		}
		payload := make([]byte, rng.IntN(64))
		for j := range payload {
			payload[j] = byte(rng.IntN(256))
		}

		in := wire.NewFrame(string(cmd), payload)
		out, err := wire.Decode(wire.Encode(in))
		require.NoError(t, err)
		require.True(t, in.Equal(out), "iteration %d: got %v, want %v", i, out, in)
	}
}

func TestControl_PayloadIsSeparatorOnly(t *testing.T) {
	f := wire.Control(wire.CommandAck)
	assert.Equal(t, []byte("Ack\n\n"), wire.Encode(f))

	out, err := wire.Decode([]byte("Ack\n\n"))
	require.NoError(t, err)
	assert.Equal(t, wire.CommandAck, out.Command)
	assert.True(t, f.Equal(out))
}

func TestDecode_MissingSeparator(t *testing.T) {
	_, err := wire.Decode([]byte("no separator here"))
	assert.ErrorIs(t, err, domain.ErrProtocol)
}
