package codec_test

import (
	"testing"

	"github.com/aretw0/arbiter/pkg/codec"
	"github.com/aretw0/arbiter/pkg/contract"
	"github.com/aretw0/arbiter/pkg/domain"
	"github.com/aretw0/arbiter/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type move struct {
	X, Y int
}

var (
	opGuess  = contract.Op("Guess", contract.Int, contract.Int)
	opNotify = contract.Op("Notify", nil, contract.String).As("notify")
	opMove   = contract.Op("Move", contract.JSON[move]("move"), contract.JSON[move]("move"), contract.Bool)
	opReady  = contract.Op("Ready", contract.Bool)

	testContract = contract.New("player", opGuess, opNotify, opMove, opReady)
)

func newSerializer(t *testing.T) *codec.JSONSerializer {
	t.Helper()
	s, err := codec.NewJSON(testContract)
	require.NoError(t, err)
	return s
}

func TestJSONSerializer_RoundTrip(t *testing.T) {
	s := newSerializer(t)

	records := []codec.Record{
		codec.Call(opGuess, 3),
		codec.Call(opNotify, "round 1"),
		codec.Call(opNotify, nil),
		codec.Call(opMove, move{X: 1, Y: -2}, true),
		codec.Call(opReady),
		codec.Notify(opNotify, "round 2"),
		codec.Notify(opReady),
		codec.Response(opGuess, 42),
		codec.Response(opNotify, nil),
		codec.Response(opMove, move{X: 5}),
		codec.Response(opReady, true),
		codec.Fault(opGuess, "boom"),
	}

	for _, r := range records {
		t.Run(r.Kind.String()+" "+r.Operation.Name(), func(t *testing.T) {
			f, err := s.Serialize(r)
			require.NoError(t, err)

			out, err := s.Deserialize(f)
			require.NoError(t, err)
			assert.Equal(t, r, out)
		})
	}
}

func TestJSONSerializer_WireFormat(t *testing.T) {
	s := newSerializer(t)

	f, err := s.Serialize(codec.Call(opMove, move{X: 1, Y: 2}, false))
	require.NoError(t, err)
	assert.Equal(t, " Move", f.Command)
	assert.JSONEq(t, `[{"X":1,"Y":2},false]`, string(f.Payload))

	f, err = s.Serialize(codec.Call(opNotify, nil))
	require.NoError(t, err)
	assert.Equal(t, " notify", f.Command, "wire name uses the alias")
	assert.JSONEq(t, `[null]`, string(f.Payload))

	f, err = s.Serialize(codec.Notify(opNotify, "hi"))
	require.NoError(t, err)
	assert.Equal(t, "&notify", f.Command, "fire-and-forget calls have their own prefix")
	assert.JSONEq(t, `["hi"]`, string(f.Payload))

	f, err = s.Serialize(codec.Response(opNotify, nil))
	require.NoError(t, err)
	assert.Equal(t, "$notify", f.Command)
	assert.Equal(t, "null", string(f.Payload))
}

func TestJSONSerializer_DuplicateNames(t *testing.T) {
	dup := contract.New("player",
		contract.Op("Guess", contract.Int),
		contract.Op("Other", contract.Int).As("Guess"),
	)
	_, err := codec.NewJSON(dup)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestJSONSerializer_SerializeErrors(t *testing.T) {
	s := newSerializer(t)

	_, err := s.Serialize(codec.Call(opGuess))
	assert.Error(t, err, "argument count mismatch")

	_, err = s.Serialize(codec.Call(opGuess, "three"))
	assert.Error(t, err, "argument type mismatch")

	foreign := contract.Op("Guess", contract.Int, contract.Int)
	_, err = s.Serialize(codec.Call(foreign, 1))
	assert.Error(t, err, "operation from another contract")
}

func TestJSONSerializer_DeserializeErrors(t *testing.T) {
	s := newSerializer(t)

	frames := map[string]wire.Frame{
		"unknown operation": {Command: " Missing", Payload: []byte("[]")},
		"unknown prefix":    {Command: "#Guess", Payload: []byte("[1]")},
		"short command":     {Command: " ", Payload: []byte("[]")},
		"not an array":      {Command: " Guess", Payload: []byte("1")},
		"wrong arity":       {Command: " Guess", Payload: []byte("[1,2]")},
		"wrong type":        {Command: " Guess", Payload: []byte(`["x"]`)},
		"notify arity":      {Command: "&Guess", Payload: []byte("[]")},
		"bad result":        {Command: "$Guess", Payload: []byte(`{}`)},
		"bad fault":         {Command: "!Guess", Payload: []byte(`12`)},
	}

	for name, f := range frames {
		t.Run(name, func(t *testing.T) {
			_, err := s.Deserialize(f)
			assert.ErrorIs(t, err, domain.ErrProtocol)
		})
	}
}
