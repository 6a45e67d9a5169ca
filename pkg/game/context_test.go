package game_test

import (
	"testing"
	"time"

	"github.com/aretw0/arbiter/pkg/game"
	"github.com/aretw0/arbiter/pkg/participant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_Scores(t *testing.T) {
	gc := game.NewContext("run", map[string]*participant.Adapter{"bob": nil, "ana": nil}, nil, nil)

	assert.Equal(t, []string{"ana", "bob"}, gc.Names())
	assert.Equal(t, map[string]float64{"ana": 0, "bob": 0}, gc.Scores())

	gc.SetScore("ana", 2)
	gc.AddScore("ana", 0.5)
	gc.AddScore("bob", -1)
	assert.Equal(t, 2.5, gc.Score("ana"))

	scores := gc.Scores()
	scores["ana"] = 100
	assert.Equal(t, 2.5, gc.Score("ana"), "Scores returns a copy")
}

func TestContext_Settings(t *testing.T) {
	gc := game.NewContext("run", nil, map[string]any{
		"rounds": "3",
		"think":  "150ms",
		"target": 42.0,
	}, nil)

	rounds, err := game.Setting(gc, "rounds", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, rounds)

	think, err := game.Setting(gc, "think", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 150*time.Millisecond, think)

	missing, err := game.Setting(gc, "missing", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, missing)

	_, err = game.Setting(gc, "think", 0)
	assert.Error(t, err)
}

func TestContext_Vars(t *testing.T) {
	gc := game.NewContext("run", nil, nil, nil)
	gc.Set("round", 2)

	assert.Equal(t, 2, game.Var[int](gc, "round"))
	assert.Equal(t, "", game.Var[string](gc, "round"))
	_, ok := gc.Get("missing")
	assert.False(t, ok)
}
