// Package demo is a small game used by the arbiter CLI and by end-to-end tests:
// every round the players guess a hidden number and the closest guesses score.
package demo

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/arbiter/pkg/contract"
	"github.com/aretw0/arbiter/pkg/domain"
	"github.com/aretw0/arbiter/pkg/fsm"
	"github.com/aretw0/arbiter/pkg/game"
	"github.com/aretw0/arbiter/pkg/participant"
)

// Phase is a state of the game.
type Phase string

const (
	Setup Phase = "Setup"
	Round Phase = "Round"
	Final Phase = "Final"
)

// Operations every player implements.
var (
	OpStart  = contract.Op("Start", nil, contract.Int, contract.Int, contract.Int)
	OpGuess  = contract.Op("Guess", contract.Int, contract.Int).Within(time.Second)
	OpResult = contract.Op("Result", nil, contract.Int, contract.Int, contract.Strings)
	OpFinal  = contract.Op("Final", nil, contract.Float)

	Contract = contract.New("closest-guess", OpStart, OpGuess, OpResult, OpFinal)
)

// Run settings and their defaults.
const (
	SettingRounds = "rounds"
	SettingMin    = "min"
	SettingMax    = "max"
	SettingSeed   = "seed"

	DefaultRounds = 3
	DefaultMin    = 1
	DefaultMax    = 100
)

const (
	varRound  = "round"
	varRng    = "rng"
	varBounds = "bounds"
)

type bounds struct {
	rounds, min, max int
}

// Definition is the state machine of the game.
var Definition = fsm.New[Phase, *game.Context](Setup).
	State(Setup).Do(setup).Go(Round).
	State(Round).Do(playRound).If("more rounds", moreRounds, Round).Go(Final).
	State(Final).Do(finish).
	MustBuild()

func setup(ctx context.Context, gc *game.Context) error {
	rounds, err := game.Setting(gc, SettingRounds, DefaultRounds)
	if err != nil {
		return err
	}
	lo, err := game.Setting(gc, SettingMin, DefaultMin)
	if err != nil {
		return err
	}
	hi, err := game.Setting(gc, SettingMax, DefaultMax)
	if err != nil {
		return err
	}
	if rounds < 1 || lo > hi {
		return domain.Configurationf("invalid game settings: rounds=%d min=%d max=%d", rounds, lo, hi)
	}

	seed, err := game.Setting(gc, SettingSeed, uint64(time.Now().UnixNano()))
	if err != nil {
		return err
	}

	gc.Set(varBounds, bounds{rounds: rounds, min: lo, max: hi})
	gc.Set(varRng, rand.New(rand.NewPCG(seed, seed>>1|1)))
	gc.Set(varRound, 0)

	for _, p := range gc.Players() {
		if err := participant.Tell(ctx, p, OpStart.Name(), rounds, lo, hi); err != nil {
			return err
		}
	}
	return nil
}

func playRound(ctx context.Context, gc *game.Context) error {
	s := game.Var[bounds](gc, varBounds)
	rng := game.Var[*rand.Rand](gc, varRng)
	round := game.Var[int](gc, varRound) + 1
	gc.Set(varRound, round)

	target := s.min + rng.IntN(s.max-s.min+1)

	best := math.MaxInt
	var winners []string
	for _, p := range gc.Players() {
		guess, err := participant.Call[int](ctx, p, OpGuess.Name(), round)
		if err != nil {
			if errors.Is(err, domain.ErrTimeout) {
				gc.Logger.Info("player too slow", "player", p.Name(), "round", round)
			} else {
				gc.Logger.Warn("guess failed", "player", p.Name(), "round", round, "err", err)
			}
			continue
		}

		dist := guess - target
		if dist < 0 {
			dist = -dist
		}
		switch {
		case dist < best:
			best, winners = dist, []string{p.Name()}
		case dist == best:
			winners = append(winners, p.Name())
		}
	}

	for _, name := range winners {
		gc.AddScore(name, 1)
	}
	gc.Logger.Info("round played", "round", round, "target", target, "winners", strings.Join(winners, ","))

	for _, p := range gc.Players() {
		if err := participant.Tell(ctx, p, OpResult.Name(), round, target, slices.Clone(winners)); err != nil {
			return err
		}
	}
	return nil
}

func moreRounds(gc *game.Context) bool {
	return game.Var[int](gc, varRound) < game.Var[bounds](gc, varBounds).rounds
}

func finish(ctx context.Context, gc *game.Context) error {
	for _, p := range gc.Players() {
		if err := participant.Tell(ctx, p, OpFinal.Name(), gc.Score(p.Name())); err != nil {
			return err
		}
	}
	return nil
}
