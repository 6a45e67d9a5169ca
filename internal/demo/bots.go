package demo

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/arbiter/pkg/invoke"
)

// Strategy picks a guess for a round within [lo, hi].
type Strategy func(round, lo, hi int) int

// Bot is a player implementation driven by a Strategy.
type Bot struct {
	strategy Strategy
	delay    time.Duration

	mu       sync.Mutex
	lo, hi   int
	wins     int
	final    float64
	finished bool
	name     string
}

// NewBot creates a bot playing under name.
func NewBot(name string, strategy Strategy) *Bot {
	return &Bot{name: name, strategy: strategy, lo: DefaultMin, hi: DefaultMax}
}

// Fixed always guesses v.
func Fixed(v int) Strategy {
	return func(int, int, int) int { return v }
}

// Middle guesses the middle of the range.
func Middle() Strategy {
	return func(_, lo, hi int) int { return lo + (hi-lo)/2 }
}

// Random guesses uniformly in the range.
func Random(seed uint64) Strategy {
	var mu sync.Mutex
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))
	return func(_, lo, hi int) int {
		mu.Lock()
		defer mu.Unlock()
		return lo + rng.IntN(hi-lo+1)
	}
}

// Slow makes the bot think for d before every guess.
func (b *Bot) Slow(d time.Duration) *Bot {
	b.delay = d
	return b
}

// Name is the login of the bot.
func (b *Bot) Name() string {
	return b.name
}

// Wins is the number of rounds the bot was told it won.
func (b *Bot) Wins() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.wins
}

// Final returns the final score once the game told it.
func (b *Bot) Final() (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.final, b.finished
}

// Target exposes the bot as a participant implementation.
func (b *Bot) Target() invoke.Dispatch {
	return invoke.Dispatch{
		OpStart.Name(): invoke.Notify3(func(_ context.Context, _ int, lo, hi int) {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.lo, b.hi = lo, hi
		}),
		OpGuess.Name(): invoke.Handle1(func(ctx context.Context, round int) (int, error) {
			if b.delay > 0 {
				select {
				case <-time.After(b.delay):
				case <-ctx.Done():
					return 0, ctx.Err()
				}
			}
			b.mu.Lock()
			lo, hi := b.lo, b.hi
			b.mu.Unlock()
			return b.strategy(round, lo, hi), nil
		}),
		OpResult.Name(): invoke.Notify3(func(_ context.Context, _ int, _ int, winners []string) {
			if slices.Contains(winners, b.name) {
				b.mu.Lock()
				b.wins++
				b.mu.Unlock()
			}
		}),
		OpFinal.Name(): invoke.Notify1(func(_ context.Context, score float64) {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.final, b.finished = score, true
		}),
	}
}

// Bots builds the default line-up used by `arbiter local`.
func Bots(seed uint64) []*Bot {
	return []*Bot{
		NewBot("middle", Middle()),
		NewBot("random", Random(seed)),
		NewBot("lucky", Fixed(42)),
		NewBot("sleepy", Random(seed+1)).Slow(2 * time.Second),
	}
}
