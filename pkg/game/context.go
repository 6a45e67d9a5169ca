package game

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/arbiter/internal/logging"
	"github.com/aretw0/arbiter/pkg/contract"
	"github.com/aretw0/arbiter/pkg/participant"
	"github.com/mitchellh/mapstructure"
)

// Context is the state shared by the triggers and predicates of one run.
// The player table and the configuration are fixed when the run starts; scores
// and variables may be changed by triggers.
type Context struct {
	RunID  string
	Logger *slog.Logger

	players map[string]*participant.Adapter
	names   []string
	config  map[string]any

	mu     sync.Mutex
	scores map[string]float64
	vars   map[string]any
}

// NewContext builds a context. Every player starts with a score of zero.
func NewContext(runID string, players map[string]*participant.Adapter, config map[string]any, logger *slog.Logger) *Context {
	if logger == nil {
		logger = logging.NewNop()
	}
	scores := make(map[string]float64, len(players))
	for name := range players {
		scores[name] = 0
	}
	return &Context{
		RunID:   runID,
		Logger:  logger,
		players: maps.Clone(players),
		names:   slices.Sorted(maps.Keys(players)),
		config:  maps.Clone(config),
		scores:  scores,
		vars:    make(map[string]any),
	}
}

// Names returns the player names in lexical order.
func (c *Context) Names() []string {
	return slices.Clone(c.names)
}

// Player returns the adapter of the named player.
func (c *Context) Player(name string) (*participant.Adapter, bool) {
	p, ok := c.players[name]
	return p, ok
}

// Players returns the adapters in name order.
func (c *Context) Players() []*participant.Adapter {
	out := make([]*participant.Adapter, 0, len(c.names))
	for _, name := range c.names {
		out = append(out, c.players[name])
	}
	return out
}

// Config returns the raw run configuration value for key.
func (c *Context) Config(key string) (any, bool) {
	v, ok := c.config[key]
	return v, ok
}

// Setting decodes the run configuration value for key into T, or returns def
// when the key is absent. Numbers and strings are converted leniently and
// durations accept "200ms" style strings.
func Setting[T any](c *Context, key string, def T) (T, error) {
	raw, ok := c.config[key]
	if !ok || raw == nil {
		return def, nil
	}
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       contract.DurationHook(),
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return def, err
	}
	if err := dec.Decode(raw); err != nil {
		return def, fmt.Errorf("setting %s: %w", key, err)
	}
	return out, nil
}

// Set stores a run variable.
func (c *Context) Set(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vars[key] = v
}

// Get returns a run variable.
func (c *Context) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.vars[key]
	return v, ok
}

// Var returns the run variable key as a T, or the zero value.
func Var[T any](c *Context, key string) T {
	v, _ := c.Get(key)
	t, _ := v.(T)
	return t
}

// SetScore records the score of a player.
func (c *Context) SetScore(name string, score float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scores[name] = score
}

// AddScore adds delta to the score of a player.
func (c *Context) AddScore(name string, delta float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scores[name] += delta
}

// Score returns the score of a player.
func (c *Context) Score(name string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scores[name]
}

// Scores returns a copy of all scores.
func (c *Context) Scores() map[string]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.scores)
}
