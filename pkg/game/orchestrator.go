package game

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/aretw0/arbiter/internal/logging"
	"github.com/aretw0/arbiter/pkg/contract"
	"github.com/aretw0/arbiter/pkg/domain"
	"github.com/aretw0/arbiter/pkg/fsm"
	"github.com/aretw0/arbiter/pkg/invoke"
	"github.com/aretw0/arbiter/pkg/observability"
	"github.com/aretw0/arbiter/pkg/participant"
	"github.com/aretw0/arbiter/pkg/ports"
	"github.com/oklog/ulid/v2"
)

type settings struct {
	overrides map[string]any
	config    map[string]any
	logger    *slog.Logger
	metrics   *observability.Metrics
	breaker   *invoke.BreakerConfig
	results   ports.ResultStore
	maxSteps  int
}

// Option configures an Orchestrator.
type Option func(*settings)

// WithTimeouts overrides the declared operation timeouts. Values are durations,
// "200ms" style strings, or milliseconds; nil makes an operation fire-and-forget.
func WithTimeouts(overrides map[string]any) Option {
	return func(s *settings) {
		s.overrides = overrides
	}
}

// WithConfig sets the run configuration exposed by Context.Config.
func WithConfig(config map[string]any) Option {
	return func(s *settings) {
		s.config = config
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithMetrics records calls and state visits on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *settings) {
		s.metrics = m
	}
}

// WithBreaker puts a circuit breaker in front of every participant.
func WithBreaker(cfg invoke.BreakerConfig) Option {
	return func(s *settings) {
		s.breaker = &cfg
	}
}

// WithResults saves the outcome of every successful run.
func WithResults(store ports.ResultStore) Option {
	return func(s *settings) {
		s.results = store
	}
}

// WithMaxSteps aborts runs that visit more than n states.
func WithMaxSteps(n int) Option {
	return func(s *settings) {
		s.maxSteps = n
	}
}

// Orchestrator runs games of one kind. It is safe for concurrent Play calls.
type Orchestrator[S comparable] struct {
	def      *fsm.Definition[S, *Context]
	contract contract.Contract
	timeouts *contract.Timeouts
	settings settings
}

// New checks the contract and computes the timeout table. A duplicate
// operation name or a malformed timeout is a configuration error.
func New[S comparable](def *fsm.Definition[S, *Context], c contract.Contract, opts ...Option) (*Orchestrator[S], error) {
	if def == nil {
		return nil, domain.Preconditionf("nil state machine definition")
	}
	s := settings{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&s)
	}

	timeouts, err := contract.Resolve(c, s.overrides)
	if err != nil {
		return nil, err
	}
	return &Orchestrator[S]{def: def, contract: c, timeouts: timeouts, settings: s}, nil
}

// Timeouts is the timeout table every run uses.
func (o *Orchestrator[S]) Timeouts() *contract.Timeouts {
	return o.timeouts
}

// Contract is the participant contract.
func (o *Orchestrator[S]) Contract() contract.Contract {
	return o.contract
}

// Definition is the state machine.
func (o *Orchestrator[S]) Definition() *fsm.Definition[S, *Context] {
	return o.def
}

// Play runs one game with in-process participants. Each participant gets a
// dedicated worker, so a slow participant only delays the calls made on it.
func (o *Orchestrator[S]) Play(ctx context.Context, participants map[string]invoke.Target) (map[string]float64, error) {
	if len(participants) == 0 {
		return nil, domain.Preconditionf("no participants")
	}
	for name, target := range participants {
		if name == "" {
			return nil, domain.Preconditionf("participant without a name")
		}
		if target == nil {
			return nil, domain.Preconditionf("participant %s has no implementation", name)
		}
	}

	channels := make(map[string]invoke.Channel, len(participants))
	workers := make([]*invoke.Worker, 0, len(participants))
	defer func() {
		for _, w := range workers {
			w.Shutdown()
		}
	}()

	for _, name := range slices.Sorted(maps.Keys(participants)) {
		logger := o.settings.logger.With("participant", name)
		w := invoke.NewWorker(name, invoke.WithLogger(logger))
		workers = append(workers, w)
		channels[name] = invoke.NewLocal(w, participants[name], o.timeouts, invoke.WithLogger(logger))
	}

	return o.run(ctx, channels)
}

// PlayChannels runs one game over channels the caller owns, such as the remote
// participants gathered by a session server.
func (o *Orchestrator[S]) PlayChannels(ctx context.Context, channels map[string]invoke.Channel) (map[string]float64, error) {
	if len(channels) == 0 {
		return nil, domain.Preconditionf("no participants")
	}
	for name, ch := range channels {
		if name == "" {
			return nil, domain.Preconditionf("participant without a name")
		}
		if ch == nil {
			return nil, domain.Preconditionf("participant %s has no channel", name)
		}
	}
	return o.run(ctx, channels)
}

func (o *Orchestrator[S]) run(ctx context.Context, channels map[string]invoke.Channel) (map[string]float64, error) {
	runID := ulid.Make().String()
	logger := o.settings.logger.With("run_id", runID, "game", o.contract.Name)

	players := make(map[string]*participant.Adapter, len(channels))
	for name, ch := range channels {
		ch = o.decorate(name, ch, logger)
		a, err := participant.New(name, o.contract, ch, o.timeouts)
		if err != nil {
			return nil, err
		}
		players[name] = a
	}

	gc := NewContext(runID, players, o.settings.config, logger)
	inst := o.def.NewInstance(gc,
		fsm.WithLogger[S](logger),
		fsm.WithMaxSteps[S](o.settings.maxSteps),
		fsm.WithHooks(observability.StateHooks[S](o.settings.metrics, logger)),
	)

	started := time.Now()
	logger.Info("game started", "players", gc.Names())
	err := inst.Execute(ctx)
	if o.settings.metrics != nil {
		o.settings.metrics.ObserveGame(err)
	}
	if err != nil {
		logger.Error("game aborted", "err", err)
		return nil, err
	}

	scores := gc.Scores()
	logger.Info("game finished", "scores", scores, "elapsed", time.Since(started))

	if o.settings.results != nil {
		result := ports.Result{
			RunID:      runID,
			Game:       o.contract.Name,
			Players:    gc.Names(),
			Scores:     scores,
			States:     inst.Steps(),
			StartedAt:  started.UTC(),
			FinishedAt: time.Now().UTC(),
		}
		if err := o.settings.results.Save(ctx, result); err != nil {
			logger.Warn("failed to save result", "err", err)
		}
	}
	return scores, nil
}

// decorate wraps ch with the configured breaker and instrumentation.
func (o *Orchestrator[S]) decorate(name string, ch invoke.Channel, logger *slog.Logger) invoke.Channel {
	if o.settings.breaker != nil {
		ch = invoke.NewBreaker(ch, name, *o.settings.breaker, invoke.WithLogger(logger))
	}
	if o.settings.metrics != nil {
		ch = invoke.Instrument(ch, name, o.settings.metrics)
	}
	return ch
}
