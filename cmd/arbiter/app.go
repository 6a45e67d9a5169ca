package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"time"

	httpAdapter "github.com/aretw0/arbiter/internal/adapters/http"
	"github.com/aretw0/arbiter/internal/demo"
	"github.com/aretw0/arbiter/pkg/adapters/memory"
	"github.com/aretw0/arbiter/pkg/adapters/redis"
	"github.com/aretw0/arbiter/pkg/game"
	"github.com/aretw0/arbiter/pkg/observability"
	"github.com/aretw0/arbiter/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	backend "github.com/redis/go-redis/v9"
)

// stores are the backends selected by the configuration.
type stores struct {
	results     ports.ResultStore
	credentials ports.CredentialStore
	locker      ports.DistributedLocker
	close       func() error
}

func openStores() (*stores, error) {
	if cfg.Redis.Enabled() {
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return &stores{
			results:     redis.NewFromClient(client, redis.WithPrefix(cfg.Redis.Prefix), redis.WithTTL(cfg.Redis.ResultTTL)),
			credentials: redis.NewCredentials(client, cfg.Redis.Prefix),
			locker:      redis.NewLocker(client, cfg.Redis.Prefix),
			close:       client.Close,
		}, nil
	}

	creds := memory.NewCredentials()
	for login, hash := range cfg.Credentials {
		if err := creds.AddHash(login, hash); err != nil {
			return nil, err
		}
	}
	return &stores{
		results:     memory.NewStore(),
		credentials: creds,
		locker:      memory.NewLocker(),
		close:       func() error { return nil },
	}, nil
}

// telemetry is the metrics registry shared by the orchestrator, the session
// server and the admin endpoint.
type telemetry struct {
	registry *prometheus.Registry
	metrics  *observability.Metrics
}

func newTelemetry() *telemetry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return &telemetry{registry: reg, metrics: observability.MustNewMetrics(reg)}
}

func newOrchestrator(t *telemetry, results ports.ResultStore) (*game.Orchestrator[demo.Phase], error) {
	opts := []game.Option{
		game.WithConfig(cfg.Game),
		game.WithTimeouts(cfg.Timeouts),
		game.WithLogger(logger),
		game.WithMetrics(t.metrics),
		game.WithResults(results),
	}
	if cfg.Breaker != nil {
		opts = append(opts, game.WithBreaker(*cfg.Breaker))
	}
	return game.New(demo.Definition, demo.Contract, opts...)
}

// startAdmin serves the admin endpoints when an address is configured. The
// returned function shuts the server down.
func startAdmin(t *telemetry, results ports.ResultStore) func() {
	if cfg.Admin.Listen == "" {
		return func() {}
	}

	srv := &http.Server{
		Addr: cfg.Admin.Listen,
		Handler: httpAdapter.NewHandler(
			httpAdapter.WithGraph(demo.Definition.Describe()),
			httpAdapter.WithResults(results),
			httpAdapter.WithGatherer(t.registry),
			httpAdapter.WithVersion(version),
			httpAdapter.WithLogger(logger),
		),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("admin server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("admin server failed", "err", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("admin server shutdown", "err", err)
			_ = srv.Close()
		}
	}
}

func printScores(w io.Writer, scores map[string]float64) {
	names := slices.SortedFunc(maps.Keys(scores), func(a, b string) int {
		if scores[a] != scores[b] {
			if scores[a] > scores[b] {
				return -1
			}
			return 1
		}
		if a < b {
			return -1
		}
		return 1
	})
	for i, name := range names {
		fmt.Fprintf(w, "%2d. %-12s %g\n", i+1, name, scores[name])
	}
}
