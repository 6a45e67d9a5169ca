package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/arbiter/pkg/config"
	"github.com/aretw0/arbiter/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
log_level: debug
game:
  rounds: 5
  max: 100
timeouts:
  Guess: 250ms
  Result: 1000
  Start: null
server:
  listen: ":9000"
  players: 3
  connect_deadline: 10s
  accept_rate: 2.5
  accept_burst: 4
client:
  login: ana
  password: secret
admin:
  listen: ":9090"
redis:
  address: localhost:6379
  result_ttl: 24h
breaker:
  max_failures: 2
  cooldown: 30s
credentials:
  ana: "$2a$04$abcdefghijklmnopqrstuu"
`

func TestParse(t *testing.T) {
	cfg, err := config.Parse([]byte(sample), false)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5, cfg.Game["rounds"])
	assert.Equal(t, "250ms", cfg.Timeouts["Guess"])
	assert.Contains(t, cfg.Timeouts, "Start")
	assert.Nil(t, cfg.Timeouts["Start"])

	assert.Equal(t, ":9000", cfg.Server.Listen)
	assert.Equal(t, 3, cfg.Server.Players)
	assert.Equal(t, 10*time.Second, cfg.Server.ConnectDeadline)
	assert.Equal(t, 5*time.Second, cfg.Server.AuthTimeout, "default kept")
	assert.Equal(t, 2.5, cfg.Server.AcceptRate)

	assert.Equal(t, "ana", cfg.Client.Login)
	assert.Equal(t, "localhost:7070", cfg.Client.Address, "default kept")
	assert.Equal(t, ":9090", cfg.Admin.Listen)

	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "arbiter:", cfg.Redis.Prefix)
	assert.Equal(t, 24*time.Hour, cfg.Redis.ResultTTL)

	require.NotNil(t, cfg.Breaker)
	assert.Equal(t, uint32(2), cfg.Breaker.MaxFailures)
	assert.Equal(t, 30*time.Second, cfg.Breaker.Cooldown)
	assert.Len(t, cfg.Credentials, 1)
}

func TestParse_JSON(t *testing.T) {
	cfg, err := config.Parse([]byte(`{"server": {"players": 4, "auth_timeout": 1500}}`), true)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Server.Players)
	assert.Equal(t, 1500*time.Millisecond, cfg.Server.AuthTimeout)
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"syntax":           "server: [",
		"unknown key":      "servr:\n  players: 2\n",
		"bad duration":     "server:\n  connect_deadline: soon\n",
		"no players":       "server:\n  players: 0\n",
		"bad timeout":      "timeouts:\n  Guess: forever\n",
		"negative timeout": "timeouts:\n  Guess: -5\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Parse([]byte(doc), false)
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	cfg, err := config.Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	path := filepath.Join(dir, "arbiter.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  players: 6\n"), 0o644))
	cfg, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Server.Players)

	cfg, err = config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Server.Players)
}
