package session

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/aretw0/arbiter/internal/logging"
	"github.com/aretw0/arbiter/pkg/codec"
	"github.com/aretw0/arbiter/pkg/contract"
	"github.com/aretw0/arbiter/pkg/domain"
	"github.com/aretw0/arbiter/pkg/invoke"
	"github.com/aretw0/arbiter/pkg/wire"
)

// Client is the participant side of a session.
type Client struct {
	conn   *wire.Connector
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

type clientConfig struct {
	authTimeout time.Duration
	factory     codec.Factory
	logger      *slog.Logger
}

// ClientOption configures Dial.
type ClientOption func(*clientConfig)

// WithClientAuthTimeout bounds the wait for the login answer.
func WithClientAuthTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.authTimeout = d
	}
}

// WithClientSerializer overrides the call codec.
func WithClientSerializer(factory codec.Factory) ClientOption {
	return func(c *clientConfig) {
		c.factory = factory
	}
}

// WithClientLogger sets the logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// Dial connects to addr, logs in with auth, and serves calls to target in the
// background. ctx bounds the dial and the login only; use Close to leave.
//
// A rejected login returns an error wrapping domain.ErrAuthentication.
func Dial(ctx context.Context, addr string, auth Authenticator, c contract.Contract, target invoke.Target, opts ...ClientOption) (*Client, error) {
	cfg := clientConfig{
		authTimeout: DefaultAuthTimeout,
		factory:     codec.DefaultFactory,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ser, err := cfg.factory(c)
	if err != nil {
		return nil, err
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	wc := wire.NewConnector(conn, wire.WithLogger(cfg.logger))

	if !auth.Login(ctx, wc, cfg.authTimeout) {
		_ = wc.Close()
		return nil, fmt.Errorf("%w: login to %s rejected", domain.ErrAuthentication, addr)
	}

	serveCtx, cancel := context.WithCancel(context.Background())
	cl := &Client{
		conn:   wc,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	channel := invoke.NewDirect(target, invoke.WithLogger(cfg.logger))
	go func() {
		defer close(cl.done)
		err := invoke.Serve(serveCtx, wc, ser, channel, invoke.WithLogger(cfg.logger))
		cl.mu.Lock()
		cl.err = err
		cl.mu.Unlock()
		cfg.logger.Debug("session ended", "err", err)
	}()
	return cl, nil
}

// Done is closed when the serve loop ended.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Finished reports whether the serve loop ended.
func (c *Client) Finished() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Err is the reason the serve loop ended: nil for an exit from the server or
// a closed connection, otherwise a protocol or context error.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Wait blocks until the serve loop ended or ctx is done.
func (c *Client) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close leaves the session and waits for the serve loop.
func (c *Client) Close() error {
	c.cancel()
	<-c.done
	return nil
}
