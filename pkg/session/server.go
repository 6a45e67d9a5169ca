package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net"
	"sync"
	"time"

	"github.com/aretw0/arbiter/internal/logging"
	"github.com/aretw0/arbiter/pkg/codec"
	"github.com/aretw0/arbiter/pkg/contract"
	"github.com/aretw0/arbiter/pkg/invoke"
	"github.com/aretw0/arbiter/pkg/ports"
	"github.com/aretw0/arbiter/pkg/wire"
	"golang.org/x/time/rate"
)

// Defaults for a Server.
const (
	DefaultConnectDeadline = 30 * time.Second
	DefaultAuthTimeout     = 5 * time.Second
	DefaultLockTTL         = 10 * time.Minute
)

// LoginObserver is told about every authentication attempt.
type LoginObserver interface {
	ObserveLogin(accepted bool)
}

// Server gathers remote participants for one game.
type Server struct {
	listener net.Listener
	ser      codec.Serializer
	timeouts *contract.Timeouts
	auth     Authenticator

	want            int
	connectDeadline time.Duration
	authTimeout     time.Duration
	limiter         *rate.Limiter
	locker          ports.DistributedLocker
	lockTTL         time.Duration
	factory         codec.Factory
	observer        LoginObserver
	logger          *slog.Logger

	mu        sync.Mutex
	players   map[string]invoke.Channel
	remotes   []*invoke.Remote
	unlocks   []ports.UnlockFunc
	closeOnce sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithPlayers sets how many participants to wait for.
func WithPlayers(n int) Option {
	return func(s *Server) {
		s.want = n
	}
}

// WithConnectDeadline bounds the whole accept phase.
func WithConnectDeadline(d time.Duration) Option {
	return func(s *Server) {
		s.connectDeadline = d
	}
}

// WithAuthTimeout bounds the authentication of each connection.
func WithAuthTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.authTimeout = d
	}
}

// WithRateLimit drops connections arriving faster than limiter allows.
func WithRateLimit(limiter *rate.Limiter) Option {
	return func(s *Server) {
		s.limiter = limiter
	}
}

// WithLocker locks every authenticated name so one identity joins one game at
// a time across servers. A name already locked is treated as a collision.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(s *Server) {
		s.locker = locker
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// WithSerializer overrides the call codec.
func WithSerializer(factory codec.Factory) Option {
	return func(s *Server) {
		s.factory = factory
	}
}

// WithLoginObserver reports authentication outcomes.
func WithLoginObserver(o LoginObserver) Option {
	return func(s *Server) {
		s.observer = o
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// Listen opens a TCP listener on addr and builds a Server on it.
func Listen(addr string, c contract.Contract, timeouts *contract.Timeouts, auth Authenticator, opts ...Option) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	s, err := NewServer(ln, c, timeouts, auth, opts...)
	if err != nil {
		_ = ln.Close()
		return nil, err
	}
	return s, nil
}

// NewServer builds a Server that accepts on listener. The server owns the
// listener from now on.
func NewServer(listener net.Listener, c contract.Contract, timeouts *contract.Timeouts, auth Authenticator, opts ...Option) (*Server, error) {
	s := &Server{
		listener:        listener,
		timeouts:        timeouts,
		auth:            auth,
		want:            1,
		connectDeadline: DefaultConnectDeadline,
		authTimeout:     DefaultAuthTimeout,
		lockTTL:         DefaultLockTTL,
		factory:         codec.DefaultFactory,
		logger:          logging.NewNop(),
		players:         make(map[string]invoke.Channel),
	}
	for _, opt := range opts {
		opt(s)
	}

	ser, err := s.factory(c)
	if err != nil {
		return nil, err
	}
	s.ser = ser
	return s, nil
}

// Addr is the listening address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// WaitForPlayers accepts connections until the wanted number of participants
// logged in, the connect deadline passes, or ctx ends. Falling short is not an
// error: the participants that made it are returned.
func (s *Server) WaitForPlayers(ctx context.Context) map[string]invoke.Channel {
	deadline := time.Now().Add(s.connectDeadline)
	setter, canSetDeadline := s.listener.(interface{ SetDeadline(time.Time) error })

	stop := context.AfterFunc(ctx, func() {
		if canSetDeadline {
			_ = setter.SetDeadline(time.Now())
		}
	})
	defer stop()

	for s.count() < s.want && ctx.Err() == nil {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		if canSetDeadline {
			_ = setter.SetDeadline(time.Now().Add(remaining))
		}

		conn, err := s.listener.Accept()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Warn("accept failed", "err", err)
			continue
		}

		if s.limiter != nil && !s.limiter.Allow() {
			s.logger.Info("connection rate exceeded", "remote", conn.RemoteAddr())
			_ = conn.Close()
			continue
		}

		s.admit(ctx, conn)
	}

	players := s.Players()
	s.logger.Info("players gathered", "wanted", s.want, "joined", len(players))
	return players
}

func (s *Server) admit(ctx context.Context, conn net.Conn) {
	wc := wire.NewConnector(conn, wire.WithLogger(s.logger))
	remote := conn.RemoteAddr()

	name, ok := s.auth.Accept(ctx, wc, s.authTimeout)
	if s.observer != nil {
		s.observer.ObserveLogin(ok)
	}
	if !ok {
		s.logger.Info("authentication failed", "remote", remote)
		_ = wc.Close()
		return
	}

	if s.taken(name) {
		s.logger.Info("name already taken", "name", name, "remote", remote)
		_ = wc.Close()
		return
	}

	var unlock ports.UnlockFunc
	if s.locker != nil {
		lctx, cancel := context.WithTimeout(ctx, s.authTimeout)
		var err error
		unlock, err = s.locker.Lock(lctx, name, s.lockTTL)
		cancel()
		if err != nil {
			s.logger.Info("name locked elsewhere", "name", name, "err", err)
			_ = wc.Close()
			return
		}
	}

	r := invoke.NewRemote(wc, s.ser, s.timeouts, invoke.WithLogger(s.logger.With("participant", name)))

	s.mu.Lock()
	s.players[name] = r
	s.remotes = append(s.remotes, r)
	if unlock != nil {
		s.unlocks = append(s.unlocks, unlock)
	}
	s.mu.Unlock()

	s.logger.Info("participant joined", "name", name, "remote", remote)
}

func (s *Server) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

func (s *Server) taken(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.players[name]
	return ok
}

// Players returns the participants that joined so far.
func (s *Server) Players() map[string]invoke.Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.players)
}

// Close tells every participant to exit, closes the connections and the
// listener, and releases identity locks.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.listener.Close()

		s.mu.Lock()
		remotes, unlocks := s.remotes, s.unlocks
		s.mu.Unlock()

		for _, r := range remotes {
			r.Exit()
		}
		for _, unlock := range unlocks {
			if uerr := unlock(context.Background()); uerr != nil {
				s.logger.Warn("failed to release identity lock (will expire via TTL)", "err", uerr)
			}
		}
	})
	return err
}
