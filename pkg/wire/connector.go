package wire

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/arbiter/internal/logging"
	"github.com/aretw0/arbiter/pkg/domain"
)

// DefaultMaxFrameSize bounds the length prefix accepted from a peer.
const DefaultMaxFrameSize = 16 << 20

const headerSize = 4

// Connector reads and writes length-prefixed frames over a duplex stream.
//
// I/O failures are logged and close the connector; they are not reported as
// errors by Receive. Send, Receive and Close are safe for concurrent use.
type Connector struct {
	rw       io.ReadWriteCloser
	reader   *bufio.Reader
	logger   *slog.Logger
	maxFrame int

	writeMu sync.Mutex
	writer  *bufio.Writer

	readMu sync.Mutex
	// pending holds a read started by ReceiveTimeout that outlived its timer.
	// The next receive consumes it, so no frame is dropped.
	pending chan readResult

	closeOnce sync.Once
	closed    atomic.Bool
	done      chan struct{}
}

type readResult struct {
	frame Frame
	err   error
}

// Option configures a Connector.
type Option func(*Connector)

// WithLogger sets the logger used for I/O failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Connector) {
		c.logger = logger
	}
}

// WithMaxFrameSize bounds the size of a single incoming frame.
func WithMaxFrameSize(n int) Option {
	return func(c *Connector) {
		c.maxFrame = n
	}
}

// NewConnector wraps a duplex stream.
func NewConnector(rw io.ReadWriteCloser, opts ...Option) *Connector {
	c := &Connector{
		rw:       rw,
		reader:   bufio.NewReader(rw),
		writer:   bufio.NewWriter(rw),
		logger:   logging.NewNop(),
		maxFrame: DefaultMaxFrameSize,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if conn, ok := rw.(net.Conn); ok && conn.RemoteAddr() != nil {
		c.logger = c.logger.With("remote", conn.RemoteAddr().String())
	}
	return c
}

// Send writes one frame and flushes it. On failure the connector is closed and
// the error returned; callers that only fire frames may ignore it.
func (c *Connector) Send(f Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed.Load() {
		return domain.ErrClosed
	}

	data := Encode(f)
	var hdr [headerSize]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(data)))

	if _, err := c.writer.Write(hdr[:]); err != nil {
		return c.fail("send", err)
	}
	if _, err := c.writer.Write(data); err != nil {
		return c.fail("send", err)
	}
	if err := c.writer.Flush(); err != nil {
		return c.fail("send", err)
	}
	return nil
}

// Receive blocks until a frame arrives. It returns false once the connector is
// closed or the stream failed.
func (c *Connector) Receive() (Frame, bool) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	var res readResult
	if c.pending != nil {
		res = <-c.pending
		c.pending = nil
	} else {
		res.frame, res.err = c.readFrame()
	}
	return c.settle(res)
}

// ReceiveTimeout waits at most timeout for a frame.
//
// The read itself cannot be interrupted. When the timer wins, the read keeps
// running in the background and its frame is handed to the next Receive or
// ReceiveTimeout call. Closing the connector makes that read fail.
func (c *Connector) ReceiveTimeout(timeout time.Duration) (Frame, bool) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	if c.closed.Load() && c.pending == nil {
		return Frame{}, false
	}
	if c.pending == nil {
		c.pending = c.startRead()
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-c.pending:
		c.pending = nil
		return c.settle(res)
	case <-timer.C:
		return Frame{}, false
	}
}

// Close closes the underlying stream. Only the first call has an effect.
func (c *Connector) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)
		err = c.rw.Close()
	})
	return err
}

// IsClosed reports whether Close was called or the stream failed.
func (c *Connector) IsClosed() bool {
	return c.closed.Load()
}

// Done is closed when the connector closes.
func (c *Connector) Done() <-chan struct{} {
	return c.done
}

func (c *Connector) startRead() chan readResult {
	ch := make(chan readResult, 1)
	go func() {
		f, err := c.readFrame()
		ch <- readResult{frame: f, err: err}
	}()
	return ch
}

func (c *Connector) readFrame() (Frame, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(c.reader, hdr[:]); err != nil {
		return Frame{}, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if int64(n) > int64(c.maxFrame) {
		return Frame{}, domain.Protocolf("frame of %d bytes exceeds limit of %d", n, c.maxFrame)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.reader, buf); err != nil {
		return Frame{}, err
	}
	return Decode(buf)
}

func (c *Connector) settle(res readResult) (Frame, bool) {
	if res.err != nil {
		_ = c.fail("receive", res.err)
		return Frame{}, false
	}
	return res.frame, true
}

func (c *Connector) fail(op string, err error) error {
	wasClosed := c.closed.Load()
	_ = c.Close()
	switch {
	case wasClosed:
		// Reads unblocked by our own Close are expected.
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
		c.logger.Debug("connection ended", "op", op)
	default:
		c.logger.Warn("connection failed", "op", op, "err", err)
	}
	return fmt.Errorf("%s: %w", op, errors.Join(domain.ErrClosed, err))
}
