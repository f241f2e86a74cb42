package lirc

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultTimeout bounds each blocking read or write on lircd.
	DefaultTimeout = 10 * time.Second
	// DefaultConnectTimeout bounds connecting to lircd.
	DefaultConnectTimeout = 5 * time.Second
)

// Options configures a [Client].
type Options struct {
	// ConnectTimeout bounds Dial. Zero means DefaultConnectTimeout.
	ConnectTimeout time.Duration
	// Timeout bounds every read and write. Zero means DefaultTimeout.
	Timeout time.Duration
	// Logger receives debug output. Nil discards it.
	Logger *slog.Logger
	// OnEvent receives button presses that lircd broadcasts while the client
	// is reading. Nil drops them.
	OnEvent func(ButtonPress)
}

// Client is a blocking connection to lircd. Each command is written and its
// reply read on the calling goroutine, one command at a time.
//
// A Client does no locking around commands; callers sharing one must
// serialize [Client.SendCommand] calls themselves. Close may be called from
// any goroutine to abort a blocked read.
//
// After a *TimeoutError, a *ProtocolError or a failed write the client is
// closed and every later command fails.
type Client struct {
	conn    net.Conn
	reader  *bufio.Reader
	parser  *ReplyParser
	timeout time.Duration
	logger  *slog.Logger

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Dial connects to lircd at address, which is parsed by [ParseEndpoint].
func Dial(ctx context.Context, address string, opts Options) (*Client, error) {
	endpoint, err := ParseEndpoint(address)
	if err != nil {
		return nil, &ConnectError{Network: "unix", Address: address, Err: err}
	}
	return DialEndpoint(ctx, endpoint, opts)
}

// DialEndpoint connects to lircd at endpoint.
func DialEndpoint(ctx context.Context, endpoint Endpoint, opts Options) (*Client, error) {
	connectTimeout := opts.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}

	conn, err := endpoint.dial(ctx, connectTimeout)
	if err != nil {
		return nil, err
	}

	return NewClient(conn, opts), nil
}

// NewClient wraps an established connection to lircd. The client takes
// ownership of conn.
func NewClient(conn net.Conn, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		parser:  NewReplyParser(logger, opts.OnEvent),
		timeout: timeout,
		logger:  logger,
	}
}

// Close closes the connection. Closing an already closed client is a no-op
// and returns the result of the first Close.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *Client) abandon(reason error) {
	c.logger.Debug(
		"abandoning lircd connection",
		"err", reason)
	c.Close()
}

// arm applies the operation deadline to the socket and makes cancellation
// of ctx interrupt a blocked read or write.
func (c *Client) arm(ctx context.Context) (stop func() bool) {
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.conn.SetDeadline(deadline)

	return context.AfterFunc(ctx, func() {
		c.conn.SetDeadline(time.Unix(1, 0))
	})
}

// ioError classifies a failed read or write.
func (c *Client) ioError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return &TimeoutError{Op: op, Err: ctxErr}
		}
		return ctxErr
	}

	var netErr net.Error
	if errors.Is(err, os.ErrDeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		// The socket deadline can fire just before ctx notices its own.
		if d, ok := ctx.Deadline(); ok && !time.Now().Before(d) {
			return &TimeoutError{Op: op, Err: context.DeadlineExceeded}
		}
		return &TimeoutError{Op: op, Err: err}
	}
	if errors.Is(err, net.ErrClosed) {
		return ErrClosed
	}
	return nil
}

// Send validates cmd and writes it to lircd. The reply must be read with
// [Client.ReadReply] before the next command is sent.
func (c *Client) Send(ctx context.Context, cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	text := Encode(cmd)
	if c.closed.Load() {
		return &WriteError{Command: text, Err: ErrClosed}
	}
	if err := c.parser.Expect(text); err != nil {
		return err
	}

	stop := c.arm(ctx)
	defer stop()

	if _, err := io.WriteString(c.conn, text+"\n"); err != nil {
		c.abandon(err)
		if terr := c.ioError(ctx, "write", err); terr != nil && !errors.Is(terr, ErrClosed) {
			return terr
		}
		return &WriteError{Command: text, Err: err}
	}

	c.logger.Debug(
		"sent lircd command",
		"command", text)
	return nil
}

// ReadReply reads the reply to the command last sent.
func (c *Client) ReadReply(ctx context.Context) (Reply, error) {
	if c.closed.Load() {
		return Reply{}, ErrClosed
	}
	if !c.parser.Pending() {
		return Reply{}, ErrNoCommand
	}

	stop := c.arm(ctx)
	defer stop()

	for {
		line, err := c.readLine()
		if errors.Is(err, errLineTooLong) {
			err = c.parser.LineTooLong()
			c.abandon(err)
			return Reply{}, err
		}
		if err != nil {
			c.abandon(err)
			if terr := c.ioError(ctx, "read reply", err); terr != nil {
				return Reply{}, terr
			}
			if errors.Is(err, io.EOF) {
				return Reply{}, c.parser.EOF()
			}
			return Reply{}, err
		}

		reply, done, err := c.parser.FeedLine(line)
		if err != nil {
			c.abandon(err)
			return Reply{}, err
		}
		if done {
			return reply, nil
		}
	}
}

var errLineTooLong = errors.New("line too long")

// readLine reads up to and including the next line feed. Lines longer
// than maxLineLength fail with errLineTooLong once that many bytes have
// been read.
func (c *Client) readLine() (string, error) {
	var line []byte
	for {
		chunk, err := c.reader.ReadSlice('\n')
		line = append(line, chunk...)
		if len(bytes.TrimSuffix(line, []byte("\n"))) > maxLineLength {
			return "", errLineTooLong
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return string(line), err
	}
}

// SendCommand sends cmd and reads its reply. If lircd answered ERROR, the
// reply is returned together with a *ReplyError.
func (c *Client) SendCommand(ctx context.Context, cmd Command) (Reply, error) {
	if err := c.Send(ctx, cmd); err != nil {
		return Reply{}, err
	}

	reply, err := c.ReadReply(ctx)
	if err != nil {
		return Reply{}, err
	}
	return reply, reply.Err()
}

// Sender is implemented by [Client] and [Connection].
type Sender interface {
	SendCommand(ctx context.Context, cmd Command) (Reply, error)
}

// Query sends q and interprets its reply.
func Query[T any](ctx context.Context, s Sender, q Querier[T]) (T, error) {
	var zero T

	reply, err := s.SendCommand(ctx, q)
	if err != nil {
		return zero, err
	}

	v, err := q.Interpret(reply)
	if err != nil {
		return zero, err
	}
	return v, nil
}
