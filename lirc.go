// Package lirc provides a Go client for the Linux Infrared Remote Control
// (LIRC) daemon.
//
// Two flavors of connection share the same reply parser. [Client] is a
// blocking request/response client created with [Dial]. [Connection] runs a
// read loop with [Connection.Start] and additionally delivers the button
// presses lircd broadcasts on its Events channel. Programs that run their
// own event loop can drive a [ReplyParser] directly with the bytes they read.
package lirc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// Connection is a connection to lircd.
type Connection struct {
	// Events is a channel that will receive ButtonPress events.
	// These events are received asynchronously for as long as [Start] is
	// running. This channel is never closed.
	Events chan ButtonPress
	// Timeout bounds the wait for each reply. Zero means DefaultTimeout.
	// A reply that times out leaves the connection unusable.
	Timeout time.Duration

	send     chan request
	done     chan struct{}
	started  atomic.Bool
	endpoint Endpoint
	dialer   func(context.Context) (net.Conn, error)

	mu     sync.Mutex
	cancel context.CancelCauseFunc
	cause  error
}

type request struct {
	text  string
	reply chan result
}

type result struct {
	reply Reply
	err   error
}

// NewUnix creates a new lirc connection that connects to lircd using a Unix
// socket.
// Connection will not be established; you must call Start to connect to lircd.
func NewUnix(path string) *Connection {
	return NewEndpoint(Endpoint{Network: "unix", Address: path})
}

// NewTCP creates a new lirc connection that connects to lircd using a TCP
// socket.
// Connection will not be established; you must call Start to connect to lircd.
func NewTCP(host string) *Connection {
	return NewEndpoint(Endpoint{Network: "tcp", Address: host})
}

// NewEndpoint creates a new lirc connection for endpoint.
// Connection will not be established; you must call Start to connect to lircd.
func NewEndpoint(endpoint Endpoint) *Connection {
	return &Connection{
		Events:   make(chan ButtonPress),
		send:     make(chan request),
		done:     make(chan struct{}),
		endpoint: endpoint,
		dialer: func(ctx context.Context) (net.Conn, error) {
			return endpoint.dial(ctx, DefaultConnectTimeout)
		},
	}
}

func (l *Connection) timeout() time.Duration {
	if l.Timeout > 0 {
		return l.Timeout
	}
	return DefaultTimeout
}

// abandon tears down a running connection because of cause.
func (l *Connection) abandon(cause error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cause == nil {
		l.cause = cause
	}
	if l.cancel != nil {
		l.cancel(cause)
	}
}

func (l *Connection) closedError() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case l.cause == nil:
		return ErrClosed
	case errors.Is(l.cause, ErrClosed):
		return l.cause
	default:
		return fmt.Errorf("%w: %w", ErrClosed, l.cause)
	}
}

// SendCommand sends a command to lirc daemon. It waits until [Start] is
// running and no other command is outstanding. If lircd answered ERROR, the
// reply is returned together with a *ReplyError.
func (l *Connection) SendCommand(ctx context.Context, command Command) (Reply, error) {
	if err := command.Validate(); err != nil {
		return Reply{}, err
	}

	req := request{
		text:  Encode(command),
		reply: make(chan result, 1),
	}

	select {
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	case <-l.done:
		return Reply{}, l.closedError()
	case l.send <- req:
		// safe to continue
	}

	timer := time.NewTimer(l.timeout())
	defer timer.Stop()

	select {
	case <-ctx.Done():
		err := &TimeoutError{Op: "read reply", Err: ctx.Err()}
		l.abandon(err)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Reply{}, err
		}
		return Reply{}, ctx.Err()
	case <-timer.C:
		err := &TimeoutError{Op: "read reply", Err: context.DeadlineExceeded}
		l.abandon(err)
		return Reply{}, err
	case res := <-req.reply:
		if res.err != nil {
			return Reply{}, res.err
		}
		return res.reply, res.reply.Err()
	}
}

// RepeatButton tells lircd to keep sending the given button until the returned
// callback is called.
func (l *Connection) RepeatButton(ctx context.Context, remote, button string) (stop func() error, err error) {
	start, err := NewSendStart(remote, button)
	if err != nil {
		return nil, err
	}

	if _, err := l.SendCommand(ctx, start); err != nil {
		return nil, err
	}

	return func() error {
		_, err := l.SendCommand(ctx, SendStop{remote, button})
		return err
	}, nil
}

// Start starts the lirc connection. It blocks until the connection is closed or
// ctx is done. A Connection can only be started once; after Start returns,
// every command fails with ErrClosed.
func (l *Connection) Start(ctx context.Context, logger *slog.Logger) error {
	if !l.started.CompareAndSwap(false, true) {
		return fmt.Errorf("lirc connection already started: %w", ErrClosed)
	}
	defer close(l.done)

	conn, err := l.dialer(ctx)
	if err != nil {
		l.abandon(err)
		return fmt.Errorf("cannot dial lircd connection: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("connection", l.endpoint.String())

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	l.mu.Lock()
	l.cancel = cancel
	l.mu.Unlock()

	var parserMu sync.Mutex
	var events []ButtonPress
	parser := NewReplyParser(logger, func(event ButtonPress) {
		events = append(events, event)
	})

	repliesCh := make(chan Reply)
	sendingCh := l.send

	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()

		buf := make([]byte, 4096)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				parserMu.Lock()
				reply, done, perr := parser.Feed(buf[:n])
				pending := events
				events = nil
				parserMu.Unlock()

				for _, event := range pending {
					select {
					case <-ctx.Done():
						return
					case l.Events <- event:
					}
				}

				// A reply lircd completed is delivered even when a later
				// line in the same read breaks the protocol.
				if done {
					select {
					case <-ctx.Done():
						return
					case repliesCh <- reply:
					}
				}

				if perr != nil {
					logger.Error(
						"lircd reply does not follow protocol",
						"err", perr)
					l.abandon(perr)
					return
				}
			}

			if err != nil {
				switch {
				case errors.Is(err, net.ErrClosed):
					l.abandon(ErrClosed)
				case errors.Is(err, io.EOF):
					parserMu.Lock()
					perr := parser.EOF()
					parserMu.Unlock()
					if perr != nil {
						l.abandon(perr)
					} else {
						l.abandon(fmt.Errorf("lircd closed the connection: %w", ErrClosed))
					}
				default:
					logger.Error(
						"error reading from lircd socket",
						"err", err)
					l.abandon(err)
				}
				return
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()

		var current *request
		defer func() {
			if current != nil {
				current.reply <- result{err: context.Cause(ctx)}
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return

			case req := <-sendingCh:
				parserMu.Lock()
				err := parser.Expect(req.text)
				parserMu.Unlock()
				if err != nil {
					req.reply <- result{err: err}
					continue
				}

				if _, err := io.WriteString(conn, req.text+"\n"); err != nil {
					logger.Error(
						"error writing to lircd socket",
						"err", err)
					werr := &WriteError{Command: req.text, Err: err}
					req.reply <- result{err: werr}
					l.abandon(werr)
					return
				}

				// Prevent the user from sending any other commands until we've
				// received the reply for this one.
				current = &req
				sendingCh = nil

			case reply := <-repliesCh:
				if current == nil {
					logger.Warn(
						"dropping lircd reply nobody is waiting for",
						"command", reply.Command)
					continue
				}

				current.reply <- result{reply: reply}
				current = nil

				// Reinstate the ability to send commands.
				sendingCh = l.send
			}
		}
	}()

	<-ctx.Done()

	if err := conn.Close(); err != nil {
		return fmt.Errorf("error closing lircd connection: %w", err)
	}

	wg.Wait()
	return context.Cause(ctx)
}
