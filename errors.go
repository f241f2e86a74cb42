package lirc

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsuccessfulCommand is matched by the error returned with a reply when
	// a command was not successful.
	ErrUnsuccessfulCommand = errors.New("lirc: unsuccessful command")
	// ErrClosed is returned when using a connection that was closed or that
	// was abandoned after a timeout or protocol error.
	ErrClosed = errors.New("lirc: connection closed")
	// ErrReplyPending is returned when a command is sent before the reply to
	// the previous one has been read.
	ErrReplyPending = errors.New("lirc: reply to previous command still pending")
	// ErrMalformedData is returned when a successful reply carries data that
	// the command cannot interpret.
	ErrMalformedData = errors.New("lirc: malformed reply data")
	// ErrNoCommand is returned when reading a reply without having sent a
	// command.
	ErrNoCommand = errors.New("lirc: no command outstanding")
)

// Reasons carried by [ProtocolError].
const (
	ReasonUnexpectedEcho   = "unexpected echo"
	ReasonBadStatus        = "bad status"
	ReasonBadCount         = "bad count"
	ReasonMissingEnd       = "missing END"
	ReasonClosedMidReply   = "connection closed mid-reply"
	ReasonUnexpectedPacket = "unexpected packet"
	ReasonLineTooLong      = "line too long"
)

// ConnectError is returned when the transport to lircd cannot be
// established.
type ConnectError struct {
	Network string
	Address string
	Err     error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("lirc: cannot connect to %s %s: %v", e.Network, e.Address, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// WriteError is returned when a command could not be written to an
// established connection.
type WriteError struct {
	Command string
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("lirc: cannot write command %q: %v", e.Command, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ProtocolError is a structural violation of the reply grammar. It is always
// fatal to the connection.
type ProtocolError struct {
	// Reason is one of the Reason constants.
	Reason string
	// Line is the offending line, if any.
	Line string
	// Status is the reply status if it had already been read when the error
	// occurred. Once read, the status is authoritative: a SUCCESS here means
	// lircd executed the command even though its reply was unusable.
	Status Status
}

func (e *ProtocolError) Error() string {
	if e.Line == "" {
		return "lirc: protocol error: " + e.Reason
	}
	return fmt.Sprintf("lirc: protocol error: %s: %q", e.Reason, e.Line)
}

// TimeoutError is returned when a wait on lircd exceeded its deadline. The
// connection is abandoned afterwards.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("lirc: %s timed out: %v", e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// Timeout implements the net.Error timeout convention.
func (e *TimeoutError) Timeout() bool { return true }

// ArgumentError reports an invalid command argument. It is returned before
// any I/O happens.
type ArgumentError struct {
	Command  string
	Argument string
	Value    string
	Reason   string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("lirc: %s: invalid %s %q: %s", e.Command, e.Argument, e.Value, e.Reason)
}

// ReplyError is returned together with a reply whose status is ERROR. The
// data lines usually hold lircd's error message.
type ReplyError struct {
	Reply Reply
}

func (e *ReplyError) Error() string {
	if len(e.Reply.Data) == 0 {
		return fmt.Sprintf("lirc: command %q failed", e.Reply.Command)
	}
	return fmt.Sprintf("lirc: command %q failed: %s", e.Reply.Command, strings.Join(e.Reply.Data, "; "))
}

// Is reports ErrUnsuccessfulCommand as a match.
func (e *ReplyError) Is(target error) bool {
	return target == ErrUnsuccessfulCommand
}
