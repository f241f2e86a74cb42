package lirc

import (
	"bytes"
	"log/slog"
	"strconv"
	"strings"
)

type parserState uint

const (
	stateIdle parserState = iota
	stateIdleBegin
	stateEcho
	stateStatus
	stateDataStart
	stateDataLength
	stateData
	stateDataEnd
	stateSighup
	stateFailed
)

const (
	// maxLineLength bounds a buffered partial line, like bufio.Scanner does.
	maxLineLength = 64 * 1024
	// maxPreallocLines caps the payload preallocation for a declared count.
	maxPreallocLines = 1024
)

const trailingSpace = " \t\r"

// ReplyParser is the lircd reply state machine. It is driven either one
// line at a time with [ReplyParser.FeedLine] or with raw bytes as they
// arrive with [ReplyParser.Feed], which makes it usable from a blocking
// reader as well as from an event loop.
//
// Lines seen while no reply is expected are broadcast button presses; they
// are handed to the events callback. A BEGIN/SIGHUP/END packet, which lircd
// sends when it is reloaded, is consumed and logged.
//
// Any structural violation moves the parser into a failed state that it
// never leaves; every later call returns the same *ProtocolError.
//
// A ReplyParser is not safe for concurrent use.
type ReplyParser struct {
	state     parserState
	armed     bool
	begun     bool
	command   string
	reply     Reply
	dataCount int
	buf       []byte
	err       error

	logger *slog.Logger
	events func(ButtonPress)
}

// NewReplyParser creates a parser in the idle state. logger and events may
// be nil.
func NewReplyParser(logger *slog.Logger, events func(ButtonPress)) *ReplyParser {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ReplyParser{
		state:  stateIdle,
		logger: logger,
		events: events,
	}
}

// Expect arms the parser for the reply to command, which is the command
// text exactly as written to lircd without its newline.
func (p *ReplyParser) Expect(command string) error {
	if p.state == stateFailed {
		return p.err
	}
	if p.armed {
		return ErrReplyPending
	}

	switch p.state {
	case stateIdle:
		p.state = stateEcho
	case stateIdleBegin, stateSighup:
		// An unsolicited packet is in flight; the echo is expected after
		// its END.
	default:
		return ErrReplyPending
	}

	p.armed = true
	p.begun = false
	p.command = strings.TrimRight(command, trailingSpace)
	p.reply = Reply{}
	p.dataCount = 0
	return nil
}

// Pending reports whether a reply is outstanding.
func (p *ReplyParser) Pending() bool {
	return p.armed
}

// Err returns the error that failed the parser, if any.
func (p *ReplyParser) Err() error {
	return p.err
}

// Reset drops all buffered bytes and partial reply state and returns the
// parser to idle, clearing a previous failure.
func (p *ReplyParser) Reset() {
	p.state = stateIdle
	p.armed = false
	p.begun = false
	p.command = ""
	p.reply = Reply{}
	p.dataCount = 0
	p.buf = nil
	p.err = nil
}

// Feed buffers data and runs every complete line through the state
// machine. It returns done = true together with the reply once the reply
// is complete. Bytes of an incomplete trailing line are kept for the next
// call, so no byte is ever consumed twice.
//
// A reply completed by data is returned with done = true even if a later
// line in the same data fails the parser; err is then non-nil as well.
func (p *ReplyParser) Feed(data []byte) (reply Reply, done bool, err error) {
	if p.state == stateFailed {
		return Reply{}, false, p.err
	}

	p.buf = append(p.buf, data...)

	rest := p.buf
	for {
		i := bytes.IndexByte(rest, '\n')
		if i < 0 {
			break
		}

		line := string(rest[:i])
		rest = rest[i+1:]

		r, ok, err := p.FeedLine(line)
		if err != nil {
			return reply, done, err
		}
		if ok {
			reply, done = r, true
		}
	}

	if len(rest) > maxLineLength {
		return reply, done, p.LineTooLong()
	}

	p.buf = append(p.buf[:0], rest...)
	return reply, done, nil
}

// FeedLine runs a single line through the state machine. A trailing line
// feed and carriage return are stripped.
func (p *ReplyParser) FeedLine(line string) (Reply, bool, error) {
	if p.state == stateFailed {
		return Reply{}, false, p.err
	}

	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")

	done, err := p.read(line)
	if err != nil {
		return Reply{}, false, p.fail(err)
	}
	if !done {
		return Reply{}, false, nil
	}

	reply := p.reply
	p.armed = false
	p.begun = false
	p.command = ""
	p.reply = Reply{}
	p.state = stateIdle
	return reply, true, nil
}

// EOF tells the parser that the peer closed the stream. It returns a
// *ProtocolError if a reply or packet was cut short.
func (p *ReplyParser) EOF() error {
	if p.state == stateFailed {
		return p.err
	}
	if p.armed || p.state != stateIdle {
		return p.fail(&ProtocolError{
			Reason: ReasonClosedMidReply,
			Status: p.reply.Status,
		})
	}
	return nil
}

// LineTooLong fails the parser because the peer sent a line longer than
// the parser accepts. Readers that split lines themselves call it instead
// of buffering without bound.
func (p *ReplyParser) LineTooLong() error {
	if p.state == stateFailed {
		return p.err
	}
	return p.fail(&ProtocolError{
		Reason: ReasonLineTooLong,
		Status: p.reply.Status,
	})
}

func (p *ReplyParser) fail(err error) error {
	p.state = stateFailed
	p.err = err
	p.buf = nil
	return err
}

func (p *ReplyParser) stateError(reason, line string) error {
	p.logger.Debug(
		"lirc reply does not follow protocol",
		"reason", reason,
		"line", line)
	return &ProtocolError{
		Reason: reason,
		Line:   line,
		Status: p.reply.Status,
	}
}

func (p *ReplyParser) broadcast(line string) {
	event, err := parseButtonPress(line)
	if err != nil {
		p.logger.Warn(
			"ignoring unparseable lircd broadcast",
			"line", line,
			"err", err)
		return
	}
	if p.events != nil {
		p.events(event)
	}
}

func (p *ReplyParser) read(line string) (done bool, err error) {
	word := strings.TrimRight(line, trailingSpace)

	switch p.state {
	case stateIdle:
		if word == "BEGIN" {
			p.state = stateIdleBegin
			return false, nil
		}
		if word != "" {
			p.broadcast(line)
		}

	case stateIdleBegin:
		if word != "SIGHUP" {
			return false, p.stateError(ReasonUnexpectedPacket, line)
		}
		p.state = stateSighup

	case stateEcho:
		switch {
		case word == p.command:
			p.reply.Command = word
			p.state = stateStatus
		case !p.begun && word == "BEGIN":
			p.begun = true
		case p.begun && word == "SIGHUP":
			p.state = stateSighup
		case !p.begun && word != "":
			if _, err := parseButtonPress(line); err != nil {
				return false, p.stateError(ReasonUnexpectedEcho, line)
			}
			p.broadcast(line)
		default:
			return false, p.stateError(ReasonUnexpectedEcho, line)
		}

	case stateStatus:
		switch word {
		case "SUCCESS":
			p.reply.Status = StatusSuccess
		case "ERROR":
			p.reply.Status = StatusError
		default:
			return false, p.stateError(ReasonBadStatus, line)
		}
		p.state = stateDataStart

	case stateDataStart:
		switch word {
		case "DATA":
			p.state = stateDataLength
		case "END":
			return true, nil
		default:
			return false, p.stateError(ReasonMissingEnd, line)
		}

	case stateDataLength:
		// Digits only: no sign and no leading blanks.
		count, err := strconv.ParseUint(word, 10, 31)
		if err != nil {
			return false, p.stateError(ReasonBadCount, line)
		}

		n := int(count)
		p.dataCount = n
		p.reply.Data = make([]string, 0, min(n, maxPreallocLines))
		if n == 0 {
			p.state = stateDataEnd
		} else {
			p.state = stateData
		}

	case stateData:
		p.reply.Data = append(p.reply.Data, line)
		if len(p.reply.Data) == p.dataCount {
			p.state = stateDataEnd
		}

	case stateDataEnd:
		if word != "END" {
			return false, p.stateError(ReasonMissingEnd, line)
		}
		return true, nil

	case stateSighup:
		if word != "END" {
			return false, p.stateError(ReasonMissingEnd, line)
		}

		p.logger.Info("lircd has been reloaded")

		if p.armed {
			p.begun = false
			p.state = stateEcho
		} else {
			p.state = stateIdle
		}
	}

	return false, nil
}
