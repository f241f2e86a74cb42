package lirc

import (
	"fmt"
	"strconv"
	"strings"
)

// ButtonPress represents the IR Remote Key Press ButtonPress
type ButtonPress struct {
	// Code is a 16 hexadecimal digits number encoding of the IR signal.
	// It's usage in applications is deprecated and it should be ignored.
	Code uint64
	// RepeatCount shows how long the user has been holding down a button.
	// The counter will start at 0 and increment each time a new IR signal has been received.
	RepeatCount uint
	// ButtonName is the name of a key defined in the lircd.conf file.
	ButtonName string
	// RemoteControlName is the mandatory name attribute in the lircd.conf config file.
	RemoteControlName string
}

// String formats the press the way lircd broadcasts it.
func (b ButtonPress) String() string {
	return fmt.Sprintf("%016x %02x %s %s", b.Code, b.RepeatCount, b.ButtonName, b.RemoteControlName)
}

// parseButtonPress decodes a broadcast line of the form
// "<code> <repeat> <button> <remote>". Both numbers are hexadecimal.
func parseButtonPress(line string) (ButtonPress, error) {
	w := strings.Fields(line)
	if len(w) != 4 {
		return ButtonPress{}, fmt.Errorf("expected 4 fields, got %d", len(w))
	}

	code, err := strconv.ParseUint(w[0], 16, 64)
	if err != nil {
		return ButtonPress{}, fmt.Errorf("code not parseable as hex: %w", err)
	}

	repeats, err := strconv.ParseUint(w[1], 16, 0)
	if err != nil {
		return ButtonPress{}, fmt.Errorf("repeat count not parseable as hex: %w", err)
	}

	return ButtonPress{
		Code:              code,
		RepeatCount:       uint(repeats),
		ButtonName:        w[2],
		RemoteControlName: w[3],
	}, nil
}

// Status is the status line of a reply.
type Status uint8

const (
	// StatusUnknown means the status line has not been read.
	StatusUnknown Status = iota
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Reply is the message received after sending a command.
type Reply struct {
	// Command is the command echoed back by lircd.
	Command string
	// Status is SUCCESS or ERROR.
	Status Status
	// Data is the data received from lircd, one entry per line.
	Data []string
}

// Success is whether the command was successful.
func (r Reply) Success() bool {
	return r.Status == StatusSuccess
}

// Err returns a *ReplyError if the reply status is ERROR.
func (r Reply) Err() error {
	if r.Status == StatusError {
		return &ReplyError{Reply: r}
	}
	return nil
}
