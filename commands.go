package lirc

import (
	"fmt"
	"strconv"
	"strings"
)

// Command describes a command that can be sent to lirc. The set of commands
// is closed; every implementation lives in this package.
type Command interface {
	// EncodeCommand encodes the command and arguments as a slice of strings.
	EncodeCommand() []string
	// Validate checks the arguments without doing any I/O. It returns an
	// *ArgumentError naming the offending argument.
	Validate() error

	command()
}

// Querier is a [Command] whose reply data has a typed interpretation.
type Querier[T any] interface {
	Command
	// Interpret decodes the data lines of a successful reply.
	Interpret(Reply) (T, error)
}

// Encode returns the command line for cmd, without the trailing newline.
func Encode(cmd Command) string {
	return strings.Join(cmd.EncodeCommand(), " ")
}

func checkName(command, argument, value string) error {
	switch {
	case value == "":
		return &ArgumentError{command, argument, value, "must not be empty"}
	case strings.ContainsAny(value, " \t\r\n"):
		return &ArgumentError{command, argument, value, "must not contain whitespace"}
	}
	return nil
}

func checkLine(command, argument, value string) error {
	switch {
	case strings.TrimSpace(value) == "":
		return &ArgumentError{command, argument, value, "must not be empty"}
	case strings.ContainsAny(value, "\r\n"):
		return &ArgumentError{command, argument, value, "must be a single line"}
	}
	return nil
}

// Version tells lircd to send a version packet response.
type Version struct{}

// EncodeCommand implements the [Command] interface.
func (v Version) EncodeCommand() []string {
	return []string{"VERSION"}
}

// Validate implements the [Command] interface.
func (v Version) Validate() error { return nil }

// Interpret returns the version string carried by the single data line.
func (v Version) Interpret(r Reply) (string, error) {
	if len(r.Data) != 1 {
		return "", fmt.Errorf("%w: VERSION reply has %d data lines, want 1", ErrMalformedData, len(r.Data))
	}
	return strings.TrimSpace(r.Data[0]), nil
}

func (Version) command() {}

// ListRemotes returns a list of all defined remote controls.
type ListRemotes struct{}

// EncodeCommand implements the [Command] interface.
func (l ListRemotes) EncodeCommand() []string {
	return []string{"LIST"}
}

// Validate implements the [Command] interface.
func (l ListRemotes) Validate() error { return nil }

// Interpret returns one remote control name per data line.
func (l ListRemotes) Interpret(r Reply) ([]string, error) {
	remotes := make([]string, 0, len(r.Data))
	for _, line := range r.Data {
		if name := strings.TrimSpace(line); name != "" {
			remotes = append(remotes, name)
		}
	}
	return remotes, nil
}

func (ListRemotes) command() {}

// Key is a button defined for a remote control.
type Key struct {
	Code uint64
	Name string
}

// ListKeys returns the buttons defined for a remote control.
type ListKeys struct {
	RemoteControl string
}

// NewListKeys validates and returns a [ListKeys] command.
func NewListKeys(remote string) (ListKeys, error) {
	l := ListKeys{RemoteControl: remote}
	return l, l.Validate()
}

// EncodeCommand implements the [Command] interface.
func (l ListKeys) EncodeCommand() []string {
	return []string{"LIST", l.RemoteControl}
}

// Validate implements the [Command] interface.
func (l ListKeys) Validate() error {
	return checkName("LIST", "remote", l.RemoteControl)
}

// Interpret decodes "<code> <name>" data lines. A line holding only a name
// yields a zero code.
func (l ListKeys) Interpret(r Reply) ([]Key, error) {
	keys := make([]Key, 0, len(r.Data))
	for _, line := range r.Data {
		w := strings.Fields(line)
		switch len(w) {
		case 0:
			continue
		case 1:
			keys = append(keys, Key{Name: w[0]})
		case 2:
			code, err := strconv.ParseUint(w[0], 16, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: key code %q is not hex", ErrMalformedData, w[0])
			}
			keys = append(keys, Key{Code: code, Name: w[1]})
		default:
			return nil, fmt.Errorf("%w: key line %q", ErrMalformedData, line)
		}
	}
	return keys, nil
}

func (ListKeys) command() {}

// SendOnce tells lircd to send the IR signal associated with the given remote
// control and button name, and then repeat it repeats times. repeats is a
// decimal number between 0 and repeat_max. The latter can be given as a
// --repeat-max command line argument to lircd, and defaults to 600. If repeats
// is not specified or is less than the minimum number of repeats for the
// selected remote control, the minimum value will be used.
type SendOnce struct {
	RemoteControl string
	ButtonName    string
	Repeats       uint // optional
}

// NewSendOnce validates and returns a [SendOnce] command.
func NewSendOnce(remote, button string, repeats uint) (SendOnce, error) {
	s := SendOnce{RemoteControl: remote, ButtonName: button, Repeats: repeats}
	return s, s.Validate()
}

// EncodeCommand implements the [Command] interface.
func (s SendOnce) EncodeCommand() []string {
	if s.Repeats == 0 {
		return []string{"SEND_ONCE", s.RemoteControl, s.ButtonName}
	}
	return []string{"SEND_ONCE", s.RemoteControl, s.ButtonName, strconv.FormatUint(uint64(s.Repeats), 10)}
}

// Validate implements the [Command] interface.
func (s SendOnce) Validate() error {
	if err := checkName("SEND_ONCE", "remote", s.RemoteControl); err != nil {
		return err
	}
	return checkName("SEND_ONCE", "button", s.ButtonName)
}

func (SendOnce) command() {}

// SendStart tells lircd to start repeating the given button until it receives a
// [SendStop] command. However, the number of repeats is limited to repeat_max.
// lircd won't accept any new send commands while it is repeating.
type SendStart struct {
	RemoteControl string
	ButtonName    string
}

// NewSendStart validates and returns a [SendStart] command.
func NewSendStart(remote, button string) (SendStart, error) {
	s := SendStart{RemoteControl: remote, ButtonName: button}
	return s, s.Validate()
}

// EncodeCommand implements the [Command] interface.
func (s SendStart) EncodeCommand() []string {
	return []string{"SEND_START", s.RemoteControl, s.ButtonName}
}

// Validate implements the [Command] interface.
func (s SendStart) Validate() error {
	if err := checkName("SEND_START", "remote", s.RemoteControl); err != nil {
		return err
	}
	return checkName("SEND_START", "button", s.ButtonName)
}

func (SendStart) command() {}

// SendStop tells lircd to abort a [SendStart] command.
type SendStop struct {
	RemoteControl string
	ButtonName    string
}

// NewSendStop validates and returns a [SendStop] command.
func NewSendStop(remote, button string) (SendStop, error) {
	s := SendStop{RemoteControl: remote, ButtonName: button}
	return s, s.Validate()
}

// EncodeCommand implements the [Command] interface.
func (s SendStop) EncodeCommand() []string {
	return []string{"SEND_STOP", s.RemoteControl, s.ButtonName}
}

// Validate implements the [Command] interface.
func (s SendStop) Validate() error {
	if err := checkName("SEND_STOP", "remote", s.RemoteControl); err != nil {
		return err
	}
	return checkName("SEND_STOP", "button", s.ButtonName)
}

func (SendStop) command() {}

// SetInputLog starts logging all received data on that file. The log is printable
// lines as defined in mode2(1) describing pulse/space durations. An empty
// Path, or "null", stops logging.
type SetInputLog struct {
	Path string
}

// NewSetInputLog validates and returns a [SetInputLog] command.
func NewSetInputLog(path string) (SetInputLog, error) {
	s := SetInputLog{Path: path}
	return s, s.Validate()
}

// EncodeCommand implements the [Command] interface.
func (s SetInputLog) EncodeCommand() []string {
	if s.Path == "" {
		return []string{"SET_INPUTLOG"}
	}
	return []string{"SET_INPUTLOG", s.Path}
}

// Validate implements the [Command] interface.
func (s SetInputLog) Validate() error {
	if s.Path == "" {
		return nil
	}
	return checkName("SET_INPUTLOG", "path", s.Path)
}

func (SetInputLog) command() {}

// DrvOption makes lircd invoke the drvctl_func(DRVCTL_SET_OPTION, option) with
// option being made up by the parsed key and value. The return package reflects
// the outcome of the drvctl_func call.
type DrvOption struct {
	Key   string
	Value string
}

// NewDrvOption validates and returns a [DrvOption] command.
func NewDrvOption(key, value string) (DrvOption, error) {
	d := DrvOption{Key: key, Value: value}
	return d, d.Validate()
}

// EncodeCommand implements the [Command] interface.
func (d DrvOption) EncodeCommand() []string {
	return []string{"DRV_OPTION", d.Key, d.Value}
}

// Validate implements the [Command] interface.
func (d DrvOption) Validate() error {
	if err := checkName("DRV_OPTION", "key", d.Key); err != nil {
		return err
	}
	return checkLine("DRV_OPTION", "value", d.Value)
}

func (DrvOption) command() {}

// MaxSimulateRepeat is the largest repeat count [Simulate] can encode.
const MaxSimulateRepeat = 0xff

// Simulate instructs lircd to send a decoded key press to all clients, as if
// it had been received. This command is only accepted if the
// --allow-simulate command line option is active.
type Simulate struct {
	RemoteControl string
	ButtonName    string
	Repeat        uint
	Code          uint64
}

// NewSimulate validates and returns a [Simulate] command.
func NewSimulate(remote, button string, repeat uint, code uint64) (Simulate, error) {
	s := Simulate{RemoteControl: remote, ButtonName: button, Repeat: repeat, Code: code}
	return s, s.Validate()
}

// EncodeCommand implements the [Command] interface. The key data is
// formatted exactly like a broadcast packet.
func (s Simulate) EncodeCommand() []string {
	return []string{
		"SIMULATE",
		fmt.Sprintf("%016x", s.Code),
		fmt.Sprintf("%02x", s.Repeat),
		s.ButtonName,
		s.RemoteControl,
	}
}

// Validate implements the [Command] interface.
func (s Simulate) Validate() error {
	if err := checkName("SIMULATE", "remote", s.RemoteControl); err != nil {
		return err
	}
	if err := checkName("SIMULATE", "button", s.ButtonName); err != nil {
		return err
	}
	if s.Repeat > MaxSimulateRepeat {
		return &ArgumentError{"SIMULATE", "repeat", strconv.FormatUint(uint64(s.Repeat), 10), "must be at most 255"}
	}
	return nil
}

func (Simulate) command() {}

// MaxTransmitter is the highest transmitter number that fits the mask.
const MaxTransmitter = 32

// SetTransmitters makes lircd invoke the drvctl_func(LIRC_SET_TRANSMITTER_MASK,
// &channels), where channels is the decoded value of transmitter mask. See lirc(4)
// for more information. Transmitters are numbered from 1.
type SetTransmitters struct {
	Transmitters []uint
}

// NewSetTransmitters validates and returns a [SetTransmitters] command.
func NewSetTransmitters(transmitters ...uint) (SetTransmitters, error) {
	s := SetTransmitters{Transmitters: transmitters}
	return s, s.Validate()
}

// Mask returns the transmitter bit mask; transmitter n sets bit n-1.
func (s SetTransmitters) Mask() uint32 {
	var mask uint32
	for _, t := range s.Transmitters {
		if t >= 1 && t <= MaxTransmitter {
			mask |= 1 << (t - 1)
		}
	}
	return mask
}

// EncodeCommand implements the [Command] interface.
func (s SetTransmitters) EncodeCommand() []string {
	return []string{"SET_TRANSMITTERS", strconv.FormatUint(uint64(s.Mask()), 10)}
}

// Validate implements the [Command] interface.
func (s SetTransmitters) Validate() error {
	if len(s.Transmitters) == 0 {
		return &ArgumentError{"SET_TRANSMITTERS", "transmitters", "", "must name at least one transmitter"}
	}
	for _, t := range s.Transmitters {
		if t < 1 || t > MaxTransmitter {
			return &ArgumentError{"SET_TRANSMITTERS", "transmitter", strconv.FormatUint(uint64(t), 10), "must be between 1 and 32"}
		}
	}
	return nil
}

func (SetTransmitters) command() {}

// Raw is a verbatim command line, for commands this package has no variant
// for.
type Raw struct {
	Line string
}

// NewRaw validates and returns a [Raw] command.
func NewRaw(line string) (Raw, error) {
	r := Raw{Line: line}
	return r, r.Validate()
}

// EncodeCommand implements the [Command] interface.
func (r Raw) EncodeCommand() []string {
	return []string{strings.TrimSpace(r.Line)}
}

// Validate implements the [Command] interface.
func (r Raw) Validate() error {
	return checkLine("RAW", "line", r.Line)
}

// Interpret returns the reply unchanged.
func (r Raw) Interpret(reply Reply) (Reply, error) {
	return reply, nil
}

func (Raw) command() {}
