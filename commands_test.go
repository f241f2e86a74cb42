package lirc_test

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"libdb.so/lirc"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		cmd  lirc.Command
		want string
	}{
		{"version", lirc.Version{}, "VERSION"},
		{"list remotes", lirc.ListRemotes{}, "LIST"},
		{"list keys", lirc.ListKeys{RemoteControl: "tv"}, "LIST tv"},
		{"send once", lirc.SendOnce{RemoteControl: "tv", ButtonName: "KEY_POWER"}, "SEND_ONCE tv KEY_POWER"},
		{"send once repeats", lirc.SendOnce{RemoteControl: "tv", ButtonName: "KEY_POWER", Repeats: 12}, "SEND_ONCE tv KEY_POWER 12"},
		{"send start", lirc.SendStart{RemoteControl: "tv", ButtonName: "KEY_UP"}, "SEND_START tv KEY_UP"},
		{"send stop", lirc.SendStop{RemoteControl: "tv", ButtonName: "KEY_UP"}, "SEND_STOP tv KEY_UP"},
		{"inputlog", lirc.SetInputLog{Path: "/tmp/ir.log"}, "SET_INPUTLOG /tmp/ir.log"},
		{"inputlog stop", lirc.SetInputLog{}, "SET_INPUTLOG"},
		{"drv option", lirc.DrvOption{Key: "device", Value: "/dev/lirc1"}, "DRV_OPTION device /dev/lirc1"},
		{"simulate", lirc.Simulate{RemoteControl: "tv", ButtonName: "KEY_OK", Repeat: 0x1a, Code: 0xbeef}, "SIMULATE 000000000000beef 1a KEY_OK tv"},
		{"transmitters", lirc.SetTransmitters{Transmitters: []uint{1, 3}}, "SET_TRANSMITTERS 5"},
		{"raw", lirc.Raw{Line: "  LIST remote1 \"\"  "}, `LIST remote1 ""`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.NoError(t, test.cmd.Validate())
			assert.Equal(t, test.want, lirc.Encode(test.cmd))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		cmd      lirc.Command
		argument string
	}{
		{"list keys empty", lirc.ListKeys{}, "remote"},
		{"list keys space", lirc.ListKeys{RemoteControl: "my tv"}, "remote"},
		{"send once no remote", lirc.SendOnce{ButtonName: "KEY_OK"}, "remote"},
		{"send once no button", lirc.SendOnce{RemoteControl: "tv"}, "button"},
		{"send start newline", lirc.SendStart{RemoteControl: "tv", ButtonName: "KEY\nOK"}, "button"},
		{"send stop no remote", lirc.SendStop{ButtonName: "KEY_OK"}, "remote"},
		{"inputlog space", lirc.SetInputLog{Path: "/tmp/my log"}, "path"},
		{"drv option no key", lirc.DrvOption{Value: "x"}, "key"},
		{"drv option no value", lirc.DrvOption{Key: "device"}, "value"},
		{"drv option multiline", lirc.DrvOption{Key: "device", Value: "a\nb"}, "value"},
		{"simulate repeat", lirc.Simulate{RemoteControl: "tv", ButtonName: "KEY_OK", Repeat: 256}, "repeat"},
		{"simulate no button", lirc.Simulate{RemoteControl: "tv"}, "button"},
		{"transmitters none", lirc.SetTransmitters{}, "transmitters"},
		{"transmitters zero", lirc.SetTransmitters{Transmitters: []uint{0}}, "transmitter"},
		{"transmitters too high", lirc.SetTransmitters{Transmitters: []uint{1, 33}}, "transmitter"},
		{"raw empty", lirc.Raw{Line: "   "}, "line"},
		{"raw two lines", lirc.Raw{Line: "VERSION\nLIST"}, "line"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.cmd.Validate()

			var aerr *lirc.ArgumentError
			assert.True(t, errors.As(err, &aerr), "expected argument error, got %v", err)
			assert.Equal(t, test.argument, aerr.Argument)
		})
	}
}

func TestConstructorsValidate(t *testing.T) {
	_, err := lirc.NewSendOnce("tv", "", 0)
	assert.Error(t, err)

	_, err = lirc.NewSimulate("tv", "KEY_OK", 0xff, 1)
	assert.NoError(t, err)

	s, err := lirc.NewSetTransmitters(1, 2, 32)
	assert.NoError(t, err)
	assert.Equal(t, uint32(0x80000003), s.Mask())

	_, err = lirc.NewRaw("")
	assert.Error(t, err)
}

func TestSetTransmittersMask(t *testing.T) {
	for n := uint(1); n <= lirc.MaxTransmitter; n++ {
		s := lirc.SetTransmitters{Transmitters: []uint{n}}
		assert.Equal(t, uint32(1)<<(n-1), s.Mask(), "transmitter %d", n)
	}

	// Repeated transmitters set the bit once.
	s := lirc.SetTransmitters{Transmitters: []uint{2, 2, 4}}
	assert.Equal(t, uint32(0b1010), s.Mask())
}

func TestVersionInterpret(t *testing.T) {
	version, err := lirc.Version{}.Interpret(lirc.Reply{Data: []string{"0.10.1"}})
	assert.NoError(t, err)
	assert.Equal(t, "0.10.1", version)

	_, err = lirc.Version{}.Interpret(lirc.Reply{})
	assert.IsError(t, err, lirc.ErrMalformedData)

	_, err = lirc.Version{}.Interpret(lirc.Reply{Data: []string{"a", "b"}})
	assert.IsError(t, err, lirc.ErrMalformedData)
}

func TestListRemotesInterpret(t *testing.T) {
	remotes, err := lirc.ListRemotes{}.Interpret(lirc.Reply{Data: []string{"tv", "", "amp "}})
	assert.NoError(t, err)
	assert.Equal(t, []string{"tv", "amp"}, remotes)
}

func TestListKeysInterpret(t *testing.T) {
	keys, err := lirc.ListKeys{RemoteControl: "tv"}.Interpret(lirc.Reply{Data: []string{
		"0000000000000010 KEY_OK",
		"KEY_BACK",
	}})
	assert.NoError(t, err)
	assert.Equal(t, []lirc.Key{{Code: 0x10, Name: "KEY_OK"}, {Name: "KEY_BACK"}}, keys)

	_, err = lirc.ListKeys{RemoteControl: "tv"}.Interpret(lirc.Reply{Data: []string{"zz KEY_OK"}})
	assert.IsError(t, err, lirc.ErrMalformedData)

	_, err = lirc.ListKeys{RemoteControl: "tv"}.Interpret(lirc.Reply{Data: []string{"1 KEY_OK extra"}})
	assert.IsError(t, err, lirc.ErrMalformedData)
}

func TestReplyErr(t *testing.T) {
	ok := lirc.Reply{Command: "VERSION", Status: lirc.StatusSuccess}
	assert.True(t, ok.Success())
	assert.NoError(t, ok.Err())

	failed := lirc.Reply{Command: "SEND_ONCE tv KEY_NOPE", Status: lirc.StatusError, Data: []string{"unknown command"}}
	assert.False(t, failed.Success())
	assert.IsError(t, failed.Err(), lirc.ErrUnsuccessfulCommand)
	assert.Contains(t, failed.Err().Error(), "unknown command")
}
