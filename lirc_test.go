package lirc_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/neilotoole/slogt"
	"libdb.so/lirc"
	"libdb.so/lirc/internal/lircdtest"
)

func startTestConnection(t *testing.T, server *lircdtest.Server, timeout time.Duration) (*lirc.Connection, context.Context, <-chan error) {
	t.Helper()

	conn := lirc.NewUnix(server.Path)
	conn.Timeout = timeout

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		logger := slogt.New(t).With("module", "lirc")
		errCh <- conn.Start(ctx, logger)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
	})
	return conn, ctx, errCh
}

func TestConnectionSendCommand(t *testing.T) {
	server := lircdtest.New(t)
	server.HandleReply("VERSION", true, "0.10.1")
	server.HandleReply("LIST", true, "tv")

	conn, ctx, _ := startTestConnection(t, server, 0)

	version, err := lirc.Query(ctx, conn, lirc.Version{})
	assert.NoError(t, err)
	assert.Equal(t, "0.10.1", version)

	remotes, err := lirc.Query(ctx, conn, lirc.ListRemotes{})
	assert.NoError(t, err)
	assert.Equal(t, []string{"tv"}, remotes)
}

func TestConnectionErrorReply(t *testing.T) {
	server := lircdtest.New(t)
	conn, ctx, _ := startTestConnection(t, server, 0)

	reply, err := conn.SendCommand(ctx, lirc.SendStart{RemoteControl: "tv", ButtonName: "KEY_VOLUMEUP"})
	assert.IsError(t, err, lirc.ErrUnsuccessfulCommand)
	assert.Equal(t, "SEND_START tv KEY_VOLUMEUP", reply.Command)
}

func TestConnectionEvents(t *testing.T) {
	server := lircdtest.New(t)
	server.HandleReply("VERSION", true, "0.10.1")

	conn, ctx, _ := startTestConnection(t, server, 0)

	// A round trip guarantees the server has accepted the client.
	_, err := conn.SendCommand(ctx, lirc.Version{})
	assert.NoError(t, err)

	server.Broadcast("000000000000001c 00 KEY_ENTER tv\n000000000000001c 01 KEY_ENTER tv\n")

	for i := uint(0); i < 2; i++ {
		select {
		case ev := <-conn.Events:
			assert.Equal(t, lirc.ButtonPress{
				Code:              0x1c,
				RepeatCount:       i,
				ButtonName:        "KEY_ENTER",
				RemoteControlName: "tv",
			}, ev)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for button press")
		}
	}
}

func TestConnectionTimeoutIsFatal(t *testing.T) {
	server := lircdtest.New(t)
	server.Handle("VERSION", lircdtest.Response{Raw: "VERSION\nSUCC"})

	conn, ctx, errCh := startTestConnection(t, server, 100*time.Millisecond)

	_, err := conn.SendCommand(ctx, lirc.Version{})
	var terr *lirc.TimeoutError
	assert.True(t, errors.As(err, &terr), "expected timeout, got %v", err)

	select {
	case err := <-errCh:
		assert.True(t, errors.As(err, &terr), "Start returns the timeout, got %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after the timeout")
	}

	_, err = conn.SendCommand(ctx, lirc.Version{})
	assert.IsError(t, err, lirc.ErrClosed)
}

func TestConnectionProtocolErrorIsFatal(t *testing.T) {
	server := lircdtest.New(t)
	server.Handle("VERSION", lircdtest.Response{Raw: "BEGIN\nVERSION\nSUCCESS\nDATA\nabc\nEND\n"})

	conn, ctx, errCh := startTestConnection(t, server, 0)

	_, err := conn.SendCommand(ctx, lirc.Version{})
	perr := protocolError(t, err)
	assert.Equal(t, lirc.ReasonBadCount, perr.Reason)

	<-errCh

	_, err = conn.SendCommand(ctx, lirc.Version{})
	assert.IsError(t, err, lirc.ErrClosed)
}

func TestConnectionReplyBeforeProtocolError(t *testing.T) {
	server := lircdtest.New(t)
	server.Handle("VERSION", lircdtest.Response{
		Raw: lircdtest.FormatReply("VERSION", true, "0.10.1") + "BEGIN\nJUNK\n",
	})

	conn, ctx, errCh := startTestConnection(t, server, 0)

	version, err := lirc.Query(ctx, conn, lirc.Version{})
	assert.NoError(t, err)
	assert.Equal(t, "0.10.1", version)

	perr := protocolError(t, <-errCh)
	assert.Equal(t, lirc.ReasonUnexpectedPacket, perr.Reason)
}

func TestConnectionClosedMidReply(t *testing.T) {
	server := lircdtest.New(t)
	server.Handle("VERSION", lircdtest.Response{
		Raw:   "BEGIN\nVERSION\nSUCCESS\nDATA\n1\n0.10.1\n",
		Close: true,
	})

	conn, ctx, _ := startTestConnection(t, server, 0)

	_, err := conn.SendCommand(ctx, lirc.Version{})
	perr := protocolError(t, err)
	assert.Equal(t, lirc.ReasonClosedMidReply, perr.Reason)
}

func TestConnectionRepeatButton(t *testing.T) {
	server := lircdtest.New(t)
	server.HandleReply("SEND_START tv KEY_VOLUMEUP", true)
	server.HandleReply("SEND_STOP tv KEY_VOLUMEUP", true)

	conn, ctx, _ := startTestConnection(t, server, 0)

	stop, err := conn.RepeatButton(ctx, "tv", "KEY_VOLUMEUP")
	assert.NoError(t, err)
	assert.NoError(t, stop())

	assert.Equal(t, []string{"SEND_START tv KEY_VOLUMEUP", "SEND_STOP tv KEY_VOLUMEUP"}, server.Received())
}

func TestConnectionRepeatButtonInvalid(t *testing.T) {
	conn := lirc.NewUnix("/nonexistent")

	_, err := conn.RepeatButton(context.Background(), "tv", "")
	var aerr *lirc.ArgumentError
	assert.True(t, errors.As(err, &aerr), "expected argument error, got %v", err)
}

func TestConnectionStartTwice(t *testing.T) {
	server := lircdtest.New(t)
	server.HandleReply("VERSION", true, "0.10.1")

	conn, ctx, _ := startTestConnection(t, server, 0)

	_, err := conn.SendCommand(ctx, lirc.Version{})
	assert.NoError(t, err)

	assert.IsError(t, conn.Start(ctx, slogt.New(t)), lirc.ErrClosed)
}

func TestConnectionDialFailure(t *testing.T) {
	conn := lirc.NewUnix(t.TempDir() + "/missing")

	err := conn.Start(context.Background(), slogt.New(t))
	var cerr *lirc.ConnectError
	assert.True(t, errors.As(err, &cerr), "expected connect error, got %v", err)

	_, err = conn.SendCommand(context.Background(), lirc.Version{})
	assert.IsError(t, err, lirc.ErrClosed)
}

func TestConnectionCancel(t *testing.T) {
	server := lircdtest.New(t)
	server.HandleReply("VERSION", true, "0.10.1")

	conn := lirc.NewUnix(server.Path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- conn.Start(ctx, slogt.New(t)) }()

	_, err := conn.SendCommand(ctx, lirc.Version{})
	assert.NoError(t, err)

	cancel()

	select {
	case err := <-errCh:
		assert.IsError(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
