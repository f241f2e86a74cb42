package lirc_test

import (
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"libdb.so/lirc"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		in   string
		want lirc.Endpoint
	}{
		{"/var/run/lirc/lircd", lirc.Endpoint{Network: "unix", Address: "/var/run/lirc/lircd"}},
		{"unix:///run/lirc/lircd", lirc.Endpoint{Network: "unix", Address: "/run/lirc/lircd"}},
		{"./lircd", lirc.Endpoint{Network: "unix", Address: "./lircd"}},
		{"lircd", lirc.Endpoint{Network: "unix", Address: "lircd"}},
		{"localhost:8766", lirc.Endpoint{Network: "tcp", Address: "localhost:8766"}},
		{"tcp://pi.local", lirc.Endpoint{Network: "tcp", Address: "pi.local:8765"}},
		{"tcp://[::1]", lirc.Endpoint{Network: "tcp", Address: "[::1]:8765"}},
		{"tcp://10.0.0.2:9000", lirc.Endpoint{Network: "tcp", Address: "10.0.0.2:9000"}},
	}

	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			got, err := lirc.ParseEndpoint(test.in)
			assert.NoError(t, err)
			assert.Equal(t, test.want, got)

			again, err := lirc.ParseEndpoint(got.String())
			assert.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestParseEndpointInvalid(t *testing.T) {
	for _, in := range []string{"", "  ", "unix://", "tcp://"} {
		_, err := lirc.ParseEndpoint(in)
		assert.Error(t, err, "%q", in)
	}
}

func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestDefaultSocketPath(t *testing.T) {
	options := `
# lirc_options.conf
[lircd]
nodaemon = False
output   = /run/lirc/custom

[lircmd]
output = /run/lirc/lircm
`

	t.Run("env", func(t *testing.T) {
		path := lirc.DefaultSocketPath(env(map[string]string{"LIRC_SOCKET_PATH": "/tmp/lircd"}), strings.NewReader(options))
		assert.Equal(t, "/tmp/lircd", path)
	})

	t.Run("options", func(t *testing.T) {
		path := lirc.DefaultSocketPath(env(nil), strings.NewReader(options))
		assert.Equal(t, "/run/lirc/custom", path)
	})

	t.Run("other section only", func(t *testing.T) {
		path := lirc.DefaultSocketPath(env(nil), strings.NewReader("[lircmd]\noutput = /x\n"))
		assert.Equal(t, lirc.DefaultSocket, path)
	})

	t.Run("nothing", func(t *testing.T) {
		assert.Equal(t, lirc.DefaultSocket, lirc.DefaultSocketPath(nil, nil))
	})
}

func TestDefaultLircrcPath(t *testing.T) {
	vars := map[string]string{
		"HOME":            "/home/user",
		"XDG_CONFIG_HOME": "/home/user/.xdg",
	}

	t.Run("env", func(t *testing.T) {
		path := lirc.DefaultLircrcPath(env(map[string]string{"LIRC_LIRCRC_PATH": "/srv/lircrc"}), nil)
		assert.Equal(t, "/srv/lircrc", path)
	})

	t.Run("first existing", func(t *testing.T) {
		exists := func(path string) bool { return path == "/home/user/.lircrc" }
		assert.Equal(t, "/home/user/.lircrc", lirc.DefaultLircrcPath(env(vars), exists))
	})

	t.Run("system", func(t *testing.T) {
		exists := func(path string) bool { return path == "/etc/lirc/lircrc" }
		assert.Equal(t, "/etc/lirc/lircrc", lirc.DefaultLircrcPath(env(vars), exists))
	})

	t.Run("none exists", func(t *testing.T) {
		never := func(string) bool { return false }
		assert.Equal(t, "/home/user/.xdg/lircrc", lirc.DefaultLircrcPath(env(vars), never))
		assert.Equal(t, "/etc/lirc/lircrc", lirc.DefaultLircrcPath(env(nil), never))
	})
}
