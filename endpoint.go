package lirc

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultSocket is where lircd listens when nothing else is
	// configured.
	DefaultSocket = "/var/run/lirc/lircd"
	// DefaultOptionsFile is the lircd options file consulted for the socket
	// path.
	DefaultOptionsFile = "/etc/lirc/lirc_options.conf"
	// DefaultTCPPort is lircd's --listen port.
	DefaultTCPPort = "8765"
)

// Endpoint is a transport address of lircd.
type Endpoint struct {
	// Network is "unix" or "tcp".
	Network string
	// Address is a socket path or a host:port pair.
	Address string
}

// String formats the endpoint so that ParseEndpoint can read it back.
func (e Endpoint) String() string {
	return e.Network + "://" + e.Address
}

func (e Endpoint) dial(ctx context.Context, timeout time.Duration) (net.Conn, error) {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, e.Network, e.Address)
	if err != nil {
		return nil, &ConnectError{Network: e.Network, Address: e.Address, Err: err}
	}
	return conn, nil
}

// ParseEndpoint parses a Unix socket path or a TCP address. Accepted forms
// are "unix://path", "tcp://host[:port]", anything containing a slash (a
// path), and "host:port". A missing TCP port defaults to [DefaultTCPPort].
func ParseEndpoint(address string) (Endpoint, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Endpoint{}, errors.New("lirc: empty lircd address")
	}

	switch {
	case strings.HasPrefix(address, "unix://"):
		path := strings.TrimPrefix(address, "unix://")
		if path == "" {
			return Endpoint{}, errors.New("lirc: empty lircd socket path")
		}
		return Endpoint{Network: "unix", Address: path}, nil

	case strings.HasPrefix(address, "tcp://"):
		return parseTCP(strings.TrimPrefix(address, "tcp://"))

	case strings.Contains(address, "/"):
		return Endpoint{Network: "unix", Address: address}, nil

	case strings.Contains(address, ":"):
		return parseTCP(address)

	default:
		return Endpoint{Network: "unix", Address: address}, nil
	}
}

func parseTCP(hostport string) (Endpoint, error) {
	if hostport == "" {
		return Endpoint{}, errors.New("lirc: empty lircd host")
	}

	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		// No port given.
		host, port = strings.Trim(hostport, "[]"), ""
	}
	if port == "" {
		port = DefaultTCPPort
	}
	return Endpoint{Network: "tcp", Address: net.JoinHostPort(host, port)}, nil
}

// DefaultSocketPath computes the lircd socket path: $LIRC_SOCKET_PATH, then
// the "output" option in the [lircd] section of lircOptions (the contents of
// lirc_options.conf, may be nil), then [DefaultSocket].
func DefaultSocketPath(getenv func(string) string, lircOptions io.Reader) string {
	if getenv != nil {
		if path := strings.TrimSpace(getenv("LIRC_SOCKET_PATH")); path != "" {
			return path
		}
	}
	if lircOptions != nil {
		if path, ok := lircdOutputOption(lircOptions); ok {
			return path
		}
	}
	return DefaultSocket
}

// lircdOutputOption reads the output key of the [lircd] section. The file
// is INI-like; only this one key is looked up.
func lircdOutputOption(r io.Reader) (string, bool) {
	var section string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			continue
		}

		if section != "lircd" {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok || strings.TrimSpace(key) != "output" {
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			return value, true
		}
	}
	return "", false
}

// DefaultLircrcPath computes the lircrc path: $LIRC_LIRCRC_PATH, then the
// first existing of $XDG_CONFIG_HOME/lircrc, ~/.config/lircrc, ~/.lircrc and
// /etc/lirc/lircrc. If none exists, the first candidate is returned.
func DefaultLircrcPath(getenv func(string) string, exists func(string) bool) string {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	if path := strings.TrimSpace(getenv("LIRC_LIRCRC_PATH")); path != "" {
		return path
	}

	home := strings.TrimSpace(getenv("HOME"))

	var candidates []string
	if xdg := strings.TrimSpace(getenv("XDG_CONFIG_HOME")); xdg != "" {
		candidates = append(candidates, filepath.Join(xdg, "lircrc"))
	}
	if home != "" {
		candidates = append(candidates,
			filepath.Join(home, ".config", "lircrc"),
			filepath.Join(home, ".lircrc"))
	}
	candidates = append(candidates, "/etc/lirc/lircrc")

	if exists != nil {
		for _, path := range candidates {
			if exists(path) {
				return path
			}
		}
	}
	return candidates[0]
}

// SystemSocketPath is DefaultSocketPath applied to the process environment
// and the system lirc_options.conf.
func SystemSocketPath() string {
	f, err := os.Open(DefaultOptionsFile)
	if err != nil {
		return DefaultSocketPath(os.Getenv, nil)
	}
	defer f.Close()
	return DefaultSocketPath(os.Getenv, f)
}

// FileExists reports whether path names an existing regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
