package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"libdb.so/lirc"
)

//go:embed sample_config.toml
var sampleConfig string

// Lircd contains the daemon endpoint and timeouts.
type Lircd struct {
	Socket         string `toml:"socket"`
	Address        string `toml:"address"`
	ConnectTimeout int    `toml:"connect_timeout"` // seconds
	ReplyTimeout   int    `toml:"reply_timeout"`   // seconds
	LircOptions    string `toml:"lirc_options"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for irctl.
type Config struct {
	Lircd   Lircd   `toml:"lircd"`
	Logging Logging `toml:"logging"`
}

// ResolvePath applies the explicit/XDG/home fallback rules for the config
// file location.
func ResolvePath(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return expandPath(explicit)
	}

	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "irctl", "config.toml"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for config fallback")
	}

	return filepath.Join(home, ".config", "irctl", "config.toml"), nil
}

// Load locates, parses, and validates a configuration file. A missing file
// is not an error; the defaults are used instead. It returns the resolved
// path and whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, err := ResolvePath(path)
	if err != nil {
		return nil, "", false, err
	}

	exists := true
	file, err := os.Open(resolvedPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		exists = false
	case err != nil:
		return nil, "", false, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// Endpoint returns the lircd endpoint. A TCP address wins over the socket.
func (c *Config) Endpoint() (lirc.Endpoint, error) {
	if c.Lircd.Address != "" {
		return lirc.ParseEndpoint(c.Lircd.Address)
	}
	return lirc.Endpoint{Network: "unix", Address: c.Lircd.Socket}, nil
}

// ConnectTimeout returns the connect timeout as a duration.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.Lircd.ConnectTimeout) * time.Second
}

// ReplyTimeout returns the per-reply timeout as a duration.
func (c *Config) ReplyTimeout() time.Duration {
	return time.Duration(c.Lircd.ReplyTimeout) * time.Second
}

// ClientOptions maps the config onto [lirc.Options].
func (c *Config) ClientOptions() lirc.Options {
	return lirc.Options{
		ConnectTimeout: c.ConnectTimeout(),
		Timeout:        c.ReplyTimeout(),
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && pathValue[1] == '/' {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
