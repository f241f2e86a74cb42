package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"libdb.so/lirc"
)

func (c *Config) normalize() error {
	if err := c.normalizeLircd(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeLircd() error {
	var err error

	c.Lircd.Address = strings.TrimSpace(c.Lircd.Address)

	if strings.TrimSpace(c.Lircd.LircOptions) == "" {
		c.Lircd.LircOptions = lirc.DefaultOptionsFile
	}
	if c.Lircd.LircOptions, err = expandPath(strings.TrimSpace(c.Lircd.LircOptions)); err != nil {
		return fmt.Errorf("lircd.lirc_options: %w", err)
	}

	c.Lircd.Socket = strings.TrimSpace(c.Lircd.Socket)
	if c.Lircd.Socket == "" {
		if c.Lircd.Socket, err = socketFromOptions(c.Lircd.LircOptions); err != nil {
			return fmt.Errorf("lircd.lirc_options: %w", err)
		}
	}
	if c.Lircd.Socket, err = expandPath(c.Lircd.Socket); err != nil {
		return fmt.Errorf("lircd.socket: %w", err)
	}

	if c.Lircd.ConnectTimeout == 0 {
		c.Lircd.ConnectTimeout = defaultConnectTimeout
	}
	if c.Lircd.ReplyTimeout == 0 {
		c.Lircd.ReplyTimeout = defaultReplyTimeout
	}
	return nil
}

// socketFromOptions resolves the socket the way lircd clients do when
// nothing is configured. A missing options file is fine.
func socketFromOptions(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return lirc.DefaultSocketPath(os.Getenv, nil), nil
		}
		return "", err
	}
	defer file.Close()
	return lirc.DefaultSocketPath(os.Getenv, file), nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
