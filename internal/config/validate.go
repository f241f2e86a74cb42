package config

import (
	"errors"
	"fmt"

	"libdb.so/lirc"
	"libdb.so/lirc/internal/logging"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLircd(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLircd() error {
	if c.Lircd.Address != "" {
		if _, err := lirc.ParseEndpoint(c.Lircd.Address); err != nil {
			return fmt.Errorf("lircd.address: %w", err)
		}
	} else if c.Lircd.Socket == "" {
		return errors.New("lircd.socket must be set when lircd.address is empty")
	}
	if c.Lircd.ConnectTimeout < 0 {
		return errors.New("lircd.connect_timeout must be positive")
	}
	if c.Lircd.ReplyTimeout < 0 {
		return errors.New("lircd.reply_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}
