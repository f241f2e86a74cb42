package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"libdb.so/lirc"
	"libdb.so/lirc/internal/config"
	"libdb.so/lirc/internal/logging"
)

type globalFlags struct {
	socket   string
	address  string
	config   string
	timeout  time.Duration
	logLevel string
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

// endpoint applies the --address and --socket flags over the config.
func (c *commandContext) endpoint() (lirc.Endpoint, error) {
	if address := strings.TrimSpace(c.flags.address); address != "" {
		return lirc.ParseEndpoint(address)
	}
	if socket := strings.TrimSpace(c.flags.socket); socket != "" {
		return lirc.Endpoint{Network: "unix", Address: socket}, nil
	}

	cfg, err := c.ensureConfig()
	if err != nil {
		return lirc.Endpoint{}, err
	}
	return cfg.Endpoint()
}

func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if c.flags.logLevel != "" {
		level = c.flags.logLevel
	}

	return logging.New(logging.Options{
		Level:  level,
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
}

func (c *commandContext) clientOptions(logger *slog.Logger) (lirc.Options, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return lirc.Options{}, err
	}

	opts := cfg.ClientOptions()
	if c.flags.timeout > 0 {
		opts.Timeout = c.flags.timeout
	}
	opts.Logger = logger
	return opts, nil
}

func (c *commandContext) withClient(cmd *cobra.Command, fn func(context.Context, *lirc.Client) error) error {
	logger, err := c.logger(cmd)
	if err != nil {
		return err
	}

	endpoint, err := c.endpoint()
	if err != nil {
		return err
	}

	opts, err := c.clientOptions(logger.With("module", "lirc"))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := lirc.DialEndpoint(ctx, endpoint, opts)
	if err != nil {
		return wrapDialError(err, endpoint)
	}
	defer client.Close()

	return fn(ctx, client)
}

func wrapDialError(err error, endpoint lirc.Endpoint) error {
	switch {
	case errors.Is(err, unix.ENOENT):
		return fmt.Errorf("connect to lircd: socket %s not found; is lircd running? (%w)", endpoint.Address, err)
	case errors.Is(err, unix.ECONNREFUSED):
		return fmt.Errorf("connect to lircd: %s refused the connection; verify lircd is running: %w", endpoint, err)
	case errors.Is(err, unix.EACCES):
		return fmt.Errorf("connect to lircd: permission denied on %s: %w", endpoint.Address, err)
	default:
		return fmt.Errorf("connect to lircd: %w", err)
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
