package config

import "libdb.so/lirc"

const (
	defaultConnectTimeout = 5
	defaultReplyTimeout   = 10
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with defaults. The socket is left empty
// so that Load can consult the lircd options file.
func Default() Config {
	return Config{
		Lircd: Lircd{
			ConnectTimeout: defaultConnectTimeout,
			ReplyTimeout:   defaultReplyTimeout,
			LircOptions:    lirc.DefaultOptionsFile,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
