// Package logging assembles the slog loggers used by irctl.
//
// It owns the console and JSON handlers and the level parsing shared by the
// command line flags and the config file. Library code in package lirc never
// builds its own logger; it receives one from here.
package logging
