// Package config loads, normalizes, and validates irctl configuration data.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and falls back to the lircd options file for the socket path
// when none is configured. Always obtain settings through this package so
// the CLI receives a resolved lircd endpoint and canonical log settings.
package config
