package lirc

import (
	"context"
	"fmt"
	"path/filepath"
)

type RemoteHandlers map[string]ButtonHandlers
type ButtonHandlers map[string]ButtonHandler
type ButtonHandler func(ButtonPress)

// Validate checks every remote and button pattern.
func (h RemoteHandlers) Validate() error {
	for remote, buttons := range h {
		if _, err := filepath.Match(remote, ""); err != nil {
			return fmt.Errorf("remote pattern %q: %w", remote, err)
		}
		for button := range buttons {
			if _, err := filepath.Match(button, ""); err != nil {
				return fmt.Errorf("button pattern %q for remote %q: %w", button, remote, err)
			}
		}
	}
	return nil
}

// Dispatch calls the handlers matching event. An exact remote and button
// match wins; otherwise every handler whose patterns match is called. It
// returns the number of handlers called.
func (h RemoteHandlers) Dispatch(event ButtonPress) int {
	// Check for exact match
	if fn := h[event.RemoteControlName][event.ButtonName]; fn != nil {
		fn(event)
		return 1
	}

	// Check for pattern matches
	var called int
	for remote, buttonHandlers := range h {
		remoteMatched, _ := filepath.Match(remote, event.RemoteControlName)
		if !remoteMatched {
			continue
		}

		for button, fn := range buttonHandlers {
			buttonMatched, _ := filepath.Match(button, event.ButtonName)
			if !buttonMatched {
				continue
			}
			fn(event)
			called++
		}
	}
	return called
}

// RouteEvents routes events to the appropriate handler until ctx is canceled.
// Malformed patterns are reported before any event is read.
func RouteEvents(ctx context.Context, events <-chan ButtonPress, handlers RemoteHandlers) error {
	if err := handlers.Validate(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event := <-events:
			handlers.Dispatch(event)
		}
	}
}
