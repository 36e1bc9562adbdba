//go:build !windows

package hotkey

import (
	"unicode"

	hook "github.com/robotn/gohook"

	"lethalterm/internal/input"
)

// gohook observes keys but cannot consume them, and reports our own
// synthetic keys like any other, so those are filtered by the echo filter.
const (
	canSuppress    = false
	canSeeInjected = false
)

var keycodeNames = func() map[uint16]string {
	names := make(map[uint16]string, len(hook.Keycode))
	for name, code := range hook.Keycode {
		if prev, ok := names[code]; ok && len(prev) <= len(name) {
			continue
		}
		names[code] = name
	}
	return names
}()

func (h *Hook) startPlatform() (func(), error) {
	events := hook.Start()
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				// KeyHold is the raw key-down; KeyDown is the typed character.
				if ev.Kind != hook.KeyHold {
					continue
				}
				key := keyFromEvent(ev)
				if key == "" || h.echo.Consume(key) {
					continue
				}
				h.dispatch(key)
			}
		}
	}()
	h.logger.Info("gohook keyboard hook installed")

	return func() {
		close(done)
		hook.End()
		h.logger.Info("gohook keyboard hook removed")
	}, nil
}

func keyFromEvent(ev hook.Event) input.Key {
	if name, ok := keycodeNames[ev.Keycode]; ok {
		return input.Normalize(name)
	}
	if name := hook.RawcodetoKeychar(ev.Rawcode); name != "" {
		return input.Normalize(name)
	}
	if unicode.IsPrint(ev.Keychar) || ev.Keychar == '\r' || ev.Keychar == '\b' || ev.Keychar == '\t' {
		return input.Normalize(string(ev.Keychar))
	}
	return ""
}
