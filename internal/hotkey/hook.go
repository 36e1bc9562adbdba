// Package hotkey provides the global key-down source: a system-wide keyboard
// hook whose subscriber can ask for keys to be swallowed before they reach
// the foreground application.
package hotkey

import (
	"log/slog"
	"sync"

	"lethalterm/internal/input"
)

// Handler receives key-down events on the hook thread. It must return quickly.
type Handler = func(key input.Key)

// SuppressionNote explains what happens to suppressed keys on platforms
// whose hook can only observe them.
const SuppressionNote = "key suppression is not available on this platform: keys typed in Command and the modes entered from it also reach the game"

// CanSuppress reports whether the platform hook can withhold keys from the
// foreground application.
func CanSuppress() bool {
	return canSuppress
}

// Hook is the system-wide key source. A single subscriber at a time
// receives key-down events; Subscribe replaces the previous one.
type Hook struct {
	mu       sync.RWMutex
	handler  Handler
	suppress bool
	started  bool
	stop     func()
	warned   bool
	echo     *EchoFilter
	logger   *slog.Logger
}

// NewHook creates a hook. Start installs it.
func NewHook(logger *slog.Logger) *Hook {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hook{
		echo:   NewEchoFilter(echoTTL),
		logger: logger.With("component", "hook"),
	}
}

// Subscribe routes key-down events to handler. When suppress is set, keys
// are withheld from the foreground application; otherwise they pass through.
func (h *Hook) Subscribe(handler Handler, suppress bool) {
	h.mu.Lock()
	h.handler = handler
	h.suppress = suppress
	warn := suppress && !canSuppress && !h.warned
	if warn {
		h.warned = true
	}
	h.mu.Unlock()

	if warn {
		h.logger.Warn(SuppressionNote)
	}
}

// Unsubscribe drops the current handler. Keys pass through untouched.
func (h *Hook) Unsubscribe() {
	h.mu.Lock()
	h.handler = nil
	h.suppress = false
	h.mu.Unlock()
}

// Suppressing reports the current suppression policy.
func (h *Hook) Suppressing() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.suppress
}

// Start installs the platform hook.
func (h *Hook) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return nil
	}
	stop, err := h.startPlatform()
	if err != nil {
		return err
	}
	h.stop = stop
	h.started = true
	return nil
}

// Stop removes the platform hook.
func (h *Hook) Stop() {
	h.mu.Lock()
	stop := h.stop
	h.stop = nil
	h.started = false
	h.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// WrapPresser returns a presser whose keys the hook will not report back as
// user input.
func (h *Hook) WrapPresser(p input.KeyPresser) input.KeyPresser {
	if canSeeInjected {
		return p
	}
	return h.echo.Wrap(p)
}

// dispatch delivers key to the subscriber and reports whether the key must
// be swallowed. The policy in force when the key arrived decides, even if
// the handler switches to another mode.
func (h *Hook) dispatch(key input.Key) bool {
	h.mu.RLock()
	handler := h.handler
	suppress := h.suppress
	h.mu.RUnlock()

	if handler != nil {
		handler(key)
	}
	return suppress && handler != nil
}
