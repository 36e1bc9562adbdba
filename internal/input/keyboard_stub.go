//go:build !windows && !linux && !darwin

package input

import (
	"fmt"
	"runtime"
)

// Keyboard is a stub for platforms without a synthetic keyboard.
type Keyboard struct{}

// NewKeyboard reports that injection is unavailable.
func NewKeyboard() (*Keyboard, error) {
	return nil, fmt.Errorf("key injection not supported on %s", runtime.GOOS)
}

func (k *Keyboard) Press(key Key) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedKey, key)
}

func (k *Keyboard) Release(key Key) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedKey, key)
}
