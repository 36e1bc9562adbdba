// Package input provides key naming, the synthetic key press primitive and
// the throttled injection worker that feeds it.
package input

import "errors"

// ErrUnsupportedKey is returned by a KeyPresser that has no mapping for a key.
var ErrUnsupportedKey = errors.New("unsupported key")

// KeyPresser presses and releases keys on the foreground application.
type KeyPresser interface {
	Press(key Key) error
	Release(key Key) error
}
