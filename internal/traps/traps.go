// Package traps holds the trap code validator and the registry of codes the
// automation pass types into the in-game terminal.
package traps

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	ErrInvalidCode   = errors.New("invalid trap code")
	ErrDuplicateCode = errors.New("trap code already registered")
	ErrUnknownCode   = errors.New("trap code not registered")
)

// IsValidCode reports whether code is exactly one letter followed by one digit.
func IsValidCode(code string) bool {
	if len(code) != 2 {
		return false
	}
	c, d := code[0], code[1]
	isLetter := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
	isDigit := d >= '0' && d <= '9'
	return isLetter && isDigit
}

// AllCodes returns the full code space: a0..a9, b0..b9, ..., z9.
func AllCodes() []string {
	codes := make([]string, 0, 26*10)
	for c := 'a'; c <= 'z'; c++ {
		for d := '0'; d <= '9'; d++ {
			codes = append(codes, string([]rune{c, d}))
		}
	}
	return codes
}

// Registry is the set of registered codes plus the "all codes" override.
// It is read by the automation pass and written by the input handlers, so
// every method is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	codes    []string
	allCodes bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers code. Codes are stored lowercase.
func (r *Registry) Add(code string) error {
	if !IsValidCode(code) {
		return fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	code = strings.ToLower(code)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.codes {
		if c == code {
			return fmt.Errorf("%w: %s", ErrDuplicateCode, code)
		}
	}
	r.codes = append(r.codes, code)
	return nil
}

// Remove unregisters code.
func (r *Registry) Remove(code string) error {
	if !IsValidCode(code) {
		return fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	code = strings.ToLower(code)

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.codes {
		if c == code {
			r.codes = append(r.codes[:i], r.codes[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownCode, code)
}

// Contains reports whether code is registered.
func (r *Registry) Contains(code string) bool {
	code = strings.ToLower(code)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.codes {
		if c == code {
			return true
		}
	}
	return false
}

// Codes returns a copy of the registered codes in registration order.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.codes))
	copy(out, r.codes)
	return out
}

// Len returns the number of registered codes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.codes)
}

// AllCodesMode reports whether the override is on.
func (r *Registry) AllCodesMode() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.allCodes
}

// SetAllCodesMode sets the override and returns the previous value.
func (r *Registry) SetAllCodesMode(on bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.allCodes
	r.allCodes = on
	return prev
}

// WorkingSet returns the codes a pass should type: every code when the
// override is on, otherwise the registered ones.
func (r *Registry) WorkingSet() []string {
	if r.AllCodesMode() {
		return AllCodes()
	}
	return r.Codes()
}

// Empty reports whether a pass would have nothing to type.
func (r *Registry) Empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.allCodes && len(r.codes) == 0
}
