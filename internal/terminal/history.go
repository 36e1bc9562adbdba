package terminal

import "lethalterm/internal/input"

// HistorySize bounds the recent-keys window used for sequence matching.
const HistorySize = 50

// History is the recent-keys window. It is only touched by the key-event
// thread.
type History struct {
	keys []input.Key
	max  int
}

// NewHistory creates a history bounded to max keys.
func NewHistory(max int) *History {
	return &History{keys: make([]input.Key, 0, max+1), max: max}
}

// Append records key without enforcing the bound; call Trim afterwards.
func (h *History) Append(key input.Key) {
	h.keys = append(h.keys, key)
}

// Trim evicts the oldest keys beyond the bound.
func (h *History) Trim() {
	if over := len(h.keys) - h.max; over > 0 {
		n := copy(h.keys, h.keys[over:])
		h.keys = h.keys[:n]
	}
}

// Clear empties the window.
func (h *History) Clear() {
	h.keys = h.keys[:0]
}

func (h *History) Len() int {
	return len(h.keys)
}

// Last returns the most recent key, or "" when empty.
func (h *History) Last() input.Key {
	if len(h.keys) == 0 {
		return ""
	}
	return h.keys[len(h.keys)-1]
}

// Keys returns a copy of the window, oldest first.
func (h *History) Keys() []input.Key {
	return append([]input.Key(nil), h.keys...)
}

// Matches reports whether the window ends with seq, case-insensitively.
func (h *History) Matches(seq ...input.Key) bool {
	if len(seq) == 0 || len(h.keys) < len(seq) {
		return false
	}
	tail := h.keys[len(h.keys)-len(seq):]
	for i, k := range seq {
		if !tail[i].Equal(k) {
			return false
		}
	}
	return true
}
