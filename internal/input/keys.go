package input

import "strings"

// Key is a symbolic key name: a single character ("a", "7") or a named key
// ("enter", "backspace", "tab", "ctrl", "space").
type Key string

const (
	Enter     Key = "enter"
	Backspace Key = "backspace"
	Tab       Key = "tab"
	Ctrl      Key = "ctrl"
	Shift     Key = "shift"
	Alt       Key = "alt"
	Space     Key = "space"
	Escape    Key = "esc"
)

var aliases = map[string]Key{
	"return":   Enter,
	"\r":       Enter,
	"\n":       Enter,
	"kp_enter": Enter,
	"bksp":     Backspace,
	"back":     Backspace,
	"delete":   Backspace,
	"\b":       Backspace,
	"\t":       Tab,
	" ":        Space,
	"spacebar": Space,
	"control":  Ctrl,
	"lctrl":    Ctrl,
	"rctrl":    Ctrl,
	"ctrl_l":   Ctrl,
	"ctrl_r":   Ctrl,
	"lshift":   Shift,
	"rshift":   Shift,
	"shift_l":  Shift,
	"shift_r":  Shift,
	"lalt":     Alt,
	"ralt":     Alt,
	"option":   Alt,
	"escape":   Escape,
}

// Normalize maps platform-specific spellings onto the canonical key names.
// Single characters keep their case so uppercase text survives injection.
func Normalize(name string) Key {
	if len(name) == 1 {
		if k, ok := aliases[name]; ok {
			return k
		}
		return Key(name)
	}
	lower := strings.ToLower(strings.TrimSpace(name))
	if k, ok := aliases[lower]; ok {
		return k
	}
	return Key(lower)
}

// IsChar reports whether k is a single character key.
func (k Key) IsChar() bool {
	return len(k) == 1
}

// IsDigit reports whether k is one of 0-9.
func (k Key) IsDigit() bool {
	return len(k) == 1 && k[0] >= '0' && k[0] <= '9'
}

// Printable reports whether k belongs in a composed line: a single
// character, space, or backspace.
func (k Key) Printable() bool {
	return k.IsChar() || k == Space || k == Backspace
}

// Equal compares key names case-insensitively.
func (k Key) Equal(other Key) bool {
	return strings.EqualFold(string(k), string(other))
}

func (k Key) String() string {
	return string(k)
}

// FromText converts text into the keys that type it.
func FromText(text string) []Key {
	keys := make([]Key, 0, len(text))
	for _, r := range text {
		switch r {
		case ' ':
			keys = append(keys, Space)
		case '\n':
			keys = append(keys, Enter)
		case '\t':
			keys = append(keys, Tab)
		default:
			keys = append(keys, Key(string(r)))
		}
	}
	return keys
}

// ToText renders the printable part of keys; named keys other than space
// are dropped.
func ToText(keys []Key) string {
	var b strings.Builder
	for _, k := range keys {
		switch {
		case k.IsChar():
			b.WriteString(string(k))
		case k == Space:
			b.WriteByte(' ')
		}
	}
	return b.String()
}
