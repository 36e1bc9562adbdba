package terminal

import "fmt"

// Mode is the active state of the input state machine.
type Mode int32

const (
	Passive Mode = iota
	Command
	AddCode
	DeleteCode
	FreeText
	SuffixText
	SelectUser
	SelectRadarPing
	SelectRadarFlash
)

var modeNames = [...]string{
	Passive:          "Passive",
	Command:          "Command",
	AddCode:          "AddCode",
	DeleteCode:       "DeleteCode",
	FreeText:         "FreeText",
	SuffixText:       "SuffixText",
	SelectUser:       "SelectUser",
	SelectRadarPing:  "SelectRadarPing",
	SelectRadarFlash: "SelectRadarFlash",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int32(m))
	}
	return modeNames[m]
}

// MarshalText renders the mode name in JSON payloads.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (m *Mode) UnmarshalText(text []byte) error {
	for i, name := range modeNames {
		if name == string(text) {
			*m = Mode(i)
			return nil
		}
	}
	return fmt.Errorf("unknown mode %q", text)
}

// Suppressed reports whether keys typed in this mode are withheld from the
// foreground application. Only Passive lets keys through.
func (m Mode) Suppressed() bool {
	return m != Passive
}
