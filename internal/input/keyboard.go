//go:build windows || linux || darwin

package input

import (
	"fmt"
	"runtime"
	"time"
	"unicode"

	"github.com/micmonay/keybd_event"
)

var namedKeyCodes = map[Key]int{
	Enter:     keybd_event.VK_ENTER,
	Backspace: keybd_event.VK_BACKSPACE,
	Tab:       keybd_event.VK_TAB,
	Space:     keybd_event.VK_SPACE,
}

var charKeyCodes = map[rune]int{
	'a': keybd_event.VK_A, 'b': keybd_event.VK_B, 'c': keybd_event.VK_C, 'd': keybd_event.VK_D,
	'e': keybd_event.VK_E, 'f': keybd_event.VK_F, 'g': keybd_event.VK_G, 'h': keybd_event.VK_H,
	'i': keybd_event.VK_I, 'j': keybd_event.VK_J, 'k': keybd_event.VK_K, 'l': keybd_event.VK_L,
	'm': keybd_event.VK_M, 'n': keybd_event.VK_N, 'o': keybd_event.VK_O, 'p': keybd_event.VK_P,
	'q': keybd_event.VK_Q, 'r': keybd_event.VK_R, 's': keybd_event.VK_S, 't': keybd_event.VK_T,
	'u': keybd_event.VK_U, 'v': keybd_event.VK_V, 'w': keybd_event.VK_W, 'x': keybd_event.VK_X,
	'y': keybd_event.VK_Y, 'z': keybd_event.VK_Z,
	'0': keybd_event.VK_0, '1': keybd_event.VK_1, '2': keybd_event.VK_2, '3': keybd_event.VK_3,
	'4': keybd_event.VK_4, '5': keybd_event.VK_5, '6': keybd_event.VK_6, '7': keybd_event.VK_7,
	'8': keybd_event.VK_8, '9': keybd_event.VK_9,
}

type symbolKey struct {
	code  int
	shift bool
}

// symbolKeyCodes covers the US-layout punctuation keys. keybd_event names
// them VK_SP2..VK_SP11 on every platform.
var symbolKeyCodes = map[rune]symbolKey{
	'-': {keybd_event.VK_SP2, false}, '_': {keybd_event.VK_SP2, true},
	'=': {keybd_event.VK_SP3, false}, '+': {keybd_event.VK_SP3, true},
	'[': {keybd_event.VK_SP4, false}, '{': {keybd_event.VK_SP4, true},
	']': {keybd_event.VK_SP5, false}, '}': {keybd_event.VK_SP5, true},
	';': {keybd_event.VK_SP6, false}, ':': {keybd_event.VK_SP6, true},
	'\'': {keybd_event.VK_SP7, false}, '"': {keybd_event.VK_SP7, true},
	'\\': {keybd_event.VK_SP8, false}, '|': {keybd_event.VK_SP8, true},
	',': {keybd_event.VK_SP9, false}, '<': {keybd_event.VK_SP9, true},
	'.': {keybd_event.VK_SP10, false}, '>': {keybd_event.VK_SP10, true},
	'/': {keybd_event.VK_SP11, false}, '?': {keybd_event.VK_SP11, true},
}

// Keyboard is the KeyPresser backed by the operating system's synthetic
// keyboard (SendInput, uinput or CGEvent, depending on the platform).
type Keyboard struct {
	kb keybd_event.KeyBonding
}

// NewKeyboard opens the synthetic keyboard device.
func NewKeyboard() (*Keyboard, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("open synthetic keyboard: %w", err)
	}
	// The uinput device is not usable until the kernel has registered it.
	if runtime.GOOS == "linux" {
		time.Sleep(2 * time.Second)
	}
	return &Keyboard{kb: kb}, nil
}

// Press sets up the key bonding for key and presses it.
func (k *Keyboard) Press(key Key) error {
	if err := k.bind(key); err != nil {
		return err
	}
	return k.kb.Press()
}

// Release releases key. It must follow a Press of the same key.
func (k *Keyboard) Release(key Key) error {
	if err := k.bind(key); err != nil {
		return err
	}
	return k.kb.Release()
}

func (k *Keyboard) bind(key Key) error {
	code, shift, err := keyCode(key)
	if err != nil {
		return err
	}
	k.kb.SetKeys(code)
	k.kb.HasSHIFT(shift)
	return nil
}

// keyCode maps a key to its keybd_event code and whether shift is held.
func keyCode(key Key) (int, bool, error) {
	if code, ok := namedKeyCodes[key]; ok {
		return code, false, nil
	}
	if !key.IsChar() {
		return 0, false, fmt.Errorf("%w: %s", ErrUnsupportedKey, key)
	}

	r := rune(key[0])
	if code, ok := charKeyCodes[unicode.ToLower(r)]; ok {
		return code, unicode.IsUpper(r), nil
	}
	if sym, ok := symbolKeyCodes[r]; ok {
		return sym.code, sym.shift, nil
	}
	return 0, false, fmt.Errorf("%w: %q", ErrUnsupportedKey, key)
}
