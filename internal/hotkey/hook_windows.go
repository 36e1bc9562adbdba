//go:build windows

package hotkey

import (
	"fmt"
	"runtime"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"lethalterm/internal/input"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookEx    = user32.NewProc("SetWindowsHookExW")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procGetMessage          = user32.NewProc("GetMessageW")
	procTranslateMessage    = user32.NewProc("TranslateMessage")
	procDispatchMessage     = user32.NewProc("DispatchMessageW")
	procPostThreadMessage   = user32.NewProc("PostThreadMessageW")
	kernel32                = windows.NewLazySystemDLL("kernel32.dll")
	procGetModuleHandle     = kernel32.NewProc("GetModuleHandleW")
)

const (
	WH_KEYBOARD_LL = 13
	WM_KEYDOWN     = 0x0100
	WM_SYSKEYDOWN  = 0x0104
	WM_QUIT        = 0x0012

	// LLKHF_INJECTED marks events produced by SendInput, including ours.
	LLKHF_INJECTED = 0x10
)

// The low-level hook sees our own SendInput events flagged as injected and
// can swallow user keys by not calling the next hook.
const (
	canSuppress    = true
	canSeeInjected = true
)

type KBDLLHOOKSTRUCT struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type msg struct {
	Hwnd    syscall.Handle
	Message uint32
	Wparam  uintptr
	Lparam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}

var (
	instance     *Hook
	keyboardHook uintptr
)

func (h *Hook) startPlatform() (func(), error) {
	instance = h

	ready := make(chan error, 1)
	threadID := make(chan uint32, 1)

	// Hooks must be registered in the same thread that runs the message loop
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		hMod, _, _ := procGetModuleHandle.Call(0)

		var err error
		keyboardHook, _, err = procSetWindowsHookEx.Call(
			WH_KEYBOARD_LL,
			syscall.NewCallback(keyboardHookProc),
			hMod,
			0,
		)
		if keyboardHook == 0 {
			ready <- fmt.Errorf("set keyboard hook: %w", err)
			return
		}
		threadID <- windows.GetCurrentThreadId()
		ready <- nil
		h.logger.Info("windows keyboard hook installed")

		var m msg
		for {
			ret, _, _ := procGetMessage.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
			if int32(ret) <= 0 {
				break
			}
			procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
			procDispatchMessage.Call(uintptr(unsafe.Pointer(&m)))
		}

		procUnhookWindowsHookEx.Call(keyboardHook)
		keyboardHook = 0
		h.logger.Info("windows keyboard hook removed")
	}()

	if err := <-ready; err != nil {
		return nil, err
	}
	tid := <-threadID

	return func() {
		procPostThreadMessage.Call(uintptr(tid), WM_QUIT, 0, 0)
	}, nil
}

func keyboardHookProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	if nCode == 0 && (wParam == WM_KEYDOWN || wParam == WM_SYSKEYDOWN) {
		kbd := (*KBDLLHOOKSTRUCT)(unsafe.Pointer(lParam))
		if kbd.Flags&LLKHF_INJECTED == 0 {
			if key := vkCodeToKey(kbd.VkCode); key != "" && instance != nil {
				if instance.dispatch(key) {
					return 1
				}
			}
		}
	}
	ret, _, _ := procCallNextHookEx.Call(keyboardHook, uintptr(nCode), wParam, lParam)
	return ret
}

func vkCodeToKey(vk uint32) input.Key {
	switch vk {
	case 0x11, 0xA2, 0xA3:
		return input.Ctrl
	case 0x12, 0xA4, 0xA5:
		return input.Alt
	case 0x10, 0xA0, 0xA1:
		return input.Shift
	case 0x20:
		return input.Space
	case 0x0D:
		return input.Enter
	case 0x1B:
		return input.Escape
	case 0x08:
		return input.Backspace
	case 0x09:
		return input.Tab
	case 0xBD:
		return "-"
	case 0xBE:
		return "."
	case 0xBC:
		return ","
	case 0xBB:
		return "="
	case 0xBA:
		return ";"
	case 0xBF:
		return "/"
	case 0xDB:
		return "["
	case 0xDC:
		return "\\"
	case 0xDD:
		return "]"
	case 0xDE:
		return "'"
	}

	// Letters A-Z
	if vk >= 0x41 && vk <= 0x5A {
		return input.Key(rune(vk - 0x41 + 'a'))
	}

	// Numbers 0-9, top row and numpad
	if vk >= 0x30 && vk <= 0x39 {
		return input.Key(rune(vk))
	}
	if vk >= 0x60 && vk <= 0x69 {
		return input.Key(rune(vk - 0x60 + '0'))
	}

	if vk >= 0x70 && vk <= 0x7B {
		return input.Key(fmt.Sprintf("f%d", vk-0x6F))
	}

	return ""
}
