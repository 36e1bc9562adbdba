//go:build !windows

package osutils

import (
	"os"
	"runtime"
)

// IsAdmin reports whether the process runs as root
func IsAdmin() bool {
	return os.Geteuid() == 0
}

func hookHint(admin bool) string {
	switch runtime.GOOS {
	case "darwin":
		return "the global key hook needs Accessibility permission for this terminal"
	case "linux":
		if os.Getenv("DISPLAY") == "" {
			return "no DISPLAY set: the global key hook needs an X11 session"
		}
	}
	return ""
}
