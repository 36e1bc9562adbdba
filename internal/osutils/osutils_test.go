package osutils

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHookHint(t *testing.T) {
	switch runtime.GOOS {
	case "windows":
		assert.Empty(t, hookHint(true))
		assert.Contains(t, hookHint(false), "administrator")
	case "darwin":
		assert.Contains(t, hookHint(false), "Accessibility")
	case "linux":
		t.Setenv("DISPLAY", "")
		assert.Contains(t, hookHint(false), "X11")
		t.Setenv("DISPLAY", ":0")
		assert.Empty(t, hookHint(false))
	}
}
