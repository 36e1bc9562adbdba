// Package osutils holds platform checks for the global key hook.
package osutils

// HookHint returns a warning about conditions that keep the global key hook
// from seeing game input, or "" when none apply.
func HookHint() string {
	return hookHint(IsAdmin())
}
