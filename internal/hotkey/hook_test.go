package hotkey

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lethalterm/internal/input"
)

func TestDispatchUsesPolicyAtArrival(t *testing.T) {
	h := NewHook(nil)

	var seen []input.Key
	var passive Handler
	command := func(k input.Key) {
		seen = append(seen, k)
		h.Subscribe(passive, false)
	}
	passive = func(k input.Key) {
		seen = append(seen, k)
		h.Subscribe(command, true)
	}

	h.Subscribe(passive, false)

	// Arrives unsuppressed, switches to the suppressing handler.
	assert.False(t, h.dispatch("enter"))
	assert.True(t, h.Suppressing())

	// Arrives suppressed, switches back.
	assert.True(t, h.dispatch("tab"))
	assert.False(t, h.Suppressing())

	assert.Equal(t, []input.Key{"enter", "tab"}, seen)
}

func TestDispatchWithoutSubscriberPassesThrough(t *testing.T) {
	h := NewHook(nil)
	h.Subscribe(func(input.Key) {}, true)
	h.Unsubscribe()
	assert.False(t, h.dispatch("a"))
}

func TestEchoFilter(t *testing.T) {
	f := NewEchoFilter(time.Second)
	now := time.Unix(1000, 0)
	f.now = func() time.Time { return now }

	f.Mark("A")
	f.Mark("a")
	assert.True(t, f.Consume("a"))
	assert.True(t, f.Consume("a"))
	assert.False(t, f.Consume("a"))

	f.Mark("enter")
	now = now.Add(2 * time.Second)
	assert.False(t, f.Consume("enter"), "expired marks are ignored")
}

type failingPresser struct{}

func (failingPresser) Press(input.Key) error   { return errors.New("no device") }
func (failingPresser) Release(input.Key) error { return nil }

func TestEchoPresserDropsMarkOnFailure(t *testing.T) {
	f := NewEchoFilter(time.Minute)
	p := f.Wrap(failingPresser{})

	assert.Error(t, p.Press("x"))
	assert.False(t, f.Consume("x"))
}

func TestCanSuppressByPlatform(t *testing.T) {
	assert.Equal(t, runtime.GOOS == "windows", CanSuppress())
}
