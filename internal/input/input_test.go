package input

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPresser struct {
	mu       sync.Mutex
	pressed  []Key
	released []Key
	failOn   Key
}

func (p *recordingPresser) Press(key Key) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if key == p.failOn {
		return errors.New("boom")
	}
	p.pressed = append(p.pressed, key)
	return nil
}

func (p *recordingPresser) Release(key Key) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released = append(p.released, key)
	return nil
}

func (p *recordingPresser) snapshot() ([]Key, []Key) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Key(nil), p.pressed...), append([]Key(nil), p.released...)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want Key
	}{
		{"a", "a"},
		{"A", "A"},
		{"Return", Enter},
		{"ENTER", Enter},
		{"lctrl", Ctrl},
		{"Control", Ctrl},
		{" ", Space},
		{"Space", Space},
		{"BackSpace", Backspace},
		{"tab", Tab},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), tt.in)
	}
}

func TestKeyPredicates(t *testing.T) {
	assert.True(t, Key("a").Printable())
	assert.True(t, Space.Printable())
	assert.True(t, Backspace.Printable())
	assert.False(t, Enter.Printable())
	assert.False(t, Ctrl.Printable())

	assert.True(t, Key("7").IsDigit())
	assert.False(t, Key("x").IsDigit())
	assert.True(t, Key("T").Equal("t"))
}

func TestTextConversion(t *testing.T) {
	keys := FromText("view monitor")
	assert.Equal(t, Space, keys[4])
	assert.Len(t, keys, 12)
	assert.Equal(t, "view monitor", ToText(keys))

	assert.Equal(t, "hi", ToText([]Key{"h", "i", Enter}))
}

func TestInjectorPreservesOrder(t *testing.T) {
	p := &recordingPresser{}
	inj := NewInjector(p, InjectorConfig{Delay: time.Millisecond, Poll: time.Millisecond}, nil)
	inj.Start()
	defer inj.Stop()

	want := FromText("b3 hello")
	for _, k := range want {
		inj.Enqueue(k)
	}

	require.Eventually(t, func() bool {
		return inj.Injected() == uint64(len(want))
	}, 2*time.Second, 5*time.Millisecond)

	pressed, released := p.snapshot()
	assert.Equal(t, want, pressed)
	assert.Equal(t, want, released)
	assert.Equal(t, 0, inj.Pending())
}

func TestInjectorSkipsFailedKeys(t *testing.T) {
	p := &recordingPresser{failOn: "x"}
	inj := NewInjector(p, InjectorConfig{Delay: time.Millisecond, Poll: time.Millisecond}, nil)
	inj.Start()
	defer inj.Stop()

	for _, k := range []Key{"a", "x", "b"} {
		inj.Enqueue(k)
	}

	require.Eventually(t, func() bool {
		return inj.Injected() == 3
	}, 2*time.Second, 5*time.Millisecond)

	pressed, released := p.snapshot()
	assert.Equal(t, []Key{"a", "b"}, pressed)
	assert.Equal(t, []Key{"a", "b"}, released)
}

func TestInjectorStopIsIdempotent(t *testing.T) {
	inj := NewInjector(&recordingPresser{}, InjectorConfig{Poll: time.Millisecond}, nil)
	inj.Start()
	inj.Start()
	inj.Stop()
	inj.Stop()

	// Keys queued after Stop stay queued.
	inj.Enqueue("a")
	assert.Equal(t, 1, inj.Pending())
}
