package hotkey

import (
	"strings"
	"sync"
	"time"

	"lethalterm/internal/input"
)

const echoTTL = 2 * time.Second

// EchoFilter remembers keys we injected so a hook that cannot tell synthetic
// events apart can drop them instead of treating them as user input.
type EchoFilter struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	pending map[string][]time.Time
}

// NewEchoFilter creates a filter whose marks expire after ttl.
func NewEchoFilter(ttl time.Duration) *EchoFilter {
	return &EchoFilter{
		ttl:     ttl,
		now:     time.Now,
		pending: make(map[string][]time.Time),
	}
}

// Mark records that key is about to be injected.
func (f *EchoFilter) Mark(key input.Key) {
	name := strings.ToLower(string(key))
	f.mu.Lock()
	f.pending[name] = append(f.pending[name], f.now().Add(f.ttl))
	f.mu.Unlock()
}

// Consume reports whether key matches an outstanding mark, removing it.
func (f *EchoFilter) Consume(key input.Key) bool {
	name := strings.ToLower(string(key))
	now := f.now()

	f.mu.Lock()
	defer f.mu.Unlock()

	marks := f.pending[name]
	for len(marks) > 0 && now.After(marks[0]) {
		marks = marks[1:]
	}
	if len(marks) == 0 {
		delete(f.pending, name)
		return false
	}
	f.pending[name] = marks[1:]
	return true
}

// Wrap marks every key p presses.
func (f *EchoFilter) Wrap(p input.KeyPresser) input.KeyPresser {
	return &echoPresser{next: p, filter: f}
}

type echoPresser struct {
	next   input.KeyPresser
	filter *EchoFilter
}

func (p *echoPresser) Press(key input.Key) error {
	p.filter.Mark(key)
	if err := p.next.Press(key); err != nil {
		p.filter.Consume(key)
		return err
	}
	return nil
}

func (p *echoPresser) Release(key input.Key) error {
	return p.next.Release(key)
}
