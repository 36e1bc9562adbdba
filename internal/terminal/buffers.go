package terminal

import (
	"sync"

	"lethalterm/internal/input"
)

// Line is the pending line: what the operator has composed since the last
// commit. Written by the key-event thread and replayed by the automation
// pass, so it is mutex-guarded.
type Line struct {
	mu   sync.Mutex
	keys []input.Key
}

// Append adds key to the end of the line.
func (l *Line) Append(key input.Key) {
	l.mu.Lock()
	l.keys = append(l.keys, key)
	l.mu.Unlock()
}

// Backspace drops the trailing backspace entry and the key before it.
func (l *Line) Backspace() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := 0; i < 2 && len(l.keys) > 0; i++ {
		l.keys = l.keys[:len(l.keys)-1]
	}
}

// Clear empties the line.
func (l *Line) Clear() {
	l.mu.Lock()
	l.keys = nil
	l.mu.Unlock()
}

// Snapshot returns a copy of the line.
func (l *Line) Snapshot() []input.Key {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]input.Key(nil), l.keys...)
}

func (l *Line) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}

// WritingQueue holds committed lines waiting for the output channel.
type WritingQueue struct {
	mu    sync.Mutex
	lines [][]input.Key
}

// Push appends line to the tail.
func (q *WritingQueue) Push(line []input.Key) {
	q.mu.Lock()
	q.lines = append(q.lines, line)
	q.mu.Unlock()
}

// Pop removes and returns the head line.
func (q *WritingQueue) Pop() ([]input.Key, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.lines) == 0 {
		return nil, false
	}
	line := q.lines[0]
	q.lines[0] = nil
	q.lines = q.lines[1:]
	return line, true
}

func (q *WritingQueue) Clear() {
	q.mu.Lock()
	q.lines = nil
	q.mu.Unlock()
}

func (q *WritingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.lines)
}
