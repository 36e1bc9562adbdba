package terminal

import (
	"time"

	"github.com/google/uuid"

	"lethalterm/internal/input"
)

// runPass types the working set and drains the writing queue, then hands
// the output channel back to the commit path. It always clears the
// automating flag on the way out.
func (m *Machine) runPass(cycleStart time.Time) {
	cfg := m.cfg.Get()
	logger := m.logger.With("cycle", uuid.NewString())
	step := time.Duration(float64(m.sink.Delay()) * cfg.Keyboard.PaceFactor)

	m.automating.Store(true)
	m.notify()

	replay := false
	defer func() {
		if r := recover(); r != nil {
			logger.Error("automation pass aborted", "panic", r)
		}
		n := m.finishPass(replay)
		logger.Debug("automation pass finished", "replayed", n, "elapsed", m.clock.Now().Sub(cycleStart))
		m.notify()
	}()

	send := func(key input.Key) {
		m.sink.Enqueue(key)
		m.clock.Sleep(step)
	}

	codes := m.registry.WorkingSet()
	logger.Info("typing traps", "count", len(codes), "queued_lines", m.queue.Len())

	send(input.Enter)
	for _, code := range codes {
		for _, k := range input.FromText(code) {
			send(k)
		}
		send(input.Enter)
	}

	for {
		line, ok := m.queue.Pop()
		if !ok {
			break
		}
		for _, k := range line {
			send(k)
		}
	}

	remaining := cfg.Automation.CycleDuration - m.clock.Now().Sub(cycleStart)
	if remaining <= 0 {
		logger.Warn("automation pass overran the cycle", "overrun", -remaining)
		return
	}
	replay = true
}

// finishPass runs under commitMu so no key can slip between the last
// queued line and the automating flag going down. Lines committed after
// the drain are flushed first, then the pending line is replayed so the
// target shows what the operator has typed so far. The pending line is
// kept: it still describes the uncommitted text on the target.
func (m *Machine) finishPass(replay bool) int {
	m.commitMu.Lock()
	defer m.commitMu.Unlock()

	for {
		line, ok := m.queue.Pop()
		if !ok {
			break
		}
		for _, k := range line {
			m.sink.Enqueue(k)
		}
	}

	n := 0
	if replay {
		for _, k := range m.pending.Snapshot() {
			m.sink.Enqueue(k)
			n++
		}
	}
	m.automating.Store(false)
	return n
}
