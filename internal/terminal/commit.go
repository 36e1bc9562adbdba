package terminal

import "lethalterm/internal/input"

// submit is the pending-line commit path. Outside a pass keys go straight
// to the sink; during a pass a completed line is parked on the writing
// queue instead so it cannot interleave with trap codes.
func (m *Machine) submit(key input.Key) {
	queued := false

	m.commitMu.Lock()
	if key.Printable() {
		m.pending.Append(key)
	}
	if !m.automating.Load() {
		m.sink.Enqueue(key)
		if key == input.Enter {
			m.pending.Clear()
		}
	} else if key == input.Enter {
		line := append(m.pending.Snapshot(), input.Enter)
		m.queue.Push(line)
		m.pending.Clear()
		m.setEvent("Will type: "+input.ToText(line), SeveritySuccess)
		queued = true
	}
	if key == input.Backspace {
		m.pending.Backspace()
	}
	m.commitMu.Unlock()

	if queued {
		m.notify()
	}
}
