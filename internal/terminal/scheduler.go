package terminal

import "time"

// sleepStep bounds each wait between passes so a return to Passive is
// noticed promptly.
const sleepStep = 100 * time.Millisecond

// startScheduler arms the automation loop. Only one loop runs at a time;
// a loop that is about to exit re-checks keepRunning so a Command entry
// racing with its shutdown is not lost. A closed machine never starts one.
func (m *Machine) startScheduler() {
	m.schedMu.Lock()
	defer m.schedMu.Unlock()
	if m.closed.Load() {
		return
	}
	m.keepRunning.Store(true)
	if !m.schedRunning.CompareAndSwap(false, true) {
		return
	}
	m.schedulerDone.Add(1)
	go m.schedule()
}

func (m *Machine) schedule() {
	defer m.schedulerDone.Done()
	m.logger.Debug("scheduler started")
	for {
		for m.keepRunning.Load() {
			m.cycle()
		}
		m.schedRunning.Store(false)
		if !m.keepRunning.Load() || !m.schedRunning.CompareAndSwap(false, true) {
			m.logger.Debug("scheduler stopped")
			return
		}
	}
}

// active reports whether the scheduler should keep pacing the cycle.
func (m *Machine) active() bool {
	return m.Mode() != Passive && !m.closed.Load()
}

func (m *Machine) cycle() {
	cfg := m.cfg.Get().Automation
	if !m.active() {
		m.clock.Sleep(cfg.PollInterval)
		return
	}

	start := m.clock.Now()
	if m.graceDone.CompareAndSwap(false, true) {
		m.clock.Sleep(cfg.GracePeriod)
	}
	if !m.registry.Empty() || m.queue.Len() > 0 {
		m.runPass(start)
	}

	remaining := cfg.CycleDuration - m.clock.Now().Sub(start)
	for remaining > 0 && m.active() {
		d := min(remaining, sleepStep)
		m.clock.Sleep(d)
		remaining -= d
	}
}
