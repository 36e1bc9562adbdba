// Package terminal implements the modal keystroke state machine that sits
// between the operator's keyboard and the game terminal. It matches key
// sequences, composes lines, and runs the periodic trap automation pass.
package terminal

import (
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"lethalterm/internal/config"
	"lethalterm/internal/input"
	"lethalterm/internal/traps"
)

// KeySource delivers global key-down events. Suppressed keys never reach the
// foreground application.
type KeySource interface {
	Subscribe(handler func(key input.Key), suppress bool)
	Unsubscribe()
}

// KeySink is the output channel to the target application.
type KeySink interface {
	Enqueue(key input.Key)
	Delay() time.Duration
}

// Options configures a Machine. Source, Sink, Registry and Config are
// required.
type Options struct {
	Source   KeySource
	Sink     KeySink
	Registry *traps.Registry
	Config   *config.Manager
	Notifier Notifier
	Clock    Clock
	Logger   *slog.Logger
}

// Machine is the input state machine.
type Machine struct {
	source   KeySource
	sink     KeySink
	registry *traps.Registry
	cfg      *config.Manager
	notifier Notifier
	clock    Clock
	logger   *slog.Logger

	// key-event thread only
	history     *History
	scratch     []input.Key
	handlers    map[Mode]func(input.Key)
	seenCommand bool

	mode    atomic.Int32
	pending Line
	queue   WritingQueue

	// commitMu orders the commit path against the end of a pass.
	commitMu   sync.Mutex
	automating atomic.Bool

	// schedMu orders scheduler starts against Close.
	schedMu       sync.Mutex
	keepRunning   atomic.Bool
	schedRunning  atomic.Bool
	graceDone     atomic.Bool
	closed        atomic.Bool
	schedulerDone sync.WaitGroup

	eventMu sync.Mutex
	event   Event
}

// New creates a machine in Passive mode. Call Start to subscribe to the key
// source.
func New(opts Options) *Machine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = systemClock{}
	}
	m := &Machine{
		source:   opts.Source,
		sink:     opts.Sink,
		registry: opts.Registry,
		cfg:      opts.Config,
		notifier: opts.Notifier,
		clock:    clock,
		logger:   logger.With("component", "terminal"),
		history:  NewHistory(HistorySize),
	}
	m.handlers = map[Mode]func(input.Key){
		Passive:          m.handlePassive,
		Command:          m.handleCommand,
		AddCode:          m.handleAddCode,
		DeleteCode:       m.handleDeleteCode,
		FreeText:         m.handleFreeText,
		SuffixText:       m.handleSuffixText,
		SelectUser:       m.handleSelectUser,
		SelectRadarPing:  m.handleRadarPing,
		SelectRadarFlash: m.handleRadarFlash,
	}
	return m
}

// SetNotifier replaces the notification sink. Call it before Start.
func (m *Machine) SetNotifier(n Notifier) {
	m.notifier = n
}

// Start enters Passive mode and begins listening.
func (m *Machine) Start() {
	m.enterMode(Passive)
}

// Close stops listening and waits for the scheduler to exit. A pass that is
// already running completes first.
func (m *Machine) Close() {
	m.schedMu.Lock()
	m.closed.Store(true)
	m.keepRunning.Store(false)
	m.schedMu.Unlock()
	m.source.Unsubscribe()
	m.schedulerDone.Wait()
}

// Mode returns the current mode.
func (m *Machine) Mode() Mode {
	return Mode(m.mode.Load())
}

// Automating reports whether an automation pass is in progress.
func (m *Machine) Automating() bool {
	return m.automating.Load()
}

// HandleKey feeds one key-down event through the matcher. It is the
// KeySource handler and runs on the key-event thread.
func (m *Machine) HandleKey(key input.Key) {
	m.history.Append(key)
	if h := m.handlers[m.Mode()]; h != nil {
		h(key)
	}
	if key == input.Enter {
		m.history.Clear()
	}
	m.history.Trim()
}

func (m *Machine) matches(seq ...input.Key) bool {
	return m.history.Matches(seq...)
}

// enterMode is the single mode transition.
func (m *Machine) enterMode(mode Mode) {
	m.source.Unsubscribe()
	m.history.Clear()
	m.mode.Store(int32(mode))
	m.setup(mode)
	if !m.closed.Load() {
		m.source.Subscribe(m.HandleKey, mode.Suppressed())
	}
	m.logger.Debug("mode entered", "mode", mode)
	m.notify()
}

func (m *Machine) setup(mode Mode) {
	switch mode {
	case Passive:
		m.keepRunning.Store(false)
		m.pending.Clear()
		m.queue.Clear()
	case Command:
		m.pending.Clear()
		m.startScheduler()
		if !m.seenCommand {
			m.seenCommand = true
			m.typeLine("view monitor")
		}
	case AddCode, DeleteCode:
		m.scratch = m.scratch[:0]
	case SuffixText:
		m.pending.Clear()
		m.submit(input.Enter)
		m.submitText("transmit ")
	}
}

// SetAllCodes turns the all-codes override on or off. Turning it off drops
// lines still waiting in the writing queue. Safe from any goroutine.
func (m *Machine) SetAllCodes(on bool) {
	if m.setAllCodes(on) {
		m.notify()
	}
}

func (m *Machine) setAllCodes(on bool) bool {
	if m.registry.AllCodesMode() == on {
		return false
	}
	if !on {
		m.queue.Clear()
	}
	m.registry.SetAllCodesMode(on)
	if on {
		m.setEvent("Enabled typing all traps", SeveritySuccess)
	} else {
		m.setEvent("Disabled typing all traps", SeveritySuccess)
	}
	m.logger.Info("all traps override changed", "enabled", on)
	return true
}

// AddCode registers a code outside the key flow. The code is typed on the
// next pass.
func (m *Machine) AddCode(code string) error {
	code = strings.ToLower(code)
	if err := m.registry.Add(code); err != nil {
		return err
	}
	m.setEvent("Added trap: "+code, SeveritySuccess)
	m.notify()
	return nil
}

// RemoveCode unregisters a code outside the key flow.
func (m *Machine) RemoveCode(code string) error {
	code = strings.ToLower(code)
	if err := m.registry.Remove(code); err != nil {
		return err
	}
	m.setEvent("Removed trap: "+code, SeveritySuccess)
	m.notify()
	return nil
}

// Status returns a snapshot for renderers.
func (m *Machine) Status() Status {
	m.eventMu.Lock()
	ev := m.event
	m.eventMu.Unlock()
	return Status{
		Mode:        m.Mode(),
		Codes:       m.registry.Codes(),
		AllCodes:    m.registry.AllCodesMode(),
		Automating:  m.automating.Load(),
		QueuedLines: m.queue.Len(),
		Pending:     input.ToText(m.pending.Snapshot()),
		Event:       ev,
	}
}

func (m *Machine) setEvent(text string, sev Severity) {
	m.eventMu.Lock()
	m.event = Event{Text: text, Severity: sev}
	m.eventMu.Unlock()
	if sev == SeverityFailure {
		m.logger.Warn(text)
	} else {
		m.logger.Info(text)
	}
}

func (m *Machine) notify() {
	if m.notifier != nil {
		m.notifier.Notify(m.Status())
	}
}
