// Package tray shows the machine mode in the system tray using getlantern/systray.
package tray

import (
	"strings"
	"sync"

	"github.com/getlantern/systray"

	"lethalterm/internal/terminal"
)

type entry struct {
	title   string
	onClick func()
	item    *systray.MenuItem
}

// Tray owns the tray icon and its menu. It is a terminal.Notifier: the
// title shows the mode and the tooltip the last event.
type Tray struct {
	entries []*entry // nil is a separator
	quit    chan struct{}

	mu      sync.Mutex
	shown   bool
	title   string
	tooltip string
}

// New creates a tray. Menu entries must be added before Run.
func New() *Tray {
	return &Tray{
		quit:    make(chan struct{}),
		title:   titleFor(terminal.Passive),
		tooltip: "Lethal Terminal",
	}
}

// AddMenuItem appends an entry and returns its id.
func (t *Tray) AddMenuItem(title string, onClick func()) int {
	t.entries = append(t.entries, &entry{title: title, onClick: onClick})
	return len(t.entries) - 1
}

func (t *Tray) AddSeparator() {
	t.entries = append(t.entries, nil)
}

// SetItemChecked ticks or clears an entry. Ids that are unknown or not yet
// shown are ignored.
func (t *Tray) SetItemChecked(id int, checked bool) {
	if id < 0 || id >= len(t.entries) || t.entries[id] == nil || t.entries[id].item == nil {
		return
	}
	if checked {
		t.entries[id].item.Check()
	} else {
		t.entries[id].item.Uncheck()
	}
}

// Notify updates the title and tooltip. Updates that arrive before the
// tray is shown are applied once it is.
func (t *Tray) Notify(status terminal.Status) {
	t.mu.Lock()
	t.title = titleFor(status.Mode)
	if status.Event.Text != "" {
		t.tooltip = tooltipFor(status.Event)
	}
	shown, title, tooltip := t.shown, t.title, t.tooltip
	t.mu.Unlock()

	if shown {
		systray.SetTitle(title)
		systray.SetTooltip(tooltip)
	}
}

// Run shows the tray and blocks until Stop. It must run on the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.show, func() { close(t.quit) })
}

func (t *Tray) Stop() {
	systray.Quit()
}

func (t *Tray) show() {
	systray.SetIcon(icon())

	t.mu.Lock()
	t.shown = true
	systray.SetTitle(t.title)
	systray.SetTooltip(t.tooltip)
	t.mu.Unlock()

	for _, e := range t.entries {
		if e == nil {
			systray.AddSeparator()
			continue
		}
		e.item = systray.AddMenuItem(e.title, "")
		if e.onClick != nil {
			go t.watchClicks(e)
		}
	}
}

func (t *Tray) watchClicks(e *entry) {
	for {
		select {
		case <-e.item.ClickedCh:
			e.onClick()
		case <-t.quit:
			return
		}
	}
}

func titleFor(mode terminal.Mode) string {
	return "LT: " + strings.ToUpper(mode.String())
}

func tooltipFor(ev terminal.Event) string {
	if ev.Severity == terminal.SeverityFailure {
		return "! " + ev.Text
	}
	return ev.Text
}
