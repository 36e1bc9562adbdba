// Package ui renders the terminal status screen.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gdamore/tcell/v2"

	"lethalterm/internal/config"
	"lethalterm/internal/terminal"
)

const title = "LETHAL TERMINAL"

var (
	styleDefault = tcell.StyleDefault
	styleTitle   = tcell.StyleDefault.Bold(true)
	styleDim     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleActive  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	stylePassive = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleSuccess = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleFailure = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
)

// Screen draws machine status to a tcell screen. It is a terminal.Notifier.
type Screen struct {
	screen tcell.Screen
	cfg    *config.Manager
	logger *slog.Logger
	onQuit func()

	status terminal.Status
}

// New wraps an uninitialised tcell screen. onQuit runs when the operator
// presses ctrl+q on the status screen.
func New(screen tcell.Screen, cfg *config.Manager, onQuit func(), logger *slog.Logger) *Screen {
	if logger == nil {
		logger = slog.Default()
	}
	return &Screen{
		screen: screen,
		cfg:    cfg,
		onQuit: onQuit,
		logger: logger.With("component", "ui"),
	}
}

// NewTerminal creates a Screen on the controlling terminal.
func NewTerminal(cfg *config.Manager, onQuit func(), logger *slog.Logger) (*Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	return New(screen, cfg, onQuit, logger), nil
}

// Notify queues a redraw with the given status. It never blocks.
func (s *Screen) Notify(status terminal.Status) {
	if err := s.screen.PostEvent(tcell.NewEventInterrupt(status)); err != nil {
		s.logger.Debug("status update dropped", "error", err)
	}
}

// Run initialises the screen and processes events until ctx is done.
func (s *Screen) Run(ctx context.Context) error {
	if err := s.screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer s.screen.Fini()
	s.screen.HideCursor()
	s.draw()

	go func() {
		<-ctx.Done()
		_ = s.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}()

	for {
		ev := s.screen.PollEvent()
		switch ev := ev.(type) {
		case nil:
			return nil
		case *tcell.EventInterrupt:
			status, ok := ev.Data().(terminal.Status)
			if !ok {
				return nil
			}
			s.status = status
			s.draw()
		case *tcell.EventResize:
			s.screen.Sync()
			s.draw()
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyCtrlQ && s.onQuit != nil {
				s.onQuit()
			}
		}
	}
}

func (s *Screen) draw() {
	s.screen.Clear()
	st := s.status
	cfg := s.cfg.Get()

	y := 0
	x := s.text(0, y, styleTitle, title)
	modeStyle := styleActive
	if st.Mode == terminal.Passive {
		modeStyle = stylePassive
	}
	x = s.text(x+2, y, styleDim, "mode")
	x = s.text(x+1, y, modeStyle, strings.ToUpper(st.Mode.String()))
	if st.Automating {
		s.text(x+2, y, styleActive, "[typing]")
	}
	y += 2

	s.text(0, y, styleTitle, "Traps")
	y++
	switch {
	case st.AllCodes:
		s.text(2, y, styleActive, "ALL TRAPS")
	case len(st.Codes) == 0:
		s.text(2, y, styleDim, "none")
	default:
		s.text(2, y, styleDefault, strings.Join(st.Codes, " "))
	}
	y += 2

	s.text(0, y, styleDim, fmt.Sprintf("queued lines: %d", st.QueuedLines))
	y++
	s.text(0, y, styleDim, "pending: ")
	s.text(9, y, styleDefault, st.Pending)
	y += 2

	py := s.table(0, y, "Players", cfg.Players)
	ry := s.table(24, y, "Radars", cfg.Radars)
	y = max(py, ry) + 1

	for i, b := range terminal.Bindings {
		bx := (i % 2) * 30
		s.text(bx, y, styleTitle, b.Keys)
		s.text(bx+9, y, styleDim, b.Action)
		if i%2 == 1 || i == len(terminal.Bindings)-1 {
			y++
		}
	}
	s.text(0, y, styleDim, "ctrl q  quit")
	y += 2

	switch st.Event.Severity {
	case terminal.SeveritySuccess:
		s.text(0, y, styleSuccess, st.Event.Text)
	case terminal.SeverityFailure:
		s.text(0, y, styleFailure, st.Event.Text)
	default:
		s.text(0, y, styleDefault, st.Event.Text)
	}

	s.screen.Show()
}

// table draws a numbered roster and returns the row after it.
func (s *Screen) table(x, y int, heading string, rows []string) int {
	s.text(x, y, styleTitle, heading)
	y++
	if len(rows) == 0 {
		s.text(x+2, y, styleDim, "none")
		return y + 1
	}
	for i, name := range rows {
		s.text(x, y, styleDim, fmt.Sprintf("%d", i+1))
		s.text(x+3, y, styleDefault, name)
		y++
	}
	return y
}

// text draws str at (x, y), clipped to the screen width, and returns the
// column after it.
func (s *Screen) text(x, y int, style tcell.Style, str string) int {
	w, h := s.screen.Size()
	if y >= h {
		return x
	}
	for _, r := range str {
		if x >= w {
			break
		}
		s.screen.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}
