package ui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lethalterm/internal/config"
	"lethalterm/internal/terminal"
)

func testConfig(t *testing.T) *config.Manager {
	t.Helper()
	mgr, err := config.NewManager(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	cfg := config.DefaultConfig()
	cfg.Players = []string{"alice", "bob"}
	cfg.Radars = []string{"radar1"}
	require.NoError(t, mgr.Set(cfg))
	return mgr
}

func screenText(sim tcell.SimulationScreen) string {
	w, h := sim.Size()
	var b strings.Builder
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			mainc, _, _, _ := sim.GetContent(x, y) //nolint:staticcheck // GetContent is the correct API
			if mainc == 0 {
				mainc = ' '
			}
			b.WriteRune(mainc)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func TestDrawStatus(t *testing.T) {
	sim := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, sim.Init())
	defer sim.Fini()
	sim.SetSize(80, 30)

	s := New(sim, testConfig(t), nil, nil)
	s.status = terminal.Status{
		Mode:        terminal.AddCode,
		Codes:       []string{"b3", "k7"},
		Automating:  true,
		QueuedLines: 2,
		Pending:     "hello",
		Event:       terminal.Event{Text: "Cannot add trap: 12", Severity: terminal.SeverityFailure},
	}
	s.draw()

	text := screenText(sim)
	assert.Contains(t, text, title)
	assert.Contains(t, text, "ADDCODE")
	assert.Contains(t, text, "[typing]")
	assert.Contains(t, text, "b3 k7")
	assert.Contains(t, text, "queued lines: 2")
	assert.Contains(t, text, "pending: hello")
	assert.Contains(t, text, "alice")
	assert.Contains(t, text, "radar1")
	assert.Contains(t, text, "Cannot add trap: 12")
}

func TestDrawAllCodesOverride(t *testing.T) {
	sim := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, sim.Init())
	defer sim.Fini()
	sim.SetSize(80, 30)

	s := New(sim, testConfig(t), nil, nil)
	s.status = terminal.Status{Mode: terminal.Command, Codes: []string{"b3"}, AllCodes: true}
	s.draw()

	text := screenText(sim)
	assert.Contains(t, text, "ALL TRAPS")
	assert.NotContains(t, text, "b3")
}

func TestRunRedrawsAndQuits(t *testing.T) {
	sim := tcell.NewSimulationScreen("UTF-8")
	quit := make(chan struct{})
	s := New(sim, testConfig(t), func() { close(quit) }, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	status := terminal.Status{Mode: terminal.Command, Codes: []string{"c4"}}
	require.Eventually(t, func() bool {
		s.Notify(status)
		return strings.Contains(screenText(sim), "c4")
	}, 2*time.Second, 10*time.Millisecond)

	sim.InjectKey(tcell.KeyCtrlQ, 0, tcell.ModCtrl)
	select {
	case <-quit:
	case <-time.After(2 * time.Second):
		t.Fatal("quit callback not called")
	}

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}
