package main

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lethalterm/internal/config"
	"lethalterm/internal/hotkey"
	"lethalterm/internal/terminal"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckCommand(t *testing.T) {
	out, err := execute(t, "check", "b3", "Z9")
	require.NoError(t, err)
	assert.Contains(t, out, "b3\tok")
	assert.Contains(t, out, "Z9\tok")

	out, err = execute(t, "check", "b3", "12", "abc")
	assert.True(t, errors.Is(err, errInvalidCodes))
	assert.Contains(t, out, "12\tinvalid")
	assert.Contains(t, out, "abc\tinvalid")

	_, err = execute(t, "check")
	assert.Error(t, err)
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	out, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	_, err = os.Stat(path)
	require.NoError(t, err)

	_, err = execute(t, "config", "init", "--config", path)
	assert.Error(t, err)
	_, err = execute(t, "config", "init", "--force", "--config", path)
	assert.NoError(t, err)

	out, err = execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "input_delay: 20ms")
	assert.Contains(t, out, "cycle_duration: 30s")
}

func TestConfigShowRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keyboard:\n  pace_factor: 0.5\n"), 0644))

	_, err := execute(t, "config", "show", "--config", path)
	assert.Error(t, err)
}

func TestKeysAndVersion(t *testing.T) {
	out, err := execute(t, "keys")
	require.NoError(t, err)
	assert.Contains(t, out, "toggle all traps")
	assert.Contains(t, out, "Passive")

	if hotkey.CanSuppress() {
		assert.NotContains(t, out, hotkey.SuppressionNote)
	} else {
		assert.Contains(t, out, "note: "+hotkey.SuppressionNote)
	}

	out, err = execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, version)
}

func TestNewLogger(t *testing.T) {
	general := config.DefaultConfig().General
	general.LogFile = filepath.Join(t.TempDir(), "logs", "lethalterm.log")

	logger, closer, err := newLogger(general, true, true)
	require.NoError(t, err)
	logger.Debug("hello", "code", "b3")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(general.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), "code=b3")

	general.LogLevel = "loud"
	_, _, err = newLogger(general, false, false)
	assert.Error(t, err)

	general.LogLevel = "warn"
	general.LogFile = ""
	logger, _, err = newLogger(general, false, true)
	require.NoError(t, err)
	assert.False(t, logger.Enabled(t.Context(), slog.LevelInfo))
}

func TestFormatStatus(t *testing.T) {
	st := terminal.Status{Mode: terminal.Command, Codes: []string{"b3", "c4"}, QueuedLines: 1, Automating: true}
	assert.Equal(t, "status\tmode=Command traps=b3 c4 queued=1 typing", formatStatus(st))

	st = terminal.Status{Mode: terminal.Passive}
	assert.Equal(t, "status\tmode=Passive traps=- queued=0", formatStatus(st))

	st.AllCodes = true
	assert.Contains(t, formatStatus(st), "traps=ALL")
}
