package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"lethalterm/internal/api"
	"lethalterm/internal/config"
	"lethalterm/internal/hotkey"
	"lethalterm/internal/input"
	"lethalterm/internal/osutils"
	"lethalterm/internal/terminal"
	"lethalterm/internal/traps"
	"lethalterm/internal/tray"
	"lethalterm/internal/ui"
)

// newLogger builds the process logger. The status screen owns the terminal,
// so logs go to a file whenever one is configured.
func newLogger(general config.GeneralConfig, debug, screen bool) (*slog.Logger, io.Closer, error) {
	level, err := config.ParseLevel(general.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	if debug {
		level = slog.LevelDebug
	}

	var (
		w       io.Writer = os.Stderr
		closer  io.Closer = io.NopCloser(nil)
		noColor           = false
	)
	switch {
	case general.LogFile != "":
		if dir := filepath.Dir(general.LogFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, nil, fmt.Errorf("create log dir: %w", err)
			}
		}
		f, err := os.OpenFile(general.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer, noColor = f, f, true
	case screen:
		w = io.Discard
	}

	handler := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	})
	return slog.New(handler), closer, nil
}

func runService(ctx context.Context, opts *rootOptions) error {
	cfgMgr, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	cfg := cfgMgr.Get()

	showScreen := cfg.General.UIEnabled && !opts.noUI
	logger, closer, err := newLogger(cfg.General, opts.debug, showScreen)
	if err != nil {
		return err
	}
	defer closer.Close()
	slog.SetDefault(logger)

	logger.Info("service starting", "version", version, "config", cfgMgr.Path())
	if hint := osutils.HookHint(); hint != "" {
		logger.Warn(hint)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	hook := hotkey.NewHook(logger)
	keyboard, err := input.NewKeyboard()
	if err != nil {
		return fmt.Errorf("keyboard: %w", err)
	}
	injector := input.NewInjector(hook.WrapPresser(keyboard), input.InjectorConfig{
		Delay: cfg.Keyboard.InputDelay,
		Poll:  cfg.Keyboard.PollInterval,
	}, logger)
	injector.Start()
	defer injector.Stop()

	registry := traps.NewRegistry()
	machine := terminal.New(terminal.Options{
		Source:   hook,
		Sink:     injector,
		Registry: registry,
		Config:   cfgMgr,
		Logger:   logger,
	})

	var (
		notifiers terminal.Notifiers
		wg        sync.WaitGroup
	)

	if showScreen {
		screen, err := ui.NewTerminal(cfgMgr, cancel, logger)
		if err != nil {
			return err
		}
		notifiers = append(notifiers, screen)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := screen.Run(ctx); err != nil {
				logger.Error("status screen stopped", "error", err)
			}
			cancel()
		}()
	}

	if cfg.General.APIEnabled || opts.api {
		srv := api.NewServer(cfgMgr, machine, logger)
		notifiers = append(notifiers, srv)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Start(ctx, cfg.General.APIPort); err != nil {
				logger.Error("API server unavailable", "error", err)
			}
		}()
	}

	var t *tray.Tray
	if cfg.General.TrayEnabled || opts.tray {
		t = tray.New()
		var allID int
		allID = t.AddMenuItem("Type all traps", func() {
			machine.SetAllCodes(!registry.AllCodesMode())
			t.SetItemChecked(allID, registry.AllCodesMode())
		})
		t.AddSeparator()
		t.AddMenuItem("Quit", cancel)
		notifiers = append(notifiers, t)
	}

	machine.SetNotifier(notifiers)
	cfgMgr.RegisterChangeCallback(func() {
		notifiers.Notify(machine.Status())
	})

	if err := hook.Start(); err != nil {
		return fmt.Errorf("key hook: %w", err)
	}
	defer hook.Stop()
	machine.Start()
	logger.Info("service running", "cycle", cfg.Automation.CycleDuration, "input_delay", cfg.Keyboard.InputDelay)

	if t != nil {
		// systray wants the main goroutine
		go func() {
			<-ctx.Done()
			t.Stop()
		}()
		t.Run()
		cancel()
	} else {
		<-ctx.Done()
	}

	logger.Info("shutting down")
	machine.Close()
	wg.Wait()
	return nil
}
