package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"lethalterm/internal/config"
	"lethalterm/internal/hotkey"
	"lethalterm/internal/network"
	"lethalterm/internal/terminal"
	"lethalterm/internal/traps"
)

type rootOptions struct {
	configPath string
	debug      bool
	noUI       bool
	tray       bool
	api        bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "lethalterm",
		Short: "Lethal Terminal - trap automation for the ship terminal",
		Long: `Lethal Terminal listens to the keyboard globally. Type "t" then enter to
take over the in-game terminal; trap codes you register are retyped on a
fixed cycle while you keep typing commands.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runService(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default: $CONFIG_FILE or the user config dir)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&opts.noUI, "no-ui", false, "Do not show the status screen")
	cmd.Flags().BoolVar(&opts.tray, "tray", false, "Show the system tray indicator")
	cmd.Flags().BoolVar(&opts.api, "api", false, "Serve the local status API")

	cmd.AddCommand(newConfigCommand(opts))
	cmd.AddCommand(newCheckCommand())
	cmd.AddCommand(newKeysCommand())
	cmd.AddCommand(newWatchCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func loadConfig(path string) (*config.Manager, error) {
	mgr, err := config.NewManager(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}
	if err := mgr.Load(); err != nil {
		return nil, err
	}
	return mgr, nil
}

func newConfigCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := config.NewManager(opts.configPath)
			if err != nil {
				return err
			}
			if _, err := os.Stat(mgr.Path()); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", mgr.Path())
			}
			if err := mgr.Save(); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", mgr.Path())
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(mgr.Get())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", mgr.Path(), data)
			return nil
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}

var errInvalidCodes = errors.New("invalid trap codes")

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <code>...",
		Short: "Validate trap codes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bad := 0
			for _, code := range args {
				if traps.IsValidCode(code) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\tok\n", code)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\tinvalid\n", code)
					bad++
				}
			}
			if bad > 0 {
				return fmt.Errorf("%w: %d of %d", errInvalidCodes, bad, len(args))
			}
			return nil
		},
	}
}

func newKeysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List key bindings",
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MODE\tKEYS\tACTION")
			for _, b := range terminal.Bindings {
				fmt.Fprintf(w, "%s\t%s\t%s\n", b.Mode, b.Keys, b.Action)
			}
			w.Flush()
			if !hotkey.CanSuppress() {
				fmt.Fprintf(cmd.OutOrStdout(), "\nnote: %s\n", hotkey.SuppressionNote)
			}
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lethalterm version %s\n", version)
		},
	}
}

func newWatchCommand(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the status of a running instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			general := mgr.Get().General
			if addr == "" {
				addr = fmt.Sprintf("127.0.0.1:%d", general.APIPort)
			}

			logger, closer, err := newLogger(general, opts.debug, false)
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			out := cmd.OutOrStdout()
			w := network.NewWatcher(addr, general.APIToken, logger)
			w.OnStatus = func(st terminal.Status) {
				fmt.Fprintln(out, formatStatus(st))
			}
			w.OnEvent = func(ev terminal.Event) {
				fmt.Fprintf(out, "%s\t%s\n", ev.Severity, ev.Text)
			}
			w.OnError = func(msg string) {
				fmt.Fprintf(out, "error\t%s\n", msg)
			}

			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "API address (default: 127.0.0.1:<api_port>)")
	return cmd
}

func formatStatus(st terminal.Status) string {
	codes := strings.Join(st.Codes, " ")
	switch {
	case st.AllCodes:
		codes = "ALL"
	case codes == "":
		codes = "-"
	}
	line := fmt.Sprintf("status\tmode=%s traps=%s queued=%d", st.Mode, codes, st.QueuedLines)
	if st.Automating {
		line += " typing"
	}
	return line
}
