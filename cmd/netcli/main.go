// netcli is an interactive network configuration shell.
//
// It shows and changes interfaces, routes, VRFs and neighbor tables with
// VyOS-style "show", "set" and "delete" commands.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/psaab/netcli/pkg/cli"
	"github.com/psaab/netcli/pkg/config"
	"github.com/psaab/netcli/pkg/configstore"
	"github.com/psaab/netcli/pkg/logging"
	"github.com/psaab/netcli/pkg/metrics"
	"github.com/psaab/netcli/pkg/netconf"
	"github.com/psaab/netcli/pkg/routing"
)

// errReported marks a failure already written to stderr.
var errReported = errors.New("command failed")

type flags struct {
	command     string
	generate    bool
	interactive bool
	backend     string
	configFile  string
	startup     string
	save        bool
	debug       bool
	noColor     bool
}

func main() {
	var f flags

	rootCmd := &cobra.Command{
		Use:           "netcli",
		Short:         "Show and change network interfaces, routes, VRFs and neighbor tables",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f)
		},
	}

	rootCmd.Flags().StringVarP(&f.command, "command", "c", "", "Execute one command line and exit")
	rootCmd.Flags().BoolVarP(&f.generate, "generate", "g", false, "Print the current configuration as set commands")
	rootCmd.Flags().BoolVarP(&f.interactive, "interactive", "i", false, "Start the interactive shell (default)")
	rootCmd.Flags().StringVar(&f.backend, "backend", config.BackendNetlink, "Configuration backend: netlink or memory")
	rootCmd.Flags().StringVar(&f.configFile, "config", "", "Settings file (default $HOME/.netcli.toml)")
	rootCmd.Flags().StringVar(&f.startup, "startup-config", "", "File of set commands applied at start")
	rootCmd.Flags().BoolVar(&f.save, "save", false, "Rewrite the startup config from the running configuration on exit")
	rootCmd.Flags().BoolVar(&f.debug, "debug", false, "Enable debug logging")
	rootCmd.Flags().BoolVar(&f.noColor, "no-color", false, "Disable colored output")

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "netcli: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, f flags) error {
	path, required := f.configFile, true
	if path == "" {
		path, required = config.DefaultPath(), false
	}
	settings, err := config.Load(path, required)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("backend") {
		settings.Backend = f.backend
	}
	if f.noColor {
		settings.Color = false
	}
	if f.startup != "" {
		settings.StartupConfig = f.startup
	}
	if f.save {
		settings.SaveOnExit = true
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	// Set up structured logging
	logLevel := settings.Level()
	if f.debug {
		logLevel = slog.LevelDebug
	}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	if settings.SyslogServer != "" {
		threshold, _ := logging.ParseSeverity(settings.SyslogSeverity)
		client, err := logging.Dial(settings.SyslogServer, threshold)
		if err != nil {
			return err
		}
		h := logging.NewHandler(handler, client)
		defer h.Close()
		handler = h
	}
	slog.SetDefault(slog.New(handler))

	mgr, err := openBackend(settings.Backend)
	if err != nil {
		return err
	}
	defer mgr.Close()

	var m *metrics.Metrics
	if settings.MetricsFile != "" {
		m = metrics.New(mgr)
		defer func() {
			if err := m.WriteFile(settings.MetricsFile); err != nil {
				slog.Warn("metrics not written", "err", err)
			}
		}()
	}

	c := cli.New(mgr, cli.Options{
		HistoryFile: settings.HistoryFile,
		MaxWidth:    settings.MaxWidth,
		Color:       settings.Color,
		Metrics:     m,
	})

	if settings.StartupConfig != "" {
		store := configstore.New(settings.StartupConfig)
		n, err := store.Load(c.Execute)
		if err != nil {
			c.Report(err)
		}
		slog.Debug("startup config applied", "file", store.Path(), "commands", n)
		if settings.SaveOnExit {
			defer func() {
				err := store.Save(func(w io.Writer) error { return cli.Generate(w, mgr) })
				if err != nil {
					slog.Warn("startup config not saved", "err", err)
				}
			}()
		}
	}

	if f.generate {
		if err := cli.Generate(os.Stdout, mgr); err != nil {
			return err
		}
	}
	if f.command != "" {
		if err := c.Execute(f.command); err != nil && err != cli.ErrExit {
			c.Report(err)
			return errReported
		}
	}
	if f.interactive || (f.command == "" && !f.generate) {
		return c.Run()
	}
	return nil
}

func openBackend(name string) (netconf.Manager, error) {
	switch name {
	case config.BackendMemory:
		return netconf.NewMemory(), nil
	default:
		m, err := routing.New()
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}
