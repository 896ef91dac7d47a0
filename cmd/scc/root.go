package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	scc "github.com/axondata/go-scc"
	"github.com/axondata/go-scc/internal/logging"
)

type rootFlags struct {
	backend    string
	serviceDir string
	timeout    time.Duration
	logFile    string
	verbose    bool
	noColor    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "scc <start|stop|restart> <service-name>",
		Short: "scc starts, stops, or restarts a service and everything connected to it",
		Long: "scc controls an OS-managed service together with its dependency graph:\n" +
			"start brings up the service's dependencies first, then the service, then\n" +
			"its dependents; stop takes dependents down before the service itself;\n" +
			"restart is a stop cascade followed by a start cascade.",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			verb, err := scc.ParseVerb(args[0])
			if err != nil {
				return err
			}
			return runCascade(cmd, flags, verb, args[1])
		},
	}

	cmd.Flags().StringVar(&flags.backend, "backend", "auto",
		"service-control backend: auto, systemd, svdir, or winscm")
	cmd.Flags().StringVar(&flags.serviceDir, "service-dir", "",
		"service tree root for the svdir backend")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", scc.DefaultAwaitTimeout,
		"how long to wait for each service to reach its target state")
	cmd.Flags().StringVar(&flags.logFile, "log-file", "",
		"also append log records to this rolling file")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false,
		"emit debug-level output")
	cmd.Flags().BoolVar(&flags.noColor, "no-color", false,
		"disable ANSI colors on console output")

	return cmd
}

func runCascade(cmd *cobra.Command, flags *rootFlags, verb scc.Verb, name string) error {
	backend, err := scc.ParseBackend(flags.backend)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if flags.verbose {
		level = slog.LevelDebug
	}
	log := logging.New(cmd.OutOrStdout(), logging.Options{
		Level:    level,
		NoColor:  flags.noColor,
		FilePath: flags.logFile,
	})

	mgr, err := scc.New(scc.Config{
		Backend:    backend,
		ServiceDir: flags.serviceDir,
	})
	if err != nil {
		return err
	}
	if closer, ok := mgr.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	cascader := scc.NewCascader(mgr,
		scc.WithLogger(log),
		scc.WithWaitTimeout(flags.timeout),
	)
	return cascader.Execute(cmd.Context(), verb, name)
}

func setVersionInfo(cmd *cobra.Command, version, commit, date string) {
	cmd.Version = version
	cmd.SetVersionTemplate(fmt.Sprintf(
		"scc version {{.Version}}\ncommit: %s\nbuilt: %s\n", commit, date))
}
