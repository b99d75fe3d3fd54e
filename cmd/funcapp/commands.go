package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/funcworker/worker-e2e-tests/fixtures"
	"github.com/funcworker/worker-e2e-tests/funcapp"
)

type rootOptions struct {
	verbose bool
	logger  *zap.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "funcapp",
		Short:         "Custom handler for the end-to-end fixture function apps",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if opts.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	root.AddCommand(newServeCommand(opts), newGenerateCommand(opts), newListCommand())
	return root
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	var script string
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the functions of one fixture script",
		Long: `Serves the functions of a fixture script through the custom handler protocol.

The port is taken from --port, or else from the ` + funcapp.PortEnvVar + `
environment variable that the host sets.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, ok := fixtures.Lookup(script)
			if !ok {
				return fmt.Errorf("unknown script %q", script)
			}
			if port == 0 {
				p, err := strconv.Atoi(os.Getenv(funcapp.PortEnvVar))
				if err != nil {
					return fmt.Errorf("no port given and %s is not set", funcapp.PortEnvVar)
				}
				port = p
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			logger := opts.logger.With(zap.String("script", s.Path))
			return funcapp.ListenAndServe(ctx, fmt.Sprintf(":%d", port), funcapp.NewServer(s, logger), logger)
		},
	}
	cmd.Flags().StringVar(&script, "script", "", "script directory of the fixture to serve")
	cmd.Flags().IntVar(&port, "port", 0, "port to listen on")
	_ = cmd.MarkFlagRequired("script")
	return cmd
}

func newGenerateCommand(opts *rootOptions) *cobra.Command {
	var executable string
	cmd := &cobra.Command{
		Use:   "generate <scripts-root>",
		Short: "Write host.json and function.json files for every fixture script",
		Long: `Writes one script directory per fixture under <scripts-root>. Scripts that fail
to index get a host.json and no functions, which is how the host sees them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]
			if executable == "" {
				exe, err := os.Executable()
				if err != nil {
					return err
				}
				executable = exe
			}
			abs, err := filepath.Abs(executable)
			if err != nil {
				return err
			}
			for _, s := range fixtures.Scripts() {
				index, err := s.Index()
				if err != nil {
					opts.logger.Warn("Script does not index; writing it without functions",
						zap.String("script", s.Path), zap.Error(err))
				}
				host := funcapp.HostMetadata(abs, "serve", "--script", s.Path)
				if err := funcapp.WriteScriptDir(filepath.Join(root, filepath.FromSlash(s.Path)), index, host); err != nil {
					return fmt.Errorf("writing %s: %w", s.Path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%d functions)\n", s.Path, index.Len())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&executable, "executable", "",
		"custom handler executable to put in host.json (default: this executable)")
	return cmd
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the fixture scripts and their functions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, s := range fixtures.Scripts() {
				index, err := s.Index()
				if err != nil {
					fmt.Fprintf(out, "%s\n  (no functions: %s)\n", s.Path, err)
					continue
				}
				fmt.Fprintln(out, s.Path)
				for _, f := range index.Functions() {
					if route := f.Route(); route != "" {
						fmt.Fprintf(out, "  %s  /api/%s\n", f.Name, route)
					} else {
						fmt.Fprintf(out, "  %s  %s %s\n", f.Name, f.Trigger.Type, f.Trigger.Path)
					}
				}
			}
			return nil
		},
	}
}
