package commands

import (
	"errors"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oxjest/mockgraph/internal/cli/config"
	"github.com/oxjest/mockgraph/internal/cli/ui"
	"github.com/oxjest/mockgraph/internal/logging"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	verbose    bool
	noColor    bool
}

// env is what a command needs after flags are parsed.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
}

// setup loads configuration and builds the logger. --verbose forces a
// debug-level development logger.
func (o *globalOptions) setup() (*env, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if o.verbose {
		level = "debug"
	}
	logger, err := logging.New(level, o.verbose)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger}, nil
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "mockgraph",
		Short: "Mirror module exports into automatic mocks",
		Long: color.CyanString(`mockgraph - automatic mocks for module exports

mockgraph reads module fixtures, describes their exports as metadata
trees, and generates mirrored graphs where every function is a stub.

Features:
  • Shape-preserving mirrors with shared references and cycles kept
  • Metadata cache (memory or redis)
  • Snapshot store (sqlite or postgres)
  • Inspect server with a live event stream`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default ./"+config.FileName+")")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewInitCommand(opts))
	rootCmd.AddCommand(NewMetadataCommand(opts))
	rootCmd.AddCommand(NewMockCommand(opts))
	rootCmd.AddCommand(NewSnapshotCommand(opts))
	rootCmd.AddCommand(NewServeCommand(opts))
	rootCmd.AddCommand(NewWatchCommand(opts))

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			kv := ui.NewKeyValueTable(cmd.OutOrStdout(), color.NoColor)
			kv.AddRow("mockgraph", Version)
			kv.AddRow("commit", GitCommit)
			kv.AddRow("built", BuildDate)
			kv.AddRow("go", runtime.Version())
			kv.Render()
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, config.ErrInvalidConfig) {
			ui.Write(rootCmd.ErrOrStderr(), ui.ConfigError(err, color.NoColor))
			return err
		}
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
