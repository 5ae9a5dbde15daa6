package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/oxjest/mockgraph/internal/watch"
	"github.com/oxjest/mockgraph/runtime/modules"
)

// NewWatchCommand creates the watch command
func NewWatchCommand(opts *globalOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reload fixtures as they change and report registry events",
		Long: `Register every fixture in the fixtures directory, then watch it. When a
fixture changes on disk it is parsed again, its module is re-registered
and its cached metadata is invalidated. A fixture that fails to parse
keeps its previous registration.

Examples:
  # Watch the configured fixtures directory
  mockgraph watch

  # Watch another directory with debug logging
  mockgraph watch --dir testdata --verbose
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup()
			if err != nil {
				return err
			}
			defer e.logger.Sync()
			if dir == "" {
				dir = e.cfg.Fixtures.Dir
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			mc, release, err := openMetadataCache(ctx, e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer release()

			out := cmd.OutOrStdout()
			reg := modules.NewRegistry(e.logger)
			reg.Subscribe(func(ev modules.Event) {
				if ev.Kind == modules.EventRegistered {
					color.New(color.FgCyan).Fprintf(out, "↻ %s %s\n", ev.Kind, ev.Specifier)
				}
			})

			color.New(color.FgGreen, color.Bold).Fprintf(out, "Watching %s (Ctrl+C to stop)\n", dir)
			return watch.Run(ctx, dir, watch.NewReloader(reg, mc, e.logger), e.logger)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "fixtures directory (overrides fixtures.dir)")
	return cmd
}
