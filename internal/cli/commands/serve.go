package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oxjest/mockgraph/internal/inspect"
	"github.com/oxjest/mockgraph/internal/watch"
	"github.com/oxjest/mockgraph/runtime/modules"
)

// NewServeCommand creates the serve command
func NewServeCommand(opts *globalOptions) *cobra.Command {
	var (
		addr       string
		withWatch  bool
		printToken bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the fixtures directory over HTTP",
		Long: `Register every fixture in the fixtures directory and start the inspect
server:

  GET  /healthz
  GET  /modules
  GET  /modules/{specifier}/metadata
  POST /modules/{specifier}/mock[?install=true]
  GET  /events                         (websocket)

Specifiers containing "/" must be path-escaped, e.g. /modules/.%2Fgreeter/metadata.
When server.jwt_secret is set every route but /healthz requires a bearer token.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			mc, release, err := openMetadataCache(ctx, e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer release()

			reg := modules.NewRegistry(e.logger)
			reloader := watch.NewReloader(reg, mc, e.logger)
			if _, err := reloader.LoadDir(e.cfg.Fixtures.Dir); err != nil {
				return err
			}

			sc := inspect.DefaultConfig()
			sc.Addr = e.cfg.Server.Addr
			if addr != "" {
				sc.Addr = addr
			}
			sc.JWTSecret = e.cfg.Server.JWTSecret
			srv := inspect.New(sc, reg, mc, e.logger)

			if printToken && srv.Authenticator() != nil {
				token, err := srv.Authenticator().GenerateToken("mockgraph-cli")
				if err != nil {
					return err
				}
				color.New(color.FgCyan).Fprintf(cmd.OutOrStdout(), "token: %s\n", token)
			}

			if withWatch {
				watchCtx, cancel := context.WithCancel(ctx)
				defer cancel()
				go func() {
					if err := watch.Watch(watchCtx, e.cfg.Fixtures.Dir, reloader, e.logger); err != nil {
						e.logger.Error("fixture watcher stopped", zap.Error(err))
					}
				}()
			}

			color.New(color.FgGreen, color.Bold).Fprintf(cmd.OutOrStdout(),
				"Serving %d modules on http://%s\n", len(reg.Specifiers()), sc.Addr)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().BoolVarP(&withWatch, "watch", "w", false, "reload fixtures when they change")
	cmd.Flags().BoolVar(&printToken, "print-token", false, "print a bearer token when auth is enabled")
	return cmd
}
