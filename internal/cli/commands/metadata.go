package commands

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oxjest/mockgraph/internal/cli/ui"
	"github.com/oxjest/mockgraph/internal/fixture"
	"github.com/oxjest/mockgraph/runtime/mock"
)

// NewMetadataCommand creates the metadata command
func NewMetadataCommand(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "metadata <fixture>",
		Short: "Print the metadata tree of a fixture's exports",
		Long: `Describe the exports of a fixture as a metadata tree.

Fixtures are JSON or YAML documents with a module specifier and an
exports tree. Functions, classes, regular expressions, collections and
references are written with $-directives:

  module: ./greeter
  exports:
    greet: {$fn: greet, returns: hi}
    self: {$ref: ""}

Trees are cached by module and fixture digest.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "tree" {
				return fmt.Errorf("unknown format %q (want json or tree)", format)
			}
			e, err := opts.setup()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			fx, err := fixture.Load(args[0])
			if err != nil {
				ui.Write(cmd.ErrOrStderr(), ui.FixtureError(args[0], err, color.NoColor))
				return err
			}

			mc, release, err := openMetadataCache(cmd.Context(), e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer release()

			md, hit, err := mc.GetOrBuild(cmd.Context(), fx.Module, fx.Digest, func() (*mock.Metadata, error) {
				return mock.BuildMetadata(fx.Exports)
			})
			if err != nil {
				return err
			}
			e.logger.Debug("metadata", zap.String("module", fx.Module), zap.Bool("cache_hit", hit))

			return writeMetadata(cmd, md, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or tree")
	return cmd
}

func writeMetadata(cmd *cobra.Command, md *mock.Metadata, format string) error {
	if format == "tree" {
		ui.Tree(cmd.OutOrStdout(), md, color.NoColor)
		return nil
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(md)
}
