package commands

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oxjest/mockgraph/internal/cli/ui"
	"github.com/oxjest/mockgraph/internal/fixture"
	"github.com/oxjest/mockgraph/runtime/mock"
	"github.com/oxjest/mockgraph/runtime/modules"
	"github.com/oxjest/mockgraph/runtime/value"
)

// NewMockCommand creates the mock command
func NewMockCommand(opts *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "mock <fixture>",
		Short: "Mirror a fixture's exports and print the mirrored tree",
		Long: `Register a fixture, automock it, and print the tree of the mirrored
exports. Every function in the output is a fresh stub that records its
calls and returns undefined until configured.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			mirrored, err := automock(fx, e.logger)
			if err != nil {
				return err
			}
			md, stats, err := mock.BuildMetadataWithStats(mirrored)
			if err != nil {
				return err
			}

			if asJSON {
				return writeMetadata(cmd, md, "json")
			}
			ui.Tree(cmd.OutOrStdout(), md, color.NoColor)
			fmt.Fprintln(cmd.OutOrStdout(), ui.Success(
				fmt.Sprintf("%s: %d nodes, %d stubs", fx.Module, stats.Nodes, stats.Stubs), color.NoColor))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the mirrored tree as JSON")
	return cmd
}

// automock registers fx in a private registry and returns its mocked exports.
func automock(fx *fixture.Fixture, logger *zap.Logger) (value.Value, error) {
	reg := modules.NewRegistry(logger)
	fx.Register(reg)
	reg.Mock(fx.Module, nil)
	return reg.Require(fx.Module)
}

// stubPaths maps the dotted slot path of every stub reachable in v to the
// stub. A root stub is keyed "(root)".
func stubPaths(v value.Value) (map[string]*mock.Stub, error) {
	md, err := mock.BuildMetadata(v)
	if err != nil {
		return nil, err
	}

	stubs := make(map[string]*mock.Stub)
	var walkErr error
	md.Walk(func(path []string, node *mock.Metadata) bool {
		if node.Type != mock.CategoryFunction {
			return true
		}
		target, err := resolve(v, path)
		if err != nil {
			walkErr = err
			return false
		}
		if s, ok := mock.AsStub(target); ok {
			key := "(root)"
			if len(path) > 0 {
				key = strings.Join(path, ".")
			}
			stubs[key] = s
		}
		return true
	})
	return stubs, walkErr
}

func resolve(v value.Value, path []string) (value.Value, error) {
	for i, name := range path {
		obj, ok := v.(*value.Object)
		if !ok {
			return nil, fmt.Errorf("%s is not an object", strings.Join(path[:i], "."))
		}
		next, err := obj.Get(name)
		if err != nil {
			return nil, err
		}
		v = next
	}
	return v, nil
}
