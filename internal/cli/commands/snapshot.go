package commands

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/oxjest/mockgraph/internal/cli/ui"
	"github.com/oxjest/mockgraph/internal/fixture"
	"github.com/oxjest/mockgraph/internal/store"
	"github.com/oxjest/mockgraph/runtime/mock"
)

// NewSnapshotCommand creates the snapshot command group
func NewSnapshotCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Store and inspect metadata snapshots",
	}
	cmd.AddCommand(newSnapshotSaveCommand(opts))
	cmd.AddCommand(newSnapshotListCommand(opts))
	cmd.AddCommand(newSnapshotShowCommand(opts))
	cmd.AddCommand(newSnapshotDeleteCommand(opts))
	return cmd
}

func newSnapshotSaveCommand(opts *globalOptions) *cobra.Command {
	var invoke bool

	cmd := &cobra.Command{
		Use:   "save <fixture>",
		Short: "Save the metadata tree of a fixture",
		Long: `Save the metadata tree of a fixture. With --invoke, every stub of the
mirrored exports is called once without arguments and the calls are
stored with the snapshot.`,
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
			md, err := mock.BuildMetadata(fx.Exports)
			if err != nil {
				return err
			}

			s, err := openStore(cmd.Context(), e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer s.Close()

			snap, err := s.SaveSnapshot(cmd.Context(), fx.Module, fx.Digest, md)
			if err != nil {
				return err
			}

			calls := 0
			if invoke {
				mirrored, err := automock(fx, e.logger)
				if err != nil {
					return err
				}
				stubs, err := stubPaths(mirrored)
				if err != nil {
					return err
				}
				for _, name := range sortedKeys(stubs) {
					stub := stubs[name]
					// Thrown errors are part of the recorded result.
					_, _ = stub.Call()
					if err := s.RecordCalls(cmd.Context(), snap.ID, name, stub.Calls()); err != nil {
						return err
					}
					calls += stub.CallCount()
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.Success(
				fmt.Sprintf("saved snapshot %s for %s (%d calls)", snap.ID, fx.Module, calls), color.NoColor))
			return nil
		},
	}

	cmd.Flags().BoolVar(&invoke, "invoke", false, "call every stub once and record the calls")
	return cmd
}

func newSnapshotListCommand(opts *globalOptions) *cobra.Command {
	var module string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			s, err := openStore(cmd.Context(), e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer s.Close()

			snaps, err := s.ListSnapshots(cmd.Context(), module)
			if err != nil {
				return err
			}

			if len(snaps) == 0 && module != "" {
				all, err := s.ListSnapshots(cmd.Context(), "")
				if err != nil {
					return err
				}
				ui.Write(cmd.ErrOrStderr(), ui.ModuleNotFoundError(module, snapshotModules(all), color.NoColor))
				return fmt.Errorf("no snapshots for %s", module)
			}

			table := ui.NewTable(cmd.OutOrStdout(), color.NoColor, "ID", "MODULE", "DIGEST", "CREATED")
			for _, snap := range snaps {
				table.AddRow(snap.ID.String(), snap.Module, shortDigest(snap.Digest),
					snap.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVarP(&module, "module", "m", "", "only snapshots of this module")
	return cmd
}

func newSnapshotShowCommand(opts *globalOptions) *cobra.Command {
	var (
		withCalls bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a snapshot's metadata tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid snapshot id %q: %w", args[0], err)
			}
			e, err := opts.setup()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			s, err := openStore(cmd.Context(), e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer s.Close()

			snap, err := s.GetSnapshot(cmd.Context(), id)
			if err != nil {
				return err
			}
			md, err := snap.Tree()
			if err != nil {
				return err
			}
			if asJSON {
				return writeMetadata(cmd, md, "json")
			}

			out := cmd.OutOrStdout()
			kv := ui.NewKeyValueTable(out, color.NoColor)
			kv.AddRow("id", snap.ID.String())
			kv.AddRow("module", snap.Module)
			kv.AddRow("digest", snap.Digest)
			kv.AddRow("created", snap.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			kv.Render()
			fmt.Fprintln(out)
			ui.Tree(out, md, color.NoColor)

			if !withCalls {
				return nil
			}
			calls, err := s.Calls(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			table := ui.NewTable(out, color.NoColor, "ORDER", "STUB", "ARGS", "RESULT")
			for _, c := range calls {
				table.AddRow(fmt.Sprint(c.Order), c.Stub, formatArgs(c), formatResult(c))
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&withCalls, "calls", false, "also list recorded stub calls")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print only the metadata tree as JSON")
	return cmd
}

func newSnapshotDeleteCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a snapshot and its recorded calls",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid snapshot id %q: %w", args[0], err)
			}
			e, err := opts.setup()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			s, err := openStore(cmd.Context(), e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.DeleteSnapshot(cmd.Context(), id); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					ui.Write(cmd.ErrOrStderr(), ui.Message{Level: ui.LevelWarning, Problem: err.Error(), NoColor: color.NoColor})
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Success("deleted snapshot "+id.String(), color.NoColor))
			return nil
		},
	}
}

func snapshotModules(snaps []*store.Snapshot) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range snaps {
		if !seen[s.Module] {
			seen[s.Module] = true
			out = append(out, s.Module)
		}
	}
	sort.Strings(out)
	return out
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}

func formatArgs(c store.CallRecord) string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = string(a)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func formatResult(c store.CallRecord) string {
	if c.Error != "" {
		return "throw " + c.Error
	}
	if len(c.Result) == 0 {
		return string(c.ResultType)
	}
	return string(c.Result)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
