package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/oxjest/mockgraph/internal/cli/config"
	"github.com/oxjest/mockgraph/internal/cli/ui"
	"github.com/oxjest/mockgraph/internal/store"
)

const exampleFixture = `module: ./greeter
exports:
  greet:
    $fn: greet
    returns: Hello, world!
  Greeter:
    $class: Greeter
    static:
      create:
        $fn: create
    methods:
      greet: Hello from a method!
`

// NewInitCommand creates the init command
func NewInitCommand(opts *globalOptions) *cobra.Command {
	var (
		yes   bool
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a " + config.FileName + " and an example fixture",
		Long: `Create a configuration file interactively. With --yes the defaults are
written without prompting. When the fixtures directory does not exist it
is created with an example fixture.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configPath
			if path == "" {
				path = config.FileName
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			cfg := config.Defaults()
			if !yes {
				var err error
				if cfg, err = promptConfig(cfg); err != nil {
					return err
				}
			}

			if err := config.Write(path, cfg); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Success("wrote "+path, color.NoColor))

			created, err := writeExampleFixture(cfg.Fixtures.Dir)
			if err != nil {
				return err
			}
			if created != "" {
				fmt.Fprintln(out, ui.Success("wrote "+created, color.NoColor))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "accept the defaults without prompting")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")
	return cmd
}

// promptConfig asks for each setting, offering cfg's values as defaults.
func promptConfig(cfg *config.Config) (*config.Config, error) {
	out := *cfg

	if err := survey.AskOne(&survey.Select{
		Message: "Metadata cache backend:",
		Options: []string{config.CacheMemory, config.CacheRedis},
		Default: out.Cache.Backend,
	}, &out.Cache.Backend); err != nil {
		return nil, err
	}
	if out.Cache.Backend == config.CacheRedis {
		if err := survey.AskOne(&survey.Input{
			Message: "Redis address:",
			Default: out.Cache.RedisAddr,
		}, &out.Cache.RedisAddr, survey.WithValidator(survey.Required)); err != nil {
			return nil, err
		}
	}

	ttl := out.Cache.TTL.String()
	if err := survey.AskOne(&survey.Input{
		Message: "Cache TTL:",
		Default: ttl,
	}, &ttl, survey.WithValidator(validDuration)); err != nil {
		return nil, err
	}
	out.Cache.TTL, _ = time.ParseDuration(ttl)

	if err := survey.AskOne(&survey.Select{
		Message: "Snapshot database driver:",
		Options: store.SupportedDrivers(),
		Default: out.Store.Driver,
	}, &out.Store.Driver); err != nil {
		return nil, err
	}
	if err := survey.AskOne(&survey.Input{
		Message: "Snapshot database DSN:",
		Default: out.Store.DSN,
	}, &out.Store.DSN, survey.WithValidator(survey.Required)); err != nil {
		return nil, err
	}

	if err := survey.AskOne(&survey.Input{
		Message: "Inspect server address:",
		Default: out.Server.Addr,
	}, &out.Server.Addr, survey.WithValidator(survey.Required)); err != nil {
		return nil, err
	}
	if err := survey.AskOne(&survey.Password{
		Message: "JWT secret (empty disables auth):",
	}, &out.Server.JWTSecret); err != nil {
		return nil, err
	}

	if err := survey.AskOne(&survey.Input{
		Message: "Fixtures directory:",
		Default: out.Fixtures.Dir,
	}, &out.Fixtures.Dir, survey.WithValidator(survey.Required)); err != nil {
		return nil, err
	}

	return &out, nil
}

func validDuration(ans interface{}) error {
	s, ok := ans.(string)
	if !ok {
		return errors.New("expected text")
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("not a duration: %w", err)
	}
	if d < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

// writeExampleFixture creates dir with an example fixture when dir does not
// exist yet. It returns the fixture path, or "" when nothing was written.
func writeExampleFixture(dir string) (string, error) {
	if _, err := os.Stat(dir); err == nil {
		return "", nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create fixtures directory: %w", err)
	}
	path := filepath.Join(dir, "greeter.yaml")
	if err := os.WriteFile(path, []byte(exampleFixture), 0o644); err != nil {
		return "", fmt.Errorf("failed to write example fixture: %w", err)
	}
	return path, nil
}
