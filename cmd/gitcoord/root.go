package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/colorprofile"
	"github.com/spf13/cobra"

	"github.com/raphi011/gitcoord/internal/config"
	"github.com/raphi011/gitcoord/internal/git"
	"github.com/raphi011/gitcoord/internal/log"
	"github.com/raphi011/gitcoord/internal/output"
	"github.com/raphi011/gitcoord/internal/ui/styles"
)

// Command group IDs for organizing help output
const (
	GroupCore     = "core"
	GroupRegistry = "registry"
	GroupConfig   = "config"
)

// newRootCmd builds the command tree. cfg is attached to the context of
// every command.
func newRootCmd(cfg config.Config) *cobra.Command {
	var verbose, quiet bool

	root := &cobra.Command{
		Use:   "gitcoord",
		Short: "Coordinate git commands across repositories",
		Long: `gitcoord runs git commands against many working trees without
tripping over git's lock files.

Mutating commands on one repository run one at a time and are retried
when another process holds index.lock. Status and diff results are cached
until the repository's index or HEAD changes.`,
		SilenceUsage:               true,
		SilenceErrors:              true,
		SuggestionsMinimumDistance: 2,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "completion" || cmd.Name() == "__complete" || cmd.Name() == "help" {
				return nil
			}

			ctx := cmd.Context()
			ctx = log.WithLogger(ctx, log.New(os.Stderr, verbose, quiet))
			ctx = config.WithConfig(ctx, cfg)
			cmd.SetContext(ctx)

			styles.Init(cfg.Theme, colorprofile.Detect(os.Stdout, os.Environ()))

			return git.CheckGit()
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show git commands, retries and watcher batches")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all log output")
	root.MarkFlagsMutuallyExclusive("verbose", "quiet")

	root.Version = versionString()
	root.SetVersionTemplate("{{.Version}}\n")

	root.AddGroup(
		&cobra.Group{ID: GroupCore, Title: "Core Commands:"},
		&cobra.Group{ID: GroupRegistry, Title: "Registry Commands:"},
		&cobra.Group{ID: GroupConfig, Title: "Configuration Commands:"},
	)

	// Core commands
	root.AddCommand(newStatusCmd())
	root.AddCommand(newDiffCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newUnlockCmd())

	// Registry commands
	root.AddCommand(newReposCmd())

	// Config commands
	root.AddCommand(newConfigCmd())

	return root
}

// Execute loads the config and runs the command line.
func Execute() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Primary data goes to stdout, diagnostics to stderr via log
	ctx = output.WithPrinter(ctx, os.Stdout)

	if err := newRootCmd(cfg).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Run 'gitcoord -h' for help")
		cancel()
		os.Exit(1)
	}
}
