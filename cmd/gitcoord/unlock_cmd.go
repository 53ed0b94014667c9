package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/raphi011/gitcoord/internal/config"
	"github.com/raphi011/gitcoord/internal/output"
)

func newUnlockCmd() *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:               "unlock [repo]",
		Short:             "Remove stale git lock files",
		GroupID:           GroupCore,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeRepoNames,
		Long: `Remove index.lock, HEAD.lock, config.lock and packed-refs.lock files
left behind by crashed git processes.

Only lock files older than --max-age are removed (default:
retry.stale_lock_age from the config). Younger lock files may belong to a
running git process; they are listed and kept.`,
		Example: `  gitcoord unlock                 # Current repo
  gitcoord unlock api --max-age 1m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			var ref string
			if len(args) == 1 {
				ref = args[0]
			}
			t, err := resolveOne(ctx, ref)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("max-age") {
				maxAge = config.FromContext(ctx).Retry.StaleLockAge.Duration
			}

			svc := newService(ctx)
			defer svc.Close()

			removed, err := svc.RemoveStaleLocks(t.Path, maxAge)
			for _, p := range removed {
				out.Println(p)
			}
			if err != nil {
				return err
			}

			held, err := svc.LockFiles(t.Path)
			if err != nil {
				return err
			}
			for _, l := range held {
				out.Printf("Kept %s (modified %s ago, newer than %s)\n", l.Path, l.Age.Round(time.Second), maxAge)
			}
			if len(removed) == 0 && len(held) == 0 {
				out.Println("No stale lock files.")
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "Remove lock files older than this")

	return cmd
}
