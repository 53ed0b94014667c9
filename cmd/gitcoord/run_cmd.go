package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphi011/gitcoord/internal/git"
	"github.com/raphi011/gitcoord/internal/output"
	"github.com/raphi011/gitcoord/internal/ui/progress"
)

func newRunCmd() *cobra.Command {
	var class string

	cmd := &cobra.Command{
		Use:               "run [repo] -- <git args>",
		Short:             "Run a mutating git command under the repository lock",
		GroupID:           GroupCore,
		ValidArgsFunction: completeRepoNames,
		Long: `Run a git command that changes repository state.

Commands on the same repository run one at a time. When git fails
because another process holds a lock file, the command is retried with
exponential backoff, and lock files older than retry.stale_lock_age are
removed first. Cached status and diffs for the repository are dropped
afterwards.

The class picks the timeout: local (default), network or long.`,
		Example: `  gitcoord run -- commit -am "wip"          # Current repo
  gitcoord run api -- checkout -b feature    # Registered repo
  gitcoord run api --class network -- fetch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			dashIdx := cmd.ArgsLenAtDash()
			if dashIdx == -1 {
				return fmt.Errorf("no git command specified (use -- before git arguments)")
			}
			refs, gitArgs := args[:dashIdx], args[dashIdx:]
			if len(gitArgs) == 0 {
				return fmt.Errorf("no git command specified (use -- before git arguments)")
			}
			if len(refs) > 1 {
				return fmt.Errorf("run takes at most one repo, got %d", len(refs))
			}

			c, err := git.ParseClass(class)
			if err != nil {
				return err
			}

			var ref string
			if len(refs) == 1 {
				ref = refs[0]
			}
			t, err := resolveOne(ctx, ref)
			if err != nil {
				return err
			}

			svc := newService(ctx)
			defer svc.Close()

			sp := progress.NewSpinner(os.Stderr, fmt.Sprintf("%s: git %s", t.Name, strings.Join(gitArgs, " ")))
			sp.Start()
			out, err := svc.Mutate(ctx, t.Path, c, gitArgs...)
			sp.Stop()

			if out != "" {
				output.FromContext(ctx).Printf("%s", out)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&class, "class", "c", git.ClassLocal.String(), "Timeout class: local, network, long")
	cmd.RegisterFlagCompletionFunc("class", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"local", "network", "long"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}
