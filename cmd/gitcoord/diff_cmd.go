package main

import (
	"github.com/spf13/cobra"

	"github.com/raphi011/gitcoord/internal/output"
)

func newDiffCmd() *cobra.Command {
	var (
		repoRef string
		staged  bool
	)

	cmd := &cobra.Command{
		Use:     "diff [file]",
		Short:   "Show the working tree or staged diff",
		GroupID: GroupCore,
		Args:    cobra.MaximumNArgs(1),
		Example: `  gitcoord diff                    # Unstaged diff of the current repo
  gitcoord diff -r api --staged    # Staged diff of a registered repo
  gitcoord diff main.go            # Diff of one file`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			t, err := resolveOne(ctx, repoRef)
			if err != nil {
				return err
			}
			var file string
			if len(args) == 1 {
				file = args[0]
			}

			svc := newService(ctx)
			defer svc.Close()

			diff, err := svc.Diff(ctx, t.Path, file, staged)
			if err != nil {
				return err
			}
			output.FromContext(ctx).Printf("%s", diff)
			return nil
		},
	}

	cmd.Flags().StringVarP(&repoRef, "repository", "r", "", "Repository name or path (default: current directory)")
	cmd.Flags().BoolVar(&staged, "staged", false, "Diff the index against HEAD")
	cmd.RegisterFlagCompletionFunc("repository", completeRepoNames)

	return cmd
}

func newShowCmd() *cobra.Command {
	var repoRef string

	cmd := &cobra.Command{
		Use:     "show <rev> <file>",
		Short:   "Print a file as of a revision",
		GroupID: GroupCore,
		Args:    cobra.ExactArgs(2),
		Example: `  gitcoord show HEAD~1 go.mod
  gitcoord show -r api v1.2.0 README.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			t, err := resolveOne(ctx, repoRef)
			if err != nil {
				return err
			}

			svc := newService(ctx)
			defer svc.Close()

			data, err := svc.FileContent(ctx, t.Path, args[0], args[1])
			if err != nil {
				return err
			}
			output.FromContext(ctx).Printf("%s", data)
			return nil
		},
	}

	cmd.Flags().StringVarP(&repoRef, "repository", "r", "", "Repository name or path (default: current directory)")
	cmd.RegisterFlagCompletionFunc("repository", completeRepoNames)

	return cmd
}
