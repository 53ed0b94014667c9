package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphi011/gitcoord/internal/git"
	"github.com/raphi011/gitcoord/internal/log"
	"github.com/raphi011/gitcoord/internal/output"
	"github.com/raphi011/gitcoord/internal/registry"
	"github.com/raphi011/gitcoord/internal/ui/static"
)

func newReposCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "repos",
		Short:   "Manage registered repositories",
		Aliases: []string{"r"},
		GroupID: GroupRegistry,
		Long: `Manage the repositories gitcoord knows by name.

Registered repos are the default targets of status and watch, and can be
referred to by name in every command.`,
	}

	cmd.AddCommand(newReposAddCmd())
	cmd.AddCommand(newReposRemoveCmd())
	cmd.AddCommand(newReposListCmd())

	return cmd
}

func newReposAddCmd() *cobra.Command {
	var (
		name   string
		labels []string
	)

	cmd := &cobra.Command{
		Use:   "add [path]",
		Short: "Register a repository",
		Args:  cobra.MaximumNArgs(1),
		Example: `  gitcoord repos add                       # Current repo
  gitcoord repos add ~/src/api -l backend
  gitcoord repos add . --name web`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			top, err := git.TopLevel(ctx, path)
			if err != nil {
				return err
			}

			var added registry.Repo
			err = registry.Update(func(reg *registry.Registry) error {
				if err := reg.Add(registry.Repo{Path: top, Name: name, Labels: labels}); err != nil {
					return err
				}
				added = reg.Repos[len(reg.Repos)-1]
				return nil
			})
			if err != nil {
				return err
			}

			log.FromContext(ctx).Printf("Registered %s (%s)\n", added.Name, added.Path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name (default: directory name)")
	cmd.Flags().StringSliceVarP(&labels, "label", "l", nil, "Label for grouping (repeatable)")

	return cmd
}

func newReposRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "rm <name|path>",
		Short:             "Unregister a repository",
		Aliases:           []string{"remove"},
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeRepoNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := registry.Update(func(reg *registry.Registry) error {
				return reg.Remove(args[0])
			})
			if err != nil {
				return err
			}
			log.FromContext(cmd.Context()).Printf("Unregistered %s\n", args[0])
			return nil
		},
	}
	return cmd
}

func newReposListCmd() *cobra.Command {
	var (
		labels     []string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List registered repositories",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			reg, err := registry.Load()
			if err != nil {
				return fmt.Errorf("load registry: %w", err)
			}

			repos := make([]*registry.Repo, 0, len(reg.Repos))
			if len(labels) > 0 {
				repos = reg.FindByLabels(labels)
			} else {
				for i := range reg.Repos {
					repos = append(repos, &reg.Repos[i])
				}
			}

			if jsonOutput {
				for _, repo := range repos {
					if err := out.JSON(repo); err != nil {
						return err
					}
				}
				return nil
			}

			if len(repos) == 0 {
				out.Println("No repos registered. Use 'gitcoord repos add <path>' to register a repo.")
				return nil
			}

			headers := []string{"NAME", "PATH", "LABELS"}
			var rows [][]string
			for _, repo := range repos {
				l := "-"
				if len(repo.Labels) > 0 {
					l = strings.Join(repo.Labels, ", ")
				}
				rows = append(rows, []string{repo.Name, repo.Path, l})
			}
			out.Printf("%s", static.RenderTable(headers, rows))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&labels, "label", "l", nil, "Filter by label (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output one JSON object per repo")
	cmd.RegisterFlagCompletionFunc("label", completeLabels)

	return cmd
}
