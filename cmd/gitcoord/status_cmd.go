package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/raphi011/gitcoord/internal/git"
	"github.com/raphi011/gitcoord/internal/output"
	"github.com/raphi011/gitcoord/internal/ui/static"
)

// statusConcurrency bounds parallel git status calls across repositories.
const statusConcurrency = 8

type statusResult struct {
	target
	Status *git.Status `json:"status,omitempty"`
	Error  string      `json:"error,omitempty"`

	err error
}

func newStatusCmd() *cobra.Command {
	var (
		labels     []string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:               "status [repo...]",
		Short:             "Show working tree status of repositories",
		Aliases:           []string{"st"},
		GroupID:           GroupCore,
		ValidArgsFunction: completeRepoNames,
		Long: `Show branch, upstream sync and changes for each repository.

Without arguments, all registered repositories are shown (or the current
one if nothing is registered). Status is read without taking git's index
lock, so it never blocks a running commit.`,
		Example: `  gitcoord status                 # All registered repos
  gitcoord status api web         # Selected repos
  gitcoord status -l backend      # Repos labelled backend
  gitcoord status --json          # One JSON object per line`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			targets, err := resolveTargets(ctx, args, labels)
			if err != nil {
				return err
			}

			svc := newService(ctx)
			defer svc.Close()

			results := make([]statusResult, len(targets))
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(statusConcurrency)
			for i, t := range targets {
				g.Go(func() error {
					st, err := svc.Status(gctx, t.Path)
					results[i] = statusResult{target: t, err: err}
					if err != nil {
						results[i].Error = err.Error()
					} else {
						results[i].Status = &st
					}
					return nil
				})
			}
			_ = g.Wait()

			failed := 0
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				if r.err != nil {
					failed++
				}
				if jsonOutput {
					if err := out.JSON(r); err != nil {
						return err
					}
					continue
				}
				if r.err != nil {
					rows = append(rows, static.ErrorRow(r.Name, r.err))
				} else {
					rows = append(rows, static.StatusRow(r.Name, *r.Status))
				}
			}
			if !jsonOutput {
				out.Printf("%s", static.RenderTable(static.StatusHeaders, rows))
			}

			if failed > 0 {
				return fmt.Errorf("status failed for %d of %d repos", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&labels, "label", "l", nil, "Include repos with this label (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output one JSON object per repo")
	cmd.RegisterFlagCompletionFunc("label", completeLabels)

	return cmd
}
