package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/raphi011/gitcoord/internal/log"
	"github.com/raphi011/gitcoord/internal/output"
	"github.com/raphi011/gitcoord/internal/ui/static"
	"github.com/raphi011/gitcoord/internal/watch"
)

type watchLine struct {
	Name string `json:"name"`
	watch.Event
}

func newWatchCmd() *cobra.Command {
	var (
		labels     []string
		jsonOutput bool
		duration   time.Duration
	)

	cmd := &cobra.Command{
		Use:               "watch [repo...]",
		Short:             "Print index and HEAD changes as they happen",
		GroupID:           GroupCore,
		ValidArgsFunction: completeRepoNames,
		Long: `Watch repositories for changes to their index and HEAD.

Bursts of changes are coalesced: a batch is printed once the files have
been quiet for watch.debounce. Runs until interrupted, or for --for.`,
		Example: `  gitcoord watch                  # All registered repos
  gitcoord watch api --json       # One JSON object per batch
  gitcoord watch --for 30s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)
			l := log.FromContext(ctx)

			targets, err := resolveTargets(ctx, args, labels)
			if err != nil {
				return err
			}

			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			svc := newService(ctx)
			defer svc.Close()

			for _, t := range targets {
				name := t.Name
				emit := func(ev watch.Event) {
					if jsonOutput {
						if err := out.JSON(watchLine{Name: name, Event: ev}); err != nil {
							l.Printf("Warning: %v\n", err)
						}
						return
					}
					out.Printf("%s", static.FormatEvent(name, ev))
				}

				if _, err := svc.Subscribe(ctx, t.Path, emit); err != nil {
					return fmt.Errorf("watch %s: %w", name, err)
				}
				if w, ok := svc.Watchers().Get(t.Path); ok {
					w.OnError(func(err error) {
						l.Printf("Warning: %s: %v\n", name, err)
					})
				}
				l.Debug("watch: subscribed", "repo", name, "path", t.Path)
			}

			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&labels, "label", "l", nil, "Include repos with this label (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output one JSON object per batch")
	cmd.Flags().DurationVar(&duration, "for", 0, "Stop after this long (default: until interrupted)")
	cmd.RegisterFlagCompletionFunc("label", completeLabels)

	return cmd
}
