package main

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphi011/gitcoord/internal/registry"
)

// completeRepoNames completes registered repository names.
func completeRepoNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	reg, err := registry.Load()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var matches []string
	for _, name := range reg.AllRepoNames() {
		if strings.HasPrefix(name, toComplete) && !slices.Contains(args, name) {
			matches = append(matches, name)
		}
	}
	return matches, cobra.ShellCompDirectiveNoFileComp
}

// completeLabels completes labels used by registered repositories.
func completeLabels(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	reg, err := registry.Load()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var labels []string
	for _, repo := range reg.Repos {
		for _, l := range repo.Labels {
			if strings.HasPrefix(l, toComplete) && !slices.Contains(labels, l) {
				labels = append(labels, l)
			}
		}
	}
	slices.Sort(labels)
	return labels, cobra.ShellCompDirectiveNoFileComp
}
