package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/raphi011/gitcoord/internal/config"
	"github.com/raphi011/gitcoord/internal/coord"
	"github.com/raphi011/gitcoord/internal/git"
	"github.com/raphi011/gitcoord/internal/log"
	"github.com/raphi011/gitcoord/internal/registry"
)

// target is a repository a command operates on.
type target struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// newService creates the coordinator for one command invocation.
func newService(ctx context.Context) *coord.Service {
	return coord.New(config.FromContext(ctx), coord.WithLogger(log.FromContext(ctx)))
}

// resolveTarget turns a registered name, a path, or "" (the current
// directory) into a repository.
func resolveTarget(ctx context.Context, reg *registry.Registry, ref string) (target, error) {
	if ref != "" {
		repo, findErr := reg.Find(ref)
		if findErr == nil {
			return target{Name: repo.Name, Path: repo.Path}, nil
		}
		if info, err := os.Stat(ref); err != nil || !info.IsDir() {
			return target{}, findErr
		}
	} else {
		ref = "."
	}

	top, err := git.TopLevel(ctx, ref)
	if err != nil {
		return target{}, err
	}
	if repo, err := reg.Find(top); err == nil {
		return target{Name: repo.Name, Path: repo.Path}, nil
	}
	return target{Name: filepath.Base(top), Path: top}, nil
}

// resolveTargets resolves refs and label filters. With neither, every
// registered repository is used, or the current one when the registry is
// empty.
func resolveTargets(ctx context.Context, refs, labels []string) ([]target, error) {
	reg, err := registry.Load()
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}

	var targets []target
	seen := make(map[string]bool)
	add := func(t target) {
		if !seen[t.Path] {
			seen[t.Path] = true
			targets = append(targets, t)
		}
	}

	for _, ref := range refs {
		t, err := resolveTarget(ctx, reg, ref)
		if err != nil {
			return nil, err
		}
		add(t)
	}

	if len(labels) > 0 {
		matches := reg.FindByLabels(labels)
		if len(matches) == 0 && len(refs) == 0 {
			return nil, fmt.Errorf("no repos with labels: %v", labels)
		}
		for _, repo := range matches {
			add(target{Name: repo.Name, Path: repo.Path})
		}
	}

	if len(refs) == 0 && len(labels) == 0 {
		if len(reg.Repos) == 0 {
			t, err := resolveTarget(ctx, reg, "")
			if err != nil {
				return nil, fmt.Errorf("no repos registered and %w", err)
			}
			add(t)
		}
		for _, repo := range reg.Repos {
			add(target{Name: repo.Name, Path: repo.Path})
		}
	}

	return targets, nil
}

// resolveOne resolves a single ref ("" meaning the current directory).
func resolveOne(ctx context.Context, ref string) (target, error) {
	reg, err := registry.Load()
	if err != nil {
		return target{}, fmt.Errorf("load registry: %w", err)
	}
	return resolveTarget(ctx, reg, ref)
}
