// Package registry manages the repo registry at ~/.gitcoord/repos.json
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/raphi011/gitcoord/internal/storage"
)

// FileName is the registry file inside the state directory.
const FileName = "repos.json"

// Repo represents a registered git repository
type Repo struct {
	Path   string   `json:"path"`             // Absolute path to the working tree
	Name   string   `json:"name"`             // Display name
	Labels []string `json:"labels,omitempty"` // Labels for grouping
}

// Registry holds all registered repos
type Registry struct {
	Repos []Repo `json:"repos"`

	path string
}

// Load reads the registry from ~/.gitcoord/repos.json.
// Returns an empty registry if the file doesn't exist.
func Load() (*Registry, error) {
	path, err := storage.Path(FileName)
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the registry stored at path.
func LoadFrom(path string) (*Registry, error) {
	reg := &Registry{Repos: []Repo{}, path: path}
	if err := storage.LoadJSON(path, reg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return reg, nil
		}
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return reg, nil
}

// Save writes the registry back to the file it was loaded from.
func (r *Registry) Save() error {
	if r.path == "" {
		return errors.New("registry has no backing file")
	}
	if err := storage.SaveJSON(r.path, r); err != nil {
		return fmt.Errorf("save registry: %w", err)
	}
	return nil
}

// Update applies fn to the registry stored at ~/.gitcoord/repos.json and
// saves the result. Concurrent gitcoord processes are serialized through
// a lock file, so no change is lost.
func Update(fn func(*Registry) error) error {
	path, err := storage.Path(FileName)
	if err != nil {
		return err
	}
	return UpdateAt(path, fn)
}

// UpdateAt is Update for the registry stored at path.
func UpdateAt(path string, fn func(*Registry) error) error {
	reg := &Registry{Repos: []Repo{}, path: path}
	if err := storage.UpdateJSON(path, reg, func() error { return fn(reg) }); err != nil {
		return fmt.Errorf("update registry: %w", err)
	}
	return nil
}

// Add registers a new repo. The name defaults to the directory name.
// Returns error if the path or name is already registered.
func (r *Registry) Add(repo Repo) error {
	absPath, err := filepath.Abs(repo.Path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	repo.Path = absPath
	if repo.Name == "" {
		repo.Name = filepath.Base(absPath)
	}

	for _, existing := range r.Repos {
		if existing.Path == repo.Path {
			return fmt.Errorf("repo already registered: %s", repo.Path)
		}
		if existing.Name == repo.Name {
			return fmt.Errorf("repo name already exists: %s (use --name to pick another)", repo.Name)
		}
	}

	slices.Sort(repo.Labels)
	r.Repos = append(r.Repos, repo)
	return nil
}

// Remove unregisters a repo by name or path
func (r *Registry) Remove(nameOrPath string) error {
	for i, repo := range r.Repos {
		if repo.Name == nameOrPath || repo.Path == nameOrPath {
			r.Repos = slices.Delete(r.Repos, i, i+1)
			return nil
		}
	}
	return r.notFound(nameOrPath)
}

// Find looks up a repo by name or absolute path. When nothing matches,
// the error suggests the closest registered names.
func (r *Registry) Find(ref string) (*Repo, error) {
	for i := range r.Repos {
		if r.Repos[i].Name == ref || r.Repos[i].Path == ref {
			return &r.Repos[i], nil
		}
	}
	if abs, err := filepath.Abs(ref); err == nil {
		for i := range r.Repos {
			if r.Repos[i].Path == abs {
				return &r.Repos[i], nil
			}
		}
	}
	return nil, r.notFound(ref)
}

// FindByLabels returns repos matching any of the given labels
func (r *Registry) FindByLabels(labels []string) []*Repo {
	var matches []*Repo
	for i := range r.Repos {
		if r.Repos[i].MatchesLabels(labels) {
			matches = append(matches, &r.Repos[i])
		}
	}
	return matches
}

// AllRepoNames returns all repo names, sorted
func (r *Registry) AllRepoNames() []string {
	names := make([]string, len(r.Repos))
	for i, repo := range r.Repos {
		names[i] = repo.Name
	}
	slices.Sort(names)
	return names
}

// Suggest returns up to limit registered names that fuzzy-match ref, best
// match first.
func (r *Registry) Suggest(ref string, limit int) []string {
	matches := fuzzy.Find(ref, r.AllRepoNames())
	var names []string
	for _, m := range matches {
		if len(names) == limit {
			break
		}
		names = append(names, m.Str)
	}
	return names
}

func (r *Registry) notFound(ref string) error {
	if s := r.Suggest(ref, 3); len(s) > 0 {
		return fmt.Errorf("repo not found: %s (did you mean %s?)", ref, strings.Join(s, ", "))
	}
	return fmt.Errorf("repo not found: %s", ref)
}

// HasLabel checks if a repo has a specific label
func (repo *Repo) HasLabel(label string) bool {
	return slices.Contains(repo.Labels, label)
}

// MatchesLabels checks if repo has any of the given labels
func (repo *Repo) MatchesLabels(labels []string) bool {
	for _, label := range labels {
		if repo.HasLabel(label) {
			return true
		}
	}
	return false
}

// String returns a display string for the repo
func (repo *Repo) String() string {
	if len(repo.Labels) > 0 {
		return fmt.Sprintf("%s (%s)", repo.Name, strings.Join(repo.Labels, ", "))
	}
	return repo.Name
}
