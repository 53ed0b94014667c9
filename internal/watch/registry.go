package watch

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Registry keeps at most one Watcher per repository path.
type Registry struct {
	opts []Option

	mu       sync.Mutex
	watchers map[string]*Watcher
}

// NewRegistry creates a registry. opts are applied to every watcher it
// creates.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		opts:     opts,
		watchers: make(map[string]*Watcher),
	}
}

// GetOrCreate returns the watcher for path, creating it on first use.
// Concurrent callers for the same path get the same instance.
func (r *Registry) GetOrCreate(path string) *Watcher {
	r.mu.Lock()
	defer r.mu.Unlock()

	if w, ok := r.watchers[path]; ok {
		return w
	}
	w := New(path, r.opts...)
	r.watchers[path] = w
	return w
}

// Get returns the watcher for path if one exists.
func (r *Registry) Get(path string) (*Watcher, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.watchers[path]
	return w, ok
}

// Subscribe waits until the watcher for path has finished setup and then
// registers fn. Unsubscribing leaves the watcher running.
func (r *Registry) Subscribe(ctx context.Context, path string, fn func(Event)) (func(), error) {
	w := r.GetOrCreate(path)
	select {
	case <-w.Ready():
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return w.Subscribe(fn), nil
}

// Dispose stops and forgets the watcher for path.
func (r *Registry) Dispose(path string) error {
	r.mu.Lock()
	w, ok := r.watchers[path]
	delete(r.watchers, path)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	return w.Dispose()
}

// DisposeAll stops every watcher concurrently and empties the registry.
func (r *Registry) DisposeAll() error {
	r.mu.Lock()
	watchers := make([]*Watcher, 0, len(r.watchers))
	for _, w := range r.watchers {
		watchers = append(watchers, w)
	}
	clear(r.watchers)
	r.mu.Unlock()

	var g errgroup.Group
	for _, w := range watchers {
		g.Go(w.Dispose)
	}
	return g.Wait()
}

// Paths returns the watched repository paths in sorted order.
func (r *Registry) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	paths := make([]string, 0, len(r.watchers))
	for p := range r.watchers {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
