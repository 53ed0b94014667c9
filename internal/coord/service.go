package coord

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/raphi011/gitcoord/internal/cache"
	"github.com/raphi011/gitcoord/internal/config"
	"github.com/raphi011/gitcoord/internal/git"
	"github.com/raphi011/gitcoord/internal/lock"
	"github.com/raphi011/gitcoord/internal/log"
	"github.com/raphi011/gitcoord/internal/retry"
	"github.com/raphi011/gitcoord/internal/watch"
)

// Service coordinates git access for many repositories: mutations are
// serialized per repository and retried on lock conflicts, reads are
// cached, and watcher events drop cached results.
//
// Construct one Service per process and share it.
type Service struct {
	locks    *lock.Coordinator
	policy   retry.Policy
	git      *git.Runner
	caches   *Caches
	watchers *watch.Registry
	logger   *log.Logger
	now      func() time.Time

	mu           sync.Mutex
	invalidating map[*watch.Watcher]bool
}

type settings struct {
	logger    *log.Logger
	sleep     func(time.Duration)
	now       func() time.Time
	watchOpts []watch.Option
}

// Option customizes a Service.
type Option func(*settings)

// WithLogger sets the logger for retries, lock cleanup and watchers.
func WithLogger(l *log.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithSleep replaces the wait between retries.
func WithSleep(sleep func(time.Duration)) Option {
	return func(s *settings) { s.sleep = sleep }
}

// WithClock replaces the clock used by caches and stale lock detection.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithWatchOptions appends options applied to every watcher.
func WithWatchOptions(opts ...watch.Option) Option {
	return func(s *settings) { s.watchOpts = append(s.watchOpts, opts...) }
}

// New creates a Service from cfg.
func New(cfg config.Config, opts ...Option) *Service {
	st := settings{now: time.Now}
	for _, opt := range opts {
		opt(&st)
	}
	if st.logger == nil {
		st.logger = log.New(io.Discard, false, true)
	}

	s := &Service{
		locks:        lock.NewCoordinator(),
		git:          git.NewRunner(cfg.Timeouts.Timeouts()),
		logger:       st.logger,
		now:          st.now,
		invalidating: make(map[*watch.Watcher]bool),
	}

	s.caches = NewCaches(cfg.Cache, cache.WithClock(st.now))

	retryOpts := append(cfg.Retry.Options(), retry.WithCleaner(s), retry.WithLogger(st.logger))
	if st.sleep != nil {
		retryOpts = append(retryOpts, retry.WithSleep(st.sleep))
	}
	s.policy = retry.Default(retryOpts...)

	watchOpts := append(cfg.Watch.Options(), watch.WithLogger(st.logger))
	s.watchers = watch.NewRegistry(append(watchOpts, st.watchOpts...)...)
	return s
}

// Caches returns the service's caches.
func (s *Service) Caches() *Caches { return s.caches }

// Watchers returns the service's watcher registry.
func (s *Service) Watchers() *watch.Registry { return s.watchers }

// Policy returns the retry policy used by RunWithRetry.
func (s *Service) Policy() retry.Policy { return s.policy }

// Normalize turns path into the key used for locks, caches and watchers.
func Normalize(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// RunExclusive runs op once every earlier operation on path has finished.
func RunExclusive[T any](s *Service, path string, op func() (T, error)) (T, error) {
	return lock.Run(s.locks, Normalize(path), op)
}

// RunWithRetry is RunExclusive with lock conflicts retried inside the
// exclusive section. opts adjust the service's retry policy for this call.
func RunWithRetry[T any](s *Service, path string, op func() (T, error), opts ...retry.Option) (T, error) {
	repo := Normalize(path)
	policy := s.policy.With(opts...)
	return lock.Run(s.locks, repo, func() (T, error) {
		return retry.Execute(policy, repo, op)
	})
}

// Mutate runs a state-changing git command in path under the repository
// lock with retries, then drops every cached result for the repository.
// Caches are dropped even when the command fails.
func (s *Service) Mutate(ctx context.Context, path string, class git.Class, args ...string) (string, error) {
	repo := Normalize(path)
	return RunWithRetry(s, repo, func() (string, error) {
		out, err := s.git.Run(ctx, class, repo, args...)
		if n := s.caches.InvalidateAllFor(repo); n > 0 {
			s.logger.Debug("coord: invalidated", "repo", repo, "entries", n)
		}
		return out, err
	})
}

// Status returns the working tree status of path. A cached result is used
// only while the index and HEAD are unchanged.
func (s *Service) Status(ctx context.Context, path string) (git.Status, error) {
	repo := Normalize(path)
	layout, err := git.Discover(repo)
	if err != nil {
		return git.Status{}, err
	}

	// Fingerprint before git runs; a change made meanwhile forces a miss later.
	key := statusKey(repo)
	fingerprint := cache.Hash(layout.Stamp())
	if st, ok := s.caches.Status.GetIfHashMatches(key, fingerprint); ok {
		return st, nil
	}

	st, err := s.git.Status(ctx, repo)
	if err != nil {
		return git.Status{}, err
	}
	s.caches.Status.Set(key, st, fingerprint, cache.EstimateSize(st))
	return st, nil
}

// Diff returns the diff of file in path (the whole tree when file is
// empty). Cached diffs are keyed by the state of the index, HEAD and the
// working tree files the diff covers.
func (s *Service) Diff(ctx context.Context, path, file string, staged bool) (string, error) {
	repo := Normalize(path)
	layout, err := git.Discover(repo)
	if err != nil {
		return "", err
	}

	key := diffKey(repo, file, staged)
	fingerprint, err := s.diffFingerprint(ctx, layout, file, staged)
	if err != nil {
		return "", err
	}
	if diff, ok := s.caches.Diff.GetIfHashMatches(key, fingerprint); ok {
		return diff, nil
	}

	diff, err := s.git.Diff(ctx, repo, file, staged)
	if err != nil {
		return "", err
	}
	s.caches.Diff.Set(key, diff, fingerprint, int64(len(diff)))
	return diff, nil
}

func (s *Service) diffFingerprint(ctx context.Context, layout git.Layout, file string, staged bool) (string, error) {
	stamp := layout.Stamp()
	switch {
	case file != "":
		stamp += "|" + fileStamp(filepath.Join(layout.WorkTree, file))
	case !staged:
		// Edits to tracked files touch neither the index nor HEAD. Stamp
		// every path git reports as changed in the working tree.
		st, err := s.git.Status(ctx, layout.WorkTree)
		if err != nil {
			return "", err
		}
		var paths []string
		for _, f := range st.Unstaged {
			paths = append(paths, f.Path)
		}
		paths = append(paths, st.Conflicted...)
		slices.Sort(paths)
		for _, p := range paths {
			stamp += "|" + p + "=" + fileStamp(filepath.Join(layout.WorkTree, p))
		}
	}
	return cache.Hash(stamp), nil
}

func fileStamp(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "-"
	}
	return strconv.FormatInt(info.Size(), 10) + ":" + strconv.FormatInt(info.ModTime().UnixNano(), 10)
}

// FileContent returns file as of revision rev. The revision is resolved to
// a commit id first, so cached content never goes stale.
func (s *Service) FileContent(ctx context.Context, path, rev, file string) ([]byte, error) {
	repo := Normalize(path)

	commit := rev
	if !isCommitID(rev) {
		var err error
		if commit, err = s.git.ResolveRevision(ctx, repo, rev); err != nil {
			return nil, err
		}
	}

	key := contentKey(repo, commit, file)
	if data, ok := s.caches.Content.Get(key); ok {
		return data, nil
	}

	data, err := s.git.Show(ctx, repo, commit, file)
	if err != nil {
		return nil, err
	}
	s.caches.Content.Set(key, data, cache.Hash(data), int64(len(data)))
	return data, nil
}

func isCommitID(rev string) bool {
	if len(rev) != 40 && len(rev) != 64 {
		return false
	}
	for _, c := range rev {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Subscribe calls fn with every change batch for path. Cached results for
// the repository are dropped before fn runs.
func (s *Service) Subscribe(ctx context.Context, path string, fn func(watch.Event)) (func(), error) {
	repo := Normalize(path)
	w := s.watchers.GetOrCreate(repo)

	s.attachInvalidator(repo, w)
	return s.watchers.Subscribe(ctx, repo, fn)
}

// attachInvalidator subscribes w, once per watcher instance, to drop the
// repository's cached results. A watcher created after the previous one was
// disposed gets its own invalidator.
func (s *Service) attachInvalidator(repo string, w *watch.Watcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.invalidating[w] {
		return
	}
	s.invalidating[w] = true
	w.Subscribe(func(watch.Event) {
		if n := s.caches.InvalidateAllFor(repo); n > 0 {
			s.logger.Debug("coord: invalidated on change", "repo", repo, "entries", n)
		}
	})
	go func() {
		<-w.Done()
		s.mu.Lock()
		delete(s.invalidating, w)
		s.mu.Unlock()
	}()
}

// InvalidateAllFor drops every cached result whose key starts with path.
func (s *Service) InvalidateAllFor(path string) int {
	return s.caches.InvalidateAllFor(Normalize(path))
}

// RemoveStaleLocks deletes lock files in the repository's git directories
// that are older than maxAge and returns their paths.
func (s *Service) RemoveStaleLocks(path string, maxAge time.Duration) ([]string, error) {
	layout, err := git.Discover(Normalize(path))
	if err != nil {
		return nil, err
	}
	removed, err := lock.CleanStale(layout.LockArtifacts(), maxAge, s.now())
	for _, p := range removed {
		s.logger.Printf("Removed stale lock file %s\n", p)
	}
	return removed, err
}

// LockFile is a git lock file present in a repository.
type LockFile struct {
	Path string
	Age  time.Duration
}

// LockFiles lists the lock files currently present in the repository's git
// directories with their age.
func (s *Service) LockFiles(path string) ([]LockFile, error) {
	layout, err := git.Discover(Normalize(path))
	if err != nil {
		return nil, err
	}
	now := s.now()
	var locks []LockFile
	for _, p := range layout.LockArtifacts() {
		if age, ok := git.LockAge(p, now); ok {
			locks = append(locks, LockFile{Path: p, Age: age})
		}
	}
	return locks, nil
}

// CleanStaleLocks implements retry.Cleaner.
func (s *Service) CleanStaleLocks(path string, maxAge time.Duration) error {
	_, err := s.RemoveStaleLocks(path, maxAge)
	return err
}

// Dispose stops the watcher for path.
func (s *Service) Dispose(path string) error {
	return s.watchers.Dispose(Normalize(path))
}

// Close stops all watchers.
func (s *Service) Close() error {
	return s.watchers.DisposeAll()
}
