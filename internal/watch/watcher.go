package watch

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	perrors "github.com/jmgilman/go/errors"

	"github.com/raphi011/gitcoord/internal/git"
	"github.com/raphi011/gitcoord/internal/log"
)

// ErrSetup marks a watcher that could not start observing its repository.
var ErrSetup = errors.New("watcher setup failed")

// ChangeType classifies a file change.
type ChangeType string

const (
	Add    ChangeType = "add"
	Change ChangeType = "change"
	Remove ChangeType = "remove"
)

// FileChange is one path in a batch.
type FileChange struct {
	Path string     `json:"path"`
	Type ChangeType `json:"type"`
}

// Event is a debounced batch of changes in one repository.
type Event struct {
	RepositoryPath string       `json:"repository"`
	Changes        []FileChange `json:"changes"`
	Timestamp      time.Time    `json:"timestamp"`
}

// Stats reports watcher counters.
type Stats struct {
	Pending int
	Emitted int
	Errors  int
}

const (
	DefaultDebounce  = 100 * time.Millisecond
	DefaultStability = 50 * time.Millisecond
)

type options struct {
	debounce  time.Duration
	stability time.Duration
	logger    *log.Logger
	onError   []func(error)
	now       func() time.Time
}

// Option configures a Watcher.
type Option func(*options)

// WithDebounce sets the quiet period after the last raw event.
func WithDebounce(d time.Duration) Option {
	return func(o *options) { o.debounce = d }
}

// WithStability sets how long a file must stay unchanged before a batch
// containing it is emitted. Zero disables the check.
func WithStability(d time.Duration) Option {
	return func(o *options) { o.stability = d }
}

// WithLogger sets the logger for setup failures and batch diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithErrorHandler registers an error listener before setup starts, so it
// observes setup failures.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) { o.onError = append(o.onError, fn) }
}

type pendingChange struct {
	typ  ChangeType
	seen time.Time
}

type fileState struct {
	size    int64
	modTime time.Time
}

type subscriber struct {
	id int
	fn func(Event)
}

type errorListener struct {
	id int
	fn func(error)
}

// Watcher observes the index and HEAD of one working tree and emits
// debounced change batches to its subscribers.
type Watcher struct {
	repo  string
	opts  options
	ready chan struct{}
	done  chan struct{}

	disposeOnce sync.Once
	closeErr    error

	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	files    map[string]bool
	observed map[string]fileState
	pending  map[string]pendingChange
	timer    *time.Timer
	subs     []subscriber
	errSubs  []errorListener
	nextID   int
	setupErr error
	disposed bool
	stats    Stats
}

// New starts watching repoPath. It returns immediately; setup continues in
// the background and Ready is closed once it has finished. Setup failures
// are reported through Err and error listeners, never from New.
func New(repoPath string, opts ...Option) *Watcher {
	o := options{
		debounce:  DefaultDebounce,
		stability: DefaultStability,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard, false, true)
	}

	w := &Watcher{
		repo:     repoPath,
		opts:     o,
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
		files:    make(map[string]bool),
		observed: make(map[string]fileState),
		pending:  make(map[string]pendingChange),
	}
	for _, fn := range o.onError {
		w.errSubs = append(w.errSubs, errorListener{id: w.id(), fn: fn})
	}

	go w.setup()
	return w
}

// RepositoryPath returns the path the watcher was created for.
func (w *Watcher) RepositoryPath() string { return w.repo }

// Ready is closed once setup has finished, successfully or not.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Done is closed by Dispose.
func (w *Watcher) Done() <-chan struct{} { return w.done }

// Err returns the setup failure, if any. Only meaningful after Ready.
func (w *Watcher) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.setupErr
}

// Subscribe registers fn for every emitted batch. Subscribers run on the
// watcher's timer goroutine and must not block for long.
func (w *Watcher) Subscribe(fn func(Event)) (unsubscribe func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.disposed {
		return func() {}
	}

	id := w.id()
	w.subs = append(w.subs, subscriber{id: id, fn: fn})
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		for i, s := range w.subs {
			if s.id == id {
				w.subs = append(w.subs[:i:i], w.subs[i+1:]...)
				return
			}
		}
	}
}

// OnError registers fn for watcher failures. If setup already failed, fn is
// called with that error right away.
func (w *Watcher) OnError(fn func(error)) (remove func()) {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return func() {}
	}
	id := w.id()
	w.errSubs = append(w.errSubs, errorListener{id: id, fn: fn})
	setupErr := w.setupErr
	w.mu.Unlock()

	if setupErr != nil {
		fn(setupErr)
	}
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		for i, l := range w.errSubs {
			if l.id == id {
				w.errSubs = append(w.errSubs[:i:i], w.errSubs[i+1:]...)
				return
			}
		}
	}
}

// Stats returns a snapshot of the watcher counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.stats
	s.Pending = len(w.pending)
	return s
}

// Flush emits pending changes immediately, skipping the debounce and
// stability checks.
func (w *Watcher) Flush() {
	w.mu.Lock()
	if w.disposed || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	ev, subs := w.drain()
	w.mu.Unlock()

	w.emit(ev, subs)
}

// Dispose stops watching and detaches all subscribers. It is safe to call
// more than once.
func (w *Watcher) Dispose() error {
	w.disposeOnce.Do(func() {
		w.mu.Lock()
		w.disposed = true
		if w.timer != nil {
			w.timer.Stop()
		}
		clear(w.pending)
		w.subs = nil
		w.errSubs = nil
		fsw := w.fsw
		w.fsw = nil
		w.mu.Unlock()

		if fsw != nil {
			w.closeErr = fsw.Close()
		}
		close(w.done)
	})
	return w.closeErr
}

func (w *Watcher) id() int {
	w.nextID++
	return w.nextID
}

func (w *Watcher) setup() {
	defer close(w.ready)

	layout, err := git.Discover(w.repo)
	if err != nil {
		code := perrors.CodeInternal
		if errors.Is(err, git.ErrNotRepository) || errors.Is(err, os.ErrNotExist) {
			code = perrors.CodeNotFound
		}
		w.fail(code, err)
		return
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.fail(perrors.CodeInternal, err)
		return
	}
	// Watch the directory: git replaces index and HEAD by renaming
	// *.lock over them, which would drop a watch on the file itself.
	if err := fsw.Add(layout.GitDir); err != nil {
		_ = fsw.Close()
		code := perrors.CodeInternal
		if errors.Is(err, os.ErrNotExist) {
			code = perrors.CodeNotFound
		}
		w.fail(code, err)
		return
	}

	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		_ = fsw.Close()
		return
	}
	w.fsw = fsw
	for _, path := range layout.WatchedFiles() {
		w.files[path] = true
		if st, ok := statFile(path); ok {
			w.observed[path] = st
		}
	}
	w.mu.Unlock()

	w.opts.logger.Debug("watch: started", "repo", w.repo, "gitdir", layout.GitDir)
	go w.loop(fsw)
}

func (w *Watcher) fail(code perrors.ErrorCode, err error) {
	wrapped := perrors.Wrapf(fmt.Errorf("%w: %w", ErrSetup, err), code, "watch %s", w.repo)

	w.mu.Lock()
	w.setupErr = wrapped
	w.stats.Errors++
	listeners := append([]errorListener(nil), w.errSubs...)
	w.mu.Unlock()

	w.opts.logger.Printf("Warning: %v\n", wrapped)
	for _, l := range listeners {
		l.fn(wrapped)
	}
}

func (w *Watcher) loop(fsw *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.reportError(err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)

	w.mu.Lock()
	watched := w.files[path]
	_, known := w.observed[path]
	w.mu.Unlock()
	if !watched {
		return
	}

	switch {
	case ev.Has(fsnotify.Create):
		if known {
			w.record(path, Change)
		} else {
			w.record(path, Add)
		}
	case ev.Has(fsnotify.Write), ev.Has(fsnotify.Chmod):
		w.record(path, Change)
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		w.record(path, Remove)
	}
}

func (w *Watcher) reportError(err error) {
	w.mu.Lock()
	w.stats.Errors++
	listeners := append([]errorListener(nil), w.errSubs...)
	w.mu.Unlock()

	w.opts.logger.Debug("watch: error", "repo", w.repo, "err", err)
	for _, l := range listeners {
		l.fn(err)
	}
}

// record adds a raw change. The latest type for a path wins, and every
// change restarts the debounce window.
func (w *Watcher) record(path string, typ ChangeType) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.disposed {
		return
	}

	w.pending[path] = pendingChange{typ: typ, seen: w.opts.now()}
	if typ == Remove {
		delete(w.observed, path)
	}
	w.arm(w.opts.debounce)
}

// arm (re)schedules the flush timer. Callers hold w.mu.
func (w *Watcher) arm(d time.Duration) {
	if w.timer == nil {
		w.timer = time.AfterFunc(d, w.fire)
		return
	}
	w.timer.Reset(d)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	if w.disposed || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	if !w.settled() {
		w.arm(w.opts.stability)
		w.mu.Unlock()
		return
	}
	ev, subs := w.drain()
	w.mu.Unlock()

	w.emit(ev, subs)
}

// settled reports whether every pending file has stopped changing: its last
// raw event is older than the stability threshold and its size and mtime
// match the previous observation. Callers hold w.mu.
func (w *Watcher) settled() bool {
	threshold := w.opts.stability
	if threshold <= 0 {
		return true
	}

	now := w.opts.now()
	stable := true
	for path, p := range w.pending {
		if p.typ == Remove {
			continue
		}
		if now.Sub(p.seen) < threshold {
			stable = false
		}
		st, ok := statFile(path)
		if !ok {
			continue
		}
		if prev, seen := w.observed[path]; !seen || prev != st {
			w.observed[path] = st
			stable = false
		}
	}
	return stable
}

// drain moves pending changes into an event. Callers hold w.mu.
func (w *Watcher) drain() (Event, []subscriber) {
	changes := make([]FileChange, 0, len(w.pending))
	for path, p := range w.pending {
		changes = append(changes, FileChange{Path: path, Type: p.typ})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	clear(w.pending)
	w.stats.Emitted++

	ev := Event{RepositoryPath: w.repo, Changes: changes, Timestamp: w.opts.now()}
	return ev, append([]subscriber(nil), w.subs...)
}

func (w *Watcher) emit(ev Event, subs []subscriber) {
	w.opts.logger.Debug("watch: batch", "repo", w.repo, "changes", len(ev.Changes), "subscribers", len(subs))
	for _, s := range subs {
		s.fn(ev)
	}
}

func statFile(path string) (fileState, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}, false
	}
	return fileState{size: info.Size(), modTime: info.ModTime()}, true
}
