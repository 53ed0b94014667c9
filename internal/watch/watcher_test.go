package watch

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	perrors "github.com/jmgilman/go/errors"
)

// fakeRepo creates a working tree with a minimal .git directory.
func fakeRepo(t *testing.T) string {
	t.Helper()
	repo := t.TempDir()
	gitDir := filepath.Join(repo, ".git")
	if err := os.MkdirAll(gitDir, 0755); err != nil {
		t.Fatal(err)
	}
	for name, content := range map[string]string{
		"HEAD":  "ref: refs/heads/main\n",
		"index": "DIRC",
	} {
		if err := os.WriteFile(filepath.Join(gitDir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return repo
}

func waitReady(t *testing.T, w *Watcher) {
	t.Helper()
	select {
	case <-w.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never became ready")
	}
}

// collect subscribes to w and returns a channel receiving every batch.
func collect(w *Watcher) <-chan Event {
	ch := make(chan Event, 16)
	w.Subscribe(func(ev Event) { ch <- ev })
	return ch
}

func nextEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestWatcher_CoalescesRapidEvents(t *testing.T) {
	t.Parallel()
	repo := fakeRepo(t)
	w := New(repo, WithDebounce(30*time.Millisecond), WithStability(0))
	defer w.Dispose()
	waitReady(t, w)
	if err := w.Err(); err != nil {
		t.Fatalf("Err() = %v, want nil", err)
	}

	events := collect(w)
	index := filepath.Join(repo, ".git", "index")
	head := filepath.Join(repo, ".git", "HEAD")

	w.record(index, Change)
	w.record(head, Change)
	w.record(index, Add)
	w.record(index, Change)
	w.record(index, Remove)

	ev := nextEvent(t, events)
	if ev.RepositoryPath != repo {
		t.Errorf("RepositoryPath = %q, want %q", ev.RepositoryPath, repo)
	}
	want := []FileChange{{Path: head, Type: Change}, {Path: index, Type: Remove}}
	if len(ev.Changes) != len(want) {
		t.Fatalf("Changes = %v, want %v", ev.Changes, want)
	}
	for i := range want {
		if ev.Changes[i] != want[i] {
			t.Errorf("Changes[%d] = %v, want %v", i, ev.Changes[i], want[i])
		}
	}

	select {
	case extra := <-events:
		t.Errorf("unexpected second batch %v", extra)
	case <-time.After(150 * time.Millisecond):
	}

	if s := w.Stats(); s.Emitted != 1 || s.Pending != 0 {
		t.Errorf("Stats() = %+v, want 1 emitted and nothing pending", s)
	}
}

func TestWatcher_Flush(t *testing.T) {
	t.Parallel()
	repo := fakeRepo(t)
	w := New(repo, WithDebounce(time.Hour))
	defer w.Dispose()
	waitReady(t, w)

	events := collect(w)
	w.Flush() // nothing pending, nothing emitted

	w.record(filepath.Join(repo, ".git", "HEAD"), Change)
	if s := w.Stats(); s.Pending != 1 {
		t.Fatalf("Stats().Pending = %d, want 1", s.Pending)
	}
	w.Flush()

	ev := nextEvent(t, events)
	if len(ev.Changes) != 1 || ev.Changes[0].Type != Change {
		t.Errorf("Flush() emitted %v", ev.Changes)
	}
	if s := w.Stats(); s.Emitted != 1 {
		t.Errorf("Stats().Emitted = %d, want 1", s.Emitted)
	}
}

func TestWatcher_StabilityGate(t *testing.T) {
	t.Parallel()
	repo := fakeRepo(t)
	w := New(repo, WithDebounce(time.Hour), WithStability(50*time.Millisecond))
	defer w.Dispose()
	waitReady(t, w)

	index := filepath.Join(repo, ".git", "index")
	now := time.Now()
	w.mu.Lock()
	w.opts.now = func() time.Time { return now }
	w.mu.Unlock()

	w.record(index, Change)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.settled() {
		t.Error("settled() = true for a change younger than the threshold")
	}

	now = now.Add(time.Second)
	if !w.settled() {
		t.Error("settled() = false for an old change on an unchanged file")
	}

	if err := os.WriteFile(index, []byte("DIRC plus more"), 0644); err != nil {
		t.Fatal(err)
	}
	if w.settled() {
		t.Error("settled() = true right after the file grew")
	}
	if !w.settled() {
		t.Error("settled() = false once size and mtime held still")
	}
}

func TestWatcher_RealIndexWrite(t *testing.T) {
	t.Parallel()
	repo := fakeRepo(t)
	w := New(repo, WithDebounce(20*time.Millisecond), WithStability(10*time.Millisecond))
	defer w.Dispose()
	waitReady(t, w)
	if err := w.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}

	events := collect(w)

	// Replace the index the way git does: write a lock file, rename it over.
	gitDir := filepath.Join(repo, ".git")
	lock := filepath.Join(gitDir, "index.lock")
	if err := os.WriteFile(lock, []byte("DIRC updated"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(lock, filepath.Join(gitDir, "index")); err != nil {
		t.Fatal(err)
	}

	ev := nextEvent(t, events)
	var found bool
	for _, c := range ev.Changes {
		if filepath.Base(c.Path) == "index" {
			found = true
			if c.Type != Change {
				t.Errorf("index change type = %q, want %q", c.Type, Change)
			}
		}
		if filepath.Base(c.Path) == "index.lock" {
			t.Errorf("lock file leaked into batch: %v", c)
		}
	}
	if !found {
		t.Errorf("batch %v has no index change", ev.Changes)
	}
}

func TestWatcher_RapidWritesToOneFile(t *testing.T) {
	t.Parallel()
	repo := fakeRepo(t)
	w := New(repo, WithDebounce(200*time.Millisecond), WithStability(0))
	defer w.Dispose()
	waitReady(t, w)
	if err := w.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}

	events := collect(w)
	index := filepath.Join(repo, ".git", "index")

	f, err := os.OpenFile(index, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	for range 5 {
		if _, err := f.WriteString("x"); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	ev := nextEvent(t, events)
	want := FileChange{Path: index, Type: Change}
	if len(ev.Changes) != 1 || ev.Changes[0] != want {
		t.Errorf("Changes = %v, want [%v]", ev.Changes, want)
	}

	select {
	case extra := <-events:
		t.Errorf("unexpected second batch %v", extra)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcher_SetupFailure(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var early []error
	w := New(t.TempDir(), WithErrorHandler(func(err error) {
		mu.Lock()
		early = append(early, err)
		mu.Unlock()
	}))
	defer w.Dispose()
	waitReady(t, w)

	err := w.Err()
	if !errors.Is(err, ErrSetup) {
		t.Fatalf("Err() = %v, want ErrSetup", err)
	}
	if code := perrors.GetCode(err); code != perrors.CodeNotFound {
		t.Errorf("GetCode() = %s, want %s", code, perrors.CodeNotFound)
	}

	mu.Lock()
	if len(early) != 1 || early[0] != err {
		t.Errorf("WithErrorHandler got %v, want [%v]", early, err)
	}
	mu.Unlock()

	var late error
	w.OnError(func(err error) { late = err })
	if late != err {
		t.Errorf("OnError after failure got %v, want %v", late, err)
	}
	if s := w.Stats(); s.Errors != 1 {
		t.Errorf("Stats().Errors = %d, want 1", s.Errors)
	}
}

func TestWatcher_DisposeIdempotent(t *testing.T) {
	t.Parallel()
	repo := fakeRepo(t)
	w := New(repo, WithDebounce(10*time.Millisecond), WithStability(0))
	waitReady(t, w)

	var calls int
	w.Subscribe(func(Event) { calls++ })

	if err := w.Dispose(); err != nil {
		t.Fatalf("Dispose() error = %v", err)
	}
	if err := w.Dispose(); err != nil {
		t.Fatalf("second Dispose() error = %v", err)
	}

	select {
	case <-w.Done():
	default:
		t.Error("Done() not closed after Dispose")
	}

	w.record(filepath.Join(repo, ".git", "HEAD"), Change)
	w.Flush()
	time.Sleep(50 * time.Millisecond)
	if calls != 0 {
		t.Errorf("subscriber called %d times after Dispose", calls)
	}
	if s := w.Stats(); s.Pending != 0 {
		t.Errorf("Stats().Pending = %d after Dispose, want 0", s.Pending)
	}

	unsubscribe := w.Subscribe(func(Event) {})
	unsubscribe()
}

func TestWatcher_Unsubscribe(t *testing.T) {
	t.Parallel()
	repo := fakeRepo(t)
	w := New(repo, WithDebounce(time.Hour))
	defer w.Dispose()
	waitReady(t, w)

	var first, second int
	unsubscribe := w.Subscribe(func(Event) { first++ })
	w.Subscribe(func(Event) { second++ })

	head := filepath.Join(repo, ".git", "HEAD")
	w.record(head, Change)
	w.Flush()
	unsubscribe()
	w.record(head, Change)
	w.Flush()

	if first != 1 || second != 2 {
		t.Errorf("calls = %d/%d, want 1/2", first, second)
	}
}
