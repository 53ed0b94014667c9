// Package watch reports changes to a repository's git metadata.
//
// A [Watcher] observes the index and HEAD files of one working tree (the
// per-worktree git directory for linked worktrees) and turns bursts of raw
// filesystem events into one debounced [Event]:
//
//   - every raw event restarts a single debounce timer (default 100ms)
//   - the latest change type per file wins
//   - before emitting, each changed file must keep the same size and
//     modification time for the stability threshold (default 50ms)
//
// Setup runs in the background. [Watcher.Ready] is closed once it finishes
// and [Watcher.Err] holds the failure, wrapped around [ErrSetup].
//
// A [Registry] shares one watcher per repository path between subscribers.
package watch
