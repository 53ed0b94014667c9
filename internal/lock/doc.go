// Package lock provides per-repository mutual exclusion for mutating git
// operations, and cleanup of lock files abandoned by crashed git processes.
//
// # Coordinator
//
// A [Coordinator] keeps one tail operation per repository path. A caller
// submitting work through [Run] becomes the new tail and waits for the
// previous tail to settle before running:
//
//	status, err := lock.Run(locks, repoPath, func() (string, error) {
//	    return runner.Run(ctx, git.ClassLocal, repoPath, "commit", "-m", msg)
//	})
//
// Ordering is strict FIFO per path; different paths proceed independently.
// The path is released on every exit of the operation, including panics,
// and a failure is only ever returned to the caller that submitted it.
//
// # Stale lock files
//
// Git guards the index and refs with "*.lock" files. A git process that is
// killed leaves them behind and every later mutating command fails with
// "File exists". [CleanStale] removes such files once they are older than a
// threshold ([DefaultStaleAge]). It only ignores files that are already
// gone; permission and I/O errors are returned to the caller.
package lock
