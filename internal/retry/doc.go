// Package retry re-runs git operations that failed on a lock held by
// another process.
//
// Git reports a concurrent (or crashed) process through its lock files:
//
//	fatal: Unable to create '/repo/.git/index.lock': File exists.
//	Another git process seems to be running in this repository ...
//
// [IsLockConflict] recognizes these messages. [Execute] retries such
// failures with exponential backoff (BaseDelay, 2×BaseDelay, 4×BaseDelay, …),
// asking the policy's [Cleaner] to delete lock files older than StaleAge
// before each retry. Any other failure is returned at once, and the error of
// the final attempt is returned without wrapping so callers can still match
// on git's message.
//
// Retry does not take a lock itself; callers combine it with
// [github.com/raphi011/gitcoord/internal/lock.Run] so that only one mutating
// operation per repository is retrying at a time.
package retry
