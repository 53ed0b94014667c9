// Package git runs the git CLI and reads repository metadata.
//
// Commands go through [Runner], which bounds every invocation by the
// timeout of its [Class]: local operations, network operations (fetch,
// push) and long bulk operations (clone, gc). The git CLI is used rather
// than a Go git library so user configuration (credential helpers, hooks,
// SSH keys) applies unchanged.
//
// [Discover] locates the metadata directories of a working tree, including
// linked worktrees whose .git is a file. The resulting [Layout] names the
// files that change on commits and checkouts (index, HEAD), the lock files
// git creates while writing, and a [Layout.Stamp] of their size and mtime
// used to validate cached results.
//
// [ParseStatus] parses `git status --porcelain=v2 --branch -z`.
package git
