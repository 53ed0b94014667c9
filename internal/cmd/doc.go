// Package cmd runs external commands and turns their failures into errors
// that carry the command's stderr.
//
// Commands are executed through [github.com/jmgilman/go/exec] with the
// parent environment inherited, so user git configuration (SSH keys,
// credential helpers) keeps working.
//
// # Usage
//
//	if err := cmd.RunContext(ctx, repoPath, "git", "fetch"); err != nil {
//	    // err.Error() is git's stderr, e.g. "fatal: Unable to create '.../index.lock': File exists."
//	}
//
//	out, err := cmd.OutputTimeout(ctx, 30*time.Second, repoPath, "git", "status", "--porcelain=v2")
//
// # Errors
//
// A failed command yields [*Error] whose message is the trimmed stderr (or the
// exec error when stderr is empty). A cancelled context yields the context's
// error unchanged. An elapsed timeout yields an [*Error] whose message contains
// "timed out after" and which unwraps to [context.DeadlineExceeded].
//
// Every invocation is reported to the context logger, which prints it in
// verbose mode together with its duration.
package cmd
