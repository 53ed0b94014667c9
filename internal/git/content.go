package git

import (
	"context"
	"strings"
)

// Diff returns the textual diff of file in dir. An empty file diffs the
// whole tree; staged selects the index instead of the working tree.
func (r *Runner) Diff(ctx context.Context, dir, file string, staged bool) (string, error) {
	args := []string{"diff", "--no-color", "--no-ext-diff"}
	if staged {
		args = append(args, "--cached")
	}
	if file != "" {
		args = append(args, "--", file)
	}
	return r.Run(ctx, ClassLocal, dir, args...)
}

// ResolveRevision turns a symbolic revision (HEAD, a branch, a tag) into
// a full commit id.
func (r *Runner) ResolveRevision(ctx context.Context, dir, rev string) (string, error) {
	out, err := r.Run(ctx, ClassLocal, dir, "rev-parse", "--verify", "--quiet", rev+"^{commit}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Show returns the content of file at revision rev.
func (r *Runner) Show(ctx context.Context, dir, rev, file string) ([]byte, error) {
	return r.Output(ctx, ClassLocal, dir, "show", rev+":"+file)
}
