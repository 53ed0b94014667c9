package git

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/raphi011/gitcoord/internal/cmd"
)

// Class groups git operations by how long they may take.
type Class int

const (
	// ClassLocal is for operations that only touch the local repository.
	ClassLocal Class = iota
	// ClassNetwork is for operations that talk to a remote.
	ClassNetwork
	// ClassLong is for bulk operations (clone, gc, large rebases).
	ClassLong
)

func (c Class) String() string {
	switch c {
	case ClassLocal:
		return "local"
	case ClassNetwork:
		return "network"
	case ClassLong:
		return "long"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// ParseClass parses "local", "network" or "long".
func ParseClass(s string) (Class, error) {
	switch strings.ToLower(s) {
	case "local", "":
		return ClassLocal, nil
	case "network":
		return ClassNetwork, nil
	case "long":
		return ClassLong, nil
	}
	return ClassLocal, fmt.Errorf("invalid operation class %q: must be \"local\", \"network\" or \"long\"", s)
}

// Timeouts bounds git invocations per operation class.
type Timeouts struct {
	Local   time.Duration
	Network time.Duration
	Long    time.Duration
}

// DefaultTimeouts returns 30s for local, 2m for network and 10m for long
// operations.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Local:   30 * time.Second,
		Network: 2 * time.Minute,
		Long:    10 * time.Minute,
	}
}

// For returns the timeout of class c.
func (t Timeouts) For(c Class) time.Duration {
	switch c {
	case ClassNetwork:
		return t.Network
	case ClassLong:
		return t.Long
	default:
		return t.Local
	}
}

// Runner executes git against working trees with per-class timeouts.
// A timeout surfaces as an ordinary error.
type Runner struct {
	Timeouts Timeouts
}

// NewRunner creates a runner with the given timeouts.
func NewRunner(t Timeouts) *Runner {
	return &Runner{Timeouts: t}
}

// Run executes git in dir and returns its stdout.
func (r *Runner) Run(ctx context.Context, class Class, dir string, args ...string) (string, error) {
	out, err := r.Output(ctx, class, dir, args...)
	return string(out), err
}

// Output executes git in dir and returns its raw stdout.
func (r *Runner) Output(ctx context.Context, class Class, dir string, args ...string) ([]byte, error) {
	return cmd.OutputTimeout(ctx, r.Timeouts.For(class), "", "git", gitArgs(dir, args)...)
}

// gitArgs prepends -C <dir> to args if dir is non-empty.
func gitArgs(dir string, args []string) []string {
	if dir == "" {
		return args
	}
	return append([]string{"-C", dir}, args...)
}

// runGit executes a git command with context support and verbose logging.
func runGit(ctx context.Context, dir string, args ...string) error {
	return cmd.RunContext(ctx, "", "git", gitArgs(dir, args)...)
}

// outputGit executes a git command with context support and verbose logging,
// returning stdout.
func outputGit(ctx context.Context, dir string, args ...string) ([]byte, error) {
	return cmd.OutputContext(ctx, "", "git", gitArgs(dir, args)...)
}
