package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmgilman/go/exec"

	"github.com/raphi011/gitcoord/internal/log"
)

// Error is returned when a command exits unsuccessfully.
// Its message is the trimmed stderr of the command when there was any,
// so callers can match on what the tool printed.
type Error struct {
	Msg      string
	ExitCode int
	Err      error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Err }

// RunContext executes a command in dir, discarding its output.
func RunContext(ctx context.Context, dir, name string, args ...string) error {
	_, err := run(ctx, 0, dir, name, args...)
	return err
}

// OutputContext executes a command in dir and returns its stdout.
func OutputContext(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	return OutputTimeout(ctx, 0, dir, name, args...)
}

// OutputTimeout is OutputContext with an upper bound on the run time.
// A zero timeout means no bound beyond ctx.
func OutputTimeout(ctx context.Context, timeout time.Duration, dir, name string, args ...string) ([]byte, error) {
	res, err := run(ctx, timeout, dir, name, args...)
	if err != nil {
		return nil, err
	}
	return []byte(res.Stdout), nil
}

func run(ctx context.Context, timeout time.Duration, dir, name string, args ...string) (*exec.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var c exec.Executor = exec.New(exec.WithInheritEnv())
	c = c.WithContext(runCtx)
	if dir != "" {
		c = c.WithDir(dir)
	}

	done := log.FromContext(ctx).Command(dir, name, args...)
	start := time.Now()
	res, err := c.Run(append([]string{name}, args...)...)
	done(time.Since(start))

	if err == nil {
		return res, nil
	}

	// Cancellation by the caller wins over whatever the killed process printed.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, &Error{
			Msg:      fmt.Sprintf("%s %s: timed out after %s", name, strings.Join(args, " "), timeout),
			ExitCode: -1,
			Err:      context.DeadlineExceeded,
		}
	}

	var execErr *exec.ExecError
	if errors.As(err, &execErr) {
		msg := strings.TrimSpace(execErr.Stderr)
		if msg == "" {
			msg = execErr.Error()
		}
		return nil, &Error{Msg: msg, ExitCode: execErr.ExitCode, Err: execErr}
	}
	return nil, err
}
