package retry

import (
	"io"
	"time"

	"github.com/raphi011/gitcoord/internal/lock"
	"github.com/raphi011/gitcoord/internal/log"
)

// Defaults applied by [Default].
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
)

// Cleaner removes lock artifacts older than maxAge for a repository.
type Cleaner interface {
	CleanStaleLocks(path string, maxAge time.Duration) error
}

// CleanerFunc adapts a function to the Cleaner interface.
type CleanerFunc func(path string, maxAge time.Duration) error

// CleanStaleLocks calls f.
func (f CleanerFunc) CleanStaleLocks(path string, maxAge time.Duration) error {
	return f(path, maxAge)
}

// Policy retries operations that fail because of a lock held by another
// git process.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// BaseDelay is the wait before the first retry; it doubles per retry.
	BaseDelay time.Duration
	// StaleAge is passed to Cleaner as the age beyond which a lock file
	// is considered abandoned.
	StaleAge time.Duration
	// Cleaner is consulted before each retry. May be nil.
	Cleaner Cleaner
	// Sleep waits between attempts. Defaults to time.Sleep.
	Sleep func(time.Duration)
	// Logger receives retry diagnostics. May be nil.
	Logger *log.Logger
}

// Option customizes a Policy.
type Option func(*Policy)

// WithMaxRetries overrides the retry count.
func WithMaxRetries(n int) Option {
	return func(p *Policy) { p.MaxRetries = n }
}

// WithBaseDelay overrides the base backoff delay.
func WithBaseDelay(d time.Duration) Option {
	return func(p *Policy) { p.BaseDelay = d }
}

// WithStaleAge sets the age passed to the Cleaner.
func WithStaleAge(d time.Duration) Option {
	return func(p *Policy) { p.StaleAge = d }
}

// WithCleaner sets the stale lock cleaner.
func WithCleaner(c Cleaner) Option {
	return func(p *Policy) { p.Cleaner = c }
}

// WithSleep replaces the function used to wait between attempts.
func WithSleep(sleep func(time.Duration)) Option {
	return func(p *Policy) { p.Sleep = sleep }
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(p *Policy) { p.Logger = l }
}

// Default returns a policy with 3 retries, a one second base delay and
// the default stale lock age.
func Default(opts ...Option) Policy {
	p := Policy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		StaleAge:   lock.DefaultStaleAge,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// With returns a copy of p with opts applied.
func (p Policy) With(opts ...Option) Policy {
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Delay returns the backoff before retry number attempt+1.
func (p Policy) Delay(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(1<<attempt)
}

// Execute runs op, retrying lock conflicts up to p.MaxRetries times, so op
// runs at most MaxRetries+1 times.
//
// Before each retry stale lock files for path are removed through the
// policy's Cleaner and the policy waits BaseDelay * 2^attempt. Errors that
// are not lock conflicts are returned immediately. Once retries are
// exhausted the error of the last attempt is returned as is.
func Execute[T any](p Policy, path string, op func() (T, error)) (T, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	logger := p.Logger
	if logger == nil {
		logger = log.New(io.Discard, false, true)
	}

	for attempt := 0; ; attempt++ {
		result, err := op()
		if err == nil {
			return result, nil
		}
		if !IsLockConflict(err) || attempt >= p.MaxRetries {
			return result, err
		}

		delay := p.Delay(attempt)
		logger.Debug("lock conflict, retrying", "path", path, "attempt", attempt+1, "delay", delay, "err", err)

		if p.Cleaner != nil {
			if cerr := p.Cleaner.CleanStaleLocks(path, p.StaleAge); cerr != nil {
				logger.Printf("Warning: stale lock cleanup for %s: %v\n", path, cerr)
			}
		}
		sleep(delay)
	}
}
