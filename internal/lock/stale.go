package lock

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// DefaultStaleAge is how old a lock artifact must be before it is presumed
// abandoned by a crashed process.
const DefaultStaleAge = 5 * time.Minute

// CleanStale removes every artifact in paths whose modification time is
// older than maxAge relative to now. It returns the paths it removed.
//
// An artifact that does not exist, or disappears between stat and remove,
// is skipped. Any other filesystem error is collected and returned; removal
// of the remaining artifacts continues regardless.
//
// Removing an artifact has no effect on the in-process [Coordinator].
func CleanStale(paths []string, maxAge time.Duration, now time.Time) ([]string, error) {
	var removed []string
	var errs []error

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			errs = append(errs, fmt.Errorf("stat lock %s: %w", p, err))
			continue
		}

		if now.Sub(info.ModTime()) <= maxAge {
			continue
		}

		if err := os.Remove(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			errs = append(errs, fmt.Errorf("remove stale lock %s: %w", p, err))
			continue
		}
		removed = append(removed, p)
	}

	return removed, errors.Join(errs...)
}
