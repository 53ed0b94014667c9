package config

import (
	"errors"
	"slices"
	"strings"
	"time"

	perrors "github.com/jmgilman/go/errors"
)

// Validate checks value ranges. All problems are reported together as one
// CodeInvalidConfig error.
func (c Config) Validate() error {
	var errs []error

	if c.Retry.MaxRetries < 0 {
		errs = append(errs, perrors.Newf(perrors.CodeInvalidConfig, "retry.max_retries must not be negative, got %d", c.Retry.MaxRetries))
	}
	errs = append(errs,
		positive("retry.base_delay", c.Retry.BaseDelay.Duration),
		positive("retry.stale_lock_age", c.Retry.StaleLockAge.Duration),
		positive("timeouts.local", c.Timeouts.Local.Duration),
		positive("timeouts.network", c.Timeouts.Network.Duration),
		positive("timeouts.long", c.Timeouts.Long.Duration),
		positive("watch.debounce", c.Watch.Debounce.Duration),
	)
	if c.Watch.Stability.Duration < 0 {
		errs = append(errs, perrors.Newf(perrors.CodeInvalidConfig, "watch.stability must not be negative, got %s", c.Watch.Stability))
	}

	for _, section := range []struct {
		name  string
		entry CacheEntryConfig
	}{
		{"cache.status", c.Cache.Status},
		{"cache.diff", c.Cache.Diff},
		{"cache.content", c.Cache.Content},
	} {
		name, entry := section.name, section.entry
		errs = append(errs, positive(name+".max_age", entry.MaxAge.Duration))
		if entry.MaxEntries < 0 {
			errs = append(errs, perrors.Newf(perrors.CodeInvalidConfig, "%s.max_entries must not be negative, got %d", name, entry.MaxEntries))
		}
		if entry.MaxSize < 0 {
			errs = append(errs, perrors.Newf(perrors.CodeInvalidConfig, "%s.max_size must not be negative, got %d", name, entry.MaxSize))
		}
	}

	if !slices.Contains(ValidThemeNames, c.Theme.Name) {
		errs = append(errs, perrors.Newf(perrors.CodeInvalidConfig, "theme.name %q is not one of %s", c.Theme.Name, strings.Join(ValidThemeNames, ", ")))
	}
	if !slices.Contains(ValidThemeModes, c.Theme.Mode) {
		errs = append(errs, perrors.Newf(perrors.CodeInvalidConfig, "theme.mode %q is not one of %s", c.Theme.Mode, strings.Join(ValidThemeModes, ", ")))
	}

	if err := errors.Join(errs...); err != nil {
		return perrors.Wrap(err, perrors.CodeInvalidConfig, "invalid configuration")
	}
	return nil
}

func positive(field string, d time.Duration) error {
	if d > 0 {
		return nil
	}
	return perrors.Newf(perrors.CodeInvalidConfig, "%s must be positive, got %s", field, d)
}
