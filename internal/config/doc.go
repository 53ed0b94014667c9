// Package config handles loading and validation of gitcoord configuration.
//
// Configuration is read from ~/.config/gitcoord/config.toml, or from the file
// named by GITCOORD_CONFIG. A missing file means defaults. Keys absent from
// the file keep their default values; unknown keys are rejected.
//
// # Sections
//
//	[retry]            max_retries, base_delay, stale_lock_age
//	[timeouts]         local, network, long
//	[watch]            debounce, stability
//	[cache.status]     max_age, max_entries, max_size
//	[cache.diff]       (same keys)
//	[cache.content]    (same keys)
//	[theme]            name, mode
//
// Durations are strings in Go syntax ("100ms", "2m"). Sizes are integers or
// strings with a KB/MB/GB suffix.
//
// Invalid files produce an error with code INVALID_CONFIGURATION from
// github.com/jmgilman/go/errors, alongside Default().
package config
