// Package cache provides the in-memory result cache used to keep git
// status, diff and file content queries fast without polling.
//
// A [Cache] is a generic string-keyed store with two independent limits:
//
//   - Age: an entry is valid for Config.MaxAge after insertion. Reads never
//     extend its life; an expired entry is deleted when it is next read.
//   - Capacity: Config.MaxEntries and, optionally, Config.MaxSizeBytes.
//
// # Eviction
//
// When an insert exceeds a limit, entries are evicted one by one, lowest
// access count first and oldest timestamp among equals. This is not LRU:
// a status entry read many times survives a burst of newer, unread
// entries.
//
// # Hash gating
//
// Every entry carries a content [Hash] (16 hex characters). Callers that
// know the current content fingerprint use [Cache.GetIfHashMatches] so a
// stale value is never served after the underlying data changed, even
// inside the TTL window.
//
// # Invalidation
//
// Keys start with the repository path. [Cache.InvalidateByPrefix] drops all
// keys with a given string prefix; it is not path-segment aware, so
// invalidating "/repo/a" also drops keys under "/repo/ab".
//
// # Presets
//
//   - [StatusConfig]: 5s, 20 entries
//   - [DiffConfig]: 60s, 100 entries, 50 MiB
//   - [ContentConfig]: 5min, 500 entries, 100 MiB
package cache
