package cache

import "time"

const mb = 1 << 20

// StatusConfig is for working tree status: revalidated often, small.
func StatusConfig() Config {
	return Config{MaxAge: 5 * time.Second, MaxEntries: 20}
}

// DiffConfig is for diffs. Callers always read it through
// GetIfHashMatches so a content change invalidates within the TTL.
func DiffConfig() Config {
	return Config{MaxAge: time.Minute, MaxEntries: 100, MaxSizeBytes: 50 * mb}
}

// ContentConfig is for file contents at a resolved revision.
func ContentConfig() Config {
	return Config{MaxAge: 5 * time.Minute, MaxEntries: 500, MaxSizeBytes: 100 * mb}
}
