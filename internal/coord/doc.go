// Package coord ties the building blocks together for callers that operate
// on many repositories at once.
//
// A [Service] owns a per-repository lock coordinator, a retry policy, the
// status/diff/content caches and a watcher registry. Mutations go through
// the lock and the retry policy and drop the repository's cached results
// when done; watcher events drop them as well.
package coord
