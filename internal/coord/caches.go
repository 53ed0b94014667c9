package coord

import (
	"strconv"

	"github.com/raphi011/gitcoord/internal/cache"
	"github.com/raphi011/gitcoord/internal/config"
	"github.com/raphi011/gitcoord/internal/git"
)

// Caches bundles the result caches shared by one Service.
//
// Every key starts with the repository path, so a repository's entries can
// be dropped by prefix.
type Caches struct {
	Status  *cache.Cache[git.Status]
	Diff    *cache.Cache[string]
	Content *cache.Cache[[]byte]
}

// NewCaches creates the three caches from cfg.
func NewCaches(cfg config.CachesConfig, opts ...cache.Option) *Caches {
	return &Caches{
		Status:  cache.New[git.Status](cfg.Status.CacheConfig(), opts...),
		Diff:    cache.New[string](cfg.Diff.CacheConfig(), opts...),
		Content: cache.New[[]byte](cfg.Content.CacheConfig(), opts...),
	}
}

// InvalidateAllFor removes every entry whose key starts with path from all
// three caches and returns how many were removed. The match is a plain
// string prefix: "/src/app" also matches "/src/app-old".
func (c *Caches) InvalidateAllFor(path string) int {
	return c.Status.InvalidateByPrefix(path) +
		c.Diff.InvalidateByPrefix(path) +
		c.Content.InvalidateByPrefix(path)
}

// Clear empties all caches.
func (c *Caches) Clear() {
	c.Status.Clear()
	c.Diff.Clear()
	c.Content.Clear()
}

func statusKey(repo string) string {
	return repo
}

func diffKey(repo, file string, staged bool) string {
	return repo + "\x00" + file + "\x00" + strconv.FormatBool(staged)
}

func contentKey(repo, rev, file string) string {
	return repo + "\x00" + rev + ":" + file
}
