package coord

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/raphi011/gitcoord/internal/cmd"
	"github.com/raphi011/gitcoord/internal/config"
)

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	if err := cmd.RunContext(context.Background(), dir, "git", args...); err != nil {
		t.Fatalf("git %v: %v", args, err)
	}
}

// setupTestRepo creates a git repo with main branch, initial commit, and git config.
func setupTestRepo(t *testing.T) string {
	t.Helper()
	tmpDir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	repo := filepath.Join(tmpDir, "repo")

	runGit(t, "", "init", "-b", "main", repo)
	runGit(t, repo, "config", "user.email", "test@test.com")
	runGit(t, repo, "config", "user.name", "Test User")
	runGit(t, repo, "config", "commit.gpgsign", "false")

	writeFile(t, filepath.Join(repo, "README.md"), "# test\n")
	runGit(t, repo, "add", "README.md")
	runGit(t, repo, "commit", "-m", "Initial commit")
	return repo
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// touchIndex moves the index mtime forward so fingerprints differ even on
// filesystems with coarse timestamps.
func touchIndex(t *testing.T, repo string) {
	t.Helper()
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(filepath.Join(repo, ".git", "index"), future, future); err != nil {
		t.Fatal(err)
	}
}

// testConfig is Default with fast retries and watcher timing.
func testConfig() config.Config {
	cfg := config.Default()
	cfg.Retry.BaseDelay = config.Duration{Duration: time.Millisecond}
	cfg.Watch.Debounce = config.Duration{Duration: 20 * time.Millisecond}
	cfg.Watch.Stability = config.Duration{Duration: 10 * time.Millisecond}
	return cfg
}
