package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/raphi011/gitcoord/internal/cmd"
	"github.com/raphi011/gitcoord/internal/config"
	"github.com/raphi011/gitcoord/internal/output"
	"github.com/raphi011/gitcoord/internal/storage"
)

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	if err := cmd.RunContext(context.Background(), dir, "git", args...); err != nil {
		t.Fatalf("git %v: %v", args, err)
	}
}

// setupTestRepo creates a git repo named name with an initial commit.
// Returns the absolute path with symlinks resolved.
func setupTestRepo(t *testing.T, name string) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	repo := filepath.Join(dir, name)

	runGit(t, "", "init", "-b", "main", repo)
	runGit(t, repo, "config", "user.email", "test@test.com")
	runGit(t, repo, "config", "user.name", "Test User")
	runGit(t, repo, "config", "commit.gpgsign", "false")

	writeFile(t, filepath.Join(repo, "README.md"), "# "+name+"\n")
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

// isolate points the registry and config file at a temp dir.
// Tests calling it cannot run in parallel.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(storage.EnvHome, filepath.Join(dir, "state"))
	t.Setenv(config.EnvConfigPath, filepath.Join(dir, "config.toml"))
}

// testConfig is Default with fast retries and watcher timing.
func testConfig() config.Config {
	cfg := config.Default()
	cfg.Retry.BaseDelay = config.Duration{Duration: time.Millisecond}
	cfg.Watch.Debounce = config.Duration{Duration: 20 * time.Millisecond}
	cfg.Watch.Stability = config.Duration{Duration: 10 * time.Millisecond}
	return cfg
}

// execute runs the command line and returns what it printed to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	ctx := output.WithPrinter(context.Background(), &buf)

	root := newRootCmd(testConfig())
	root.SetArgs(append([]string{"--quiet"}, args...))
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(ctx)
	return buf.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("gitcoord %v: %v\n%s", args, err, out)
	}
	return out
}
