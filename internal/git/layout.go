package git

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotRepository is returned by Discover when path has no git metadata.
var ErrNotRepository = errors.New("not a git repository")

// Layout locates the metadata directories of one working tree.
//
// For a normal clone GitDir and CommonDir are the same. For a linked
// worktree GitDir is .git/worktrees/<name> inside the main repository and
// CommonDir is the main repository's .git directory.
type Layout struct {
	WorkTree  string
	GitDir    string
	CommonDir string
}

// Discover resolves the layout of the working tree rooted at path.
// path must be the root of the working tree (the directory holding .git).
func Discover(path string) (Layout, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Layout{}, fmt.Errorf("resolve %s: %w", path, err)
	}

	dotGit := filepath.Join(abs, ".git")
	info, err := os.Stat(dotGit)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Layout{}, fmt.Errorf("%s: %w", abs, ErrNotRepository)
		}
		return Layout{}, fmt.Errorf("stat %s: %w", dotGit, err)
	}

	l := Layout{WorkTree: abs}
	if info.IsDir() {
		l.GitDir = dotGit
	} else {
		gitDir, err := readGitFile(dotGit)
		if err != nil {
			return Layout{}, err
		}
		l.GitDir = gitDir
	}

	l.CommonDir, err = readCommonDir(l.GitDir)
	if err != nil {
		return Layout{}, err
	}
	return l, nil
}

// readGitFile parses a ".git" file of the form "gitdir: <path>".
// Relative paths are relative to the directory holding the file.
func readGitFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	line := strings.TrimSpace(string(content))
	gitDir, ok := strings.CutPrefix(line, "gitdir:")
	if !ok {
		return "", fmt.Errorf("%s: invalid .git file format: %w", path, ErrNotRepository)
	}
	gitDir = strings.TrimSpace(gitDir)
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(filepath.Dir(path), gitDir)
	}
	return filepath.Clean(gitDir), nil
}

// readCommonDir returns the shared metadata directory of gitDir. Linked
// worktrees point at it through a "commondir" file; everything else shares
// gitDir itself.
func readCommonDir(gitDir string) (string, error) {
	content, err := os.ReadFile(filepath.Join(gitDir, "commondir"))
	if errors.Is(err, os.ErrNotExist) {
		return gitDir, nil
	}
	if err != nil {
		return "", fmt.Errorf("read commondir: %w", err)
	}

	dir := strings.TrimSpace(string(content))
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(gitDir, dir)
	}
	return filepath.Clean(dir), nil
}

// IndexPath is the staging area file.
func (l Layout) IndexPath() string {
	return filepath.Join(l.GitDir, "index")
}

// HeadPath is the file naming the checked-out ref.
func (l Layout) HeadPath() string {
	return filepath.Join(l.GitDir, "HEAD")
}

// WatchedFiles are the metadata files whose changes mean the working tree
// state moved.
func (l Layout) WatchedFiles() []string {
	return []string{l.IndexPath(), l.HeadPath()}
}

// LockArtifacts lists the lock files git leaves behind when a process dies
// mid-operation.
func (l Layout) LockArtifacts() []string {
	return []string{
		filepath.Join(l.GitDir, "index.lock"),
		filepath.Join(l.GitDir, "HEAD.lock"),
		filepath.Join(l.CommonDir, "config.lock"),
		filepath.Join(l.CommonDir, "packed-refs.lock"),
	}
}

// Stamp summarizes size and modification time of the watched metadata files.
// Two equal stamps mean git did not touch the index or HEAD in between.
// Missing files contribute a fixed marker so a fresh repository still stamps.
func (l Layout) Stamp() string {
	var b strings.Builder
	for i, path := range l.WatchedFiles() {
		if i > 0 {
			b.WriteByte('|')
		}
		info, err := os.Stat(path)
		if err != nil {
			b.WriteString("-")
			continue
		}
		fmt.Fprintf(&b, "%d:%d", info.Size(), info.ModTime().UnixNano())
	}
	return b.String()
}

// LockAge reports how long ago path was last modified.
func LockAge(path string, now time.Time) (time.Duration, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	return now.Sub(info.ModTime()), true
}
