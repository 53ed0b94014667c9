package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// FileLock is an exclusive advisory lock (flock) shared with other
// gitcoord processes. It guards read-modify-write cycles on state files.
type FileLock struct {
	path string
	file *os.File
}

// NewFileLock creates a lock backed by the file at path. The file is
// created on Lock and left in place afterwards.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

// Lock blocks until the lock is held.
func (l *FileLock) Lock() error {
	if l.file != nil {
		return errors.New("lock already held: " + l.path)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("open lock %s: %w", l.path, err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return fmt.Errorf("lock %s: %w", l.path, err)
	}
	l.file = f
	return nil
}

// Unlock releases the lock. Unlocking a lock that is not held is a no-op.
func (l *FileLock) Unlock() error {
	if l.file == nil {
		return nil
	}
	f := l.file
	l.file = nil

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// UpdateJSON loads path into dest, calls fn, and saves dest back, all
// while holding path's lock file. A missing file leaves dest untouched.
// Nothing is written when fn fails.
func UpdateJSON(path string, dest any, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	lock := NewFileLock(path + ".lock")
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()

	if err := LoadJSON(path, dest); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	return SaveJSON(path, dest)
}
