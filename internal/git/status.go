package git

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// FileStatus is one changed path in the working tree. Index and WorkTree
// are the porcelain X and Y letters, '.' meaning unchanged.
type FileStatus struct {
	Path     string `json:"path"`
	OrigPath string `json:"orig_path,omitempty"`
	Index    byte   `json:"-"`
	WorkTree byte   `json:"-"`
	Code     string `json:"code"`
}

// Status is a parsed `git status --porcelain=v2 --branch`.
type Status struct {
	Commit     string       `json:"commit,omitempty"`
	Branch     string       `json:"branch,omitempty"`
	Detached   bool         `json:"detached,omitempty"`
	Upstream   string       `json:"upstream,omitempty"`
	Ahead      int          `json:"ahead"`
	Behind     int          `json:"behind"`
	Staged     []FileStatus `json:"staged,omitempty"`
	Unstaged   []FileStatus `json:"unstaged,omitempty"`
	Untracked  []string     `json:"untracked,omitempty"`
	Conflicted []string     `json:"conflicted,omitempty"`
}

// Clean reports whether nothing is staged, modified, untracked or conflicted.
func (s Status) Clean() bool {
	return len(s.Staged) == 0 && len(s.Unstaged) == 0 &&
		len(s.Untracked) == 0 && len(s.Conflicted) == 0
}

// Status runs git status in dir and parses the result. It does not refresh
// the index, so it never contends for index.lock.
func (r *Runner) Status(ctx context.Context, dir string) (Status, error) {
	out, err := r.Run(ctx, ClassLocal, dir, "--no-optional-locks", "status", "--porcelain=v2", "--branch", "-z")
	if err != nil {
		return Status{}, err
	}
	return ParseStatus(out)
}

// ParseStatus parses NUL-separated porcelain v2 output (`-z`).
func ParseStatus(out string) (Status, error) {
	var s Status
	entries := strings.Split(out, "\x00")

	for i := 0; i < len(entries); i++ {
		entry := entries[i]
		if entry == "" {
			continue
		}

		switch entry[0] {
		case '#':
			if err := s.parseHeader(entry); err != nil {
				return Status{}, err
			}
		case '1':
			f := strings.SplitN(entry, " ", 9)
			if len(f) != 9 {
				return Status{}, fmt.Errorf("malformed status entry %q", entry)
			}
			s.addChange(f[1], f[8], "")
		case '2':
			f := strings.SplitN(entry, " ", 10)
			if len(f) != 10 {
				return Status{}, fmt.Errorf("malformed rename entry %q", entry)
			}
			// With -z the original path is the following field.
			i++
			if i >= len(entries) {
				return Status{}, fmt.Errorf("rename entry %q missing original path", entry)
			}
			s.addChange(f[1], f[9], entries[i])
		case 'u':
			f := strings.SplitN(entry, " ", 11)
			if len(f) != 11 {
				return Status{}, fmt.Errorf("malformed unmerged entry %q", entry)
			}
			s.Conflicted = append(s.Conflicted, f[10])
		case '?':
			s.Untracked = append(s.Untracked, strings.TrimPrefix(entry, "? "))
		case '!':
			// ignored files are not reported
		default:
			return Status{}, fmt.Errorf("unknown status entry %q", entry)
		}
	}
	return s, nil
}

func (s *Status) parseHeader(line string) error {
	key, value, _ := strings.Cut(strings.TrimPrefix(line, "# "), " ")
	switch key {
	case "branch.oid":
		if value != "(initial)" {
			s.Commit = value
		}
	case "branch.head":
		if value == "(detached)" {
			s.Detached = true
		} else {
			s.Branch = value
		}
	case "branch.upstream":
		s.Upstream = value
	case "branch.ab":
		ahead, behind, ok := strings.Cut(value, " ")
		if !ok {
			return fmt.Errorf("malformed branch.ab header %q", line)
		}
		var err error
		if s.Ahead, err = strconv.Atoi(strings.TrimPrefix(ahead, "+")); err != nil {
			return fmt.Errorf("malformed ahead count %q: %w", ahead, err)
		}
		if s.Behind, err = strconv.Atoi(strings.TrimPrefix(behind, "-")); err != nil {
			return fmt.Errorf("malformed behind count %q: %w", behind, err)
		}
	}
	return nil
}

func (s *Status) addChange(xy, path, orig string) {
	if len(xy) != 2 {
		return
	}
	fs := FileStatus{Path: path, OrigPath: orig, Index: xy[0], WorkTree: xy[1], Code: xy}
	if xy[0] != '.' {
		s.Staged = append(s.Staged, fs)
	}
	if xy[1] != '.' {
		s.Unstaged = append(s.Unstaged, fs)
	}
}
