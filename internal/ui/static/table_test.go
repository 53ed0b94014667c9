package static

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/raphi011/gitcoord/internal/git"
	"github.com/raphi011/gitcoord/internal/watch"
)

func plain(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = ansi.Strip(c)
	}
	return out
}

func TestStatusRow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		st   git.Status
		want []string
	}{
		{
			name: "clean in sync",
			st:   git.Status{Commit: "abc1234def5678", Branch: "main", Upstream: "origin/main"},
			want: []string{"app", "main", "abc1234", "=", "✓", ""},
		},
		{
			name: "dirty ahead and behind",
			st: git.Status{
				Commit: "abc1234def5678", Branch: "feature", Upstream: "origin/feature",
				Ahead: 2, Behind: 1,
				Staged:    []git.FileStatus{{Path: "a.go"}},
				Unstaged:  []git.FileStatus{{Path: "b.go"}, {Path: "c.go"}},
				Untracked: []string{"d.go"},
			},
			want: []string{"app", "feature", "abc1234", "↑2 ↓1", "●", "1 staged, 2 modified, 1 untracked"},
		},
		{
			name: "detached without upstream",
			st:   git.Status{Commit: "abc1234def5678", Detached: true},
			want: []string{"app", "(detached)", "abc1234", "-", "✓", ""},
		},
		{
			name: "conflict",
			st:   git.Status{Branch: "main", Conflicted: []string{"x.go"}},
			want: []string{"app", "main", "", "-", "✕", "1 conflicted"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := plain(StatusRow("app", tt.st))
			if len(got) != len(StatusHeaders) {
				t.Fatalf("StatusRow() has %d columns, want %d", len(got), len(StatusHeaders))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("column %s = %q, want %q", StatusHeaders[i], got[i], tt.want[i])
				}
			}
		})
	}
}

func TestErrorRow(t *testing.T) {
	t.Parallel()

	got := plain(ErrorRow("app", errors.New("fatal: not a git repository\nmore detail")))
	if len(got) != len(StatusHeaders) {
		t.Fatalf("ErrorRow() has %d columns, want %d", len(got), len(StatusHeaders))
	}
	if got[4] != "error" || got[5] != "fatal: not a git repository" {
		t.Errorf("ErrorRow() = %q", got)
	}
}

func TestRenderTable(t *testing.T) {
	t.Parallel()

	if got := RenderTable(StatusHeaders, nil); got != "" {
		t.Errorf("RenderTable(no rows) = %q, want empty", got)
	}

	out := ansi.Strip(RenderTable([]string{"REPO", "BRANCH"}, [][]string{
		{"api", "main"},
		{"frontend", "feature-x"},
	}))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("RenderTable() = %d lines, want 3:\n%s", len(lines), out)
	}
	col := strings.Index(lines[0], "BRANCH")
	if strings.Index(lines[1], "main") != col || strings.Index(lines[2], "feature-x") != col {
		t.Errorf("columns not aligned:\n%s", out)
	}
}

func TestFormatEvent(t *testing.T) {
	t.Parallel()

	ev := watch.Event{
		RepositoryPath: "/src/app",
		Timestamp:      time.Date(2026, 1, 2, 15, 4, 5, 6e6, time.UTC),
		Changes: []watch.FileChange{
			{Path: "/src/app/.git/HEAD", Type: watch.Change},
			{Path: "/src/app/.git/index", Type: watch.Add},
			{Path: "/src/app/.git/index.lock", Type: watch.Remove},
		},
	}

	got := ansi.Strip(FormatEvent("app", ev))
	want := "15:04:05.006 app\n" +
		"  ~ /src/app/.git/HEAD\n" +
		"  + /src/app/.git/index\n" +
		"  - /src/app/.git/index.lock\n"
	if got != want {
		t.Errorf("FormatEvent() = %q, want %q", got, want)
	}
}
