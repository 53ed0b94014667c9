// Package static renders non-interactive terminal output: status tables
// and watch event lines.
package static

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/raphi011/gitcoord/internal/git"
	"github.com/raphi011/gitcoord/internal/ui/styles"
)

// StatusHeaders are the columns produced by StatusRow.
var StatusHeaders = []string{"REPO", "BRANCH", "COMMIT", "SYNC", "STATE", "CHANGES"}

// RenderTable creates a formatted table with proper column alignment.
// Column widths are calculated by lipgloss/table. No borders are rendered.
func RenderTable(headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	t := table.New().
		Headers(headers...).
		Rows(rows...).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		BorderRow(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.HeaderStyle.PaddingRight(2)
			}
			return lipgloss.NewStyle().PaddingRight(2)
		})

	return t.String() + "\n"
}

// StatusRow formats one repository's status for StatusHeaders.
func StatusRow(name string, st git.Status) []string {
	branch := st.Branch
	if st.Detached || branch == "" {
		branch = styles.MutedStyle.Render("(detached)")
	}

	commit := st.Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}

	return []string{
		styles.AccentStyle.Render(name),
		branch,
		commit,
		syncCell(st),
		stateCell(st),
		changesCell(st),
	}
}

// ErrorRow formats a repository whose status could not be read.
func ErrorRow(name string, err error) []string {
	return []string{
		styles.AccentStyle.Render(name),
		"", "", "",
		styles.ErrorStyle.Render("error"),
		styles.ErrorStyle.Render(firstLine(err.Error())),
	}
}

func syncCell(st git.Status) string {
	if st.Upstream == "" {
		return styles.MutedStyle.Render("-")
	}
	sym := styles.CurrentSymbols()
	if st.Ahead == 0 && st.Behind == 0 {
		return styles.MutedStyle.Render("=")
	}
	var parts []string
	if st.Ahead > 0 {
		parts = append(parts, fmt.Sprintf("%s%d", sym.Ahead, st.Ahead))
	}
	if st.Behind > 0 {
		parts = append(parts, fmt.Sprintf("%s%d", sym.Behind, st.Behind))
	}
	return strings.Join(parts, " ")
}

func stateCell(st git.Status) string {
	sym := styles.CurrentSymbols()
	switch {
	case len(st.Conflicted) > 0:
		return styles.ConflictStyle.Render(sym.Conflict)
	case st.Clean():
		return styles.CleanStyle.Render(sym.Clean)
	default:
		return styles.DirtyStyle.Render(sym.Dirty)
	}
}

func changesCell(st git.Status) string {
	var parts []string
	add := func(n int, label string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, label))
		}
	}
	add(len(st.Staged), "staged")
	add(len(st.Unstaged), "modified")
	add(len(st.Untracked), "untracked")
	add(len(st.Conflicted), "conflicted")
	return strings.Join(parts, ", ")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
