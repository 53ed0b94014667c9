package static

import (
	"fmt"
	"strings"

	"github.com/raphi011/gitcoord/internal/ui/styles"
	"github.com/raphi011/gitcoord/internal/watch"
)

// FormatEvent renders a change batch as one header line for the
// repository followed by one indented line per changed file.
func FormatEvent(name string, ev watch.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n",
		styles.MutedStyle.Render(ev.Timestamp.Format("15:04:05.000")),
		styles.AccentStyle.Render(name))
	for _, c := range ev.Changes {
		fmt.Fprintf(&b, "  %s %s\n", changeMarker(c.Type), c.Path)
	}
	return b.String()
}

func changeMarker(t watch.ChangeType) string {
	sym := styles.CurrentSymbols()
	switch t {
	case watch.Add:
		return styles.AddedStyle.Render(sym.Added)
	case watch.Remove:
		return styles.RemovedStyle.Render(sym.Removed)
	default:
		return styles.ModifiedStyle.Render(sym.Modified)
	}
}
