package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/chazuruo/relagit/internal/dispatch"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#e56269"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// printReport writes a dispatch report. A nil report means the dispatch was
// handed off to the background.
func printReport(w io.Writer, event string, report *dispatch.Report) {
	if report == nil {
		fmt.Fprintf(w, "%s dispatched in the background\n", event)
		return
	}
	if report.Matched() == 0 {
		fmt.Fprintf(w, "%s\n", dimStyle.Render(fmt.Sprintf("no workflows subscribed to %s", event)))
		return
	}

	for _, wf := range report.Workflows {
		if wf.Success {
			fmt.Fprintf(w, "%s %s %s\n", okStyle.Render("✓"), wf.Name,
				dimStyle.Render(fmt.Sprintf("(%d steps, %s)", wf.StepsRun(), wf.Duration.Round(time.Millisecond))))
			continue
		}
		fmt.Fprintf(w, "%s %s\n", failStyle.Render("✗"), wf.Name)
		fmt.Fprintf(w, "  %s\n", wf.Err)
	}

	failed := len(report.Failed())
	fmt.Fprintf(w, "\n%s: %d workflow(s), %d failed\n", event, report.Matched(), failed)
}
