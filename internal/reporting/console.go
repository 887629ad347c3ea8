package reporting

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"saebequity/domain/dataset"
	"saebequity/domain/hypothesis"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))
	confirmedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#2CA02C"))
	rejectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

// ConsoleSummary renders the end-of-run terminal panel
func ConsoleSummary(summary dataset.Summary, report hypothesis.Report, bundle Bundle) string {
	head := headerStyle.Render("EDUCATIONAL EQUITY ANALYSIS")
	data := mutedStyle.Render(fmt.Sprintf("%s students · %s data · alpha = %.2f",
		thousands(summary.Students), summary.Source, report.Alpha))

	rows := make([]string, 0, len(report.Results))
	for _, res := range report.Results {
		verdict := rejectedStyle.Render("✗ rejected ")
		if res.Confirmed {
			verdict = confirmedStyle.Render("✓ confirmed")
		}
		rows = append(rows, fmt.Sprintf("%s  H%d %-26s p = %.4f",
			verdict, res.Key.Number(), res.Title, res.PValue()))
	}
	results := strings.Join(rows, "\n")
	tally := fmt.Sprintf("%d of %d hypotheses confirmed", report.Confirmed(), len(report.Results))

	files := mutedStyle.Render(strings.Join(bundle.Files(), "\n"))

	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		head, data, "", results, "", tally, "", files,
	))
}
