package tester

import (
	"fmt"
	"strings"

	"saebequity/domain/hypothesis"
)

// SummaryReport renders the plain-text digest of a report: each test with its
// significance and p-value, then each correlation coefficient.
func SummaryReport(report hypothesis.Report) string {
	if len(report.Results) == 0 {
		return "No tests have been run yet.\n"
	}

	var b strings.Builder
	b.WriteString("EDUCATIONAL EQUITY ANALYSIS REPORT\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	for _, res := range report.Results {
		fmt.Fprintf(&b, "HYPOTHESIS: %s\n", res.Title)
		fmt.Fprintf(&b, "Description: %s\n", res.Description)
		b.WriteString(strings.Repeat("-", 30) + "\n")

		for _, t := range res.Tests {
			fmt.Fprintf(&b, "%s: %s (p = %.4f)\n", t.Name, Significance(t.Significant), t.PValue)
		}
		for _, c := range res.Correlations {
			fmt.Fprintf(&b, "%s: %.4f\n", c.Name, c.R)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Significance labels a test outcome
func Significance(significant bool) string {
	if significant {
		return "SIGNIFICANT"
	}
	return "NOT SIGNIFICANT"
}
