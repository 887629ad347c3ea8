package reporting

import (
	"fmt"
	"strings"
)

// RenderText renders the document as the plain-text detailed report
func RenderText(doc Document) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(doc.Title) + "\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	for _, s := range doc.Sections {
		heading := strings.ToUpper(s.Heading)
		b.WriteString(heading + "\n")
		b.WriteString(strings.Repeat("-", len(heading)) + "\n")
		writeBody(&b, s)
		for _, sub := range s.Subsections {
			b.WriteString(strings.ToUpper(sub.Heading) + "\n")
			if sub.Description != "" {
				fmt.Fprintf(&b, "Description: %s\n", sub.Description)
			}
			b.WriteString(strings.Repeat("-", 30) + "\n")
			writeBody(&b, sub)
		}
	}
	return b.String()
}

func writeBody(b *strings.Builder, s Section) {
	for _, p := range s.Paragraphs {
		b.WriteString(p + "\n")
	}
	for _, item := range s.Items {
		b.WriteString(item.Text + "\n")
		if item.Detail != "" {
			b.WriteString("  " + item.Detail + "\n")
		}
	}
	for _, bullet := range s.Bullets {
		b.WriteString("• " + bullet + "\n")
	}
	if len(s.Paragraphs)+len(s.Items)+len(s.Bullets) > 0 {
		b.WriteString("\n")
	}
}
