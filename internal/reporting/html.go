package reporting

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// RenderMarkdown renders the document as markdown
func RenderMarkdown(doc Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", doc.Title)

	for _, s := range doc.Sections {
		fmt.Fprintf(&b, "## %s\n\n", s.Heading)
		writeMarkdownBody(&b, s)
		for _, sub := range s.Subsections {
			fmt.Fprintf(&b, "### %s\n\n", sub.Heading)
			if sub.Description != "" {
				fmt.Fprintf(&b, "*%s*\n\n", sub.Description)
			}
			writeMarkdownBody(&b, sub)
		}
	}
	return b.String()
}

func writeMarkdownBody(b *strings.Builder, s Section) {
	for _, p := range s.Paragraphs {
		fmt.Fprintf(b, "%s\n\n", p)
	}
	if len(s.Items) > 0 {
		for _, item := range s.Items {
			fmt.Fprintf(b, "- %s\n", item.Text)
			if item.Detail != "" {
				fmt.Fprintf(b, "    - %s\n", item.Detail)
			}
		}
		b.WriteString("\n")
	}
	if len(s.Bullets) > 0 {
		for _, bullet := range s.Bullets {
			fmt.Fprintf(b, "- %s\n", bullet)
		}
		b.WriteString("\n")
	}
}

// RenderHTML renders the document as a complete HTML page
func RenderHTML(doc Document) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	root := p.Parse([]byte(RenderMarkdown(doc)))

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: doc.Title,
	})
	return markdown.Render(root, renderer)
}
