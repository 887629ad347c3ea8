package reporting

import (
	"archive/zip"
	"bytes"
	"embed"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
)

//go:embed templates/pptx.tmpl
var templateFS embed.FS

var pptxTemplates = template.Must(template.New("pptx").Funcs(template.FuncMap{
	"xml": xmlEscape,
}).ParseFS(templateFS, "templates/pptx.tmpl"))

// 16:9 slide size in EMU
const (
	slideWidth  = 12192000
	slideHeight = 6858000
	margin      = 457200
)

const (
	colorTitle = "003366"
	colorBody  = "404040"
)

type paragraphView struct {
	Text     string
	Size     int
	Bold     bool
	Bulleted bool
	Color    string
	Align    string
}

type boxView struct {
	ID         int
	Name       string
	X, Y       int
	CX, CY     int
	Paragraphs []paragraphView
}

type slideView struct {
	Number int
	ID     int
	RelID  string
	Boxes  []boxView
}

type deckView struct {
	Title   string
	Created string
	Width   int
	Height  int
	Slides  []slideView
}

func xmlEscape(s string) (string, error) {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return "", err
	}
	return b.String(), nil
}

// newDeckView positions the slide content. Slides with a subtitle use the
// centered title layout, the rest a title bar over a bulleted body.
func newDeckView(title string, slides []Slide, created time.Time) deckView {
	deck := deckView{
		Title:   title,
		Created: created.UTC().Format(time.RFC3339),
		Width:   slideWidth,
		Height:  slideHeight,
	}
	for i, s := range slides {
		view := slideView{Number: i + 1, ID: 256 + i, RelID: fmt.Sprintf("rId%d", i+3)}
		if s.Subtitle != "" {
			view.Boxes = titleSlideBoxes(s)
		} else {
			view.Boxes = contentSlideBoxes(s)
		}
		deck.Slides = append(deck.Slides, view)
	}
	return deck
}

func titleSlideBoxes(s Slide) []boxView {
	title := boxView{
		ID: 2, Name: "Title",
		X: 2 * margin, Y: 2286000, CX: slideWidth - 4*margin, CY: 1143000,
		Paragraphs: []paragraphView{{Text: s.Title, Size: 4400, Bold: true, Color: colorTitle, Align: "ctr"}},
	}
	subtitle := boxView{
		ID: 3, Name: "Subtitle",
		X: 2 * margin, Y: 3474720, CX: slideWidth - 4*margin, CY: 1463040,
	}
	for _, line := range strings.Split(s.Subtitle, "\n") {
		subtitle.Paragraphs = append(subtitle.Paragraphs, paragraphView{Text: line, Size: 2000, Color: colorBody, Align: "ctr"})
	}
	return []boxView{title, subtitle}
}

func contentSlideBoxes(s Slide) []boxView {
	title := boxView{
		ID: 2, Name: "Title",
		X: margin, Y: 274320, CX: slideWidth - 2*margin, CY: 914400,
		Paragraphs: []paragraphView{{Text: s.Title, Size: 3200, Bold: true, Color: colorTitle, Align: "l"}},
	}
	body := boxView{
		ID: 3, Name: "Content",
		X: margin, Y: 1280160, CX: slideWidth - 2*margin, CY: slideHeight - 1280160 - margin,
	}
	for _, b := range s.Body {
		body.Paragraphs = append(body.Paragraphs, paragraphView{
			Text:     b.Text,
			Size:     1800,
			Bold:     b.Level == 0,
			Bulleted: b.Level > 0,
			Color:    colorBody,
			Align:    "l",
		})
	}
	return []boxView{title, body}
}

// WriteDeck writes slides as a .pptx presentation
func WriteDeck(path, title string, slides []Slide, created time.Time) error {
	if len(slides) == 0 {
		return fmt.Errorf("deck has no slides")
	}
	deck := newDeckView(title, slides, created)

	type part struct {
		name     string
		template string
		data     interface{}
	}
	parts := []part{
		{"[Content_Types].xml", "content_types", deck},
		{"_rels/.rels", "package_rels", nil},
		{"docProps/core.xml", "core", deck},
		{"docProps/app.xml", "app", deck},
		{"ppt/presentation.xml", "presentation", deck},
		{"ppt/_rels/presentation.xml.rels", "presentation_rels", deck},
		{"ppt/slideMasters/slideMaster1.xml", "slide_master", nil},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", "slide_master_rels", nil},
		{"ppt/slideLayouts/slideLayout1.xml", "slide_layout", nil},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", "layout_rels", nil},
		{"ppt/theme/theme1.xml", "theme", nil},
	}
	for _, s := range deck.Slides {
		parts = append(parts,
			part{fmt.Sprintf("ppt/slides/slide%d.xml", s.Number), "slide", s},
			part{fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", s.Number), "slide_rels", nil},
		)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return err
		}
		if err := pptxTemplates.ExecuteTemplate(w, p.template, p.data); err != nil {
			return fmt.Errorf("failed to render %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
