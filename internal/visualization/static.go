package visualization

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"saebequity/domain/hypothesis"
)

// Static chart file names
const (
	StaticDistribution = "01_score_distribution.png"
	StaticGroups       = "02_group_comparison.png"
	StaticCorrelation  = "03_correlation_matrix.png"
	StaticHypotheses   = "04_hypothesis_results.png"
	StaticExecutive    = "05_executive_summary.png"
)

// StaticCharts lists the PNG files in render order
var StaticCharts = []string{
	StaticDistribution, StaticGroups, StaticCorrelation, StaticHypotheses, StaticExecutive,
}

var (
	colorMinority = color.RGBA{R: 214, G: 96, B: 77, A: 180}
	colorMajority = color.RGBA{R: 67, G: 147, B: 195, A: 180}
	colorAlpha    = color.RGBA{R: 200, A: 255}
	colorAccepted = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	colorRejected = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// RenderStatic draws one PNG chart into dir and returns its path
func RenderStatic(f *Figures, name, dir string) (string, error) {
	path := filepath.Join(dir, name)

	var err error
	switch name {
	case StaticDistribution:
		err = drawDistributions(f, path)
	case StaticGroups:
		err = drawGroupComparison(f, path)
	case StaticCorrelation:
		err = drawCorrelationMatrix(f, path)
	case StaticHypotheses:
		err = drawHypothesisResults(f, path)
	case StaticExecutive:
		err = drawExecutiveSummary(f, path)
	default:
		return "", fmt.Errorf("unknown static chart %q", name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to draw %s: %w", name, err)
	}
	return path, nil
}

// saveSideBySide lays plots out in one row and writes a PNG
func saveSideBySide(path string, width, height vg.Length, plots ...*plot.Plot) error {
	img := vgimg.New(width, height)
	dc := draw.New(img)

	tiles := draw.Tiles{
		Rows:      1,
		Cols:      len(plots),
		PadX:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	canvases := plot.Align([][]*plot.Plot{plots}, tiles, dc)
	for i, p := range plots {
		p.Draw(canvases[0][i])
	}

	w, err := os.Create(path)
	if err != nil {
		return err
	}
	defer w.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return err
	}
	return w.Close()
}

func histogramPlot(title string, minority, majority []float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Score"
	p.Y.Label.Text = "Frequency"
	p.Legend.Top = true

	for _, series := range []struct {
		name string
		data []float64
		fill color.Color
	}{
		{"Minority", minority, colorMinority},
		{"Non-minority", majority, colorMajority},
	} {
		if len(series.data) == 0 {
			continue
		}
		h, err := plotter.NewHist(plotter.Values(series.data), histogramBins)
		if err != nil {
			return nil, err
		}
		h.FillColor = series.fill
		h.LineStyle.Width = 0
		p.Add(h)
		p.Legend.Add(series.name, h)
	}
	return p, nil
}

func drawDistributions(f *Figures, path string) error {
	maths, err := histogramPlot("Maths score distribution", f.MinorityMath, f.MajorityMath)
	if err != nil {
		return err
	}
	portuguese, err := histogramPlot("Portuguese score distribution", f.MinorityPort, f.MajorityPort)
	if err != nil {
		return err
	}
	return saveSideBySide(path, 15*vg.Inch, 6*vg.Inch, maths, portuguese)
}

func boxPlot(title string, minority, majority []float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Score"

	width := vg.Points(60)
	for i, series := range []struct {
		data []float64
		fill color.Color
	}{
		{minority, colorMinority},
		{majority, colorMajority},
	} {
		if len(series.data) == 0 {
			continue
		}
		b, err := plotter.NewBoxPlot(width, float64(i), plotter.Values(series.data))
		if err != nil {
			return nil, err
		}
		b.FillColor = series.fill
		p.Add(b)
	}
	p.NominalX("Minority", "Non-minority")
	return p, nil
}

func drawGroupComparison(f *Figures, path string) error {
	maths, err := boxPlot("Maths score by group", f.MinorityMath, f.MajorityMath)
	if err != nil {
		return err
	}
	portuguese, err := boxPlot("Portuguese score by group", f.MinorityPort, f.MajorityPort)
	if err != nil {
		return err
	}
	return saveSideBySide(path, 15*vg.Inch, 6*vg.Inch, maths, portuguese)
}

// correlationGrid adapts a correlation matrix to plotter.GridXYZ with row 0 at the top
type correlationGrid struct {
	values [][]float64
}

func (g correlationGrid) Dims() (c, r int) { return len(g.values), len(g.values) }
func (g correlationGrid) Z(c, r int) float64 {
	return g.values[len(g.values)-1-r][c]
}
func (g correlationGrid) X(c int) float64 { return float64(c) }
func (g correlationGrid) Y(r int) float64 { return float64(r) }

func drawCorrelationMatrix(f *Figures, path string) error {
	m := f.Correlation
	if len(m.Values) == 0 {
		return fmt.Errorf("correlation matrix is empty")
	}

	colors := moreland.SmoothBlueRed()
	colors.SetMin(-1)
	colors.SetMax(1)

	heat := plotter.NewHeatMap(correlationGrid{values: m.Values}, colors.Palette(255))
	heat.Min, heat.Max = -1, 1

	p := plot.New()
	p.Title.Text = "Correlation matrix"
	p.Add(heat)

	n := len(m.Labels)
	var cells plotter.XYLabels
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			cells.XYs = append(cells.XYs, plotter.XY{X: float64(c), Y: float64(n - 1 - r)})
			cells.Labels = append(cells.Labels, fmt.Sprintf("%.2f", m.Values[r][c]))
		}
	}
	labels, err := plotter.NewLabels(cells)
	if err != nil {
		return err
	}
	p.Add(labels)

	reversed := make([]string, n)
	for i, l := range m.Labels {
		reversed[n-1-i] = l
	}
	p.NominalX(m.Labels...)
	p.NominalY(reversed...)

	return p.Save(10*vg.Inch, 8*vg.Inch, path)
}

// thresholdLine is a dashed horizontal line at y across n nominal positions
func thresholdLine(n int, y float64) (*plotter.Line, error) {
	line, err := plotter.NewLine(plotter.XYs{{X: -0.5, Y: y}, {X: float64(n) - 0.5, Y: y}})
	if err != nil {
		return nil, err
	}
	line.LineStyle.Color = colorAlpha
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	return line, nil
}

func summaryTitles(f *Figures) []string {
	titles := make([]string, len(f.Summary))
	for i, s := range f.Summary {
		titles[i] = fmt.Sprintf("H%d", s.Key.Number())
	}
	return titles
}

func drawHypothesisResults(f *Figures, path string) error {
	if len(f.Summary) == 0 {
		return fmt.Errorf("no hypothesis results to chart")
	}
	pValues := make(plotter.Values, len(f.Summary))
	effects := make(plotter.Values, len(f.Summary))
	for i, s := range f.Summary {
		pValues[i] = s.MinPValue
		effects[i] = s.MaxEffect
	}

	significance := plot.New()
	significance.Title.Text = "Statistical significance of the hypotheses"
	significance.Y.Label.Text = "Smallest p-value"
	bars, err := plotter.NewBarChart(pValues, vg.Points(40))
	if err != nil {
		return err
	}
	bars.Color = colorMajority
	line, err := thresholdLine(len(f.Summary), hypothesis.Alpha)
	if err != nil {
		return err
	}
	significance.Add(bars, line)
	significance.Legend.Add(fmt.Sprintf("alpha = %.2f", hypothesis.Alpha), line)
	significance.Legend.Top = true
	significance.NominalX(summaryTitles(f)...)

	effect := plot.New()
	effect.Title.Text = "Effect size of the hypotheses"
	effect.Y.Label.Text = "Largest |mean difference|"
	effectBars, err := plotter.NewBarChart(effects, vg.Points(40))
	if err != nil {
		return err
	}
	effectBars.Color = colorMinority
	effect.Add(effectBars)
	effect.NominalX(summaryTitles(f)...)

	return saveSideBySide(path, 15*vg.Inch, 6*vg.Inch, significance, effect)
}

// drawExecutiveSummary plots -log10(p) per hypothesis, split into confirmed and rejected bars
func drawExecutiveSummary(f *Figures, path string) error {
	if len(f.Summary) == 0 {
		return fmt.Errorf("no hypothesis results to chart")
	}
	confirmed := make(plotter.Values, len(f.Summary))
	rejected := make(plotter.Values, len(f.Summary))
	accepted := 0
	for i, s := range f.Summary {
		score := -math.Log10(math.Max(s.MinPValue, 1e-300))
		if s.Confirmed {
			confirmed[i] = score
			accepted++
		} else {
			rejected[i] = score
		}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Hypothesis test results: %d of %d confirmed", accepted, len(f.Summary))
	p.Y.Label.Text = "-log10(p)"
	p.Legend.Top = true

	width := vg.Points(50)
	confirmedBars, err := plotter.NewBarChart(confirmed, width)
	if err != nil {
		return err
	}
	confirmedBars.Color = colorAccepted
	rejectedBars, err := plotter.NewBarChart(rejected, width)
	if err != nil {
		return err
	}
	rejectedBars.Color = colorRejected

	threshold, err := thresholdLine(len(f.Summary), -math.Log10(hypothesis.Alpha))
	if err != nil {
		return err
	}

	p.Add(confirmedBars, rejectedBars, threshold)
	p.Legend.Add("Confirmed", confirmedBars)
	p.Legend.Add("Rejected", rejectedBars)
	p.Legend.Add("Significance threshold", threshold)

	titles := make([]string, len(f.Summary))
	for i, s := range f.Summary {
		titles[i] = s.Title
	}
	p.NominalX(titles...)

	return p.Save(12*vg.Inch, 7*vg.Inch, path)
}
