package visualization

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"saebequity/domain/hypothesis"
)

// Interactive page names, written as <name>.html
const (
	PageOverview = "overview_dashboard"
	PageSummary  = "statistical_summary"
)

const (
	chartWidth  = "900px"
	chartHeight = "480px"
)

// InteractivePages lists every HTML page in render order
func InteractivePages() []string {
	pages := []string{PageOverview}
	for _, key := range hypothesis.Keys {
		pages = append(pages, string(key))
	}
	return append(pages, PageSummary)
}

// RenderInteractive writes one go-echarts page to dir and returns its path
func RenderInteractive(f *Figures, name, dir string) (string, error) {
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)

	switch name {
	case PageOverview:
		page.PageTitle = "Educational equity analysis dashboard"
		page.AddCharts(overviewCharts(f)...)
	case string(hypothesis.KeySegregation):
		page.PageTitle = "Hypothesis 1: socio-spatial segregation"
		page.AddCharts(segregationCharts(f)...)
	case string(hypothesis.KeyTeacherQuality):
		page.PageTitle = "Hypothesis 2: teacher quality"
		page.AddCharts(teacherQualityCharts(f)...)
	case string(hypothesis.KeyCulturalCapital):
		page.PageTitle = "Hypothesis 3: cultural capital"
		page.AddCharts(culturalCapitalCharts(f)...)
	case string(hypothesis.KeyPeerEffect):
		page.PageTitle = "Hypothesis 4: peer effect"
		page.AddCharts(peerEffectCharts(f)...)
	case PageSummary:
		page.PageTitle = "Statistical results summary"
		page.AddCharts(summaryCharts(f)...)
	default:
		return "", fmt.Errorf("unknown interactive page %q", name)
	}

	path := filepath.Join(dir, name+".html")
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := page.Render(file); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return path, nil
}

func initOpts(title string) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		PageTitle: title,
		Width:     chartWidth,
		Height:    chartHeight,
	})
}

func newBar(title, subtitle, yName string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts(title),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
	)
	return bar
}

func newScatter(title, xName, yName string) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		initOpts(title),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: xName, Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName, Type: "value"}),
	)
	return scatter
}

func newBoxPlot(title, yName string, names []string, groups [][]float64) *charts.BoxPlot {
	box := charts.NewBoxPlot()
	box.SetGlobalOptions(
		initOpts(title),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
	)
	data := make([]opts.BoxPlotData, len(groups))
	for i, g := range groups {
		data[i] = opts.BoxPlotData{Name: names[i], Value: FiveNumber(g)}
	}
	box.SetXAxis(names).AddSeries(yName, data)
	return box
}

func barData(values ...float64) []opts.BarData {
	out := make([]opts.BarData, len(values))
	for i, v := range values {
		out[i] = opts.BarData{Value: round4(v)}
	}
	return out
}

func scatterData(points []Point) []opts.ScatterData {
	out := make([]opts.ScatterData, len(points))
	for i, p := range points {
		out[i] = opts.ScatterData{Value: []float64{round4(p.X), round4(p.Y)}}
	}
	return out
}

func overviewCharts(f *Figures) []components.Charter {
	hist := ScoreHistogram(f)
	distribution := newBar("Score distribution", fmt.Sprintf("%d students", f.Students), "Students")
	distribution.SetXAxis(hist.BinLabels()).
		AddSeries("Maths", barData(hist.Counts["Maths"]...)).
		AddSeries("Portuguese", barData(hist.Counts["Portuguese"]...))

	nse := newScatter("NSE vs maths score", "NSE", "Maths score")
	nse.AddSeries("Students", scatterData(f.NSEMath))

	if len(f.Schools) == 0 {
		return []components.Charter{distribution, nse}
	}

	codes := make([]string, len(f.Schools))
	shares := make([]float64, len(f.Schools))
	points := make([]Point, len(f.Schools))
	for i, s := range f.Schools {
		codes[i] = s.Code
		shares[i] = s.MinorityShare * 100
		points[i] = Point{s.GoodInfraShare, s.MeanMath}
	}
	perSchool := newBar("Minority share per school", "", "% minority")
	perSchool.SetXAxis(codes).AddSeries("% minority", barData(shares...))

	infra := newScatter("Infrastructure vs performance", "Good-infrastructure share", "Mean maths score")
	infra.AddSeries("Schools", scatterData(points))

	return []components.Charter{distribution, perSchool, nse, infra}
}

func concentrationLabels(f *Figures) []string {
	return []string{f.Low.Label, f.High.Label}
}

func segregationCharts(f *Figures) []components.Charter {
	infra := newBar("Infrastructure by minority concentration", "", "Good-infrastructure share")
	infra.SetXAxis(concentrationLabels(f)).
		AddSeries("Good infrastructure", barData(f.Low.GoodInfraShare, f.High.GoodInfraShare))

	scores := newBar("Performance by minority concentration", "", "Mean maths score")
	scores.SetXAxis(concentrationLabels(f)).
		AddSeries("Maths", barData(f.Low.MeanMath, f.High.MeanMath))

	return []components.Charter{infra, scores}
}

func teacherQualityCharts(f *Figures) []components.Charter {
	share := newBar("Teacher qualification by minority concentration", "", "Qualified-teacher share")
	share.SetXAxis(concentrationLabels(f)).
		AddSeries("Qualified teachers", barData(f.Low.QualifiedShare, f.High.QualifiedShare))

	points := make([]Point, len(f.Schools))
	for i, s := range f.Schools {
		points[i] = Point{s.QualifiedShare, s.MeanMath}
	}
	impact := newScatter("Teacher qualification vs performance", "Qualified-teacher share", "Mean maths score")
	impact.AddSeries("Schools", scatterData(points))

	return []components.Charter{share, impact}
}

func culturalCapitalCharts(f *Figures) []components.Charter {
	box := newBoxPlot("Cultural capital by group", "Cultural capital",
		[]string{"Minority", "Non-minority"}, [][]float64{f.MinorityCapital, f.MajorityCapital})

	scatter := newScatter("Cultural capital vs maths score", "Cultural capital", "Maths score")
	scatter.AddSeries("Students", scatterData(f.CapitalMath))

	return []components.Charter{box, scatter}
}

func peerEffectCharts(f *Figures) []components.Charter {
	box := newBoxPlot("Performance by minority-concentration quartile", "Maths score",
		[]string{"Q1 (low)", "Q2", "Q3", "Q4 (high)"}, f.PeerQuartiles[:])

	scatter := newScatter("School minority share vs maths score", "School minority share", "Maths score")
	scatter.AddSeries("Students", scatterData(f.PeerMath))

	return []components.Charter{box, scatter}
}

func summaryCharts(f *Figures) []components.Charter {
	titles := make([]string, len(f.Summary))
	pValues := make([]float64, len(f.Summary))
	effects := make([]float64, len(f.Summary))
	for i, s := range f.Summary {
		titles[i] = s.Title
		pValues[i] = s.MinPValue
		effects[i] = s.MaxEffect
	}

	significance := newBar("Statistical significance", "smallest p-value per hypothesis", "p-value")
	significance.SetXAxis(titles).AddSeries("p-value", barData(pValues...),
		charts.WithMarkLineNameYAxisItemOpts(opts.MarkLineNameYAxisItem{
			Name:  fmt.Sprintf("alpha = %.2f", hypothesis.Alpha),
			YAxis: hypothesis.Alpha,
		}))

	effect := newBar("Effect size", "largest absolute mean difference per hypothesis", "|effect|")
	effect.SetXAxis(titles).AddSeries("|effect|", barData(effects...))

	return []components.Charter{significance, effect}
}
