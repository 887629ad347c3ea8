package reporting

import (
	"fmt"

	"saebequity/domain/dataset"
	"saebequity/domain/hypothesis"
)

// Bullet is one paragraph of a slide body. Level 0 paragraphs are headings
// inside the body, level 1 are bulleted.
type Bullet struct {
	Text  string
	Level int
}

// Slide is the content of one deck slide
type Slide struct {
	Title    string
	Subtitle string
	Body     []Bullet
}

func heading(text string) Bullet { return Bullet{Text: text} }
func bullet(text string) Bullet  { return Bullet{Text: text, Level: 1} }

func bullets(lines ...string) []Bullet {
	out := make([]Bullet, len(lines))
	for i, l := range lines {
		out[i] = bullet(l)
	}
	return out
}

// BuildDeck lays out the presentation: title, objectives, methodology, data
// overview, one slide per hypothesis, results summary and conclusions
func BuildDeck(summary dataset.Summary, report hypothesis.Report) []Slide {
	slides := []Slide{
		{
			Title: "Educational equity analysis",
			Subtitle: "Causes of the performance gap of minority students in SAEB\n" +
				fmt.Sprintf("Statistical analysis of %d hypotheses", len(hypothesis.Keys)),
		},
		{
			Title: "Objectives",
			Body: bullets(
				"Identify the factors behind the performance gap of minority students",
				"Test whether school segregation concentrates minorities in poorer schools",
				"Measure differences in teacher qualification across schools",
				"Assess the role of family cultural capital",
				"Estimate the effect of school composition on individual performance",
			),
		},
		{
			Title: "Methodology",
			Body: append([]Bullet{heading(fmt.Sprintf("Sample of %s students", thousands(summary.Students)))},
				bullets(
					"Student's two-sample t-tests with pooled variance",
					"Pearson correlations",
					"Multiple linear regression (ordinary least squares)",
					"School-level aggregation for segregation and teacher quality",
					fmt.Sprintf("Significance level alpha = %.2f", hypothesis.Alpha),
				)...),
		},
		overviewSlide(summary),
	}

	for _, res := range report.Results {
		slides = append(slides, hypothesisSlide(res))
	}
	slides = append(slides, resultsSlide(report), conclusionsSlide())
	return slides
}

func overviewSlide(summary dataset.Summary) Slide {
	schools := "N/A"
	if summary.Schools > 0 {
		schools = thousands(summary.Schools)
	}
	return Slide{
		Title: "Data overview",
		Body: bullets(
			fmt.Sprintf("Students analyzed: %s", thousands(summary.Students)),
			fmt.Sprintf("Schools: %s", schools),
			fmt.Sprintf("Minority students: %.1f%%", summary.PctMinority),
			fmt.Sprintf("Mean maths score: %.1f", summary.MeanMath),
			fmt.Sprintf("Mean Portuguese score: %.1f", summary.MeanPortuguese),
			fmt.Sprintf("Data source: %s", summary.Source),
		),
	}
}

func hypothesisSlide(res hypothesis.Result) Slide {
	s := Slide{
		Title: fmt.Sprintf("Hypothesis %d: %s", res.Key.Number(), res.Title),
		Body:  []Bullet{heading(res.Description)},
	}

	var significant, other []Bullet
	for _, t := range res.Tests {
		if t.Significant {
			significant = append(significant, bullet(fmt.Sprintf("%s: SIGNIFICANT (p = %.4f)", t.Name, t.PValue)))
		} else {
			other = append(other, bullet(fmt.Sprintf("%s: not significant (p = %.4f)", t.Name, t.PValue)))
		}
	}
	if len(significant) > 0 {
		s.Body = append(s.Body, heading("Significant results"))
		s.Body = append(s.Body, significant...)
	}
	if len(other) > 0 {
		s.Body = append(s.Body, heading("Non-significant results"))
		s.Body = append(s.Body, other...)
	}
	if len(res.SummaryStats) > 0 {
		s.Body = append(s.Body, heading("Summary statistics"))
		for _, st := range res.SummaryStats {
			label := st.Label
			if label == "" {
				label = st.Name
			}
			s.Body = append(s.Body, bullet(fmt.Sprintf("%s: %.2f", label, st.Value)))
		}
	}
	return s
}

func resultsSlide(report hypothesis.Report) Slide {
	var confirmed, rejected []Bullet
	for _, res := range report.Results {
		if res.Confirmed {
			confirmed = append(confirmed, bullet(res.Title))
		} else {
			rejected = append(rejected, bullet(res.Title))
		}
	}

	body := []Bullet{heading(fmt.Sprintf("Confirmed hypotheses (%d)", len(confirmed)))}
	body = append(body, confirmed...)
	body = append(body, heading(fmt.Sprintf("Rejected hypotheses (%d)", len(rejected))))
	body = append(body, rejected...)
	body = append(body, heading(fmt.Sprintf("A hypothesis is confirmed when a test is significant at alpha = %.2f "+
		"with an effect in the expected direction", report.Alpha)))
	return Slide{Title: "Results summary", Body: body}
}

func conclusionsSlide() Slide {
	body := []Bullet{heading("Conclusions")}
	body = append(body, bullets(
		"The performance gap reflects structural inequality between schools",
		"Equity requires policies that target school resources and composition",
	)...)
	body = append(body, heading("Recommendations"))
	body = append(body, bullets(Recommendations...)...)
	return Slide{Title: "Conclusions and recommendations", Body: body}
}
