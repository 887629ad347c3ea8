package reporting

import (
	"fmt"
	"strconv"
	"strings"

	"saebequity/domain/dataset"
	"saebequity/domain/hypothesis"
	"saebequity/internal/analysis/tester"
)

// Item is one result line with an optional indented detail
type Item struct {
	Text   string
	Detail string
}

// Section is a titled block of the detailed report
type Section struct {
	Heading     string
	Description string
	Paragraphs  []string
	Bullets     []string
	Items       []Item
	Subsections []Section
}

// Document is the detailed report, rendered to text and HTML
type Document struct {
	Title    string
	Sections []Section
}

// Recommendations are the policy recommendations closing every report
var Recommendations = []string{
	"Invest in the infrastructure of schools with a higher concentration of minority students",
	"Targeted teacher training programs",
	"Redistribution of educational resources",
	"Stronger affirmative action policies",
	"Continuous monitoring of equity indicators",
}

// BuildDocument assembles the detailed report from the run summary and results
func BuildDocument(summary dataset.Summary, report hypothesis.Report) Document {
	doc := Document{Title: "Detailed report: educational equity analysis"}

	doc.Sections = append(doc.Sections, Section{
		Heading: "Executive summary",
		Paragraphs: []string{
			"This report presents a statistical analysis of the factors behind the educational " +
				"performance of minority students in the Brazilian basic-education assessment (SAEB).",
			fmt.Sprintf("The analysis is based on a sample of %s students from %s data and tests %d hypotheses "+
				"about the causes of educational inequality.",
				thousands(summary.Students), summary.Source, len(hypothesis.Keys)),
		},
	})

	doc.Sections = append(doc.Sections, Section{
		Heading: "Methodology",
		Bullets: []string{
			"Data: Brazilian basic-education assessment (SAEB)",
			"Methods: Student's t-tests, Pearson correlation, multiple linear regression",
			"Software: Go (gonum, montanaflynn/stats)",
			fmt.Sprintf("Significance level: alpha = %.2f", hypothesis.Alpha),
		},
	})

	results := Section{Heading: "Results by hypothesis"}
	for _, res := range report.Results {
		results.Subsections = append(results.Subsections, resultSection(res))
	}
	doc.Sections = append(doc.Sections, results)

	doc.Sections = append(doc.Sections, Section{
		Heading: "Conclusions",
		Bullets: []string{
			fmt.Sprintf("%d of %d hypotheses were statistically confirmed", report.Confirmed(), len(report.Results)),
			"Evidence of structural inequality in the education system",
			"Need for more effective policies to guarantee equity",
			"Importance of continuous monitoring of equity indicators",
		},
	})

	doc.Sections = append(doc.Sections, Section{
		Heading: "Recommendations",
		Bullets: Recommendations,
	})
	return doc
}

func resultSection(res hypothesis.Result) Section {
	s := Section{
		Heading:     fmt.Sprintf("Hypothesis %d: %s", res.Key.Number(), res.Title),
		Description: res.Description,
	}
	for _, t := range res.Tests {
		s.Items = append(s.Items, Item{
			Text:   fmt.Sprintf("%s: %s (p = %.4f)", t.Name, tester.Significance(t.Significant), t.PValue),
			Detail: fmt.Sprintf("Effect size: %.4f (Cohen's d %.2f)", t.EffectSize, t.CohensD),
		})
	}
	for _, c := range res.Correlations {
		s.Items = append(s.Items, Item{
			Text: fmt.Sprintf("%s: %.4f", c.Name, c.R),
		})
	}
	for _, reg := range res.Regressions {
		s.Items = append(s.Items, Item{
			Text:   fmt.Sprintf("%s: R² = %.4f (F = %.2f, p = %.4f)", reg.Name, reg.RSquared, reg.F, reg.FPValue),
			Detail: coefficientLine(reg),
		})
	}
	verdict := "Rejected"
	if res.Confirmed {
		verdict = "Confirmed"
	}
	s.Paragraphs = append(s.Paragraphs, fmt.Sprintf("%s (headline test %s, p = %.4f)", verdict, res.Headline, res.PValue()))
	return s
}

func coefficientLine(reg hypothesis.Regression) string {
	terms := make([]string, len(reg.Coefficients))
	for i, c := range reg.Coefficients {
		terms[i] = fmt.Sprintf("%s %.4f", c.Name, c.Estimate)
	}
	return "Coefficients: " + strings.Join(terms, ", ")
}

// thousands formats n with comma separators
func thousands(n int) string {
	if n < 0 {
		return "-" + thousands(-n)
	}
	s := strconv.Itoa(n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}
