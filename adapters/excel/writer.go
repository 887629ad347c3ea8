package excel

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"saebequity/domain/dataset"
	"saebequity/domain/hypothesis"
)

// Sheet names of the results workbook
const (
	SheetData         = "Data"
	SheetTests        = "Tests"
	SheetCorrelations = "Correlations"
	SheetRegressions  = "Regressions"
	SheetSummary      = "Summary"
)

// TableRecords renders the present columns of table as strings, floats rounded to 4 places
func TableRecords(table *dataset.Table) ([]string, [][]string) {
	headers := table.ColumnNames()
	rows := make([][]string, len(table.Students))
	for i, s := range table.Students {
		row := make([]string, len(headers))
		for j, col := range headers {
			row[j] = formatCell(s, col)
		}
		rows[i] = row
	}
	return headers, rows
}

func formatCell(s dataset.Student, column string) string {
	switch column {
	case dataset.ColSchool:
		return s.School
	case dataset.ColRace:
		return s.Race
	case dataset.ColMinority:
		return strconv.FormatBool(s.Minority)
	case dataset.ColHighNSE:
		return strconv.FormatBool(s.HighNSE)
	case dataset.ColGoodInfra:
		return strconv.FormatBool(s.GoodInfra)
	case dataset.ColQualifiedTeachers:
		return strconv.FormatBool(s.QualifiedTeachers)
	}
	v, _ := s.Float(column)
	if math.IsNaN(v) {
		return ""
	}
	return fToStr(v, 4)
}

func cellValue(s dataset.Student, column string) interface{} {
	switch column {
	case dataset.ColSchool, dataset.ColRace,
		dataset.ColMinority, dataset.ColHighNSE, dataset.ColGoodInfra, dataset.ColQualifiedTeachers:
		return formatCell(s, column)
	}
	v, _ := s.Float(column)
	if math.IsNaN(v) {
		return nil
	}
	return roundTo(v, 4)
}

// WriteTableCSV writes table to a csv file
func WriteTableCSV(path string, table *dataset.Table) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	headers, rows := TableRecords(table)
	if err := w.Write(headers); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// WriteTableXLSX writes table to the first sheet of a new workbook
func WriteTableXLSX(path string, table *dataset.Table) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetData); err != nil {
		return err
	}
	if err := writeDataSheet(f, SheetData, table); err != nil {
		return err
	}
	return f.SaveAs(path)
}

// WriteResultsWorkbook writes the processed table and every statistical result,
// with a native column chart of the test p-values on the summary sheet.
func WriteResultsWorkbook(path string, table *dataset.Table, report hypothesis.Report) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	for _, sheet := range []string{SheetTests, SheetCorrelations, SheetRegressions, SheetData} {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	if err := writeSummarySheet(f, report, headerStyle); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}
	testRows, err := writeTestsSheet(f, report, headerStyle)
	if err != nil {
		return fmt.Errorf("tests sheet: %w", err)
	}
	if err := writeCorrelationsSheet(f, report, headerStyle); err != nil {
		return fmt.Errorf("correlations sheet: %w", err)
	}
	if err := writeRegressionsSheet(f, report, headerStyle); err != nil {
		return fmt.Errorf("regressions sheet: %w", err)
	}
	if err := writeDataSheet(f, SheetData, table); err != nil {
		return fmt.Errorf("data sheet: %w", err)
	}

	if testRows > 0 {
		if err := f.AddChart(SheetSummary, "H2", &excelize.Chart{
			Type: excelize.Col,
			Series: []excelize.ChartSeries{{
				Name:       fmt.Sprintf("%s!$J$1", SheetTests),
				Categories: fmt.Sprintf("%s!$B$2:$B$%d", SheetTests, testRows+1),
				Values:     fmt.Sprintf("%s!$J$2:$J$%d", SheetTests, testRows+1),
			}},
			Title:  []excelize.RichTextRun{{Text: fmt.Sprintf("Test p-values (alpha = %.2f)", report.Alpha)}},
			Legend: excelize.ChartLegend{Position: "none"},
		}); err != nil {
			return fmt.Errorf("p-value chart: %w", err)
		}
	}

	f.SetActiveSheet(0)
	return f.SaveAs(path)
}

func writeDataSheet(f *excelize.File, sheet string, table *dataset.Table) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}
	headers := table.ColumnNames()
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}
	for i, s := range table.Students {
		row := make([]interface{}, len(headers))
		for j, col := range headers {
			row[j] = cellValue(s, col)
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	return sw.Flush()
}

func writeSummarySheet(f *excelize.File, report hypothesis.Report, style int) error {
	rows := [][]interface{}{{"Hypothesis", "Title", "Headline test", "Min p-value", "Max |effect|", "Confirmed"}}
	for _, r := range report.Results {
		rows = append(rows, []interface{}{
			fmt.Sprintf("H%d", r.Key.Number()), r.Title, r.Headline,
			roundTo(r.MinPValue(), 6), roundTo(r.MaxAbsEffect(), 4), r.Confirmed,
		})
	}
	return writeRows(f, SheetSummary, rows, style)
}

func writeTestsSheet(f *excelize.File, report hypothesis.Report, style int) (int, error) {
	rows := [][]interface{}{{
		"Hypothesis", "Test", "Group A", "Group B", "n A", "n B", "Mean A", "Mean B",
		"t", "p-value", "Effect (A - B)", "Cohen's d", "Expected", "Significant", "Supports",
	}}
	for _, r := range report.Results {
		for _, t := range r.Tests {
			rows = append(rows, []interface{}{
				fmt.Sprintf("H%d", r.Key.Number()), t.Name, t.GroupA, t.GroupB, t.NA, t.NB,
				roundTo(t.MeanA, 4), roundTo(t.MeanB, 4), roundTo(t.Statistic, 4), roundTo(t.PValue, 6),
				roundTo(t.EffectSize, 4), roundTo(t.CohensD, 4), t.Expected.String(), t.Significant, t.Supports,
			})
		}
	}
	return len(rows) - 1, writeRows(f, SheetTests, rows, style)
}

func writeCorrelationsSheet(f *excelize.File, report hypothesis.Report, style int) error {
	rows := [][]interface{}{{"Hypothesis", "Correlation", "r", "p-value", "n"}}
	for _, r := range report.Results {
		for _, c := range r.Correlations {
			rows = append(rows, []interface{}{
				fmt.Sprintf("H%d", r.Key.Number()), c.Name, roundTo(c.R, 4), roundTo(c.PValue, 6), c.N,
			})
		}
	}
	return writeRows(f, SheetCorrelations, rows, style)
}

func writeRegressionsSheet(f *excelize.File, report hypothesis.Report, style int) error {
	rows := [][]interface{}{{"Hypothesis", "Model", "Term", "Estimate", "Std. error", "t", "p-value", "R²", "F", "F p-value", "n"}}
	for _, r := range report.Results {
		for _, reg := range r.Regressions {
			terms := append([]hypothesis.Coefficient{reg.Intercept}, reg.Coefficients...)
			for _, c := range terms {
				rows = append(rows, []interface{}{
					fmt.Sprintf("H%d", r.Key.Number()), reg.Name, c.Name,
					roundTo(c.Estimate, 4), roundTo(c.StdErr, 4), roundTo(c.T, 4), roundTo(c.PValue, 6),
					roundTo(reg.RSquared, 4), roundTo(reg.F, 4), roundTo(reg.FPValue, 6), reg.N,
				})
			}
		}
	}
	return writeRows(f, SheetRegressions, rows, style)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}, headerStyle int) error {
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return err
		}
	}
	if len(rows) == 0 {
		return nil
	}
	last, _ := excelize.CoordinatesToCellName(len(rows[0]), 1)
	return f.SetCellStyle(sheet, "A1", last, headerStyle)
}

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}

func roundTo(x float64, decimals int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	p := math.Pow10(decimals)
	return math.Round(x*p) / p
}

func fToStr(x float64, decimals int) string {
	return strconv.FormatFloat(roundTo(x, decimals), 'f', -1, 64)
}
