package excel

import (
	"errors"
	"strings"
)

// RawRowData represents a row of raw spreadsheet data keyed by normalized header
type RawRowData map[string]string

// ExcelData represents the complete tabular dataset read from a file
type ExcelData struct {
	Headers []string     // Normalized column headers
	Rows    []RawRowData // Data rows
	Sheet   string       // Sheet the rows came from, empty for csv
}

// HasColumn reports whether the header row contains column
func (d *ExcelData) HasColumn(column string) bool {
	for _, h := range d.Headers {
		if h == column {
			return true
		}
	}
	return false
}

// ErrUnreadable marks a file that exists but cannot be parsed as a workbook or csv
var ErrUnreadable = errors.New("file could not be parsed")

// NormalizeHeader upper-cases a header and replaces spaces with underscores
func NormalizeHeader(header string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(header)), " ", "_")
}
