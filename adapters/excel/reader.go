package excel

import (
	"encoding/csv"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"saebequity/internal"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	logger   *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string, logger *internal.Logger) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataReader{filePath: filePath, fileType: fileType, logger: logger}
}

// ReadData reads the file into structured form. A missing file yields an error
// wrapping fs.ErrNotExist; a file that cannot be parsed yields ErrUnreadable.
func (r *DataReader) ReadData() (*ExcelData, error) {
	r.logger.Debug("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	info, err := os.Stat(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("%s file not found: %s: %w", strings.ToUpper(r.fileType), r.filePath, fs.ErrNotExist)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnreadable, r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	default:
		return r.readExcelData()
	}
}

// readExcelData reads the first sheet that has a header row
func (r *DataReader) readExcelData() (*ExcelData, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open Excel file: %v", ErrUnreadable, err)
	}
	defer f.Close()
	r.logger.Debug("[DataReader] Excel file opened in %.2fms", float64(time.Since(startTime).Nanoseconds())/1e6)

	for _, sheet := range f.GetSheetList() {
		readStart := time.Now()
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read sheet %s: %v", ErrUnreadable, sheet, err)
		}
		if len(rows) == 0 || !hasHeader(rows[0]) {
			r.logger.Debug("[DataReader] Skipping sheet %s without header row", sheet)
			continue
		}
		r.logger.Debug("[DataReader] Sheet %s read in %.2fms (%d rows)",
			sheet, float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

		data := r.processRows(rows)
		data.Sheet = sheet
		return data, nil
	}

	return nil, fmt.Errorf("%w: no sheet with a header row in %s", ErrUnreadable, r.filePath)
}

// readCSVData reads CSV data into structured format
func (r *DataReader) readCSVData() (*ExcelData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open CSV file: %v", ErrUnreadable, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV file: %v", ErrUnreadable, err)
	}
	r.logger.Debug("[DataReader] CSV file read in %.2fms (%d rows)",
		float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	if len(rows) == 0 || !hasHeader(rows[0]) {
		return nil, fmt.Errorf("%w: CSV file has no header row", ErrUnreadable)
	}

	return r.processRows(rows), nil
}

// processRows converts raw string rows into ExcelData format, skipping blank lines
func (r *DataReader) processRows(rows [][]string) *ExcelData {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = NormalizeHeader(strings.TrimPrefix(header, "\ufeff"))
	}

	dataRows := make([]RawRowData, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}
		rowData := make(RawRowData, len(headers))
		for j, cell := range row {
			if j < len(headers) && headers[j] != "" {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	r.logger.Info("[DataReader] %s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(headers), len(dataRows))

	return &ExcelData{
		Headers: headers,
		Rows:    dataRows,
	}
}

func hasHeader(row []string) bool {
	return !isBlank(row)
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
