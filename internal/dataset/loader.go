package dataset

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"math"
	"strconv"
	"strings"

	"saebequity/adapters/excel"
	"saebequity/domain/core"
	"saebequity/domain/dataset"
	"saebequity/internal"
	"saebequity/internal/errors"
	"saebequity/internal/synthetic"
)

// Loader reads the input spreadsheet, falling back to synthetic data when it is
// missing or cannot be parsed
type Loader struct {
	synth  synthetic.Config
	logger *internal.Logger
}

// NewLoader creates a loader whose fallback dataset is generated with synth
func NewLoader(synth synthetic.Config, logger *internal.Logger) *Loader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Loader{synth: synth, logger: logger}
}

// Load returns the raw table for path. An empty path or a missing file yields
// synthetic data without error; an unreadable file does the same with a warning.
// A file that parses but is malformed aborts the run.
func (l *Loader) Load(ctx context.Context, path string) (*dataset.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(path) == "" {
		l.logger.Info("[Loader] No data file configured, generating synthetic data")
		return l.synthesize()
	}

	l.logger.Info("[Loader] Loading data from %s", path)
	data, err := excel.NewDataReader(path, l.logger).ReadData()
	switch {
	case err == nil:
	case stderrors.Is(err, fs.ErrNotExist):
		l.logger.Info("[Loader] Data file %s not found, generating synthetic data", path)
		return l.synthesize()
	case stderrors.Is(err, excel.ErrUnreadable):
		l.logger.Warn("[Loader] Could not read %s (%v), generating synthetic data", path, err)
		return l.synthesize()
	default:
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	table, err := FromExcelData(data, path)
	if err != nil {
		return nil, err
	}
	l.logger.Info("[Loader] Loaded %d rows, %d columns from %s", table.Len(), len(data.Headers), path)
	return table, nil
}

func (l *Loader) synthesize() (*dataset.Table, error) {
	table, err := synthetic.Generate(l.synth)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	l.logger.Info("[Loader] Generated %d synthetic rows (seed %d, %d schools)", table.Len(), l.synth.Seed, l.synth.Schools)
	return table, nil
}

// FromExcelData converts raw rows into a table. Required score columns must be
// present and every non-empty numeric cell must parse; empty numeric cells become NaN.
func FromExcelData(data *excel.ExcelData, path string) (*dataset.Table, error) {
	for _, col := range dataset.RequiredColumns {
		if !data.HasColumn(col) {
			return nil, errors.WithCode(errors.CodeInvalidInput,
				fmt.Errorf("%s: %w", path, core.NewMissingColumnError(col)))
		}
	}

	var columns []string
	known := append([]string{dataset.ColSchool, dataset.ColRace, dataset.ColMinority}, dataset.NumericColumns...)
	for _, col := range known {
		if data.HasColumn(col) {
			columns = append(columns, col)
		}
	}

	students := make([]dataset.Student, len(data.Rows))
	for i, row := range data.Rows {
		line := i + 2
		s := &students[i]
		s.School = row[dataset.ColSchool]
		s.Race = strings.ToUpper(row[dataset.ColRace])

		if data.HasColumn(dataset.ColMinority) {
			v, err := parseBool(row[dataset.ColMinority])
			if err != nil {
				return nil, errors.WithCode(errors.CodeInvalidInput,
					fmt.Errorf("%s: %w", path, core.NewInvalidValueError(dataset.ColMinority, line, row[dataset.ColMinority])))
			}
			s.Minority = v
		}

		for _, col := range dataset.NumericColumns {
			if !data.HasColumn(col) {
				continue
			}
			v, err := parseFloat(row[col])
			if err != nil {
				return nil, errors.WithCode(errors.CodeInvalidInput,
					fmt.Errorf("%s: %w", path, core.NewInvalidValueError(col, line, row[col])))
			}
			setNumeric(s, col, v)
		}
	}

	return dataset.NewTable(students, columns, dataset.SourceFile, path), nil
}

func setNumeric(s *dataset.Student, column string, v float64) {
	switch column {
	case dataset.ColNSE:
		s.NSE = v
	case dataset.ColInfrastructure:
		s.Infrastructure = v
	case dataset.ColTeacherQual:
		s.TeacherQual = v
	case dataset.ColCulturalCapital:
		s.CulturalCapital = v
	case dataset.ColClassSize:
		s.ClassSize = v
	case dataset.ColClassMinorityShare:
		s.ClassMinorityShare = v
	case dataset.ColMath:
		s.Math = v
	case dataset.ColPortuguese:
		s.Portuguese = v
	}
}

func parseFloat(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		// Decimal comma, as Brazilian spreadsheets often export
		v, err = strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	}
	if err != nil || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	return v, nil
}

func parseBool(raw string) (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "1", "1.0", "TRUE", "SIM", "VERDADEIRO":
		return true, nil
	case "0", "0.0", "FALSE", "NAO", "NÃO", "FALSO", "":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", raw)
}
