package dataset

import (
	"math"
	"math/rand"

	"saebequity/domain/dataset"
	"saebequity/internal"
	"saebequity/internal/analysis/stats"
	"saebequity/internal/errors"
)

// Quantile thresholds and fallback rates for the derived indicators
const (
	HighNSEQuantile           = 0.70
	GoodInfraQuantile         = 0.60
	QualifiedTeachersQuantile = 0.60

	fallbackMinorityRate  = 0.3
	fallbackHighNSERate   = 0.3
	fallbackGoodInfraRate = 0.4
	fallbackQualifiedRate = 0.4

	// OutlierIQRFactor bounds kept scores to [Q1 - k*IQR, Q3 + k*IQR]
	OutlierIQRFactor = 3.0
)

// Processor cleans a raw table and derives the grouping columns
type Processor struct {
	seed   int64
	logger *internal.Logger
}

// NewProcessor creates a processor; seed drives the fallback assignments used
// when a source column is missing
func NewProcessor(seed int64, logger *internal.Logger) *Processor {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Processor{seed: seed, logger: logger}
}

// derivedFlag describes one indicator computed from a quantile of a source column
type derivedFlag struct {
	name     string
	source   string
	quantile float64
	fallback float64
	set      func(*dataset.Student, bool)
}

var derivedFlags = []derivedFlag{
	{dataset.ColHighNSE, dataset.ColNSE, HighNSEQuantile, fallbackHighNSERate,
		func(s *dataset.Student, v bool) { s.HighNSE = v }},
	{dataset.ColGoodInfra, dataset.ColInfrastructure, GoodInfraQuantile, fallbackGoodInfraRate,
		func(s *dataset.Student, v bool) { s.GoodInfra = v }},
	{dataset.ColQualifiedTeachers, dataset.ColTeacherQual, QualifiedTeachersQuantile, fallbackQualifiedRate,
		func(s *dataset.Student, v bool) { s.QualifiedTeachers = v }},
}

// Process returns a new table: incomplete rows dropped, minority and derived
// flags assigned, then extreme score outliers removed.
func (p *Processor) Process(raw *dataset.Table) (*dataset.Table, error) {
	p.logger.Info("[Processor] Cleaning %d rows", raw.Len())

	students := p.dropIncomplete(raw)
	if len(students) == 0 {
		return nil, errors.InsufficientData("no rows with both scores present")
	}

	rng := rand.New(rand.NewSource(p.seed))
	p.assignMinority(raw, students, rng)

	for _, flag := range derivedFlags {
		if err := p.assignFlag(raw, students, flag, rng); err != nil {
			return nil, err
		}
	}

	var err error
	for _, col := range []string{dataset.ColMath, dataset.ColPortuguese} {
		students, err = p.removeOutliers(students, col)
		if err != nil {
			return nil, err
		}
	}
	if len(students) == 0 {
		return nil, errors.InsufficientData("no rows left after outlier removal")
	}

	columns := raw.ColumnNames()
	if !raw.Has(dataset.ColMinority) {
		columns = append(columns, dataset.ColMinority)
	}
	for _, flag := range derivedFlags {
		columns = append(columns, flag.name)
	}

	p.logger.Info("[Processor] Clean table: %d rows, %d columns", len(students), len(columns))
	return dataset.NewTable(students, columns, raw.Source, raw.Path), nil
}

// dropIncomplete removes rows missing either score. Blank covariates stay NaN
// and are left to the analyses that read them.
func (p *Processor) dropIncomplete(raw *dataset.Table) []dataset.Student {
	out := make([]dataset.Student, 0, raw.Len())
	for _, s := range raw.Students {
		if math.IsNaN(s.Math) || math.IsNaN(s.Portuguese) {
			continue
		}
		out = append(out, s)
	}
	if dropped := raw.Len() - len(out); dropped > 0 {
		p.logger.Warn("[Processor] Dropped %d rows with a missing score", dropped)
	}
	return out
}

func (p *Processor) assignMinority(raw *dataset.Table, students []dataset.Student, rng *rand.Rand) {
	switch {
	case raw.Has(dataset.ColMinority):
		p.logger.Debug("[Processor] Using %s column as provided", dataset.ColMinority)
	case raw.Has(dataset.ColRace):
		for i := range students {
			students[i].Minority = dataset.IsMinorityRace(students[i].Race)
		}
	default:
		p.logger.Warn("[Processor] Neither %s nor %s present, assigning minority status at random (p=%.1f)",
			dataset.ColMinority, dataset.ColRace, fallbackMinorityRate)
		for i := range students {
			students[i].Minority = rng.Float64() < fallbackMinorityRate
		}
	}
}

func (p *Processor) assignFlag(raw *dataset.Table, students []dataset.Student, flag derivedFlag, rng *rand.Rand) error {
	values := make([]float64, len(students))
	observed := make([]float64, 0, len(students))
	if raw.Has(flag.source) {
		for i, s := range students {
			values[i], _ = s.Float(flag.source)
			if !math.IsNaN(values[i]) {
				observed = append(observed, values[i])
			}
		}
	}
	if len(observed) == 0 {
		p.logger.Warn("[Processor] %s missing, assigning %s at random (p=%.1f)", flag.source, flag.name, flag.fallback)
		for i := range students {
			flag.set(&students[i], rng.Float64() < flag.fallback)
		}
		return nil
	}

	threshold, err := stats.Quantile(observed, flag.quantile)
	if err != nil {
		return errors.Wrapf(err, "failed to compute %s threshold", flag.name)
	}
	// NaN compares false, so a blank source leaves the flag unset
	for i := range students {
		flag.set(&students[i], values[i] >= threshold)
	}
	if missing := len(values) - len(observed); missing > 0 {
		p.logger.Warn("[Processor] %d rows have no %s, %s left false", missing, flag.source, flag.name)
	}
	p.logger.Debug("[Processor] %s = %s >= %.4f (q%.2f)", flag.name, flag.source, threshold, flag.quantile)
	return nil
}

// removeOutliers keeps rows whose column lies within the IQR fence
func (p *Processor) removeOutliers(students []dataset.Student, column string) ([]dataset.Student, error) {
	values := make([]float64, len(students))
	for i, s := range students {
		values[i], _ = s.Float(column)
	}
	q1, err := stats.Quantile(values, 0.25)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to compute %s quartiles", column)
	}
	q3, err := stats.Quantile(values, 0.75)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to compute %s quartiles", column)
	}
	iqr := q3 - q1
	lower, upper := q1-OutlierIQRFactor*iqr, q3+OutlierIQRFactor*iqr

	out := make([]dataset.Student, 0, len(students))
	for i, s := range students {
		if values[i] >= lower && values[i] <= upper {
			out = append(out, s)
		}
	}
	if removed := len(students) - len(out); removed > 0 {
		p.logger.Info("[Processor] Removed %d %s outliers outside [%.2f, %.2f]", removed, column, lower, upper)
	}
	return out, nil
}
