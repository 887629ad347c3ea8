package dataset

// Column names as they appear in SAEB extracts after header normalization
const (
	ColSchool             = "CODIGO_ESCOLA"
	ColRace               = "COR_RACA"
	ColMinority           = "MINORIA"
	ColNSE                = "NSE"
	ColInfrastructure     = "INFRAESTRUTURA"
	ColTeacherQual        = "QUALIFICACAO_DOCENTE"
	ColCulturalCapital    = "CAPITAL_CULTURAL"
	ColClassSize          = "TAMANHO_TURMA"
	ColClassMinorityShare = "PERCENTUAL_MINORIAS_TURMA"
	ColMath               = "NOTA_MATEMATICA"
	ColPortuguese         = "NOTA_PORTUGUES"

	// Derived
	ColHighNSE           = "NSE_ALTO"
	ColGoodInfra         = "INFRA_BOA"
	ColQualifiedTeachers = "DOCENTE_QUALIFICADO"
)

// RequiredColumns must be present in any input file
var RequiredColumns = []string{ColMath, ColPortuguese}

// NumericColumns are parsed as float64 when present
var NumericColumns = []string{
	ColNSE, ColInfrastructure, ColTeacherQual, ColCulturalCapital,
	ColClassSize, ColClassMinorityShare, ColMath, ColPortuguese,
}

// Race categories
const (
	RaceWhite      = "BRANCA"
	RaceBlack      = "PRETA"
	RaceBrown      = "PARDA"
	RaceYellow     = "AMARELA"
	RaceIndigenous = "INDIGENA"
)

// IsMinorityRace reports whether a race/colour category counts as minority
func IsMinorityRace(race string) bool {
	switch race {
	case RaceBlack, RaceBrown, RaceIndigenous:
		return true
	}
	return false
}

// Source records where the rows of a table came from
type Source string

const (
	SourceFile      Source = "file"
	SourceSynthetic Source = "synthetic"
)

// Student is one observation record. Optional covariates are zero when the
// source column was absent; Table.Has tells them apart from real zeros. A blank
// cell in a present column is NaN.
type Student struct {
	School             string  `json:"school"`
	Race               string  `json:"race,omitempty"`
	Minority           bool    `json:"minority"`
	NSE                float64 `json:"nse"`
	Infrastructure     float64 `json:"infrastructure"`
	TeacherQual        float64 `json:"teacher_qualification"`
	CulturalCapital    float64 `json:"cultural_capital"`
	ClassSize          float64 `json:"class_size"`
	ClassMinorityShare float64 `json:"class_minority_share"`
	Math               float64 `json:"math"`
	Portuguese         float64 `json:"portuguese"`

	HighNSE           bool `json:"high_nse"`
	GoodInfra         bool `json:"good_infrastructure"`
	QualifiedTeachers bool `json:"qualified_teachers"`
}

// Table is the immutable analysis table for one run
type Table struct {
	Students []Student
	Columns  map[string]bool
	Source   Source
	Path     string
}

// NewTable builds a table over students with the given present columns
func NewTable(students []Student, columns []string, source Source, path string) *Table {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	return &Table{Students: students, Columns: present, Source: source, Path: path}
}

// Len returns the number of students
func (t *Table) Len() int {
	return len(t.Students)
}

// Has reports whether a source or derived column is present
func (t *Table) Has(column string) bool {
	return t.Columns[column]
}

// ColumnNames returns the present columns in canonical order
func (t *Table) ColumnNames() []string {
	order := []string{
		ColSchool, ColRace, ColMinority, ColNSE, ColInfrastructure, ColTeacherQual,
		ColCulturalCapital, ColClassSize, ColClassMinorityShare, ColMath, ColPortuguese,
		ColHighNSE, ColGoodInfra, ColQualifiedTeachers,
	}
	names := make([]string, 0, len(order))
	for _, c := range order {
		if t.Columns[c] {
			names = append(names, c)
		}
	}
	return names
}

// Float returns the numeric value of column for s. Booleans map to 0/1.
func (s Student) Float(column string) (float64, bool) {
	switch column {
	case ColNSE:
		return s.NSE, true
	case ColInfrastructure:
		return s.Infrastructure, true
	case ColTeacherQual:
		return s.TeacherQual, true
	case ColCulturalCapital:
		return s.CulturalCapital, true
	case ColClassSize:
		return s.ClassSize, true
	case ColClassMinorityShare:
		return s.ClassMinorityShare, true
	case ColMath:
		return s.Math, true
	case ColPortuguese:
		return s.Portuguese, true
	case ColMinority:
		return boolFloat(s.Minority), true
	case ColHighNSE:
		return boolFloat(s.HighNSE), true
	case ColGoodInfra:
		return boolFloat(s.GoodInfra), true
	case ColQualifiedTeachers:
		return boolFloat(s.QualifiedTeachers), true
	}
	return 0, false
}

// Column extracts one numeric column for every student
func (t *Table) Column(column string) []float64 {
	out := make([]float64, 0, len(t.Students))
	for _, s := range t.Students {
		if v, ok := s.Float(column); ok {
			out = append(out, v)
		}
	}
	return out
}

// Filter returns the students for which keep returns true
func (t *Table) Filter(keep func(Student) bool) []Student {
	var out []Student
	for _, s := range t.Students {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Summary holds the headline figures of a processed table
type Summary struct {
	Students              int     `json:"students"`
	Schools               int     `json:"schools"`
	MeanMath              float64 `json:"mean_math"`
	MeanPortuguese        float64 `json:"mean_portuguese"`
	PctMinority           float64 `json:"pct_minority"`
	PctHighNSE            float64 `json:"pct_high_nse"`
	PctGoodInfrastructure float64 `json:"pct_good_infrastructure"`
	PctQualifiedTeachers  float64 `json:"pct_qualified_teachers"`
	Source                Source  `json:"source"`
}

// Descriptive holds the distribution summary of one numeric column
type Descriptive struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}
