package run

import (
	"fmt"

	"saebequity/domain/core"
	"saebequity/domain/dataset"
	"saebequity/domain/hypothesis"
)

// FingerprintDigits is the rounding applied to floats before hashing results
const FingerprintDigits = 8

// RunFingerprint ensures deterministic replay
type RunFingerprint struct {
	Seed        int64          `json:"seed"`
	Source      dataset.Source `json:"source"`
	Rows        int            `json:"rows"`
	Fingerprint core.Hash      `json:"fingerprint"`
}

// NewRunFingerprint hashes the determinism parameters together with every statistic in report
func NewRunFingerprint(seed int64, source dataset.Source, rows int, report hypothesis.Report) RunFingerprint {
	return RunFingerprint{
		Seed:        seed,
		Source:      source,
		Rows:        rows,
		Fingerprint: computeRunFingerprint(seed, source, rows, report),
	}
}

func computeRunFingerprint(seed int64, source dataset.Source, rows int, report hypothesis.Report) core.Hash {
	b := core.NewHashBuilder(FingerprintDigits).
		Int("seed", seed).
		String("source", string(source)).
		Int("rows", int64(rows)).
		Float("alpha", report.Alpha)

	for _, r := range report.Results {
		prefix := string(r.Key)
		b.Bool(prefix+".confirmed", r.Confirmed)
		b.String(prefix+".headline", r.Headline)
		for _, t := range r.Tests {
			p := fmt.Sprintf("%s.test.%s", prefix, t.Name)
			b.Float(p+".t", t.Statistic).
				Float(p+".p", t.PValue).
				Float(p+".effect", t.EffectSize).
				Int(p+".n_a", int64(t.NA)).
				Int(p+".n_b", int64(t.NB))
		}
		for _, c := range r.Correlations {
			p := fmt.Sprintf("%s.corr.%s", prefix, c.Name)
			b.Float(p+".r", c.R).Float(p+".p", c.PValue)
		}
		for _, reg := range r.Regressions {
			p := fmt.Sprintf("%s.reg.%s", prefix, reg.Name)
			b.Float(p+".r2", reg.RSquared).Float(p+".f", reg.F)
			b.Float(p+".intercept", reg.Intercept.Estimate)
			for _, c := range reg.Coefficients {
				b.Float(p+"."+c.Name, c.Estimate)
			}
		}
	}
	return b.Sum()
}
