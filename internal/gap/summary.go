package gap

import "migscan/internal/model"

// Coverage summarizes how much of the source system the target accounts
// for. Partial means a best candidate existed but fell between the
// partial and acceptance thresholds.
type Coverage struct {
	Total      int     `json:"total"`
	Covered    int     `json:"covered"`
	Partial    int     `json:"partial"`
	Missing    int     `json:"missing"`
	CoveredPct float64 `json:"covered_pct"`
	PartialPct float64 `json:"partial_pct"`
	MissingPct float64 `json:"missing_pct"`
}

func Summarize(matches []model.MatchResult) Coverage {
	cov := Coverage{Total: len(matches)}
	for _, result := range matches {
		switch {
		case result.Matched():
			cov.Covered++
		case result.Tier == model.TierPartial:
			cov.Partial++
		default:
			cov.Missing++
		}
	}
	if cov.Total > 0 {
		cov.CoveredPct = 100 * float64(cov.Covered) / float64(cov.Total)
		cov.PartialPct = 100 * float64(cov.Partial) / float64(cov.Total)
		cov.MissingPct = 100 * float64(cov.Missing) / float64(cov.Total)
	}
	return cov
}

// SeverityCounts tallies gaps per severity for the report summary sheet.
func SeverityCounts(gaps []model.Gap) map[model.Severity]int {
	counts := make(map[model.Severity]int, 4)
	for _, g := range gaps {
		counts[g.Severity]++
	}
	return counts
}
