package batch

import (
	"sort"

	"github.com/critic-dev/critic/internal/analysis"
)

// Summary aggregates the outcomes of one batch.
type Summary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`

	TotalFindings int                                             `json:"totalFindings"`
	ByCategory    map[analysis.Category]int                       `json:"byCategory"`
	BySeverity    map[analysis.Severity]int                       `json:"bySeverity"`
	Breakdown     map[analysis.Category]map[analysis.Severity]int `json:"breakdown"`

	// Ranking orders categories from most to least severe load.
	Ranking []analysis.Category `json:"ranking"`

	// AvgElapsedMs averages over units that actually ran.
	AvgElapsedMs int64 `json:"avgElapsedMs"`
}

// Summarize aggregates results into per-category and per-severity
// counts plus a severity-weighted category ranking. Units skipped by
// cancellation count as cancelled, not failed, and are excluded from
// the elapsed-time average.
func Summarize(results []analysis.Result) Summary {
	s := Summary{
		Total:      len(results),
		ByCategory: make(map[analysis.Category]int),
		BySeverity: make(map[analysis.Severity]int),
		Breakdown:  make(map[analysis.Category]map[analysis.Severity]int),
	}

	var elapsed int64
	var ran int

	for _, res := range results {
		switch {
		case res.Status == analysis.StatusSuccess:
			s.Succeeded++
		case res.Err != nil && res.Err.Kind == KindCancelled:
			s.Cancelled++
		default:
			s.Failed++
		}

		if res.Err == nil || res.Err.Kind != KindCancelled {
			elapsed += res.ElapsedMs
			ran++
		}

		for _, f := range res.Findings {
			s.TotalFindings++
			s.ByCategory[f.Category]++
			s.BySeverity[f.Severity]++
			if s.Breakdown[f.Category] == nil {
				s.Breakdown[f.Category] = make(map[analysis.Severity]int)
			}
			s.Breakdown[f.Category][f.Severity]++
		}
	}

	if ran > 0 {
		s.AvgElapsedMs = elapsed / int64(ran)
	}
	s.Ranking = rankCategories(s.Breakdown)
	return s
}

// rankCategories orders categories with findings by high count, then
// medium, then low. Exact ties keep the canonical category order.
func rankCategories(breakdown map[analysis.Category]map[analysis.Severity]int) []analysis.Category {
	ranked := make([]analysis.Category, 0, len(breakdown))
	for _, c := range analysis.Categories() {
		if len(breakdown[c]) > 0 {
			ranked = append(ranked, c)
		}
	}
	count := func(c analysis.Category, sev analysis.Severity) int {
		return breakdown[c][sev]
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		for _, sev := range []analysis.Severity{analysis.SeverityHigh, analysis.SeverityMedium, analysis.SeverityLow} {
			if count(a, sev) != count(b, sev) {
				return count(a, sev) > count(b, sev)
			}
		}
		return false
	})
	return ranked
}

// MaxSeverity returns the highest severity present across results, or
// false when there are no findings.
func MaxSeverity(results []analysis.Result) (analysis.Severity, bool) {
	best := ""
	rank := -1
	for _, res := range results {
		for _, f := range res.Findings {
			if r := analysis.SeverityRank(f.Severity); r > rank {
				rank = r
				best = string(f.Severity)
			}
		}
	}
	if rank < 0 {
		return "", false
	}
	return analysis.Severity(best), true
}
