package batch

import (
	"testing"

	"github.com/critic-dev/critic/internal/analysis"
)

func finding(c analysis.Category, s analysis.Severity) analysis.Finding {
	return analysis.Finding{Category: c, Severity: s, Description: "d"}
}

func TestSummarize_Counts(t *testing.T) {
	results := []analysis.Result{
		{
			Unit: 0, Status: analysis.StatusSuccess, ElapsedMs: 100,
			Findings: []analysis.Finding{
				finding(analysis.CategorySecurity, analysis.SeverityHigh),
				finding(analysis.CategorySecurity, analysis.SeverityLow),
				finding(analysis.CategoryPerformance, analysis.SeverityMedium),
			},
		},
		{
			Unit: 1, Status: analysis.StatusFailed, ElapsedMs: 300,
			Err: &analysis.ErrorInfo{Kind: "network", Message: "unreachable"},
		},
		{
			Unit: 2, Status: analysis.StatusFailed,
			Err: &analysis.ErrorInfo{Kind: KindCancelled, Message: "skipped"},
		},
	}

	s := Summarize(results)
	if s.Total != 3 || s.Succeeded != 1 || s.Failed != 1 || s.Cancelled != 1 {
		t.Errorf("outcome counts wrong: %+v", s)
	}
	if s.TotalFindings != 3 {
		t.Errorf("TotalFindings = %d, want 3", s.TotalFindings)
	}
	if s.ByCategory[analysis.CategorySecurity] != 2 {
		t.Errorf("security count = %d, want 2", s.ByCategory[analysis.CategorySecurity])
	}
	if s.BySeverity[analysis.SeverityHigh] != 1 || s.BySeverity[analysis.SeverityMedium] != 1 || s.BySeverity[analysis.SeverityLow] != 1 {
		t.Errorf("severity counts wrong: %+v", s.BySeverity)
	}
	// Average covers the two units that ran, not the cancelled one.
	if s.AvgElapsedMs != 200 {
		t.Errorf("AvgElapsedMs = %d, want 200", s.AvgElapsedMs)
	}
}

func TestSummarize_Ranking(t *testing.T) {
	results := []analysis.Result{
		{
			Unit: 0, Status: analysis.StatusSuccess,
			Findings: []analysis.Finding{
				finding(analysis.CategorySecurity, analysis.SeverityHigh),
				finding(analysis.CategorySecurity, analysis.SeverityHigh),
				finding(analysis.CategorySecurity, analysis.SeverityMedium),
				finding(analysis.CategoryPerformance, analysis.SeverityLow),
				finding(analysis.CategoryPerformance, analysis.SeverityLow),
				finding(analysis.CategoryPerformance, analysis.SeverityLow),
			},
		},
	}
	s := Summarize(results)
	want := []analysis.Category{analysis.CategorySecurity, analysis.CategoryPerformance}
	if len(s.Ranking) != len(want) {
		t.Fatalf("ranking = %v, want %v", s.Ranking, want)
	}
	for i := range want {
		if s.Ranking[i] != want[i] {
			t.Fatalf("ranking = %v, want %v", s.Ranking, want)
		}
	}
}

func TestSummarize_RankingTieBreak(t *testing.T) {
	// Identical severity profiles fall back to the canonical order,
	// where null_reference precedes security.
	results := []analysis.Result{
		{
			Unit: 0, Status: analysis.StatusSuccess,
			Findings: []analysis.Finding{
				finding(analysis.CategorySecurity, analysis.SeverityMedium),
				finding(analysis.CategoryNullReference, analysis.SeverityMedium),
			},
		},
	}
	s := Summarize(results)
	if len(s.Ranking) != 2 || s.Ranking[0] != analysis.CategoryNullReference {
		t.Errorf("tie break wrong: %v", s.Ranking)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 || s.TotalFindings != 0 || s.AvgElapsedMs != 0 || len(s.Ranking) != 0 {
		t.Errorf("empty summary not zero-valued: %+v", s)
	}
}

func TestMaxSeverity(t *testing.T) {
	if _, ok := MaxSeverity(nil); ok {
		t.Error("expected no severity for empty results")
	}
	results := []analysis.Result{
		{Findings: []analysis.Finding{
			finding(analysis.CategorySecurity, analysis.SeverityLow),
			finding(analysis.CategoryPerformance, analysis.SeverityMedium),
		}},
	}
	sev, ok := MaxSeverity(results)
	if !ok || sev != analysis.SeverityMedium {
		t.Errorf("MaxSeverity = %v/%v, want medium/true", sev, ok)
	}
}
