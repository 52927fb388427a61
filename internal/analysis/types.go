package analysis

import (
	"fmt"

	"github.com/critic-dev/critic/internal/providers"
)

// Severity represents the severity level of a finding.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Category is one review dimension requested for a unit.
type Category string

const (
	CategoryNullReference      Category = "null_reference"
	CategoryExceptionHandling  Category = "exception_handling"
	CategoryResourceManagement Category = "resource_management"
	CategoryPerformance        Category = "performance"
	CategorySecurity           Category = "security"
	CategoryNamingConvention   Category = "naming_convention"
	CategoryCodeDocumentation  Category = "code_documentation"
	CategoryHardcodingToConfig Category = "hardcoding_to_config"
)

// Categories returns all known categories in enumeration order. The order
// is fixed; it breaks ties in summary rankings.
func Categories() []Category {
	return []Category{
		CategoryNullReference,
		CategoryExceptionHandling,
		CategoryResourceManagement,
		CategoryPerformance,
		CategorySecurity,
		CategoryNamingConvention,
		CategoryCodeDocumentation,
		CategoryHardcodingToConfig,
	}
}

// ParseCategory converts a category name to a Category, rejecting unknown
// names.
func ParseCategory(name string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category: %s", name)
}

// categoryIndex returns the enumeration position of c, or -1.
func categoryIndex(c Category) int {
	for i, known := range Categories() {
		if known == c {
			return i
		}
	}
	return -1
}

// Finding is one identified issue in the analyzed source.
type Finding struct {
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Before      string   `json:"before,omitempty"`
	After       string   `json:"after,omitempty"`
}

// Status is the terminal outcome of one analysis unit.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// ErrorInfo describes why a unit failed, in plain data form for the
// report stage.
type ErrorInfo struct {
	Kind    providers.Kind `json:"kind"`
	Message string         `json:"message"`
}

// Result is the terminal outcome of one analysis unit. It is created
// exactly once, after the unit's request has resolved.
type Result struct {
	Unit          int        `json:"unit"`
	Label         string     `json:"label,omitempty"`
	Status        Status     `json:"status"`
	RawText       string     `json:"rawText,omitempty"`
	Findings      []Finding  `json:"findings"`
	RewrittenCode string     `json:"rewrittenCode,omitempty"`
	Err           *ErrorInfo `json:"error,omitempty"`
	AttemptsUsed  int        `json:"attemptsUsed"`
	ElapsedMs     int64      `json:"elapsedMs"`
}
