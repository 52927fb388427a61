package analysis

import (
	"strings"
	"testing"
)

func allCategories() []Category {
	return Categories()
}

func TestParse_FindingsAndCode(t *testing.T) {
	raw := `FINDINGS:
- [security] (high) Connection string is hardcoded.
- [null_reference] (medium) order may be nil before Dereference.
  before: ` + "`var total = order.Total;`" + `
  after: ` + "`var total = order?.Total ?? 0;`" + `

IMPROVED CODE:
` + "```csharp\nvar total = order?.Total ?? 0;\n```"

	findings, code := Parse(raw, allCategories())
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(findings))
	}
	if findings[0].Category != CategorySecurity || findings[0].Severity != SeverityHigh {
		t.Errorf("unexpected first finding: %+v", findings[0])
	}
	if findings[1].Before == "" || findings[1].After == "" {
		t.Errorf("snippets not attached: %+v", findings[1])
	}
	if code != "var total = order?.Total ?? 0;" {
		t.Errorf("unexpected code %q", code)
	}
}

func TestParse_NoCodeSection(t *testing.T) {
	raw := "FINDINGS:\n- [performance] (low) String concatenation in a loop.\n"
	findings, code := Parse(raw, allCategories())
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if code != "" {
		t.Errorf("expected no rewritten code, got %q", code)
	}
}

func TestParse_UnknownCategoryDropped(t *testing.T) {
	raw := "FINDINGS:\n- [astrology] (high) Mercury is in retrograde.\n- [security] (high) SQL built by string concatenation.\n"
	findings, _ := Parse(raw, allCategories())
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if findings[0].Category != CategorySecurity {
		t.Errorf("wrong finding kept: %+v", findings[0])
	}
}

func TestParse_UnrequestedCategoryDropped(t *testing.T) {
	raw := "FINDINGS:\n- [performance] (low) Allocation in hot path.\n- [security] (high) Plaintext credentials.\n"
	findings, _ := Parse(raw, []Category{CategorySecurity})
	if len(findings) != 1 || findings[0].Category != CategorySecurity {
		t.Fatalf("expected only the security finding, got %+v", findings)
	}
}

func TestParse_DefaultSeverity(t *testing.T) {
	raw := "FINDINGS:\n- [naming_convention] Method name does not follow PascalCase.\n"
	findings, _ := Parse(raw, allCategories())
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if findings[0].Severity != SeverityMedium {
		t.Errorf("expected medium default, got %s", findings[0].Severity)
	}
}

func TestParse_SeverityColonMarker(t *testing.T) {
	raw := "FINDINGS:\n- [exception_handling] high: Empty catch block swallows errors.\n"
	findings, _ := Parse(raw, allCategories())
	if len(findings) != 1 || findings[0].Severity != SeverityHigh {
		t.Fatalf("colon severity marker not honored: %+v", findings)
	}
}

func TestParse_NoneFindings(t *testing.T) {
	raw := "FINDINGS:\nnone\n"
	findings, code := Parse(raw, allCategories())
	if len(findings) != 0 {
		t.Errorf("expected no findings, got %+v", findings)
	}
	if code != "" {
		t.Errorf("expected no code, got %q", code)
	}
}

func TestParse_OuterFenceStripped(t *testing.T) {
	raw := "```\nFINDINGS:\n- [security] (high) Hardcoded token.\n```"
	findings, _ := Parse(raw, allCategories())
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
}

func TestParse_MissingHeaderTolerated(t *testing.T) {
	raw := "- [resource_management] (medium) StreamReader never disposed.\n"
	findings, _ := Parse(raw, allCategories())
	if len(findings) != 1 || findings[0].Category != CategoryResourceManagement {
		t.Fatalf("headerless bullets not parsed: %+v", findings)
	}
}

func TestParse_UnfencedImprovedCode(t *testing.T) {
	raw := "FINDINGS:\nnone\n\nIMPROVED CODE:\nConsole.WriteLine(\"ok\");\n"
	_, code := Parse(raw, allCategories())
	if !strings.Contains(code, "Console.WriteLine") {
		t.Errorf("unfenced code not extracted: %q", code)
	}
}

func TestParse_Empty(t *testing.T) {
	findings, code := Parse("", allCategories())
	if len(findings) != 0 || code != "" {
		t.Errorf("expected empty results, got %+v / %q", findings, code)
	}
}
