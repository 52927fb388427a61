package analysis

import (
	"regexp"
	"strings"
)

var (
	findingsHeaderRe = regexp.MustCompile(`(?i)^#*\s*findings\s*:?\s*$`)
	improvedHeaderRe = regexp.MustCompile(`(?i)^#*\s*improved\s+code\s*:?\s*$`)
	bulletRe         = regexp.MustCompile(`^\s*[-*]\s*\[([a-z_]+)\]\s*(.*)$`)
	severityParenRe  = regexp.MustCompile(`(?i)^\((low|medium|high)\)\s*:?\s*`)
	severityColonRe  = regexp.MustCompile(`(?i)^(low|medium|high)\s*:\s*`)
	snippetRe        = regexp.MustCompile("^\\s*(before|after)\\s*:\\s*`?([^`]*)`?\\s*$")
)

// Parse extracts findings and the optional rewritten code from a model
// reply. It never fails: sections the parser cannot locate or read
// degrade to empty values. Findings tagged with a category outside the
// requested set are dropped.
func Parse(raw string, requested []Category) ([]Finding, string) {
	raw = stripOuterFence(strings.TrimSpace(raw))

	allowed := make(map[Category]bool, len(requested))
	for _, c := range requested {
		allowed[c] = true
	}

	lines := strings.Split(raw, "\n")
	findings := []Finding{}
	inFindings := false
	improvedStart := -1

	for i, line := range lines {
		if findingsHeaderRe.MatchString(line) {
			inFindings = true
			continue
		}
		if improvedHeaderRe.MatchString(line) {
			improvedStart = i + 1
			break
		}
		if !inFindings {
			// Tolerate replies that skip the header and open with bullets.
			if bulletRe.MatchString(line) {
				inFindings = true
			} else {
				continue
			}
		}

		if m := bulletRe.FindStringSubmatch(line); m != nil {
			cat, err := ParseCategory(m[1])
			if err != nil || !allowed[cat] {
				continue
			}
			severity, desc := splitSeverity(m[2])
			if desc == "" {
				continue
			}
			findings = append(findings, Finding{
				Category:    cat,
				Severity:    severity,
				Description: desc,
			})
			continue
		}
		if m := snippetRe.FindStringSubmatch(line); m != nil && len(findings) > 0 {
			last := &findings[len(findings)-1]
			if m[1] == "before" {
				last.Before = strings.TrimSpace(m[2])
			} else {
				last.After = strings.TrimSpace(m[2])
			}
		}
	}

	rewritten := ""
	if improvedStart >= 0 {
		rewritten = extractCode(strings.Join(lines[improvedStart:], "\n"))
	}

	return findings, rewritten
}

// splitSeverity pulls an explicit severity marker off the front of a
// finding description. Unmarked findings default to medium.
func splitSeverity(rest string) (Severity, string) {
	rest = strings.TrimSpace(rest)
	if m := severityParenRe.FindStringSubmatch(rest); m != nil {
		return Severity(strings.ToLower(m[1])), strings.TrimSpace(rest[len(m[0]):])
	}
	if m := severityColonRe.FindStringSubmatch(rest); m != nil {
		return Severity(strings.ToLower(m[1])), strings.TrimSpace(rest[len(m[0]):])
	}
	if strings.EqualFold(rest, "none") {
		return SeverityMedium, ""
	}
	return SeverityMedium, rest
}

// extractCode returns the contents of the first fenced code block in
// text, or the trimmed text itself when no fence is present.
func extractCode(text string) string {
	lines := strings.Split(text, "\n")
	start := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return strings.TrimSpace(text)
	}
	for j := start; j < len(lines); j++ {
		if strings.TrimSpace(lines[j]) == "```" {
			return strings.Join(lines[start:j], "\n")
		}
	}
	// Unterminated fence: take everything after it.
	return strings.Join(lines[start:], "\n")
}

// stripOuterFence removes a markdown fence wrapping the entire reply.
func stripOuterFence(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}
	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return content
	}
	end := len(lines)
	if strings.TrimSpace(lines[end-1]) == "```" {
		end--
	}
	return strings.Join(lines[1:end], "\n")
}
