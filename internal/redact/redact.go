package redact

import (
	"path/filepath"
	"regexp"
	"strings"
)

const placeholder = "[REDACTED]"

// pattern pairs a name with its detector so hits can be logged without
// echoing the match.
type pattern struct {
	name string
	re   *regexp.Regexp
}

var secretPatterns = []pattern{
	{"api key assignment", regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`)},
	{"aws access key id", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	{"aws secret access key", regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`)},
	{"secret assignment", regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["']([^"']{8,})["']`)},
	{"connection string password", regexp.MustCompile(`(?i)(password|pwd)\s*=\s*[^;"'\s]{4,}`)},
	{"bearer token", regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`)},
	{"jwt", regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`)},
	{"private key block", regexp.MustCompile(`-----BEGIN\s+(RSA\s+)?PRIVATE KEY-----`)},
	{"github token", regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`)},
	{"slack token", regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`)},
	{"anthropic key", regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`)},
	{"openai key", regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`)},
	{"hex secret assignment", regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`)},
}

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	result := text
	for _, p := range secretPatterns {
		result = p.re.ReplaceAllString(result, placeholder)
	}
	return result
}

// ShouldRedactPath reports whether path matches any withhold pattern.
// Patterns of the form "**/name" also match on the bare filename.
func ShouldRedactPath(path string, patterns []string) bool {
	for _, pat := range patterns {
		if ok, err := filepath.Match(pat, path); err == nil && ok {
			return true
		}
		if trimmed := strings.TrimPrefix(pat, "**/"); trimmed != pat {
			if ok, err := filepath.Match(trimmed, filepath.Base(path)); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// Content prepares one file's text for a provider. Path-matched files
// are withheld whole; everything else goes through secret scanning.
func Content(content, path string, withholdPaths []string) string {
	if ShouldRedactPath(path, withholdPaths) {
		return placeholder + " (file content withheld by path policy)\n"
	}
	return Secrets(content)
}
