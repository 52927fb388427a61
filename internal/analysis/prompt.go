package analysis

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a strict, expert code reviewer. You analyze source code against a requested set of review categories and produce a structured plain-text report.

Rules:
1. Only report issues belonging to the requested categories. Never invent a category.
2. Be concise and actionable. Every finding must say what is wrong and why it matters.
3. Rate severity as "low", "medium", or "high".
4. When you can improve the code, include a full rewritten version.

You MUST respond with exactly these sections, in this order:

FINDINGS:
- [category] (severity) one-line description of the issue

One bullet per finding. If there are no issues, write "FINDINGS:" followed by "none".

IMPROVED CODE:
` + "```" + `
the complete rewritten source
` + "```" + `

Omit the IMPROVED CODE section entirely if no rewrite is warranted.`

// categoryInstructions holds the per-category review guidance inserted
// into the user prompt. The texts are opaque blocks keyed by category;
// authoring them is outside this package's concern.
var categoryInstructions = map[Category]string{
	CategoryNullReference:      "null_reference: flag dereferences of possibly-null values, missing null/nil guards, and unchecked optional results.",
	CategoryExceptionHandling:  "exception_handling: flag swallowed errors, overly broad catch blocks, and failure paths that leak partial state.",
	CategoryResourceManagement: "resource_management: flag unreleased handles, connections, streams, and missing deterministic disposal.",
	CategoryPerformance:        "performance: flag needless allocations, quadratic loops over large inputs, and repeated work that should be cached.",
	CategorySecurity:           "security: flag injection risks, hardcoded credentials, unsafe deserialization, and missing input validation.",
	CategoryNamingConvention:   "naming_convention: flag identifiers that break the language's naming conventions or mislead about behavior.",
	CategoryCodeDocumentation:  "code_documentation: flag public surfaces without doc comments and comments that contradict the code.",
	CategoryHardcodingToConfig: "hardcoding_to_config: flag literals (paths, URLs, limits, credentials) that belong in configuration.",
}

// BuildPrompt assembles the system and user prompts for one request.
func BuildPrompt(source string, categories []Category) (system, user string) {
	var b strings.Builder

	b.WriteString("Review the following source code.\n\n")
	b.WriteString("Requested categories:\n")
	for _, c := range categories {
		fmt.Fprintf(&b, "- %s\n", categoryInstructions[c])
	}

	b.WriteString("\n--- BEGIN SOURCE ---\n")
	b.WriteString(source)
	b.WriteString("\n--- END SOURCE ---\n")

	return systemPrompt, b.String()
}

// SystemPrompt returns the system prompt for the LLM.
func SystemPrompt() string {
	return systemPrompt
}
