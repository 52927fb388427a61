// Package analysis defines the contract of a single code-review request
// and its parsed result.
//
// A Request pairs one source text with an ordered set of review categories
// and the sampling parameters for the provider call; it is validated at
// construction and never mutated. BuildPrompt turns a request's source and
// categories into the system/user prompt pair, and Parse turns the model's
// free-text reply back into Findings plus an optional rewritten-code block.
//
// Parsing is deliberately best-effort: a missing or malformed section
// degrades to an empty value, findings tagged with categories that were
// never requested are dropped, and unmarked findings default to medium
// severity. A reply the parser cannot make sense of yields zero findings,
// not an error.
package analysis
