// Package cli implements the critic command tree and maps pipeline
// outcomes to deterministic exit codes.
package cli
