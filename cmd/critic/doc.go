// Critic is a CLI for reviewing source files with LLM providers.
//
// It analyzes files and directories concurrently, emitting categorized
// findings with severities and deterministic exit codes suitable for CI
// gating.
//
// Usage:
//
//	critic analyze src/                   # review every matching file in a tree
//	critic analyze Order.cs --stream      # review one file with live output
//	critic analyze src/ --fail-on high    # nonzero exit on high findings
//	critic models list                    # show known providers and models
//	critic models doctor                  # probe the configured credentials
//	critic config init                    # write the default config file
//
// See https://github.com/critic-dev/critic for full documentation.
package main
