// Package config loads critic configuration by merging built-in
// defaults, the user's config file, CRITIC_* environment variables,
// and command-line overrides, in that order of precedence.
package config
