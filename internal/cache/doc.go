// Package cache stores raw model replies on disk so that re-analyzing
// unchanged source skips the provider round trip.
//
// Entries are keyed by a SHA-256 hash over the provider, model,
// requested categories, and the redacted source text. Each entry keeps
// the reply with a creation timestamp and a TTL in seconds; expired
// entries are treated as misses on read.
//
// The default directory is $XDG_CACHE_HOME/critic or the OS
// equivalent.
package cache
