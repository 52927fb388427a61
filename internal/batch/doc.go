// Package batch runs analysis requests concurrently under a bounded
// worker pool. A submitted job reports per-unit completion through a
// serialized progress callback, supports cooperative cancellation, and
// records every unit's outcome so a batch always finishes with exactly
// one result per input.
package batch
