// Package l5aggregate owns Layer 5 of the attention data model: summaries
// computed over the complete smoothed sequence.
//
// Responsibilities: fixed-width engagement heatmap bins, greedy
// non-overlapping confusion events, the session summary, and notes that
// attach transcript text to events.
//
// Dependency rule: L5 may depend on L1-L4 only. Every function here is pure
// and expects its input in timestamp order.
package l5aggregate
