// Package cost prices token usage.
//
// [ModelCost] holds per-million-token rates for a model; [Summary] is the
// priced breakdown of a session's usage.
package cost
