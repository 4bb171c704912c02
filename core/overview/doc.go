// Package overview aggregates what a chat session consumed: turns, token
// usage, tool executions and time spent streaming.
//
// The chat client keeps one [Overview] per conversation and exposes a
// snapshot through Client.Overview. [Overview.Cost] prices the usage with a
// [cost.ModelCost].
package overview
