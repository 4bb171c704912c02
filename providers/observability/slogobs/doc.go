// Package slogobs implements observability.Provider on top of log/slog.
//
// Spans and metric updates are logged at debug level, so they only show up
// when the level is debug or trace. Counters and
// histograms are also kept in memory and can be read back with
// [Observer.CounterValue] and [Observer.HistogramCount].
package slogobs
