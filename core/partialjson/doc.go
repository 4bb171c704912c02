// Package partialjson parses truncated JSON documents, such as tool call
// arguments that are still being streamed, into the most complete value that
// can be recovered so far.
//
// The result is a preview only. Final tool call arguments must always be read
// from the fully accumulated raw string.
package partialjson
