// Package utils provides the low-level helpers shared by chatstream
// internals: [DoPostStream] opens a streaming HTTP response, [SSEScanner] and
// [NDJSONScanner] split it into payloads, and [JSONString] renders values for
// tool results and logs.
package utils
