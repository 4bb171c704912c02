// Package message holds the UI-facing conversation model of chatstream.
//
// A [UIMessage] is an ordered list of [Part] values (text, tool calls, tool
// results and thinking) that a [Builder] mutates in place while a stream is
// processed. Converters translate between UI messages and the provider
// agnostic [ai.Message] shape that is re-submitted to a backend:
//
//   - [ToModelMessages] drops thinking parts, keeps only tool calls whose
//     input is final, and splits tool results into role=tool messages.
//   - [FromModelMessages] folds role=tool messages back into the preceding
//     assistant message as tool-result parts.
package message
