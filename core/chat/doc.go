// Package chat is the conversation client built on top of the stream
// processor.
//
// A [Client] owns the UI message history of one conversation. Each send
// converts the history to model messages, opens a turn through a
// [connection.Adapter], and streams the reply into an assistant message via
// a [message.Builder]. When the finished turn calls tools registered with
// [WithTools], the client runs them, records the results and resubmits the
// conversation, up to [WithMaxToolRounds] rounds.
//
// Only one turn runs at a time. [Client.Stop] cancels it; the partial reply
// is finalized and kept, and no error is reported.
package chat
