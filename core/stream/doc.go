// Package stream implements the client-side stream processing engine.
//
// A [Processor] consumes normalized [Chunk] values (text deltas, tool call
// deltas, thinking, tool results, done and error markers) and turns them into
// a consistent view of one assistant turn: the accumulated text, the tool
// calls with their lifecycle state, and a terminal [Result]. Observers are
// notified through [Handlers] callbacks, in exactly the order chunks are
// processed, and every notification is also appended to an [Event] log.
//
// Text notifications are gated by a [ChunkStrategy]; tool call arguments are
// previewed through a [JSONParser] while they stream. Sources in older wire
// shapes or speaking the AG-UI event protocol are translated by a
// [StreamParser] before they reach the processor; the default [AGUIParser]
// understands both.
//
// The processor performs no I/O and is not safe for concurrent use. Only
// [Processor.Process] iterates a source; [Processor.ProcessChunk] and
// [Processor.FinalizeStream] are synchronous.
//
//	processor := stream.New(
//	    stream.WithChunkStrategy(stream.NewPunctuationStrategy()),
//	    stream.WithHandlers(stream.Handlers{
//	        OnTextUpdate: func(content string) { fmt.Println(content) },
//	    }),
//	)
//	result, err := processor.Process(ctx, chunks)
package stream
