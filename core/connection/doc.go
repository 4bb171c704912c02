// Package connection turns a conversation into a sequence of stream chunks.
//
// An [Adapter] opens one assistant turn and returns an iter.Seq2 that the
// stream processor consumes. The bundled adapters cover the common server
// shapes:
//
//   - [NewServerSentEvents] POSTs the request and decodes "data:" events.
//   - [NewHTTPStream] POSTs the request and decodes newline-delimited JSON.
//   - [NewStream] wraps an in-process chunk source.
//   - [NewProviderAdapter] bridges an [ai.StreamProvider].
//
// Adapters compose with [Middleware] through [Chain]; ready-made logging,
// timeout and retry middlewares live in the middleware subpackage.
package connection
