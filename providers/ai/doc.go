// Package ai defines the provider-agnostic wire model shared by every layer of
// chatstream: the [Message] shape that is re-submitted to a backend on the next
// turn, the canonical [ToolCall] representation, and the [StreamProvider]
// contract that in-process backends implement to feed a [ChatStream].
//
// Vendor adapters are not part of this module; anything able to produce a
// [ChatStream] or a sequence of stream chunks can be plugged in.
package ai
