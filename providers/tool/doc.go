// Package tool defines client-side tools: typed Go functions the chat client
// runs when the model calls them by name.
//
// [NewTool] derives the input schema from the handler's input type and
// validates every call against it before the handler runs. Tools are
// registered in a [Catalog], which the chat client consults after each turn.
package tool
