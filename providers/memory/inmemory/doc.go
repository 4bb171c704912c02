// Package inmemory provides a concurrency-safe, slice-backed [memory.Provider]
// for process-local chat history. [New] returns a ready-to-use [ArrayMemory].
package inmemory
