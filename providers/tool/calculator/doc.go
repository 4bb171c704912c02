// Package calculator is a small arithmetic client tool. The CLI demo registers
// it so the lorem provider's tool calls have something real to execute.
package calculator
