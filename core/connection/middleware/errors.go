package middleware

import "errors"

// ErrRetryExhausted is returned by the retry middleware when every attempt
// to connect failed. It is joined with the last connection error, so both
// errors.Is(err, ErrRetryExhausted) and errors.As on the cause work.
var ErrRetryExhausted = errors.New("chatstream: all retry attempts exhausted")
