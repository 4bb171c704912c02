package stream

import "errors"

var (
	// ErrFinalized is returned by ProcessChunk after FinalizeStream until Reset.
	ErrFinalized = errors.New("stream: processor already finalized")

	// ErrUnsupportedVersion is returned when loading a recording with an unknown format version.
	ErrUnsupportedVersion = errors.New("stream: unsupported recording version")

	// ErrUnknownStrategy is returned by ParseStrategy for an unknown strategy name.
	ErrUnknownStrategy = errors.New("stream: unknown chunk strategy")
)
