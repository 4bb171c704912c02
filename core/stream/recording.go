package stream

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/oklog/ulid/v2"
)

// RecordingVersion is the only recording format version understood by LoadRecording.
const RecordingVersion = "1.0"

// Recording is a captured chunk sequence, replayable through a fresh
// processor to reproduce a turn exactly.
type Recording struct {
	ID        string          `json:"id"`
	Version   string          `json:"version"`
	Timestamp int64           `json:"timestamp"` // Unix milliseconds
	Model     string          `json:"model,omitempty"`
	Provider  string          `json:"provider,omitempty"`
	Chunks    []RecordedChunk `json:"chunks"`
	Result    *Result         `json:"result,omitempty"`
}

// RecordedChunk is one chunk with its arrival time and position.
type RecordedChunk struct {
	Chunk     Chunk `json:"chunk"`
	Timestamp int64 `json:"timestamp"` // Unix milliseconds
	Index     int   `json:"index"`
}

// NewRecordingID returns a ULID for a recording started at t.
func NewRecordingID(t time.Time) string {
	id, err := ulid.New(ulid.Timestamp(t), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return fmt.Sprintf("rec-%d", t.UnixNano())
	}
	return id.String()
}

func newRecording(now time.Time, model, provider string) *Recording {
	return &Recording{
		ID:        NewRecordingID(now),
		Version:   RecordingVersion,
		Timestamp: now.UnixMilli(),
		Model:     model,
		Provider:  provider,
		Chunks:    []RecordedChunk{},
	}
}

func (r *Recording) append(chunk Chunk, at time.Time) {
	r.Chunks = append(r.Chunks, RecordedChunk{Chunk: chunk, Timestamp: at.UnixMilli(), Index: len(r.Chunks)})
}

// Save writes the recording as indented JSON.
func (r *Recording) Save(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(r); err != nil {
		return fmt.Errorf("encode recording: %w", err)
	}
	return nil
}

// LoadRecording decodes a recording written by Save.
func LoadRecording(r io.Reader) (*Recording, error) {
	var recording Recording
	if err := json.NewDecoder(r).Decode(&recording); err != nil {
		return nil, fmt.Errorf("decode recording: %w", err)
	}
	if recording.Version != RecordingVersion {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, recording.Version)
	}
	return &recording, nil
}

// ReplayStream yields the recorded chunks in their recorded order.
func ReplayStream(recording *Recording) iter.Seq2[Chunk, error] {
	return func(yield func(Chunk, error) bool) {
		for _, recorded := range recording.Chunks {
			if !yield(recorded.Chunk, nil) {
				return
			}
		}
	}
}

// Replay runs a recording through a new processor built with opts.
func Replay(ctx context.Context, recording *Recording, opts ...Option) (Result, error) {
	return New(opts...).Process(ctx, ReplayStream(recording))
}
