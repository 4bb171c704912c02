package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/leofalp/chatstream/core/stream"
)

// recordingSummary is what inspect reports about one recording.
type recordingSummary struct {
	Path         string                   `json:"path"`
	ID           string                   `json:"id"`
	Version      string                   `json:"version"`
	Model        string                   `json:"model,omitempty"`
	Provider     string                   `json:"provider,omitempty"`
	Started      time.Time                `json:"started"`
	Duration     time.Duration            `json:"duration"`
	Chunks       int                      `json:"chunks"`
	ChunkTypes   map[stream.ChunkType]int `json:"chunkTypes"`
	ToolCalls    []string                 `json:"toolCalls,omitempty"`
	FinishReason string                   `json:"finishReason,omitempty"`
	ContentBytes int                      `json:"contentBytes"`
}

func summarize(path string, recording *stream.Recording) recordingSummary {
	s := recordingSummary{
		Path:       path,
		ID:         recording.ID,
		Version:    recording.Version,
		Model:      recording.Model,
		Provider:   recording.Provider,
		Started:    time.UnixMilli(recording.Timestamp).UTC(),
		Chunks:     len(recording.Chunks),
		ChunkTypes: map[stream.ChunkType]int{},
	}
	for _, recorded := range recording.Chunks {
		s.ChunkTypes[recorded.Chunk.Type]++
	}
	if n := len(recording.Chunks); n > 0 {
		s.Duration = time.Duration(recording.Chunks[n-1].Timestamp-recording.Chunks[0].Timestamp) * time.Millisecond
	}
	if result := recording.Result; result != nil {
		s.FinishReason = result.FinishReason
		s.ContentBytes = len(result.Content)
		for _, call := range result.ToolCalls {
			s.ToolCalls = append(s.ToolCalls, call.Function.Name)
		}
	}
	return s
}

func (s recordingSummary) markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", s.ID)
	b.WriteString("| field | value |\n|---|---|\n")
	row := func(field string, value any) {
		fmt.Fprintf(&b, "| %s | %v |\n", field, value)
	}
	row("path", s.Path)
	row("version", s.Version)
	row("model", s.Model)
	row("provider", s.Provider)
	row("started", s.Started.Format(time.RFC3339))
	row("duration", s.Duration)
	row("chunks", s.Chunks)
	for _, kind := range []stream.ChunkType{
		stream.ChunkText, stream.ChunkThinking, stream.ChunkToolCallDelta, stream.ChunkToolResult,
		stream.ChunkApprovalRequested, stream.ChunkToolInputAvailable, stream.ChunkError, stream.ChunkDone,
	} {
		if n := s.ChunkTypes[kind]; n > 0 {
			row("chunks."+string(kind), n)
		}
	}
	if len(s.ToolCalls) > 0 {
		row("tool calls", strings.Join(s.ToolCalls, ", "))
	}
	row("finish reason", s.FinishReason)
	row("content bytes", s.ContentBytes)
	b.WriteString("\n")
	return b.String()
}

func (a *app) inspectCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "inspect pattern...",
		Short: "Summarize recordings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := expandRecordings(args)
			if err != nil {
				return err
			}

			summaries := make([]recordingSummary, 0, len(paths))
			for _, path := range paths {
				recording, err := readRecording(path)
				if err != nil {
					return err
				}
				summaries = append(summaries, summarize(path, recording))
			}

			if asJSON {
				encoder := json.NewEncoder(a.stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(summaries)
			}

			out, err := newRenderer(a.stdout, a.flags.render)
			if err != nil {
				return err
			}
			var doc strings.Builder
			for _, s := range summaries {
				doc.WriteString(s.markdown())
			}
			return out.render(doc.String())
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print summaries as JSON")
	return cmd
}
