package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/leofalp/chatstream/core/message"
	"github.com/leofalp/chatstream/core/stream"
)

var (
	errNoRecordings   = errors.New("no recordings matched")
	errReplayDiverged = errors.New("replay diverged from recorded result")
)

func (a *app) replayCommand() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "replay [pattern...]",
		Short: "Replay recordings through a fresh processor",
		Long: "Replay recordings through a fresh processor and render the rebuilt message.\n" +
			"Patterns support ** globs; without arguments the configured recordings glob is used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.configure(cmd)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = []string{cfg.Recordings}
			}
			paths, err := expandRecordings(args)
			if err != nil {
				return err
			}
			out, err := newRenderer(a.stdout, a.flags.render)
			if err != nil {
				return err
			}

			for _, path := range paths {
				// A fresh strategy per recording: strategies carry state.
				strategy, err := cfg.ChunkStrategy()
				if err != nil {
					return err
				}
				recording, err := readRecording(path)
				if err != nil {
					return err
				}

				builder := message.NewBuilder(message.WithID(recording.ID))
				result, err := stream.Replay(cmd.Context(), recording,
					stream.WithChunkStrategy(strategy),
					stream.WithHandlers(builder.Handlers()),
					stream.WithObserver(a.observer(cfg)),
				)
				if err != nil {
					return fmt.Errorf("replay %s: %w", path, err)
				}
				if check && recording.Result != nil && !sameResult(*recording.Result, result) {
					return fmt.Errorf("%w: %s", errReplayDiverged, path)
				}

				doc := fmt.Sprintf("## %s\n\n%s", filepath.Base(path), messageMarkdown(builder.Message()))
				if err := out.render(doc); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "fail when a replayed result differs from the recorded one")
	return cmd
}

// expandRecordings resolves patterns to a sorted, duplicate free list of
// regular files.
func expandRecordings(patterns []string) ([]string, error) {
	var paths []string
	for _, pattern := range patterns {
		hits, err := doublestar.FilepathGlob(filepath.FromSlash(pattern))
		if err != nil {
			return nil, fmt.Errorf("expand recording glob %q: %w", pattern, err)
		}
		for _, hit := range hits {
			if info, err := os.Stat(hit); err == nil && info.Mode().IsRegular() {
				paths = append(paths, hit)
			}
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %q", errNoRecordings, patterns)
	}
	slices.Sort(paths)
	return slices.Compact(paths), nil
}

func readRecording(path string) (*stream.Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	recording, err := stream.LoadRecording(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recording, nil
}

func sameResult(recorded, replayed stream.Result) bool {
	return recorded.Content == replayed.Content &&
		recorded.Thinking == replayed.Thinking &&
		recorded.FinishReason == replayed.FinishReason &&
		slices.Equal(recorded.ToolCalls, replayed.ToolCalls)
}
