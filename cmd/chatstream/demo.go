package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leofalp/chatstream/core/chat"
	"github.com/leofalp/chatstream/core/message"
	"github.com/leofalp/chatstream/core/stream"
	"github.com/leofalp/chatstream/providers/memory/inmemory"
	"github.com/leofalp/chatstream/providers/tool"
	"github.com/leofalp/chatstream/providers/tool/calculator"
)

const defaultPrompt = "Use the calculator to add two numbers, then explain the result."

type demoOptions struct {
	record string
	live   bool
}

func (a *app) demoCommand() *cobra.Command {
	opts := &demoOptions{}
	cmd := &cobra.Command{
		Use:   "demo [prompt]",
		Short: "Send one prompt through the chat client with the calculator tool",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.TrimSpace(strings.Join(args, " "))
			if prompt == "" {
				prompt = defaultPrompt
			}
			return a.runDemo(cmd, prompt, opts)
		},
	}
	cmd.Flags().StringVar(&opts.record, "record", "", "directory receiving one recording per assistant turn")
	cmd.Flags().BoolVar(&opts.live, "live", false, "print text chunks as they arrive instead of the rendered transcript")
	return cmd
}

func (a *app) runDemo(cmd *cobra.Command, prompt string, opts *demoOptions) error {
	cfg, err := a.configure(cmd)
	if err != nil {
		return err
	}
	strategy, err := cfg.ChunkStrategy()
	if err != nil {
		return err
	}
	out, err := newRenderer(a.stdout, a.flags.render)
	if err != nil {
		return err
	}
	if opts.record != "" {
		if err := os.MkdirAll(opts.record, 0o755); err != nil {
			return fmt.Errorf("create recording directory: %w", err)
		}
	}

	observer := a.observer(cfg)
	var (
		client    *chat.Client
		recordErr error
	)
	chatOpts := []chat.Option{
		chat.WithModel(cfg.Model),
		chat.WithChunkStrategy(strategy),
		chat.WithTools(tool.NewCatalog(calculator.New())),
		chat.WithMaxToolRounds(cfg.MaxToolRounds),
		chat.WithStore(inmemory.New()),
		chat.WithObserver(observer),
	}
	if opts.live {
		chatOpts = append(chatOpts, chat.WithOnChunk(func(chunk stream.Chunk) {
			fmt.Fprint(a.stdout, chunkText(chunk))
		}))
	}
	if opts.record != "" {
		chatOpts = append(chatOpts,
			chat.WithRecording(cfg.Model, string(cfg.Transport)),
			chat.WithOnFinish(func(message.UIMessage) {
				recordErr = errors.Join(recordErr, saveRecording(opts.record, client.LastRecording()))
			}),
		)
	}
	client = chat.New(a.adapter(cfg, observer), chatOpts...)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()
	go func() {
		<-ctx.Done()
		client.Stop()
	}()

	if err := client.SendMessage(context.WithoutCancel(ctx), prompt); err != nil {
		return err
	}
	if recordErr != nil {
		return recordErr
	}
	if opts.live {
		_, err := fmt.Fprintln(a.stdout)
		return err
	}
	doc := conversationMarkdown(client.Messages()) + overviewMarkdown(client.Overview(), cfg.Pricing)
	return out.render(doc)
}

func saveRecording(dir string, recording *stream.Recording) error {
	if recording == nil {
		return nil
	}
	f, err := os.Create(filepath.Join(dir, recording.ID+".json"))
	if err != nil {
		return fmt.Errorf("create recording: %w", err)
	}
	if err := recording.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
