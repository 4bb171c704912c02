package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/leofalp/chatstream/core/cost"
	"github.com/leofalp/chatstream/core/message"
	"github.com/leofalp/chatstream/core/overview"
	"github.com/leofalp/chatstream/core/stream"
)

const (
	renderAuto     = "auto"
	renderMarkdown = "markdown"
	renderPlain    = "plain"
)

// renderer writes markdown documents, styled by glamour when enabled and
// as plain source otherwise.
type renderer struct {
	out      io.Writer
	markdown *glamour.TermRenderer
}

func newRenderer(out io.Writer, mode string) (*renderer, error) {
	r := &renderer{out: out}

	switch mode {
	case renderPlain:
		return r, nil
	case renderAuto:
		if f, ok := out.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
			return r, nil
		}
	case renderMarkdown:
	default:
		return nil, fmt.Errorf("unknown render mode %q (want auto|markdown|plain)", mode)
	}

	markdown, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer: %w", err)
	}
	r.markdown = markdown
	return r, nil
}

func (r *renderer) render(doc string) error {
	if r.markdown != nil {
		styled, err := r.markdown.Render(doc)
		if err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		doc = styled
	}
	_, err := io.WriteString(r.out, doc)
	return err
}

// messageMarkdown lays out a message as markdown: thinking as a quote, tool
// calls and results as list items, text as is.
func messageMarkdown(m message.UIMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n", m.Role)

	for _, part := range m.Parts {
		switch part.Type {
		case message.PartThinking:
			for line := range strings.SplitSeq(strings.TrimSpace(part.Content), "\n") {
				fmt.Fprintf(&b, "> %s\n", line)
			}
			b.WriteString("\n")
		case message.PartText:
			if text := strings.TrimSpace(part.Content); text != "" {
				b.WriteString(text)
				b.WriteString("\n\n")
			}
		case message.PartToolCall:
			fmt.Fprintf(&b, "- tool `%s` `%s` (%s)\n", part.Name, part.Arguments, part.State)
			if part.Approval != nil {
				fmt.Fprintf(&b, "  - approval `%s`\n", part.Approval.ID)
			}
			b.WriteString("\n")
		case message.PartToolResult:
			if part.Error != "" {
				fmt.Fprintf(&b, "- result of `%s`: error %s\n\n", part.ToolCallID, part.Error)
				continue
			}
			fmt.Fprintf(&b, "- result of `%s`: `%s`\n\n", part.ToolCallID, part.Content)
		}
	}
	return b.String()
}

// conversationMarkdown renders every message in order.
func conversationMarkdown(messages []message.UIMessage) string {
	var b strings.Builder
	for _, m := range messages {
		b.WriteString(messageMarkdown(m))
	}
	return b.String()
}

// overviewMarkdown is a one line session footer. The cost is omitted when
// pricing is unset.
func overviewMarkdown(o overview.Overview, pricing cost.ModelCost) string {
	runs := 0
	for _, n := range o.ToolRuns {
		runs += n
	}
	line := fmt.Sprintf("_%d turns, %d tokens, %d tool runs", o.Turns, o.Usage.TotalTokens, runs)
	if !pricing.IsZero() {
		line += ", " + o.Cost(pricing).String()
	}
	return line + "_\n"
}

// chunkText returns the text a text chunk appends, or "".
func chunkText(chunk stream.Chunk) string {
	if chunk.Type != stream.ChunkText {
		return ""
	}
	if chunk.Delta != "" {
		return chunk.Delta
	}
	return chunk.Content
}
