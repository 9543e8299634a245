package transcript

import (
	"fmt"
	"strconv"
	"strings"
)

// View is the display form of one message. It is derived from a Message and
// carries no state of its own.
type View struct {
	ID     string
	Sender Sender
	Label  string
	Lines  []string
	Source *SourceView
}

// SourceView is the citation block attached under a bot message.
type SourceView struct {
	Header string
	Blocks []ChunkView
}

type ChunkView struct {
	Ordinal   int
	Title     string
	Relevance string
	Lines     []string
}

// Project maps messages to views in order. Newlines in message and chunk
// text become separate display lines.
func Project(messages []Message) []View {
	views := make([]View, 0, len(messages))
	for _, msg := range messages {
		views = append(views, projectMessage(msg))
	}
	return views
}

func projectMessage(msg Message) View {
	view := View{
		ID:     msg.ID,
		Sender: msg.Sender,
		Label:  senderLabel(msg.Sender),
		Lines:  lineBreaks(msg.Text),
	}
	if msg.Sender == SenderBot && len(msg.Chunks) > 0 {
		view.Source = projectChunks(msg.Chunks)
	}
	return view
}

func projectChunks(chunks []Chunk) *SourceView {
	source := &SourceView{
		Header: fmt.Sprintf("Source Information: (%d chunks used)", len(chunks)),
		Blocks: make([]ChunkView, 0, len(chunks)),
	}
	for i, chunk := range chunks {
		source.Blocks = append(source.Blocks, ChunkView{
			Ordinal:   i + 1,
			Title:     fmt.Sprintf("Chunk %d", i+1),
			Relevance: "Relevance: " + FormatScore(chunk.RelevanceScore) + "%",
			Lines:     lineBreaks(chunk.Content),
		})
	}
	return source
}

// FormatScore prints a relevance score with the shortest exact decimal form,
// so 87.5 stays "87.5" and 90 stays "90".
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

func senderLabel(sender Sender) string {
	switch sender {
	case SenderUser:
		return "You"
	case SenderBot:
		return "Assistant"
	default:
		return string(sender)
	}
}

func lineBreaks(text string) []string {
	return strings.Split(Sanitize(text), "\n")
}

// RenderPlain renders views as indented plain text.
func RenderPlain(views []View) string {
	var b strings.Builder
	for i, view := range views {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("[" + view.Label + "]\n")
		for _, line := range view.Lines {
			b.WriteString("  " + line + "\n")
		}
		if view.Source == nil {
			continue
		}
		b.WriteString("  " + view.Source.Header + "\n")
		for _, block := range view.Source.Blocks {
			b.WriteString("    " + block.Title + "  " + block.Relevance + "\n")
			for _, line := range block.Lines {
				b.WriteString("      " + line + "\n")
			}
		}
	}
	return b.String()
}
