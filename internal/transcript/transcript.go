// Package transcript holds the append-only conversation shown to the user.
//
// The transcript is the authoritative history. Views are derived from it with
// Project and never write back.
package transcript

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Chunk is one retrieved passage backing a bot message.
type Chunk struct {
	Content        string  `json:"content"`
	RelevanceScore float64 `json:"relevance_score"`
}

type Message struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Chunks    []Chunk   `json:"chunks,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Transcript is an ordered, append-only list of messages. Messages are
// copied on the way in and on the way out, so a stored message can never be
// changed after Append returns.
type Transcript struct {
	mu       sync.RWMutex
	messages []Message
	now      func() time.Time
}

func New() *Transcript {
	return &Transcript{now: time.Now}
}

// Append stores a message at the end of the transcript. Chunks are only kept
// for bot messages.
func (t *Transcript) Append(sender Sender, text string, chunks []Chunk) Message {
	msg := Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Text:      text,
		CreatedAt: t.now().UTC(),
	}
	if sender == SenderBot && len(chunks) > 0 {
		msg.Chunks = append([]Chunk(nil), chunks...)
	}

	t.mu.Lock()
	t.messages = append(t.messages, msg)
	t.mu.Unlock()
	return cloneMessage(msg)
}

func (t *Transcript) AppendUser(text string) Message {
	return t.Append(SenderUser, text, nil)
}

func (t *Transcript) AppendBot(text string, chunks []Chunk) Message {
	return t.Append(SenderBot, text, chunks)
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Messages returns a copy of the stored messages in append order.
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Message, len(t.messages))
	for i, msg := range t.messages {
		out[i] = cloneMessage(msg)
	}
	return out
}

// Last returns the newest message, if any.
func (t *Transcript) Last() (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return cloneMessage(t.messages[len(t.messages)-1]), true
}

type exportDocument struct {
	ExportedAt time.Time `json:"exported_at"`
	Messages   []Message `json:"messages"`
}

// Export writes the transcript as indented JSON.
func (t *Transcript) Export(w io.Writer) error {
	doc := exportDocument{
		ExportedAt: t.now().UTC(),
		Messages:   t.Messages(),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func cloneMessage(msg Message) Message {
	if len(msg.Chunks) > 0 {
		msg.Chunks = append([]Chunk(nil), msg.Chunks...)
	}
	return msg
}
