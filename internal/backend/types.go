package backend

import (
	"bytes"
	"encoding/json"

	"ragconsole/internal/transcript"
)

const (
	PathChat   = "/chat"
	PathScrape = "/scrape"
	PathClean  = "/cleanup"
	PathStatus = "/vector-db-status"

	StatusSuccess = "success"
)

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Response string             `json:"response"`
	Context  string             `json:"context,omitempty"`
	Chunks   []transcript.Chunk `json:"chunks,omitempty"`
}

// chatEnvelope is the wire form. Response is a pointer so a body without it
// is told apart from an empty answer, and Error stays raw because any truthy
// value marks the reply as failed.
type chatEnvelope struct {
	Response *string            `json:"response"`
	Context  string             `json:"context"`
	Chunks   []transcript.Chunk `json:"chunks"`
	Error    json.RawMessage    `json:"error"`
}

type ScrapeRequest struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// StatusReply is the body of /scrape and /cleanup.
type StatusReply struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type VectorStoreStatus struct {
	TotalDocuments int      `json:"total_documents"`
	Sources        []string `json:"sources"`
	LastUpdated    string   `json:"last_updated"`
	SampleContent  string   `json:"sample_content"`
}

type vectorStoreEnvelope struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Data    VectorStoreStatus `json:"data"`
}

// truthy reports whether a raw JSON value would count as set: anything but
// absent, null, false, 0 or "".
func truthy(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return false
	}
	switch string(trimmed) {
	case "null", "false", "0", `""`:
		return false
	}
	return true
}

// errorText renders a raw error value for logs and failure messages.
func errorText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}
