package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"ragconsole/internal/action"
	"ragconsole/internal/backend"
	"ragconsole/internal/logger"
	"ragconsole/internal/transcript"
)

type fakeBackend struct {
	chat    backend.ChatOutcome
	scrape  backend.StatusOutcome
	cleanup backend.StatusOutcome
	status  backend.StoreOutcome

	chatMessages []string
	scrapeCalls  int
}

func (f *fakeBackend) Chat(_ context.Context, message string) backend.ChatOutcome {
	f.chatMessages = append(f.chatMessages, message)
	return f.chat
}

func (f *fakeBackend) Scrape(context.Context, string, string) backend.StatusOutcome {
	f.scrapeCalls++
	return f.scrape
}

func (f *fakeBackend) Cleanup(context.Context) backend.StatusOutcome {
	return f.cleanup
}

func (f *fakeBackend) VectorStoreStatus(context.Context) backend.StoreOutcome {
	return f.status
}

func newTestModel(fb *fakeBackend) model {
	cfg := appConfig{baseURL: "http://127.0.0.1:8000", timeout: time.Minute, statusTTL: 10 * time.Second}
	exec := action.NewExecutor(transcript.New(), fb)
	m := newModel(cfg, exec, logger.Nop())
	m, _ = step(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func step(m model, msg tea.Msg) (model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(model), cmd
}

// collect runs cmd and flattens batches. Only call it on commands that do
// network work through the fake backend; cursor blink commands sleep.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func settle(m model, cmd tea.Cmd) model {
	for _, msg := range collect(cmd) {
		m, _ = step(m, msg)
	}
	return m
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func TestEnterSendsChatAndRendersAnswer(t *testing.T) {
	fb := &fakeBackend{chat: backend.ChatOutcome{
		Kind: backend.Success,
		Payload: backend.ChatResponse{
			Response: "Hi\n\nthere",
			Chunks:   []transcript.Chunk{{Content: "greeting passage", RelevanceScore: 87.5}},
		},
	}}
	m := newTestModel(fb)
	m.input.SetValue("Hello")

	m, cmd := step(m, key(tea.KeyEnter))
	if got := m.exec.Transcript().Len(); got != 1 {
		t.Fatalf("expected user message appended before the call settles, got %d messages", got)
	}
	if m.input.Value() != "" {
		t.Fatalf("expected input cleared after send, got %q", m.input.Value())
	}
	if m.chatInflight != 1 {
		t.Fatalf("expected one answer in flight, got %d", m.chatInflight)
	}

	m = settle(m, cmd)
	msgs := m.exec.Transcript().Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected user and bot messages, got %d", len(msgs))
	}
	if msgs[1].Sender != transcript.SenderBot || msgs[1].Text != "Hi\n\nthere" {
		t.Fatalf("unexpected bot message: %+v", msgs[1])
	}
	if len(msgs[1].Chunks) != 1 {
		t.Fatalf("expected chunks attached to the answer, got %d", len(msgs[1].Chunks))
	}
	if m.chatInflight != 0 {
		t.Fatalf("expected no answers in flight, got %d", m.chatInflight)
	}
	timeline := m.renderTimeline()
	for _, want := range []string{"You", "Assistant", "Source Information: (1 chunks used)", "Relevance: 87.5%"} {
		if !strings.Contains(timeline, want) {
			t.Fatalf("expected timeline to contain %q:\n%s", want, timeline)
		}
	}
}

func TestTimelineFollowsNewestMessage(t *testing.T) {
	fb := &fakeBackend{chat: backend.ChatOutcome{Kind: backend.Success, Payload: backend.ChatResponse{Response: "ok"}}}
	m := newTestModel(fb)
	for i := 1; i <= 20; i++ {
		m.input.SetValue(fmt.Sprintf("question %d", i))
		next, cmd := step(m, key(tea.KeyEnter))
		m = settle(next, cmd)
	}
	if m.timeline.TotalLineCount() <= m.timeline.Height {
		t.Fatalf("expected timeline taller than the viewport, got %d lines for height %d", m.timeline.TotalLineCount(), m.timeline.Height)
	}

	m.timeline.LineUp(30)
	if m.timeline.AtBottom() {
		t.Fatalf("expected timeline scrolled away from the bottom")
	}

	m.input.SetValue("question 21")
	m, cmd := step(m, key(tea.KeyEnter))
	if !m.timeline.AtBottom() {
		t.Fatalf("expected timeline at bottom after the user message")
	}
	m = settle(m, cmd)
	if !m.timeline.AtBottom() {
		t.Fatalf("expected timeline at bottom after the answer")
	}
	if !strings.Contains(m.timeline.View(), "question 21") {
		t.Fatalf("expected newest message visible:\n%s", m.timeline.View())
	}
}

func TestChatTransportFailureShowsFallback(t *testing.T) {
	fb := &fakeBackend{chat: backend.ChatOutcome{Kind: backend.TransportFailure, Err: context.DeadlineExceeded}}
	m := newTestModel(fb)
	m.input.SetValue("Hello")

	m, cmd := step(m, key(tea.KeyEnter))
	m = settle(m, cmd)

	last, _ := m.exec.Transcript().Last()
	if last.Text != action.MsgChatFallback {
		t.Fatalf("expected fallback text, got %q", last.Text)
	}
	if !strings.HasPrefix(m.statusLine, "error:") {
		t.Fatalf("expected error in status line, got %q", m.statusLine)
	}
}

func TestWhitespaceInputIsIgnored(t *testing.T) {
	fb := &fakeBackend{}
	m := newTestModel(fb)
	m.input.SetValue("   ")

	m, _ = step(m, key(tea.KeyEnter))
	if got := m.exec.Transcript().Len(); got != 0 {
		t.Fatalf("expected no messages, got %d", got)
	}
	if len(fb.chatMessages) != 0 {
		t.Fatalf("expected no chat call, got %d", len(fb.chatMessages))
	}
	if m.input.Value() != "   " {
		t.Fatalf("expected whitespace input left in place, got %q", m.input.Value())
	}
}

func TestScrapeDialogSubmitHidesAndMarksBusy(t *testing.T) {
	fb := &fakeBackend{scrape: backend.StatusOutcome{Kind: backend.Success, Message: "Loaded 3 documents"}}
	m := newTestModel(fb)

	m, _ = step(m, key(tea.KeyCtrlS))
	if !m.form.Visible() {
		t.Fatalf("expected scrape dialog visible after ctrl+s")
	}
	m.form.SetValues("https://docs.example/loans", "loans")

	m, cmd := step(m, key(tea.KeyEnter))
	if m.form.Visible() {
		t.Fatalf("expected dialog hidden on submit")
	}
	if !m.exec.ScrapeState().Busy() {
		t.Fatalf("expected scrape control busy")
	}
	if !strings.Contains(m.View(), "Scraping...") {
		t.Fatalf("expected busy label in view")
	}

	m, _ = step(m, key(tea.KeyCtrlS))
	if m.form.Visible() {
		t.Fatalf("expected dialog to stay closed while scraping")
	}

	m = settle(m, cmd)
	if m.exec.ScrapeState().Busy() {
		t.Fatalf("expected scrape control released")
	}
	if m.exec.ScrapeState().Label() != "Scrape New URL" {
		t.Fatalf("unexpected idle label %q", m.exec.ScrapeState().Label())
	}
	last, _ := m.exec.Transcript().Last()
	if last.Text != "Data scraping completed successfully. Loaded 3 documents" {
		t.Fatalf("unexpected scrape message %q", last.Text)
	}
	if fb.scrapeCalls != 1 {
		t.Fatalf("expected one scrape call, got %d", fb.scrapeCalls)
	}
}

func TestInvalidScrapeKeepsDialogOpen(t *testing.T) {
	fb := &fakeBackend{}
	m := newTestModel(fb)

	m, _ = step(m, key(tea.KeyCtrlS))
	m.form.SetValues("not a url", "")
	m, cmd := step(m, key(tea.KeyEnter))

	if !m.form.Visible() {
		t.Fatalf("expected dialog to remain visible")
	}
	if len(collect(cmd)) != 0 || fb.scrapeCalls != 0 {
		t.Fatalf("expected no scrape dispatched")
	}
	if m.exec.ScrapeState().Busy() {
		t.Fatalf("expected scrape control idle")
	}
	if !strings.HasPrefix(m.statusLine, "error:") {
		t.Fatalf("expected validation error in status line, got %q", m.statusLine)
	}
}

func TestEscClosesScrapeDialog(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	m, _ = step(m, key(tea.KeyCtrlS))
	m.form.SetValues("https://docs.example", "docs")

	m, _ = step(m, key(tea.KeyEsc))
	if m.form.Visible() {
		t.Fatalf("expected dialog hidden after esc")
	}
	if m.quitConfirm {
		t.Fatalf("esc on an open dialog should not prompt to quit")
	}
	if u, n := m.form.Values(); u != "" || n != "" {
		t.Fatalf("expected fields reset, got %q %q", u, n)
	}
}

func TestDialogClicks(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	m, _ = step(m, key(tea.KeyCtrlS))
	_, rect := m.renderScrapeDialog()

	inside := tea.MouseMsg{X: rect.X + rect.Width/2, Y: rect.Y + rect.Height/2, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
	m, _ = step(m, inside)
	if !m.form.Visible() {
		t.Fatalf("expected content click to keep dialog open")
	}

	backdrop := tea.MouseMsg{X: 0, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
	m, _ = step(m, backdrop)
	if m.form.Visible() {
		t.Fatalf("expected backdrop click to close dialog")
	}
}

func TestCleanupShowsBusyLabelUntilSettled(t *testing.T) {
	fb := &fakeBackend{cleanup: backend.StatusOutcome{Kind: backend.Success, Message: "ok"}}
	m := newTestModel(fb)

	m, cmd := step(m, key(tea.KeyCtrlX))
	if m.exec.CleanupState().Label() != "Cleaning..." {
		t.Fatalf("expected busy label, got %q", m.exec.CleanupState().Label())
	}
	if !strings.Contains(m.View(), "Cleaning...") {
		t.Fatalf("expected busy label in view")
	}

	m = settle(m, cmd)
	if m.exec.CleanupState().Label() != "Clean Up Data" {
		t.Fatalf("expected idle label, got %q", m.exec.CleanupState().Label())
	}
	last, _ := m.exec.Transcript().Last()
	if last.Text != action.MsgCleanupSuccess {
		t.Fatalf("unexpected cleanup message %q", last.Text)
	}
}

func TestChatStaysEnabledWhileCleaning(t *testing.T) {
	fb := &fakeBackend{
		chat:    backend.ChatOutcome{Kind: backend.Success, Payload: backend.ChatResponse{Response: "ok"}},
		cleanup: backend.StatusOutcome{Kind: backend.Success},
	}
	m := newTestModel(fb)

	m, cleanup := step(m, key(tea.KeyCtrlX))
	m.input.SetValue("still here?")
	m, chat := step(m, key(tea.KeyEnter))
	if len(collect(chat)) != 1 {
		t.Fatalf("expected chat dispatched while cleanup is busy")
	}
	m = settle(m, cleanup)
	if m.exec.CleanupState().Busy() {
		t.Fatalf("expected cleanup released")
	}
}

func TestSlashCommands(t *testing.T) {
	fb := &fakeBackend{
		chat: backend.ChatOutcome{Kind: backend.Success, Payload: backend.ChatResponse{Response: "ok"}},
		status: backend.StoreOutcome{Kind: backend.Success, Payload: backend.VectorStoreStatus{
			TotalDocuments: 4,
			Sources:        []string{"loans"},
		}},
	}
	m := newTestModel(fb)

	m.input.SetValue("/status")
	m, cmd := step(m, key(tea.KeyEnter))
	m = settle(m, cmd)
	last, _ := m.exec.Transcript().Last()
	if last.Text != "Vector store holds 4 documents.\nSources: loans" {
		t.Fatalf("unexpected status message %q", last.Text)
	}

	m.input.SetValue("//etc/hosts is a path")
	m, cmd = step(m, key(tea.KeyEnter))
	m = settle(m, cmd)
	if len(fb.chatMessages) != 1 || fb.chatMessages[0] != "/etc/hosts is a path" {
		t.Fatalf("expected escaped slash sent as chat, got %v", fb.chatMessages)
	}

	m.input.SetValue("/bogus")
	m, _ = step(m, key(tea.KeyEnter))
	if m.statusLine != "unknown command: /bogus" {
		t.Fatalf("unexpected status line %q", m.statusLine)
	}

	m.input.SetValue("/save")
	m, _ = step(m, key(tea.KeyEnter))
	if m.statusLine != "usage: /save <path>" {
		t.Fatalf("unexpected status line %q", m.statusLine)
	}

	m.input.SetValue("/help")
	m, _ = step(m, key(tea.KeyEnter))
	if m.activeTab != tabHelp {
		t.Fatalf("expected help tab, got %d", m.activeTab)
	}
}

func TestEscPromptsQuitFromChat(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	m, _ = step(m, key(tea.KeyEsc))
	if !m.quitConfirm {
		t.Fatalf("expected quit confirmation")
	}
	m, _ = step(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	if m.quitConfirm {
		t.Fatalf("expected quit confirmation dismissed")
	}
}

func TestExportTranscriptWritesJSON(t *testing.T) {
	tr := transcript.New()
	tr.AppendUser("Hello")
	tr.AppendBot("Hi", []transcript.Chunk{{Content: "c", RelevanceScore: 50}})

	path := filepath.Join(t.TempDir(), "exports", "chat.json")
	if err := exportTranscript(tr, path); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var doc struct {
		Messages []transcript.Message `json:"messages"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if len(doc.Messages) != 2 || doc.Messages[1].Chunks[0].RelevanceScore != 50 {
		t.Fatalf("unexpected export contents: %s", raw)
	}
}

func TestCenteredOffsetMatchesPlace(t *testing.T) {
	cases := []struct {
		outer, inner, want int
	}{
		{outer: 10, inner: 4, want: 3},
		{outer: 11, inner: 4, want: 3},
		{outer: 4, inner: 10, want: 0},
	}
	for _, tc := range cases {
		if got := centeredOffset(tc.outer, tc.inner); got != tc.want {
			t.Fatalf("centeredOffset(%d, %d) = %d, want %d", tc.outer, tc.inner, got, tc.want)
		}
	}
}

func TestCompactSingleLine(t *testing.T) {
	got := compactSingleLine("  line one\n\tline   two  ", 40)
	if got != "line one line two" {
		t.Fatalf("unexpected compact line %q", got)
	}
	if got := compactSingleLine(strings.Repeat("x", 20), 10); got != "xxxxxxx..." {
		t.Fatalf("unexpected truncation %q", got)
	}
}

func TestWrapTextKeepsInnerWhitespace(t *testing.T) {
	cases := []struct {
		in    string
		width int
		want  string
	}{
		{in: "    indented  code", width: 40, want: "    indented  code"},
		{in: "alpha beta gamma", width: 10, want: "alpha beta\ngamma"},
		{in: "a b  c    d", width: 7, want: "a b  c\nd"},
		{in: "abcdefghijkl", width: 5, want: "abcde\nfghij\nkl"},
		{in: "first\n\n  second", width: 20, want: "first\n\n  second"},
	}
	for _, tc := range cases {
		if got := wrapText(tc.in, tc.width); got != tc.want {
			t.Fatalf("wrapText(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.want)
		}
	}
}

func TestTruncateCutsOnRuneBoundaries(t *testing.T) {
	got := truncate("héllo wörld ünïcode", 8)
	if !utf8.ValidString(got) {
		t.Fatalf("truncate produced invalid UTF-8: %q", got)
	}
	if got != "héllo..." {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := truncate("日本語テキスト", 5); got != "日..." {
		t.Fatalf("unexpected wide truncation %q", got)
	}
	if got := padRight("né", 4); got != "né  " {
		t.Fatalf("unexpected padding %q", got)
	}
}
