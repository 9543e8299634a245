package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ragconsole/internal/action"
	"ragconsole/internal/backend"
	"ragconsole/internal/logger"
	"ragconsole/internal/modal"
	"ragconsole/internal/transcript"
)

const (
	logModule     = "console"
	activityLimit = 50
)

type tabID int

const (
	tabChat tabID = iota
	tabConnection
	tabHelp
	tabCount
)

type model struct {
	cfg  appConfig
	exec *action.Executor
	form *modal.Coordinator
	log  logger.Logger

	statusLine   string
	activity     []string
	activeTab    tabID
	chatInflight int
	quitConfirm  bool

	width  int
	height int

	input    textinput.Model
	timeline viewport.Model
	spinner  spinner.Model

	theme uiTheme
}

type chatDoneMsg struct {
	outcome backend.ChatOutcome
}

type scrapeDoneMsg struct {
	outcome backend.StatusOutcome
}

type cleanupDoneMsg struct {
	outcome backend.StatusOutcome
}

type statusDoneMsg struct {
	outcome backend.StoreOutcome
	cached  bool
}

type saveDoneMsg struct {
	path string
	err  error
}

func newModel(cfg appConfig, exec *action.Executor, log logger.Logger) model {
	input := textinput.New()
	input.Prompt = "❯ "
	input.CharLimit = 4000
	input.Placeholder = "Ask about your sources. Ctrl+S scrape a URL, Ctrl+X clean up, /help for more."
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#05ffa1"))

	timeline := viewport.New(0, 0)
	timeline.MouseWheelEnabled = true
	timeline.MouseWheelDelta = 4

	return model{
		cfg:        cfg,
		exec:       exec,
		form:       modal.New(),
		log:        log,
		statusLine: "ready · backend=" + cfg.baseURL,
		activity:   []string{},
		activeTab:  tabChat,
		input:      input,
		timeline:   timeline,
		spinner:    sp,
		theme:      newTheme(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textinput.Blink)
}

func chatCmd(job action.ChatJob) tea.Cmd {
	return func() tea.Msg {
		return chatDoneMsg{outcome: job.Run(context.Background())}
	}
}

func scrapeCmd(job action.ScrapeJob) tea.Cmd {
	return func() tea.Msg {
		return scrapeDoneMsg{outcome: job.Run(context.Background())}
	}
}

func cleanupCmd(job action.CleanupJob) tea.Cmd {
	return func() tea.Msg {
		return cleanupDoneMsg{outcome: job.Run(context.Background())}
	}
}

func statusCmd(job action.StatusJob) tea.Cmd {
	return func() tea.Msg {
		return statusDoneMsg{outcome: job.Run(context.Background()), cached: job.Cached()}
	}
}

func saveCmd(tr *transcript.Transcript, path string) tea.Cmd {
	return func() tea.Msg {
		return saveDoneMsg{path: path, err: exportTranscript(tr, path)}
	}
}

// sendChat is the chat submit path shared by enter and slash escapes.
func (m *model) sendChat(raw string) tea.Cmd {
	job, ok := m.exec.BeginChat(raw)
	if !ok {
		return nil
	}
	m.input.SetValue("")
	m.chatInflight++
	m.statusLine = "asking..."
	m.renderPanes()
	return chatCmd(job)
}

func (m *model) openScrapeForm(prefillURL, prefillName string) tea.Cmd {
	if m.exec.ScrapeState().Busy() {
		m.statusLine = m.exec.ScrapeState().Label()
		return nil
	}
	cmd := m.form.Open()
	if prefillURL != "" || prefillName != "" {
		m.form.SetValues(prefillURL, prefillName)
	}
	m.input.Blur()
	m.statusLine = "enter a URL to scrape · Enter submit · Esc close"
	return cmd
}

func (m *model) closeScrapeForm(reason string) {
	m.form.Close()
	m.input.Focus()
	m.statusLine = reason
}

// submitScrapeForm hides the dialog and dispatches the scrape. An invalid
// form stays open and nothing is sent.
func (m *model) submitScrapeForm() tea.Cmd {
	sub, err := m.form.Submit()
	if err != nil {
		m.statusLine = "error: " + err.Error()
		return nil
	}
	m.input.Focus()
	job, err := m.exec.BeginScrape(sub.URL, sub.Name)
	if err != nil {
		m.statusLine = m.exec.ScrapeState().Label()
		return nil
	}
	m.appendActivity("scrape " + sub.URL)
	m.statusLine = m.exec.ScrapeState().Label()
	return scrapeCmd(job)
}

func (m *model) startCleanup() tea.Cmd {
	job, err := m.exec.BeginCleanup()
	if err != nil {
		m.statusLine = m.exec.CleanupState().Label()
		return nil
	}
	m.appendActivity("cleanup")
	m.statusLine = m.exec.CleanupState().Label()
	return cleanupCmd(job)
}

func (m *model) startStatus() tea.Cmd {
	job, err := m.exec.BeginStatus()
	if err != nil {
		m.statusLine = "status check already running"
		return nil
	}
	m.statusLine = "checking vector store..."
	return statusCmd(job)
}

func (m *model) appendActivity(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	m.activity = append(m.activity, fmt.Sprintf("%s %s", time.Now().Format("15:04:05"), compactSingleLine(trimmed, 220)))
	if len(m.activity) > activityLimit {
		m.activity = m.activity[len(m.activity)-activityLimit:]
	}
}

// noteFailure records a transport error in the footer and the log file. The
// transcript already carries the user-facing fallback.
func (m *model) noteFailure(op string, err error) {
	if err == nil {
		return
	}
	m.appendActivity(op + " error: " + err.Error())
	m.statusLine = "error: " + compactSingleLine(err.Error(), 160)
	m.log.Error(logModule, op+" transport failure", map[string]interface{}{"error": err})
}
