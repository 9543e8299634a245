package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"ragconsole/internal/backend"
	"ragconsole/internal/modal"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case chatDoneMsg:
		m.chatInflight = maxInt(0, m.chatInflight-1)
		m.exec.CompleteChat(msg.outcome)
		switch msg.outcome.Kind {
		case backend.TransportFailure:
			m.noteFailure("chat", msg.outcome.Err)
		case backend.ApplicationFailure:
			m.statusLine = "chat failed: " + compactSingleLine(msg.outcome.Message, 160)
			m.appendActivity(m.statusLine)
		default:
			m.statusLine = fmt.Sprintf("answered · %d chunks", len(msg.outcome.Payload.Chunks))
		}
		m.renderPanes()
	case scrapeDoneMsg:
		m.exec.CompleteScrape(msg.outcome)
		m.settleStatus("scrape", msg.outcome.Kind, msg.outcome.Message, msg.outcome.Err)
		m.renderPanes()
	case cleanupDoneMsg:
		m.exec.CompleteCleanup(msg.outcome)
		m.settleStatus("cleanup", msg.outcome.Kind, msg.outcome.Message, msg.outcome.Err)
		m.renderPanes()
	case statusDoneMsg:
		m.exec.CompleteStatus(msg.outcome)
		m.settleStatus("status", msg.outcome.Kind, msg.outcome.Message, msg.outcome.Err)
		if msg.cached && msg.outcome.Kind == backend.Success {
			m.statusLine = "status (cached)"
		}
		m.renderPanes()
	case saveDoneMsg:
		if msg.err != nil {
			m.noteFailure("save", msg.err)
			break
		}
		m.statusLine = "transcript saved to " + msg.path
		m.appendActivity(m.statusLine)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.renderPanes()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	case tea.MouseMsg:
		if m.quitConfirm {
			break
		}
		if m.form.Visible() {
			if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
				_, rect := m.renderScrapeDialog()
				if m.form.Click(modal.HitTest(msg.X, msg.Y, rect)) {
					m.closeScrapeForm("scrape canceled")
				}
			}
			break
		}
		if m.activeTab == tabChat {
			var cmd tea.Cmd
			m.timeline, cmd = m.timeline.Update(msg)
			cmds = append(cmds, cmd)
		}
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.quitConfirm {
			switch msg.String() {
			case "y", "Y", "enter":
				return m, tea.Quit
			case "n", "N", "esc":
				m.quitConfirm = false
				m.statusLine = "quit canceled"
			}
			return m, tea.Batch(cmds...)
		}
		if m.form.Visible() {
			switch msg.String() {
			case "esc":
				m.closeScrapeForm("scrape canceled")
			case "enter":
				cmds = append(cmds, m.submitScrapeForm())
			default:
				cmds = append(cmds, m.form.Update(msg))
			}
			return m, tea.Batch(cmds...)
		}

		switch msg.String() {
		case "esc":
			if m.activeTab == tabChat {
				m.beginQuitConfirm()
				return m, tea.Batch(cmds...)
			}
			m.switchTab(tabChat)
			return m, tea.Batch(cmds...)
		case "tab":
			m.switchTab((m.activeTab + 1) % tabCount)
			return m, tea.Batch(cmds...)
		case "shift+tab":
			m.switchTab((m.activeTab + tabCount - 1) % tabCount)
			return m, tea.Batch(cmds...)
		case "ctrl+s":
			cmds = append(cmds, m.openScrapeForm("", ""))
			return m, tea.Batch(cmds...)
		case "ctrl+x":
			cmds = append(cmds, m.startCleanup())
			m.renderPanes()
			return m, tea.Batch(cmds...)
		}

		if m.activeTab != tabChat {
			return m, tea.Batch(cmds...)
		}
		switch msg.String() {
		case "enter":
			raw := m.input.Value()
			trimmed := strings.TrimSpace(raw)
			if strings.HasPrefix(trimmed, "//") {
				cmds = append(cmds, m.sendChat(trimmed[1:]))
				return m, tea.Batch(cmds...)
			}
			if strings.HasPrefix(trimmed, "/") {
				m.input.SetValue("")
				cmds = append(cmds, m.handleSlash(trimmed))
				return m, tea.Batch(cmds...)
			}
			cmds = append(cmds, m.sendChat(raw))
			return m, tea.Batch(cmds...)
		case "pgup", "ctrl+b":
			m.timeline.LineUp(8)
			return m, tea.Batch(cmds...)
		case "pgdown", "ctrl+f":
			m.timeline.LineDown(8)
			return m, tea.Batch(cmds...)
		case "up":
			if strings.TrimSpace(m.input.Value()) == "" {
				m.timeline.LineUp(4)
				return m, tea.Batch(cmds...)
			}
		case "down":
			if strings.TrimSpace(m.input.Value()) == "" {
				m.timeline.LineDown(4)
				return m, tea.Batch(cmds...)
			}
		case "home":
			m.timeline.GotoTop()
			return m, tea.Batch(cmds...)
		case "end":
			m.timeline.GotoBottom()
			return m, tea.Batch(cmds...)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *model) handleSlash(raw string) tea.Cmd {
	parts := strings.Fields(strings.TrimSpace(raw))
	if len(parts) == 0 {
		return nil
	}
	cmd := strings.ToLower(parts[0])
	tail := parts[1:]
	switch cmd {
	case "/help":
		m.switchTab(tabHelp)
		return nil
	case "/quit", "/exit":
		m.beginQuitConfirm()
		return nil
	case "/scrape":
		prefillURL, prefillName := "", ""
		if len(tail) > 0 {
			prefillURL = tail[0]
		}
		if len(tail) > 1 {
			prefillName = strings.Join(tail[1:], " ")
		}
		return m.openScrapeForm(prefillURL, prefillName)
	case "/cleanup":
		next := m.startCleanup()
		m.renderPanes()
		return next
	case "/status":
		return m.startStatus()
	case "/save":
		if len(tail) == 0 {
			m.statusLine = "usage: /save <path>"
			return nil
		}
		return saveCmd(m.exec.Transcript(), strings.Join(tail, " "))
	default:
		m.statusLine = "unknown command: " + cmd
		return nil
	}
}

func (m *model) settleStatus(op string, kind backend.Kind, message string, err error) {
	switch kind {
	case backend.TransportFailure:
		m.noteFailure(op, err)
	case backend.ApplicationFailure:
		m.statusLine = op + " failed: " + compactSingleLine(message, 160)
		m.appendActivity(m.statusLine)
	default:
		m.statusLine = op + " done"
		m.appendActivity(m.statusLine)
	}
}

func (m *model) switchTab(tab tabID) {
	m.activeTab = tab
	if tab == tabChat {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
	m.renderPanes()
}

func (m *model) beginQuitConfirm() {
	m.quitConfirm = true
	m.statusLine = "quit ragconsole?"
}
