package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ragconsole/internal/modal"
	"ragconsole/internal/transcript"
)

const backdropColor = "#120924"

func (m model) View() string {
	out := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderContent(),
		m.renderInput(),
		m.renderFooter(),
	)
	if m.form.Visible() {
		out, _ = m.renderScrapeDialog()
	}
	if m.quitConfirm {
		out = m.renderQuitModal()
	}
	return m.theme.root.Render(out)
}

func (m *model) renderHeader() string {
	tabs := []struct {
		id    tabID
		label string
	}{
		{tabChat, "Chat"},
		{tabConnection, "Connection"},
		{tabHelp, "Help"},
	}
	segments := make([]string, 0, len(tabs)+1)
	for _, tab := range tabs {
		style := m.theme.tabInactive
		if tab.id == m.activeTab {
			style = m.theme.tabActive
		}
		segments = append(segments, style.Render(tab.label))
	}
	meta := fmt.Sprintf(" Backend: %s · Messages: %d", m.cfg.baseURL, m.exec.Transcript().Len())
	segments = append(segments, m.theme.helpText.Render(meta))
	joined := lipgloss.JoinHorizontal(lipgloss.Left, segments...)
	return m.theme.header.Width(maxInt(20, m.width-4)).Render(joined)
}

func (m *model) renderContent() string {
	contentHeight := maxInt(8, m.height-14)
	contentWidth := maxInt(40, m.width-4)
	panel := m.theme.panel.Width(contentWidth).Height(contentHeight)

	switch m.activeTab {
	case tabChat:
		return panel.Render(m.theme.panelTitle.Render("Conversation") + "\n" + m.timeline.View())
	case tabConnection:
		return panel.Render(m.theme.panelTitle.Render("Connection") + "\n" + m.renderConnection())
	case tabHelp:
		return panel.Render(m.theme.panelTitle.Render("ragconsole Help") + "\n" + m.renderHelp())
	default:
		return ""
	}
}

func (m *model) renderInput() string {
	contentWidth := maxInt(40, m.width-4)
	if m.activeTab != tabChat {
		return m.theme.inputPanel.Width(contentWidth).Render(m.theme.helpText.Render("Input disabled outside Chat tab. Press Tab to return."))
	}
	inputView := m.input.View()
	if m.chatInflight > 0 {
		inputView = m.spinner.View() + fmt.Sprintf(" waiting on %d answer(s)... ", m.chatInflight) + inputView
	}
	return m.theme.inputPanel.Width(contentWidth).Render(inputView)
}

func (m *model) renderFooter() string {
	contentWidth := maxInt(40, m.width-4)
	statusStyle := m.theme.status
	lower := strings.ToLower(m.statusLine)
	if strings.Contains(lower, "failed") || strings.Contains(lower, "error") {
		statusStyle = m.theme.errorStatus
	}
	line := statusStyle.Render(compactSingleLine(m.statusLine, 180))
	controls := lipgloss.JoinHorizontal(lipgloss.Left,
		m.renderControl("Ctrl+S", m.exec.ScrapeState().Busy(), m.exec.ScrapeState().Label()),
		" ",
		m.renderControl("Ctrl+X", m.exec.CleanupState().Busy(), m.exec.CleanupState().Label()),
	)
	hints := m.theme.helpText.Render("Keys: Tab switch view · Enter send · PgUp/PgDn or Up/Down (input empty) scroll · /help · Esc quit prompt · Ctrl+C quit")
	return m.theme.footer.Width(contentWidth).Render(line + "\n" + controls + "\n" + hints)
}

// renderControl draws a footer button. A busy control shows its in-progress
// label and no key hint since it does not accept input.
func (m *model) renderControl(key string, busy bool, label string) string {
	if busy {
		return m.theme.controlBusy.Render(m.spinner.View() + " " + label)
	}
	return m.theme.controlIdle.Render("[" + key + "] " + label)
}

// renderScrapeDialog returns the full-screen dialog overlay and the screen
// rectangle of the dialog box, which mouse handling uses to tell content
// clicks from backdrop clicks.
func (m *model) renderScrapeDialog() (string, modal.Rect) {
	canvasWidth := maxInt(40, m.width-4)
	canvasHeight := maxInt(12, m.height-4)
	dialogWidth := clampInt(int(float64(canvasWidth)*0.6), 36, 72)
	if dialogWidth > canvasWidth-2 {
		dialogWidth = canvasWidth - 2
	}

	body := strings.Join([]string{
		m.theme.dialogTitle.Render("Scrape New URL"),
		m.theme.helpText.Render("Fetch a page into the vector store."),
		"",
		m.form.View(),
		"",
		m.theme.quitPick.Render("[Enter] Scrape") + "    " + m.theme.helpText.Render("[Tab] Next field · [Esc] Close"),
	}, "\n")
	if err := m.form.Err(); err != nil {
		body = strings.Replace(body, err.Error(), m.theme.errorStatus.Render(err.Error()), 1)
	}
	panel := m.theme.dialogFrame.Width(dialogWidth).Render(body)

	panelWidth := lipgloss.Width(panel)
	panelHeight := lipgloss.Height(panel)
	rect := modal.Rect{
		X:      m.theme.root.GetPaddingLeft() + centeredOffset(canvasWidth, panelWidth),
		Y:      m.theme.root.GetPaddingTop() + centeredOffset(canvasHeight, panelHeight),
		Width:  panelWidth,
		Height: panelHeight,
	}
	placed := lipgloss.Place(
		canvasWidth,
		canvasHeight,
		lipgloss.Center,
		lipgloss.Center,
		panel,
		lipgloss.WithWhitespaceBackground(lipgloss.Color(backdropColor)),
	)
	return placed, rect
}

// centeredOffset mirrors lipgloss.Place centering so hit testing lines up
// with what is drawn.
func centeredOffset(outer, inner int) int {
	gap := outer - inner
	if gap <= 0 {
		return 0
	}
	return gap - int(math.Round(float64(gap)*float64(lipgloss.Center)))
}

func (m *model) renderQuitModal() string {
	canvasWidth := maxInt(40, m.width-4)
	canvasHeight := maxInt(12, m.height-4)
	modalWidth := clampInt(int(float64(canvasWidth)*0.5), 32, 64)
	if modalWidth > canvasWidth-2 {
		modalWidth = canvasWidth - 2
	}

	note := "Transcript is not persisted. Use /save <path> first to keep it."
	if m.chatInflight > 0 {
		note = fmt.Sprintf("%d answer(s) still pending will be dropped.", m.chatInflight)
	}
	body := strings.Join([]string{
		m.theme.errorStatus.Render("QUIT RAGCONSOLE?"),
		"",
		m.theme.helpText.Render(note),
		"",
		m.theme.quitPick.Render("[Y / Enter] Quit") + "    " + m.theme.helpText.Render("[N / Esc] Return"),
	}, "\n")
	panel := m.theme.quitFrame.Width(modalWidth).Render(body)
	return lipgloss.Place(
		canvasWidth,
		canvasHeight,
		lipgloss.Center,
		lipgloss.Center,
		panel,
		lipgloss.WithWhitespaceBackground(lipgloss.Color(backdropColor)),
	)
}

// renderPanes sizes the timeline and follows the newest message.
func (m *model) renderPanes() {
	contentHeight := maxInt(8, m.height-14)
	contentWidth := maxInt(40, m.width-4)
	m.timeline.Width = maxInt(20, contentWidth-4)
	m.timeline.Height = maxInt(5, contentHeight-1)
	m.timeline.SetContent(m.renderTimeline())
	m.timeline.GotoBottom()
}

func (m *model) resize() {
	contentWidth := maxInt(40, m.width-4)
	m.input.Width = maxInt(20, contentWidth-6)
	m.form.SetWidth(clampInt(int(float64(contentWidth)*0.6), 36, 72) - 12)
}

func (m *model) renderTimeline() string {
	views := transcript.Project(m.exec.Transcript().Messages())
	if len(views) == 0 {
		return m.theme.helpText.Render("No messages yet. Ask a question about your scraped sources.")
	}
	width := maxInt(24, m.timeline.Width-2)
	var b strings.Builder
	for i, view := range views {
		if i > 0 {
			b.WriteString("\n\n")
		}
		style, ok := m.theme.sender[string(view.Sender)]
		if !ok {
			style = m.theme.helpText
		}
		b.WriteString(style.Render(view.Label))
		b.WriteString("\n")
		b.WriteString(wrapText(strings.Join(view.Lines, "\n"), width))
		if view.Source == nil {
			continue
		}
		b.WriteString("\n\n")
		b.WriteString(m.theme.sourceHeader.Render(view.Source.Header))
		for _, block := range view.Source.Blocks {
			b.WriteString("\n")
			b.WriteString(m.theme.chunkTitle.Render(block.Title))
			b.WriteString("  ")
			b.WriteString(m.theme.chunkScore.Render(block.Relevance))
			b.WriteString("\n")
			body := wrapText(strings.Join(block.Lines, "\n"), maxInt(20, width-2))
			b.WriteString(m.theme.chunkBody.Render(indent(body, "  ")))
		}
	}
	return b.String()
}

func (m *model) renderConnection() string {
	ttl := m.cfg.statusTTL.String()
	if m.cfg.statusTTL <= 0 {
		ttl = "disabled"
	}
	settings := []struct {
		key   string
		value string
	}{
		{"Backend URL", m.cfg.baseURL},
		{"Request timeout", m.cfg.timeout.String()},
		{"Status cache TTL", ttl},
		{"Log file", nullCoalesce(m.cfg.logFile, "(none)")},
		{"Scrape control", m.exec.ScrapeState().Label()},
		{"Cleanup control", m.exec.CleanupState().Label()},
		{"Pending answers", fmt.Sprintf("%d", m.chatInflight)},
	}
	lines := make([]string, 0, len(settings)+len(m.activity)+4)
	for _, s := range settings {
		lines = append(lines, m.theme.settingKey.Render(padRight(s.key, 18))+m.theme.settingValue.Render(s.value))
	}
	lines = append(lines, "", m.theme.panelTitle.Render("Activity"))
	if len(m.activity) == 0 {
		lines = append(lines, m.theme.helpText.Render("No backend activity yet. /status queries the vector store."))
	}
	for _, line := range m.activity {
		lines = append(lines, m.theme.helpText.Render(line))
	}
	return strings.Join(lines, "\n")
}

func (m *model) renderHelp() string {
	lines := []string{
		"Core Keys",
		"- Tab / Shift+Tab: switch views",
		"- Enter: send question (Chat tab)",
		"- Ctrl+S: open the scrape dialog",
		"- Ctrl+X: clean up scraped data and the vector store",
		"- Timeline scroll: PgUp/PgDn, Up/Down (input empty), Home/End, mouse wheel",
		"- Esc in chat: quit confirmation; elsewhere return to chat",
		"- Ctrl+C: quit",
		"",
		"Scrape Dialog",
		"- Tab / Shift+Tab: move between URL and name",
		"- Enter: validate and scrape · Esc or click outside: close",
		"",
		"Slash Commands",
		"- /scrape [url] [name]: open the dialog, optionally prefilled",
		"- /cleanup",
		"- /status: vector store document count and sources",
		"- /save <path>: export the transcript as JSON",
		"- /help",
		"- /quit",
		"- Start a question with // to send a literal leading slash",
	}
	return m.theme.helpText.Render(strings.Join(lines, "\n"))
}
