package main

import "github.com/charmbracelet/lipgloss"

type uiTheme struct {
	root         lipgloss.Style
	header       lipgloss.Style
	tabActive    lipgloss.Style
	tabInactive  lipgloss.Style
	panel        lipgloss.Style
	panelTitle   lipgloss.Style
	footer       lipgloss.Style
	status       lipgloss.Style
	errorStatus  lipgloss.Style
	inputPanel   lipgloss.Style
	helpText     lipgloss.Style
	settingKey   lipgloss.Style
	settingValue lipgloss.Style
	sender       map[string]lipgloss.Style
	sourceHeader lipgloss.Style
	chunkTitle   lipgloss.Style
	chunkScore   lipgloss.Style
	chunkBody    lipgloss.Style
	controlIdle  lipgloss.Style
	controlBusy  lipgloss.Style
	dialogFrame  lipgloss.Style
	dialogTitle  lipgloss.Style
	quitFrame    lipgloss.Style
	quitPick     lipgloss.Style
}

func newTheme() uiTheme {
	pink := lipgloss.Color("#ff71ce")
	blue := lipgloss.Color("#01cdfe")
	mint := lipgloss.Color("#05ffa1")
	gold := lipgloss.Color("#ffd166")
	panelBg := lipgloss.Color("#1b0f35")
	text := lipgloss.Color("#f3f3ff")
	muted := lipgloss.Color("#9ca3d8")

	return uiTheme{
		root: lipgloss.NewStyle().
			Foreground(text).
			Padding(0, 1),
		header: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(text).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		tabActive: lipgloss.NewStyle().
			Background(pink).
			Foreground(lipgloss.Color("#22062f")).
			Bold(true).
			Padding(0, 1),
		tabInactive: lipgloss.NewStyle().
			Background(lipgloss.Color("#2a184a")).
			Foreground(muted).
			Padding(0, 1),
		panel: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		panelTitle: lipgloss.NewStyle().
			Foreground(mint).
			Bold(true),
		footer: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(muted).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(pink).
			Padding(0, 1),
		status:      lipgloss.NewStyle().Foreground(blue).Bold(true),
		errorStatus: lipgloss.NewStyle().Foreground(pink).Bold(true),
		inputPanel: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(mint).
			Padding(0, 1),
		helpText:     lipgloss.NewStyle().Foreground(muted),
		settingKey:   lipgloss.NewStyle().Foreground(blue),
		settingValue: lipgloss.NewStyle().Foreground(text),
		sender: map[string]lipgloss.Style{
			"user": lipgloss.NewStyle().Foreground(mint).Bold(true),
			"bot":  lipgloss.NewStyle().Foreground(pink).Bold(true),
		},
		sourceHeader: lipgloss.NewStyle().Foreground(gold).Bold(true),
		chunkTitle:   lipgloss.NewStyle().Foreground(blue).Bold(true),
		chunkScore:   lipgloss.NewStyle().Foreground(mint),
		chunkBody:    lipgloss.NewStyle().Foreground(muted),
		controlIdle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22062f")).
			Background(blue).
			Padding(0, 1),
		controlBusy: lipgloss.NewStyle().
			Foreground(muted).
			Background(lipgloss.Color("#2a184a")).
			Italic(true).
			Padding(0, 1),
		dialogFrame: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(blue).
			Padding(1, 2),
		dialogTitle: lipgloss.NewStyle().
			Foreground(mint).
			Bold(true),
		quitFrame: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(pink).
			Padding(1, 2),
		quitPick: lipgloss.NewStyle().Foreground(pink).Bold(true),
	}
}
