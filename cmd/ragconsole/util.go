package main

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// wrapText breaks lines wider than width at whitespace. Whitespace inside a
// line is kept as is; only the run at a break point is dropped. Widths are
// terminal cells.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	wrapped := make([]string, 0, len(lines))
	for _, line := range lines {
		wrapped = append(wrapped, wrapLine(line, width)...)
	}
	return strings.Join(wrapped, "\n")
}

func wrapLine(line string, width int) []string {
	if lipgloss.Width(line) <= width {
		return []string{line}
	}
	var out []string
	var current strings.Builder
	currentWidth := 0
	flush := func() {
		out = append(out, strings.TrimRightFunc(current.String(), unicode.IsSpace))
		current.Reset()
		currentWidth = 0
	}
	for _, token := range splitWhitespace(line) {
		tokenWidth := lipgloss.Width(token)
		if strings.TrimSpace(token) == "" {
			switch {
			case currentWidth == 0 && len(out) > 0:
				// whitespace at the start of a continuation line is dropped
			case currentWidth+tokenWidth > width:
				flush()
			default:
				current.WriteString(token)
				currentWidth += tokenWidth
			}
			continue
		}
		if currentWidth > 0 && currentWidth+tokenWidth > width {
			flush()
		}
		for tokenWidth > width-currentWidth && tokenWidth > 0 {
			head, rest := cutWidth(token, width-currentWidth)
			if head == "" {
				_, size := utf8.DecodeRuneInString(token)
				head, rest = token[:size], token[size:]
			}
			current.WriteString(head)
			flush()
			token = rest
			tokenWidth = lipgloss.Width(token)
		}
		current.WriteString(token)
		currentWidth += tokenWidth
	}
	if current.Len() > 0 || len(out) == 0 {
		flush()
	}
	return out
}

// splitWhitespace splits text into alternating runs of whitespace and
// non-whitespace.
func splitWhitespace(text string) []string {
	var tokens []string
	start := 0
	inSpace := false
	for i, r := range text {
		space := unicode.IsSpace(r)
		if i > 0 && space != inSpace {
			tokens = append(tokens, text[start:i])
			start = i
		}
		inSpace = space
	}
	if start < len(text) {
		tokens = append(tokens, text[start:])
	}
	return tokens
}

// cutWidth splits text on a rune boundary so the head fits in limit cells.
func cutWidth(text string, limit int) (string, string) {
	used := 0
	for i, r := range text {
		w := lipgloss.Width(string(r))
		if used+w > limit {
			return text[:i], text[i:]
		}
		used += w
	}
	return text, ""
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

func truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if lipgloss.Width(text) <= limit {
		return text
	}
	if limit <= 3 {
		head, _ := cutWidth(text, limit)
		return head
	}
	head, _ := cutWidth(text, limit-3)
	return head + "..."
}

func compactSingleLine(text string, limit int) string {
	compact := strings.Join(strings.Fields(text), " ")
	return truncate(compact, limit)
}

func padRight(text string, width int) string {
	if width <= 0 {
		return ""
	}
	w := lipgloss.Width(text)
	if w >= width {
		head, _ := cutWidth(text, width)
		return head
	}
	return text + strings.Repeat(" ", width-w)
}

func nullCoalesce(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
