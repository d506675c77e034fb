package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// MaxColumnWidth caps table columns; longer cells are truncated.
const MaxColumnWidth = 40

// Truncate shortens s to width display cells, ending in "...".
func Truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if width <= 3 {
		if width < 0 {
			width = 0
		}
		return string(runes[:min(width, len(runes))])
	}
	for len(runes) > 0 && lipgloss.Width(string(runes))+3 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

// Divider creates a horizontal divider.
func Divider(s Styles, width int) string {
	return s.Subtle.Render(strings.Repeat("─", width))
}

// Table renders rows under bold headers. Each column is as wide as its widest
// cell, up to MaxColumnWidth. Cells may already be styled.
func Table(r *lipgloss.Renderer, headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}
	s := NewStyles(r)

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := range headers {
			if i < len(row) {
				widths[i] = max(widths[i], min(lipgloss.Width(row[i]), MaxColumnWidth))
			}
		}
	}

	var result strings.Builder
	total := 0
	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = r.NewStyle().Width(widths[i] + 2).Render(s.Header.Render(h))
		total += widths[i] + 2
	}
	result.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	result.WriteString("\n")
	result.WriteString(Divider(s, total))
	result.WriteString("\n")

	for _, row := range rows {
		for i := range headers {
			val := ""
			if i < len(row) {
				val = row[i]
			}
			if lipgloss.Width(val) > MaxColumnWidth {
				val = Truncate(val, MaxColumnWidth)
			}
			cells[i] = r.NewStyle().Width(widths[i] + 2).Render(val)
		}
		result.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		result.WriteString("\n")
	}

	return result.String()
}
