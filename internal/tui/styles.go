package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
)

// Styles are the output styles bound to one renderer. A renderer writing to a
// non-terminal produces plain text.
type Styles struct {
	Header  lipgloss.Style
	Subtle  lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Title   lipgloss.Style

	PriorityLow    lipgloss.Style
	PriorityNormal lipgloss.Style
	PriorityHigh   lipgloss.Style

	Entry lipgloss.Style
	Exit  lipgloss.Style
}

// NewStyles creates the styles for r.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Header:  r.NewStyle().Bold(true).Foreground(ColorPrimary),
		Subtle:  r.NewStyle().Foreground(ColorTextMuted),
		Success: r.NewStyle().Foreground(ColorSuccess),
		Error:   r.NewStyle().Foreground(ColorError).Bold(true),
		Title:   r.NewStyle().Bold(true).Foreground(ColorSecondary),

		PriorityLow:    r.NewStyle().Foreground(ColorTextMuted),
		PriorityNormal: r.NewStyle().Foreground(ColorText),
		PriorityHigh:   r.NewStyle().Foreground(ColorWarning).Bold(true),

		Entry: r.NewStyle().Foreground(ColorEntry),
		Exit:  r.NewStyle().Foreground(ColorExit),
	}
}

// Priority renders a priority label.
func (s Styles) Priority(p core.Priority) string {
	switch p {
	case core.PriorityHigh:
		return s.PriorityHigh.Render(string(p))
	case core.PriorityLow:
		return s.PriorityLow.Render(string(p))
	default:
		return s.PriorityNormal.Render(string(p))
	}
}

// Pipeline renders a pipeline tag; unclassified stages render as "-".
func (s Styles) Pipeline(p core.Pipeline) string {
	switch p {
	case core.PipelineEntry:
		return s.Entry.Render(string(p))
	case core.PipelineExit:
		return s.Exit.Render(string(p))
	default:
		return s.Subtle.Render("-")
	}
}

// Check renders a checklist flag.
func (s Styles) Check(done bool) string {
	if done {
		return s.Success.Render("✔")
	}
	return s.Subtle.Render("·")
}
