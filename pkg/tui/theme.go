package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/goliatone/go-formwizard/pkg/wizard"
)

const progressWidth = 20

// Theme styles the text the runner prints between prompts.
type Theme struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Progress lipgloss.Style
	Error    lipgloss.Style
	Muted    lipgloss.Style
}

// DefaultTheme is the colour theme used by the CLI.
func DefaultTheme() Theme {
	return Theme{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A78BFA")),
		Subtitle: lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#9CA3AF")),
		Progress: lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")),
	}
}

// PlainTheme renders text without any styling.
func PlainTheme() Theme {
	plain := lipgloss.NewStyle()
	return Theme{
		Title:    plain,
		Subtitle: plain,
		Progress: plain,
		Error:    plain,
		Muted:    plain,
	}
}

func (t Theme) header(step wizard.StepDefinition, total int) string {
	lines := []string{
		t.Title.Render(fmt.Sprintf("Step %d of %d: %s", step.Order, total, step.Title)),
	}
	if desc := strings.TrimSpace(step.Description); desc != "" {
		lines = append(lines, t.Subtitle.Render(desc))
	}
	lines = append(lines, t.Progress.Render(progressBar(step.CompletionPercent)))
	return strings.Join(lines, "\n")
}

func (t Theme) errors(errs []wizard.FieldValidationError) string {
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		msgs = append(msgs, fe.Message)
	}
	return t.messages(msgs)
}

func (t Theme) messages(msgs []string) string {
	lines := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		lines = append(lines, t.Error.Render("! "+msg))
	}
	return strings.Join(lines, "\n")
}

func progressBar(percent int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * progressWidth / 100
	return fmt.Sprintf("[%s%s] %d%%", strings.Repeat("#", filled), strings.Repeat(".", progressWidth-filled), percent)
}
