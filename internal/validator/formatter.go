package validator

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/recollect/internal/cli"
)

// Styles contains the styling used to render validation results.
type Styles struct {
	Title    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Info     lipgloss.Style
	Subtle   lipgloss.Style
	Critical lipgloss.Style
	Box      lipgloss.Style
}

// NewStyles creates a new Styles instance from the CLI palette.
func NewStyles() *Styles {
	return &Styles{
		Title:   cli.TitleStyle,
		Success: cli.SuccessStyle,
		Warning: cli.WarningStyle,
		Error:   cli.ErrorStyle,
		Info:    cli.InfoStyle,
		Subtle:  cli.SubtleStyle,
		Critical: lipgloss.NewStyle().
			Bold(true).
			Foreground(cli.ErrorColor),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(cli.SubtleColor).
			Padding(0, 1),
	}
}

// Formatter renders Results for terminal display.
type Formatter struct {
	styles *Styles
}

// NewFormatter creates a Formatter with default styles.
func NewFormatter() *Formatter {
	return &Formatter{styles: NewStyles()}
}

// Format renders r as styled text.
func (f *Formatter) Format(r Result) string {
	var sections []string

	switch r.Status {
	case StatusValid:
		sections = append(sections, f.styles.Box.Render(r.Response))
	case StatusPartiallyValid:
		sections = append(sections,
			f.styles.Box.Render(r.Response),
			f.styles.Warning.Render(cli.WarningIcon+" Some parts of this answer could not be verified:"),
			f.formatIssues(r.Issues),
		)
	case StatusLowConfidence:
		sections = append(sections,
			f.styles.Warning.Render(cli.WarningIcon+" I'm not confident enough to answer that."),
			f.styles.Subtle.Render(r.Reason),
		)
	case StatusNeedsClarification:
		sections = append(sections, f.styles.Info.Render(cli.InfoIcon+" Could you clarify?"))
		for _, q := range r.Questions {
			sections = append(sections, "  • "+q)
		}
	case StatusHallucination:
		sections = append(sections,
			f.styles.Error.Render(cli.ErrorIcon+" The answer was withheld because it did not match your data."),
			f.styles.Subtle.Render(r.Reason),
		)
	default:
		sections = append(sections, f.styles.Error.Render(fmt.Sprintf("Unknown result status %q", r.Status)))
	}

	return strings.Join(sections, "\n")
}

func (f *Formatter) formatIssues(issues []Issue) string {
	lines := make([]string, 0, len(issues))
	for _, issue := range issues {
		style := f.styles.Warning
		if issue.Severity == SeverityCritical {
			style = f.styles.Critical
		}
		line := "  • " + style.Render(issue.Message)
		if issue.Suggestion != "" {
			line += " " + f.styles.Subtle.Render("("+issue.Suggestion+")")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
