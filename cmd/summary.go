package cmd

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/conneroisu/stitch/internal/build"
	"github.com/conneroisu/stitch/internal/output"
)

var (
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	failureStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(12)
	valueStyle   = lipgloss.NewStyle().Bold(true)
)

// renderSummary formats a finished build for the terminal.
func renderSummary(result *build.Result) string {
	var b strings.Builder

	b.WriteString(successStyle.Render("✓ Built " + result.OutputPath))
	b.WriteString("\n")
	b.WriteString(row("parts", humanize.Comma(int64(result.Parts))))
	b.WriteString(renderStats(result.Stats))
	b.WriteString(row("took", result.Duration.Round(time.Microsecond).String()))

	return strings.TrimRight(b.String(), "\n")
}

func renderStats(stats output.Stats) string {
	return row("lines", humanize.Comma(int64(stats.Lines))) +
		row("characters", humanize.Comma(int64(stats.Characters))) +
		row("words", humanize.Comma(int64(stats.Words))) +
		row("size", humanize.Bytes(uint64(stats.Bytes)))
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value)) + "\n"
}
