package tui

import (
	"fmt"
	"strings"
	"time"

	"stackprobe/internal/color"
	"stackprobe/internal/suite"

	"github.com/mattn/go-runewidth"
)

const defaultWidth = 100

func (m *Model) View() string {
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}

	var b strings.Builder
	b.WriteString(color.HeaderStyle.Render("🧪 stackprobe"))
	b.WriteString("  ")
	b.WriteString(color.MutedStyle.Render(fitWidth(m.status, width-16)))
	b.WriteString("\n\n")

	for _, row := range m.rows {
		b.WriteString(m.renderRow(row, width))
		b.WriteString("\n")
	}

	if m.result != nil {
		b.WriteString("\n")
		b.WriteString(renderSummary(*m.result))
		b.WriteString("\n")
	}

	if m.showLog && len(m.activityLog) > 0 {
		b.WriteString("\n")
		b.WriteString(color.HeaderStyle.Render("Activity"))
		b.WriteString("\n")
		for _, line := range tail(m.activityLog, m.logLines()) {
			b.WriteString(color.MutedStyle.Render(fitWidth(line, width)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderRow(row scenarioRow, width int) string {
	if row.running {
		step := ""
		if row.lastStep != "" {
			step = fmt.Sprintf(" (step %d done: %s)", row.steps, row.lastStep)
		}
		return m.spinner.View() + " " + fitWidth(row.name+step, width-3)
	}

	line := fmt.Sprintf("%s %s %s", symbol(row.result), row.name,
		color.ForStatus(string(row.result)).Render(string(row.result)))
	if row.duration > 0 {
		line += color.MutedStyle.Render(fmt.Sprintf(" %v", row.duration.Round(time.Millisecond)))
	}
	if row.err != "" {
		budget := width - runewidth.StringWidth(row.name) - 32
		if budget < 10 {
			budget = 10
		}
		line += "  " + color.ForStatus(string(row.result)).Render(fitWidth(row.err, budget))
	}
	return line
}

func renderSummary(r suite.SuiteResult) string {
	text := fmt.Sprintf("%d passed, %d failed, %d errors, %d skipped of %d",
		r.PassedScenarios, r.FailedScenarios, r.ErrorScenarios, r.SkippedScenarios, r.TotalScenarios)
	switch {
	case r.Interrupted():
		return color.WarningStyle.Render("🛑 Interrupted: " + text)
	case r.Succeeded():
		return color.SuccessStyle.Render("🎉 " + text)
	default:
		return color.FailureStyle.Render("💔 " + text)
	}
}

func (m *Model) logLines() int {
	if m.height <= 0 {
		return 10
	}
	n := m.height - len(m.rows) - 8
	if n < 3 {
		return 3
	}
	return n
}

func symbol(result suite.Result) string {
	switch result {
	case suite.ResultPassed:
		return "✅"
	case suite.ResultFailed:
		return "❌"
	case suite.ResultError:
		return "💥"
	case suite.ResultSkipped:
		return "⏭️"
	case suite.ResultInterrupted:
		return "🛑"
	default:
		return "❓"
	}
}

// fitWidth truncates s to width terminal cells.
func fitWidth(s string, width int) string {
	if width <= 1 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width-1, "…")
}

func tail(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}
