package tui

import (
	"fmt"
	"strings"

	"github.com/abdidvp/policyeval/internal/domain"
	"github.com/abdidvp/policyeval/internal/domain/doc"
	"github.com/charmbracelet/lipgloss"
)

// ── warm palette ──
var (
	accent  = lipgloss.Color("#D97706") // amber
	fg      = lipgloss.Color("#E8E6E3") // warm light gray
	dim     = lipgloss.Color("#6B7280") // muted gray
	faint   = lipgloss.Color("#3F3F46") // very dim
	success = lipgloss.Color("#22C55E") // green
	danger  = lipgloss.Color("#EF4444") // red
	warning = lipgloss.Color("#F59E0B") // amber-yellow
	info    = lipgloss.Color("#8B949E") // soft blue-gray
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Align(lipgloss.Center)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 4).
			Align(lipgloss.Center).
			Width(68)

	dimStyle      = lipgloss.NewStyle().Foreground(dim)
	faintStyle    = lipgloss.NewStyle().Foreground(faint)
	passStyle     = lipgloss.NewStyle().Foreground(success)
	failStyle     = lipgloss.NewStyle().Foreground(danger)
	warnStyle     = lipgloss.NewStyle().Foreground(warning)
	passTagStyle  = lipgloss.NewStyle().Foreground(success).Bold(true)
	failTagStyle  = lipgloss.NewStyle().Foreground(danger).Bold(true)
	warnTagStyle  = lipgloss.NewStyle().Foreground(warning).Bold(true)
	infoTagStyle  = lipgloss.NewStyle().Foreground(info)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(fg)
	separatorLine = faintStyle.Render(strings.Repeat("─", 64))
)

// metaSignals are the meta keys worth surfacing next to a case verdict.
var metaSignals = []string{"fallback_used", "empty_if_before_fix"}

// RenderCase formats the progress line of one evaluated instruction.
// index is 1-based.
func RenderCase(index int, rec domain.OutcomeRecord) string {
	n := dimStyle.Render(fmt.Sprintf("[%d]", index))

	if rec.Failed() {
		return fmt.Sprintf("%s %s %s %s %s",
			n,
			failTagStyle.Render("FAIL request:"),
			rec.Instruction,
			dimStyle.Render("->"),
			failStyle.Render(rec.Err),
		)
	}

	elapsed := dimStyle.Render(fmt.Sprintf("(%.2fs)", rec.ElapsedSeconds()))

	var line string
	if rec.Passed {
		line = fmt.Sprintf("%s %s %s %s", n, passTagStyle.Render("PASS"), elapsed, rec.Instruction)
	} else {
		line = fmt.Sprintf("%s %s %s %s %s %s",
			n,
			failTagStyle.Render("FAIL"),
			elapsed,
			rec.Instruction,
			dimStyle.Render("->"),
			failStyle.Render(joinIssues(rec.Issues)),
		)
	}

	if sig := signals(rec); len(sig) > 0 {
		line += "  " + infoTagStyle.Render(strings.Join(sig, " "))
	}
	return line
}

// signals lists retry and meta markers the service attached to a response.
func signals(rec domain.OutcomeRecord) []string {
	var out []string
	if rec.Retry != nil {
		out = append(out, fmt.Sprintf("retry=%v", rec.Retry))
	}
	meta := doc.From(rec.Meta)
	for _, key := range metaSignals {
		if meta.Has(key) {
			out = append(out, fmt.Sprintf("%s=%v", key, meta.Get(key).Raw()))
		}
	}
	return out
}

func joinIssues(issues []domain.IssueCode) string {
	parts := make([]string, len(issues))
	for i, c := range issues {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

// RenderHealth formats a health response, listing fields in key order.
func RenderHealth(status *domain.HealthStatus) string {
	var b strings.Builder
	state := passTagStyle.Render("healthy")
	if status.ModelLoaded == nil {
		state += " " + dimStyle.Render("(model_loaded not reported)")
	}
	fmt.Fprintf(&b, "%s %s\n", dimStyle.Render("Health:"), state)

	for _, k := range sortedKeys(status.Fields) {
		fmt.Fprintf(&b, "  %s %v\n", dimStyle.Render(padRight(k+":", 20)), status.Fields[k])
	}
	return b.String()
}

// RenderRunSummary prints the closing lines of an evaluation run.
func RenderRunSummary(s domain.RunSummary) string {
	var b strings.Builder
	b.WriteString("\n")

	ratio := lipgloss.NewStyle().Bold(true).Foreground(rateColor(s)).Render(s.String())
	fmt.Fprintf(&b, "Summary: %s passed", ratio)
	if s.Errored > 0 {
		b.WriteString("  " + warnTagStyle.Render(fmt.Sprintf("%d request errors", s.Errored)))
	}
	if s.Cancelled {
		b.WriteString("  " + warnTagStyle.Render("cancelled"))
	}
	b.WriteString("\n")

	if s.OutputPath != "" {
		fmt.Fprintf(&b, "Wrote: %s\n", s.OutputPath)
	}
	return b.String()
}

func rateColor(s domain.RunSummary) lipgloss.Color {
	switch {
	case s.Total > 0 && s.Passed == s.Total:
		return success
	case s.PassRate() >= 0.5:
		return warning
	default:
		return danger
	}
}

// RenderReport formats the validation verdict for a single document.
func RenderReport(source string, report domain.ValidationReport) string {
	var b strings.Builder

	title := headerStyle.Render("policyeval")
	subtitle := dimStyle.Render(source)
	verdict := passTagStyle.Render("PASS")
	if !report.Passed {
		verdict = failTagStyle.Render("FAIL")
	}
	b.WriteString(boxStyle.Render(title + "\n" + subtitle + "\n\n" + verdict))
	b.WriteString("\n\n")

	if len(report.Issues) == 0 {
		b.WriteString("  " + passStyle.Render("No issues found.") + "\n")
		return b.String()
	}

	b.WriteString("  " + titleStyle.Render("Issues") + "  ")
	b.WriteString(failTagStyle.Render(fmt.Sprintf("%d", len(report.Issues))))
	b.WriteString("\n\n")
	for _, c := range report.Issues {
		fmt.Fprintf(&b, "    %s %s\n", failStyle.Render("●"), padRight(string(c), 32))
		fmt.Fprintf(&b, "      %s\n", dimStyle.Render(c.Description()))
	}
	return b.String()
}

// RenderDiff formats a comparison of two runs.
func RenderDiff(d domain.RunDiff) string {
	var b strings.Builder
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s  %s %s %s\n",
		titleStyle.Render("Run diff"),
		dimStyle.Render(d.Before.String()),
		dimStyle.Render("→"),
		lipgloss.NewStyle().Bold(true).Foreground(rateColor(d.After)).Render(d.After.String()),
	)
	b.WriteString("  " + separatorLine + "\n\n")

	if len(d.Cases) == 0 {
		b.WriteString("  " + dimStyle.Render("Both runs are empty.") + "\n")
		return b.String()
	}

	for _, c := range d.Cases {
		fmt.Fprintf(&b, "  %s %s\n", changeTag(c.Change), c.Instruction)
		if c.Before != "" && c.After != "" && c.Before != c.After {
			fmt.Fprintf(&b, "      %s\n", dimStyle.Render(c.Before+" → "+c.After))
		}
		if len(c.Gained) > 0 {
			fmt.Fprintf(&b, "      %s %s\n", failStyle.Render("+"), joinIssues(c.Gained))
		}
		if len(c.Lost) > 0 {
			fmt.Fprintf(&b, "      %s %s\n", passStyle.Render("-"), joinIssues(c.Lost))
		}
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s  %s  %s\n",
		failTagStyle.Render(fmt.Sprintf("%d regressed", d.Count(domain.ChangeRegressed))),
		passTagStyle.Render(fmt.Sprintf("%d fixed", d.Count(domain.ChangeFixed))),
		dimStyle.Render(fmt.Sprintf("%d unchanged", d.Count(domain.ChangeUnchanged))),
	)
	return b.String()
}

func changeTag(c domain.CaseChange) string {
	label := padRight(string(c), 10)
	switch c {
	case domain.ChangeRegressed:
		return failTagStyle.Render(label)
	case domain.ChangeFixed:
		return passTagStyle.Render(label)
	case domain.ChangeAdded, domain.ChangeRemoved:
		return warnStyle.Render(label)
	default:
		return dimStyle.Render(label)
	}
}

// RenderHistory formats run history for terminal output.
func RenderHistory(entries []domain.RunEntry) string {
	if len(entries) == 0 {
		return "  " + dimStyle.Render("No run history found.") + "\n"
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + titleStyle.Render("Run History") + "\n")
	b.WriteString("  " + faintStyle.Render(strings.Repeat("─", 50)) + "\n\n")

	for i, e := range entries {
		hash := e.CommitHash
		if len(hash) > 7 {
			hash = hash[:7]
		}
		if hash == "" {
			hash = "·······"
		}

		day := e.Timestamp
		if len(day) > 10 {
			day = day[:10]
		}

		s := domain.RunSummary{Passed: e.Passed, Total: e.Total}
		ratio := lipgloss.NewStyle().Foreground(rateColor(s)).Render(s.String())

		line := fmt.Sprintf("  %s  %s  %s  %s",
			dimStyle.Render(day),
			faintStyle.Render(hash),
			ratio,
			dimStyle.Render(e.BaseURL),
		)

		if i > 0 {
			diff := e.Passed - entries[i-1].Passed
			if diff > 0 {
				line += "  " + passStyle.Render(fmt.Sprintf("↑%d", diff))
			} else if diff < 0 {
				line += "  " + failStyle.Render(fmt.Sprintf("↓%d", -diff))
			}
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
