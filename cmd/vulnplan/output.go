package main

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"vulnplan/internal/model"
	"vulnplan/internal/plan"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	tierStyles = map[model.Tier]lipgloss.Style{
		model.TierCritical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		model.TierHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		model.TierMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		model.TierLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	}
)

func printScanSummary(cmd *cobra.Command, p *model.RemediationPlan, delta *plan.Delta) {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, titleStyle.Render("Remediation plan for "+p.ProjectPath))
	fmt.Fprintf(out, "%d findings, %.1fh estimated effort\n\n", p.FindingCount(), p.TotalEffortHours)

	for _, ph := range p.Phases {
		style, ok := tierStyles[ph.Tier]
		if !ok {
			style = dimStyle
		}
		fmt.Fprintf(out, "  %s %3d findings  %5.1fh\n",
			style.Render(fmt.Sprintf("%-8s", ph.Tier)), len(ph.Findings), ph.EstimatedEffortHours)
	}

	if delta != nil {
		fmt.Fprintf(out, "\nSince last scan: %d new, %d unchanged, %d resolved\n",
			len(delta.New), len(delta.Unchanged), len(delta.Resolved))
	}

	if len(p.Warnings) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("%d warnings:", len(p.Warnings))))
		for _, w := range p.Warnings {
			if w.Subject != "" {
				fmt.Fprintf(out, "  [%s] %s: %s\n", w.Source, w.Subject, w.Message)
			} else {
				fmt.Fprintf(out, "  [%s] %s\n", w.Source, w.Message)
			}
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, dimStyle.Render("Full report: vulnplan report"))
}

// renderMarkdown pretty-prints markdown for terminals, falling back to the
// raw text when the renderer cannot be built (e.g. no TTY detection data).
func renderMarkdown(md string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return md
	}
	rendered, err := r.Render(md)
	if err != nil {
		return md
	}
	return rendered
}
