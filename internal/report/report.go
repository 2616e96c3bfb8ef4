// Package report renders remediation plans and scan deltas as markdown.
// It only formats what the pipeline computed: scores are never recomputed
// and findings are never reordered here.
package report

import (
	"fmt"
	"strings"

	"vulnplan/internal/model"
	"vulnplan/internal/plan"
)

// Remediation renders the phased remediation plan.
func Remediation(p *model.RemediationPlan) string {
	var sb strings.Builder

	sb.WriteString("# Remediation Plan\n\n")
	sb.WriteString(fmt.Sprintf("**Project:** `%s`\n", p.ProjectPath))
	if !p.GeneratedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("**Generated:** %s\n", p.GeneratedAt.Format("2006-01-02 15:04:05 UTC")))
	}
	sb.WriteString(fmt.Sprintf("**Findings:** %d | **Estimated effort:** %.1fh\n\n", p.FindingCount(), p.TotalEffortHours))

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Phase | Findings | Effort (h) |\n")
	sb.WriteString("| :--- | ---: | ---: |\n")
	for _, ph := range p.Phases {
		sb.WriteString(fmt.Sprintf("| %s | %d | %.1f |\n", titleCase(string(ph.Tier)), len(ph.Findings), ph.EstimatedEffortHours))
	}
	sb.WriteString("\n")

	for _, ph := range p.Phases {
		if len(ph.Findings) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("## Phase: %s\n\n", titleCase(string(ph.Tier))))
		for _, f := range ph.Findings {
			writeFinding(&sb, f)
		}
	}

	if len(p.Warnings) > 0 {
		sb.WriteString("## Warnings\n\n")
		for _, w := range p.Warnings {
			if w.Subject != "" {
				sb.WriteString(fmt.Sprintf("- `%s`: %s\n", w.Subject, w.Message))
			} else {
				sb.WriteString(fmt.Sprintf("- %s\n", w.Message))
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func writeFinding(sb *strings.Builder, f model.Finding) {
	sb.WriteString(fmt.Sprintf("### %s\n\n", f.Title))
	sb.WriteString(fmt.Sprintf("- **ID:** `%s`\n", f.CanonicalID))
	sb.WriteString(fmt.Sprintf("- **Asset:** `%s` (%s, `%s`)\n", f.Asset.Identity(), f.Asset.Kind, f.Asset.FilePath))
	sb.WriteString(fmt.Sprintf("- **Risk score:** %.1f", f.RiskScore.Rounded()))
	if f.CVSS != nil {
		sb.WriteString(fmt.Sprintf(" (CVSS %.1f)", *f.CVSS))
	} else {
		sb.WriteString(" (CVSS unknown)")
	}
	sb.WriteString(fmt.Sprintf(", exploitability %d, criticality %d, exposure %d\n", f.Exploitability, f.Criticality, f.Exposure))
	sb.WriteString(fmt.Sprintf("- **Sources:** %s\n", strings.Join(f.Sources, ", ")))

	if f.NeedsManualReview {
		sb.WriteString("- **Fix:** needs manual review\n")
	} else if f.FixAction != nil {
		sb.WriteString(fmt.Sprintf("- **Fix:** %s\n", f.FixAction.Description))
		sb.WriteString(fmt.Sprintf("  - `%s`\n", f.FixAction.Command))
	}

	if f.Tests != nil {
		sb.WriteString("- **Verification:**\n")
		for _, spec := range []model.TestSpec{f.Tests.PreFix, f.Tests.Remediation, f.Tests.PostFix} {
			sb.WriteString(fmt.Sprintf("  - `%s`: %s (before: %s, after: %s)\n",
				spec.Name, spec.AssertionTarget, spec.ExpectedBefore, spec.ExpectedAfter))
		}
	}
	sb.WriteString("\n")
}

// Delta renders the new/unchanged/resolved partitions from a re-run.
func Delta(d plan.Delta) string {
	var sb strings.Builder
	sb.WriteString("# Scan Delta\n\n")
	sb.WriteString(fmt.Sprintf("**New:** %d | **Unchanged:** %d | **Resolved:** %d\n\n",
		len(d.New), len(d.Unchanged), len(d.Resolved)))

	section := func(title string, findings []model.Finding) {
		if len(findings) == 0 {
			return
		}
		sb.WriteString(fmt.Sprintf("## %s\n\n", title))
		for _, f := range findings {
			sb.WriteString(fmt.Sprintf("- `%s`: %s (risk %.1f)\n", f.CanonicalID, f.Title, f.RiskScore.Rounded()))
		}
		sb.WriteString("\n")
	}
	section("New", d.New)
	section("Unchanged", d.Unchanged)
	section("Resolved", d.Resolved)
	return sb.String()
}
