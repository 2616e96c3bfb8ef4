package report

import (
	"strings"
	"testing"

	"vulnplan/internal/model"
	"vulnplan/internal/plan"
)

func samplePlan() *model.RemediationPlan {
	cvss := 9.8
	p := &model.RemediationPlan{ProjectPath: "/proj", TotalEffortHours: 1.0}
	for _, tier := range model.Tiers() {
		p.Phases = append(p.Phases, model.RemediationPhase{Tier: tier})
	}
	p.Phases[0].Findings = []model.Finding{{
		CanonicalID: "CVE-2021-23337|npm/lodash@4.17.20|<4.17.21",
		Asset: model.Asset{
			Ecosystem: "npm", Name: "lodash", Version: "4.17.20",
			FilePath: "package.json", Kind: model.KindDependency,
		},
		Title:          "Command injection in lodash",
		CVSS:           &cvss,
		Exploitability: 10,
		Criticality:    2,
		Exposure:       2,
		Sources:        []string{model.SourceNVD, model.SourceOSV},
		RiskScore:      model.Score(6.94),
		FixAction: &model.FixAction{
			Kind:        model.KindDependency,
			Command:     "npm install lodash@4.17.21",
			Description: "Bump lodash.",
		},
		Tests: &model.VerificationTests{
			PreFix:      model.TestSpec{Name: "pre_fix_lodash_not_vulnerable", ExpectedBefore: "fail", ExpectedAfter: "pass"},
			Remediation: model.TestSpec{Name: "remediation_lodash_fix_applies", ExpectedBefore: "fail", ExpectedAfter: "pass"},
			PostFix:     model.TestSpec{Name: "post_fix_lodash_not_vulnerable", ExpectedBefore: "fail", ExpectedAfter: "pass"},
		},
	}}
	p.Phases[0].EstimatedEffortHours = 1.0
	p.Warnings = []model.PlanWarning{{Source: "ghsa", Message: "fetch failed: rate limited"}}
	return p
}

func TestRemediation(t *testing.T) {
	md := Remediation(samplePlan())

	for _, want := range []string{
		"# Remediation Plan",
		"| Critical | 1 | 1.0 |",
		"## Phase: Critical",
		"Command injection in lodash",
		"`CVE-2021-23337|npm/lodash@4.17.20|<4.17.21`",
		"**Risk score:** 6.9",
		"npm install lodash@4.17.21",
		"pre_fix_lodash_not_vulnerable",
		"## Warnings",
		"rate limited",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q", want)
		}
	}

	if strings.Contains(md, "## Phase: Low") {
		t.Error("empty phases should not render a section")
	}
}

func TestRemediationManualReview(t *testing.T) {
	p := samplePlan()
	p.Phases[0].Findings[0].FixAction = nil
	p.Phases[0].Findings[0].NeedsManualReview = true

	md := Remediation(p)
	if !strings.Contains(md, "needs manual review") {
		t.Error("manual-review findings should say so")
	}
}

func TestDelta(t *testing.T) {
	d := plan.Delta{
		New: []model.Finding{{
			CanonicalID: "CVE-1|npm/a|*",
			Title:       "New one",
			RiskScore:   model.Score(8.0),
		}},
		Resolved: []model.Finding{{
			CanonicalID: "CVE-2|npm/b|*",
			Title:       "Gone now",
			RiskScore:   model.Score(5.0),
		}},
	}

	md := Delta(d)
	for _, want := range []string{
		"# Scan Delta",
		"**New:** 1 | **Unchanged:** 0 | **Resolved:** 1",
		"## New",
		"New one",
		"## Resolved",
		"Gone now",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("delta report missing %q", want)
		}
	}
	if strings.Contains(md, "## Unchanged") {
		t.Error("empty partitions should not render a section")
	}
}
