package plan

import (
	"sort"

	"vulnplan/internal/model"
)

// Delta partitions findings between two plan generations by canonical id.
// It is what makes re-running the pipeline safe: report rendering shows
// the change since the last scan without the builder tracking history.
type Delta struct {
	New       []model.Finding `json:"new"`
	Unchanged []model.Finding `json:"unchanged"`
	Resolved  []model.Finding `json:"resolved"`
}

// Diff compares a newly built plan against the previously persisted one.
// A finding only in current is new; in both with an identical risk score
// is unchanged; only in previous is resolved (fixed or removed). A finding
// present in both but with a different score counts as new: the
// environment changed and it needs re-triage.
func Diff(previous, current *model.RemediationPlan) Delta {
	var d Delta
	cur := flatten(current)

	if previous == nil {
		d.New = cur
		return d
	}

	prevByID := make(map[string]model.Finding)
	for _, f := range flatten(previous) {
		prevByID[f.CanonicalID] = f
	}

	seen := make(map[string]bool)
	for _, f := range cur {
		seen[f.CanonicalID] = true
		prev, ok := prevByID[f.CanonicalID]
		if ok && prev.RiskScore.Rounded() == f.RiskScore.Rounded() {
			d.Unchanged = append(d.Unchanged, f)
		} else {
			d.New = append(d.New, f)
		}
	}
	for _, f := range flatten(previous) {
		if !seen[f.CanonicalID] {
			d.Resolved = append(d.Resolved, f)
		}
	}
	sortByID(d.Resolved)
	return d
}

// flatten returns all findings of a plan in phase order, which is already
// deterministic; resolved findings from the previous plan are re-sorted by
// id since their old ordering keys may no longer apply.
func flatten(p *model.RemediationPlan) []model.Finding {
	if p == nil {
		return nil
	}
	var out []model.Finding
	for _, ph := range p.Phases {
		out = append(out, ph.Findings...)
	}
	return out
}

// sortByID is used by callers that want a stable listing of a partition.
func sortByID(findings []model.Finding) {
	sort.Slice(findings, func(i, j int) bool {
		return findings[i].CanonicalID < findings[j].CanonicalID
	})
}
