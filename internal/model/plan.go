package model

import (
	"math"
	"strconv"
	"time"
)

// Score is a risk score that keeps full precision in memory but always
// serializes rounded to one decimal place, which keeps persisted plans
// byte-stable across runs.
type Score float64

// Rounded returns the one-decimal display value.
func (s Score) Rounded() float64 {
	return math.Round(float64(s)*10) / 10
}

func (s Score) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(s.Rounded(), 'f', 1, 64)), nil
}

func (s *Score) UnmarshalJSON(data []byte) error {
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*s = Score(v)
	return nil
}

// Tier is a risk bucket used to order remediation work.
type Tier string

const (
	TierCritical Tier = "critical"
	TierHigh     Tier = "high"
	TierMedium   Tier = "medium"
	TierLow      Tier = "low"
)

// Tiers lists all tiers in plan order, critical first.
func Tiers() []Tier {
	return []Tier{TierCritical, TierHigh, TierMedium, TierLow}
}

// RemediationPhase groups findings of one tier. Findings are ordered by
// descending risk score, ties broken by descending CVSS, then ascending
// canonical id.
type RemediationPhase struct {
	Tier                 Tier      `json:"tier"`
	Findings             []Finding `json:"findings"`
	EstimatedEffortHours float64   `json:"estimated_effort_hours"`
}

// PlanWarning records a non-fatal problem encountered while building the
// plan. No error is dropped without at least a warning entry here.
type PlanWarning struct {
	Source  string `json:"source,omitempty"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

// RemediationPlan is the final pipeline output. All four phases are always
// present, possibly empty, so the serialized shape is fixed. Immutable once
// returned.
type RemediationPlan struct {
	GeneratedAt      time.Time          `json:"generated_at"`
	ProjectPath      string             `json:"project_path"`
	Phases           []RemediationPhase `json:"phases"`
	TotalEffortHours float64            `json:"total_effort_hours"`
	Warnings         []PlanWarning      `json:"warnings,omitempty"`
}

// FindingCount returns the number of findings across all phases.
func (p *RemediationPlan) FindingCount() int {
	n := 0
	for _, ph := range p.Phases {
		n += len(ph.Findings)
	}
	return n
}

// Phase returns the phase for a tier, or nil if the plan is malformed.
func (p *RemediationPlan) Phase(t Tier) *RemediationPhase {
	for i := range p.Phases {
		if p.Phases[i].Tier == t {
			return &p.Phases[i]
		}
	}
	return nil
}
