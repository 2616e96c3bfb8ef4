// Package plan buckets scored findings into remediation phases, attaches
// fix actions and the three-test verification contract, and diffs plans
// across runs.
package plan

import (
	"fmt"
	"sort"
	"time"

	"vulnplan/internal/model"
)

// Config holds the phase thresholds and per-tier effort estimates. The
// zero value is not usable; call DefaultConfig.
type Config struct {
	CriticalThreshold float64 `json:"critical" mapstructure:"critical"`
	HighThreshold     float64 `json:"high" mapstructure:"high"`
	MediumThreshold   float64 `json:"medium" mapstructure:"medium"`

	EffortHours map[model.Tier]float64 `json:"effort_hours" mapstructure:"effort_hours"`
}

// DefaultConfig returns the documented defaults: critical >= 8.5,
// high >= 6.5, medium >= 4, and 1.0/0.5/0.25/0.1 effort hours per finding.
func DefaultConfig() Config {
	return Config{
		CriticalThreshold: 8.5,
		HighThreshold:     6.5,
		MediumThreshold:   4.0,
		EffortHours: map[model.Tier]float64{
			model.TierCritical: 1.0,
			model.TierHigh:     0.5,
			model.TierMedium:   0.25,
			model.TierLow:      0.1,
		},
	}
}

// Validate rejects threshold sets that are not strictly descending or
// effort tables with non-positive entries.
func (c Config) Validate() error {
	if !(c.CriticalThreshold > c.HighThreshold && c.HighThreshold > c.MediumThreshold && c.MediumThreshold > 0) {
		return fmt.Errorf("phase thresholds must be strictly descending and positive: critical=%.2f high=%.2f medium=%.2f",
			c.CriticalThreshold, c.HighThreshold, c.MediumThreshold)
	}
	for _, t := range model.Tiers() {
		if c.EffortHours[t] <= 0 {
			return fmt.Errorf("effort hours for tier %q must be positive", t)
		}
	}
	return nil
}

func (c Config) tierFor(risk float64) model.Tier {
	switch {
	case risk >= c.CriticalThreshold:
		return model.TierCritical
	case risk >= c.HighThreshold:
		return model.TierHigh
	case risk >= c.MediumThreshold:
		return model.TierMedium
	default:
		return model.TierLow
	}
}

// Build produces the remediation plan for a set of scored findings. All
// four phases are always emitted, possibly empty, so the serialized shape
// is fixed. An unsupported asset kind degrades to a manual-review flag and
// a plan warning rather than failing the build.
func Build(findings []model.Finding, projectPath string, cfg Config) (*model.RemediationPlan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &model.RemediationPlan{
		GeneratedAt: time.Now().UTC(),
		ProjectPath: projectPath,
	}
	byTier := make(map[model.Tier][]model.Finding)

	for _, f := range findings {
		action, err := fixActionFor(f)
		if err != nil {
			f.FixAction = nil
			f.NeedsManualReview = true
			p.Warnings = append(p.Warnings, model.PlanWarning{
				Subject: f.CanonicalID,
				Message: err.Error(),
			})
		} else {
			f.FixAction = action
		}
		f.Tests = verificationTests(f)

		tier := cfg.tierFor(float64(f.RiskScore))
		byTier[tier] = append(byTier[tier], f)
	}

	for _, tier := range model.Tiers() {
		phase := model.RemediationPhase{Tier: tier, Findings: byTier[tier]}
		orderPhase(phase.Findings)
		phase.EstimatedEffortHours = cfg.EffortHours[tier] * float64(len(phase.Findings))
		p.TotalEffortHours += phase.EstimatedEffortHours
		p.Phases = append(p.Phases, phase)
	}

	sort.Slice(p.Warnings, func(i, j int) bool {
		if p.Warnings[i].Subject != p.Warnings[j].Subject {
			return p.Warnings[i].Subject < p.Warnings[j].Subject
		}
		return p.Warnings[i].Message < p.Warnings[j].Message
	})

	return p, nil
}

// orderPhase sorts by descending unrounded risk score, then descending
// CVSS, then ascending canonical id. Deterministic and stable.
func orderPhase(findings []model.Finding) {
	sort.Slice(findings, func(i, j int) bool {
		fi, fj := findings[i], findings[j]
		if fi.RiskScore != fj.RiskScore {
			return fi.RiskScore > fj.RiskScore
		}
		if fi.CVSSValue() != fj.CVSSValue() {
			return fi.CVSSValue() > fj.CVSSValue()
		}
		return fi.CanonicalID < fj.CanonicalID
	})
}
