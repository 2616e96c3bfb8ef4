// Package planstore persists remediation plans between runs: a canonical
// JSON snapshot per project for idempotence checks and diffing, plus a
// scan history ledger in SQLite or Postgres.
package planstore

import (
	"bytes"
	"encoding/json"
	"fmt"

	"vulnplan/internal/model"
)

// planSnapshot is the persisted shape. generated_at is deliberately
// excluded: two runs over an unchanged environment must produce
// byte-identical snapshots, and the timestamp lives in the history ledger
// instead. Field order is fixed by the struct; scores round to one decimal
// through model.Score's marshaller; no maps appear anywhere in the tree.
type planSnapshot struct {
	ProjectPath      string                   `json:"project_path"`
	Phases           []model.RemediationPhase `json:"phases"`
	TotalEffortHours float64                  `json:"total_effort_hours"`
	Warnings         []model.PlanWarning      `json:"warnings,omitempty"`
}

// Encode renders the canonical snapshot bytes for a plan.
func Encode(p *model.RemediationPlan) ([]byte, error) {
	snap := planSnapshot{
		ProjectPath:      p.ProjectPath,
		Phases:           p.Phases,
		TotalEffortHours: p.TotalEffortHours,
		Warnings:         p.Warnings,
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(snap); err != nil {
		return nil, fmt.Errorf("encode plan snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode restores a plan from snapshot bytes. GeneratedAt is zero on the
// result; it is only meaningful on freshly built plans.
func Decode(data []byte) (*model.RemediationPlan, error) {
	var snap planSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode plan snapshot: %w", err)
	}
	return &model.RemediationPlan{
		ProjectPath:      snap.ProjectPath,
		Phases:           snap.Phases,
		TotalEffortHours: snap.TotalEffortHours,
		Warnings:         snap.Warnings,
	}, nil
}
