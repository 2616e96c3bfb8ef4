package model

import "fmt"

// TestSpec describes one generated verification test. These are
// specifications handed to report rendering, not executable code.
type TestSpec struct {
	Name            string `json:"name"`
	AssertionTarget string `json:"assertion_target"`
	ExpectedBefore  string `json:"expected_before"`
	ExpectedAfter   string `json:"expected_after"`
}

// VerificationTests is the three-test contract attached to every finding:
// a pre-fix test that must currently fail, a remediation unit test, and a
// post-fix test that must pass once the fix is applied.
type VerificationTests struct {
	PreFix      TestSpec `json:"pre_fix"`
	Remediation TestSpec `json:"remediation"`
	PostFix     TestSpec `json:"post_fix"`
}

// FixAction describes the remediation step for one finding.
type FixAction struct {
	Kind        AssetKind `json:"kind"`
	Command     string    `json:"command"`
	Description string    `json:"description"`
}

// Finding is the canonical, deduplicated record of one vulnerability
// affecting one asset. It is created by the aggregator, enriched by the
// scorer (RiskScore) and the plan builder (FixAction, Tests), and never
// mutated after the plan is finalized.
type Finding struct {
	CanonicalID    string   `json:"canonical_id"`
	Asset          Asset    `json:"asset"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	CVSS           *float64 `json:"cvss"`
	Exploitability int      `json:"exploitability"` // 10, 7 or 3
	Criticality    int      `json:"criticality"`    // 10, 5 or 2
	Exposure       int      `json:"exposure"`       // 10, 5 or 2
	Sources        []string `json:"sources"`
	References     []string `json:"references,omitempty"`
	FixedVersion   string   `json:"fixed_version,omitempty"`

	RiskScore Score `json:"risk_score"`

	FixAction         *FixAction         `json:"fix_action"`
	Tests             *VerificationTests `json:"tests,omitempty"`
	NeedsManualReview bool               `json:"needs_manual_review,omitempty"`
}

// CanonicalID derives a finding identity from the vulnerability identifier
// plus the exact asset identity and range it matched. Including the asset
// version keeps ids unique when the same package appears at two different
// affected versions in one inventory.
func CanonicalID(vulnID string, asset Asset, normalizedRange string) string {
	return fmt.Sprintf("%s|%s|%s", vulnID, asset.Identity(), normalizedRange)
}

// CVSSValue returns the CVSS score, defaulting to 0 when unknown so that a
// KEV-listed finding without a published score still ranks.
func (f Finding) CVSSValue() float64 {
	if f.CVSS == nil {
		return 0
	}
	return *f.CVSS
}
