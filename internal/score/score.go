// Package score computes the weighted risk score for merged findings.
package score

import (
	"fmt"
	"math"

	"vulnplan/internal/model"
)

// Config holds the scoring weights. Weights are configuration, not
// constants, but must always sum to 1.0.
type Config struct {
	CVSSWeight           float64 `json:"cvss_weight" mapstructure:"cvss_weight"`
	ExploitabilityWeight float64 `json:"exploitability_weight" mapstructure:"exploitability_weight"`
	CriticalityWeight    float64 `json:"criticality_weight" mapstructure:"criticality_weight"`
	ExposureWeight       float64 `json:"exposure_weight" mapstructure:"exposure_weight"`
}

// DefaultConfig returns the documented default weights.
func DefaultConfig() Config {
	return Config{
		CVSSWeight:           0.3,
		ExploitabilityWeight: 0.3,
		CriticalityWeight:    0.2,
		ExposureWeight:       0.2,
	}
}

// InvalidWeightsError rejects a weight set whose sum is not 1.0. It is a
// pipeline precondition failure: nothing is scored once it occurs.
type InvalidWeightsError struct {
	Config Config
	Sum    float64
}

func (e *InvalidWeightsError) Error() string {
	return fmt.Sprintf("scoring weights must sum to 1.0, got %.4f (cvss=%.2f exploitability=%.2f criticality=%.2f exposure=%.2f)",
		e.Sum, e.Config.CVSSWeight, e.Config.ExploitabilityWeight, e.Config.CriticalityWeight, e.Config.ExposureWeight)
}

const weightTolerance = 1e-9

// Validate checks the weight invariant eagerly, before any finding is
// scored. Weights are never silently normalized.
func (c Config) Validate() error {
	sum := c.CVSSWeight + c.ExploitabilityWeight + c.CriticalityWeight + c.ExposureWeight
	if math.Abs(sum-1.0) > weightTolerance {
		return &InvalidWeightsError{Config: c, Sum: sum}
	}
	for _, w := range []float64{c.CVSSWeight, c.ExploitabilityWeight, c.CriticalityWeight, c.ExposureWeight} {
		if w < 0 {
			return &InvalidWeightsError{Config: c, Sum: sum}
		}
	}
	return nil
}

// Finding returns a copy with RiskScore populated. Pure and total over any
// finding with resolved exploitability/criticality/exposure; an unknown
// CVSS counts as 0 rather than removing the finding from the ranking.
func (c Config) Finding(f model.Finding) model.Finding {
	risk := f.CVSSValue()*c.CVSSWeight +
		float64(f.Exploitability)*c.ExploitabilityWeight +
		float64(f.Criticality)*c.CriticalityWeight +
		float64(f.Exposure)*c.ExposureWeight
	f.RiskScore = model.Score(risk)
	return f
}

// All scores every finding after validating the weights once.
func (c Config) All(findings []model.Finding) ([]model.Finding, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	out := make([]model.Finding, len(findings))
	for i, f := range findings {
		out[i] = c.Finding(f)
	}
	return out, nil
}
