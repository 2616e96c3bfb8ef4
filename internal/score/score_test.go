package score

import (
	"errors"
	"testing"

	"vulnplan/internal/model"
)

func floatPtr(v float64) *float64 { return &v }

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default weights should validate, got %v", err)
	}
}

func TestValidateRejectsBadSums(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"sum above one", Config{CVSSWeight: 0.5, ExploitabilityWeight: 0.3, CriticalityWeight: 0.2, ExposureWeight: 0.2}},
		{"sum below one", Config{CVSSWeight: 0.3, ExploitabilityWeight: 0.3, CriticalityWeight: 0.2}},
		{"all zero", Config{}},
		{"negative weight", Config{CVSSWeight: -0.3, ExploitabilityWeight: 0.9, CriticalityWeight: 0.2, ExposureWeight: 0.2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			var invalid *InvalidWeightsError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidWeightsError, got %v", err)
			}
		})
	}
}

func TestValidateToleratesFloatNoise(t *testing.T) {
	cfg := Config{CVSSWeight: 0.1, ExploitabilityWeight: 0.2, CriticalityWeight: 0.3, ExposureWeight: 0.4}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("weights summing to 1.0 within float tolerance should pass, got %v", err)
	}
}

func TestFindingScore(t *testing.T) {
	cfg := DefaultConfig()
	f := cfg.Finding(model.Finding{
		CVSS:           floatPtr(9.8),
		Exploitability: 10,
		Criticality:    10,
		Exposure:       10,
	})
	// 9.8*0.3 + 10*0.3 + 10*0.2 + 10*0.2 = 9.94, displayed as 9.9
	if got := f.RiskScore.Rounded(); got != 9.9 {
		t.Errorf("RiskScore.Rounded() = %v, want 9.9", got)
	}
}

func TestFindingScoreWithoutCVSS(t *testing.T) {
	cfg := DefaultConfig()
	f := cfg.Finding(model.Finding{
		CVSS:           nil,
		Exploitability: 10,
		Criticality:    2,
		Exposure:       2,
	})
	// 0*0.3 + 10*0.3 + 2*0.2 + 2*0.2 = 3.8: a KEV entry without a published
	// score still ranks above the floor.
	if got := f.RiskScore.Rounded(); got != 3.8 {
		t.Errorf("RiskScore.Rounded() = %v, want 3.8", got)
	}
}

func TestFindingScoreDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	in := model.Finding{CVSS: floatPtr(7.5), Exploitability: 7, Criticality: 5, Exposure: 5}
	first := cfg.Finding(in).RiskScore
	for i := 0; i < 100; i++ {
		if got := cfg.Finding(in).RiskScore; got != first {
			t.Fatalf("score changed across identical runs: %v vs %v", got, first)
		}
	}
}

func TestAllValidatesBeforeScoring(t *testing.T) {
	bad := Config{CVSSWeight: 1.5}
	_, err := bad.All([]model.Finding{{Exploitability: 3}})
	var invalid *InvalidWeightsError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidWeightsError, got %v", err)
	}
}

func TestAllDoesNotMutateInput(t *testing.T) {
	in := []model.Finding{{CVSS: floatPtr(5.0), Exploitability: 3, Criticality: 2, Exposure: 2}}
	out, err := DefaultConfig().All(in)
	if err != nil {
		t.Fatal(err)
	}
	if in[0].RiskScore != 0 {
		t.Error("input slice should not be mutated")
	}
	if out[0].RiskScore == 0 {
		t.Error("output should carry the computed score")
	}
}
