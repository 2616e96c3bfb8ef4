package feeds

import (
	"context"
	"errors"
	"testing"
	"time"

	"vulnplan/internal/model"
)

type stubClient struct {
	name    string
	records []model.RawFindingRecord
	err     error
}

func (s *stubClient) Name() string { return s.name }

func (s *stubClient) Fetch(ctx context.Context, assets []model.Asset) ([]model.RawFindingRecord, error) {
	return s.records, s.err
}

func TestFetchAllCollectsFromAllClients(t *testing.T) {
	clients := []Client{
		&stubClient{name: "osv", records: []model.RawFindingRecord{{VulnID: "CVE-1"}, {VulnID: "CVE-2"}}},
		&stubClient{name: "ghsa", records: []model.RawFindingRecord{{VulnID: "CVE-3"}}},
	}
	records, warnings := FetchAll(context.Background(), clients, nil, time.Second, nil)
	if len(records) != 3 {
		t.Errorf("expected 3 records, got %d", len(records))
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %+v", warnings)
	}
}

func TestFetchAllDegradesFailedSourceToWarning(t *testing.T) {
	clients := []Client{
		&stubClient{name: "osv", records: []model.RawFindingRecord{{VulnID: "CVE-1"}}},
		&stubClient{name: "ghsa", err: errors.New("rate limited")},
	}
	records, warnings := FetchAll(context.Background(), clients, nil, time.Second, nil)
	if len(records) != 1 {
		t.Errorf("the healthy source's records must survive, got %d", len(records))
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
	if warnings[0].Source != "ghsa" {
		t.Errorf("warning source = %q", warnings[0].Source)
	}
}

func TestToOSVEcosystem(t *testing.T) {
	tests := map[string]string{
		"npm":     "npm",
		"pip":     "PyPI",
		"go":      "Go",
		"cargo":   "crates.io",
		"gem":     "RubyGems",
		"unknown": "unknown",
	}
	for in, want := range tests {
		if got := toOSVEcosystem(in); got != want {
			t.Errorf("toOSVEcosystem(%q) = %q, want %q", in, got, want)
		}
	}
}
