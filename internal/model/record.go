package model

import "time"

// Source identifiers as emitted by the feed clients. The priority table in
// the aggregator is keyed on these.
const (
	SourceKEV  = "cisa-kev"
	SourceNVD  = "nvd"
	SourceGHSA = "ghsa"
	SourceOSV  = "osv"
)

// DefaultSourcePriority orders feeds for field-level merge precedence.
// Lower value wins. Substituting or adding a feed is a data change here,
// not a code change in the aggregator.
func DefaultSourcePriority() map[string]int {
	return map[string]int{
		SourceKEV:  1,
		SourceNVD:  2,
		SourceGHSA: 3,
		SourceOSV:  4,
	}
}

// RawFindingRecord is one vulnerability report as returned by one source,
// before normalization. It is consumed during aggregation and not retained.
type RawFindingRecord struct {
	SourceID      string    `json:"source_id"`
	VulnID        string    `json:"vuln_id"`
	Aliases       []string  `json:"aliases,omitempty"`
	Ecosystem     string    `json:"ecosystem"`
	Package       string    `json:"package"`
	AffectedRange string    `json:"affected_range"`
	CVSS          *float64  `json:"cvss,omitempty"`
	CVSSVector    string    `json:"cvss_vector,omitempty"`
	SeverityText  string    `json:"severity_text,omitempty"`
	Title         string    `json:"title,omitempty"`
	Description   string    `json:"description,omitempty"`
	References    []string  `json:"references,omitempty"`
	FixedVersion  string    `json:"fixed_version,omitempty"`
	KnownExploited bool     `json:"known_exploited,omitempty"`
	FetchedAt     time.Time `json:"fetched_at"`
}
