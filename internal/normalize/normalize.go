// Package normalize converts heterogeneous feed records into the one
// canonical fragment shape the aggregator merges. It is pure: no I/O, no
// shared state.
package normalize

import (
	"fmt"
	"strings"

	"vulnplan/internal/cvss"
	"vulnplan/internal/model"
	"vulnplan/internal/version"
)

// UnparsableRecordError reports a source record that lacks a resolvable
// vulnerability identifier or affected-version expression. Callers isolate
// and skip; one bad record never aborts a batch.
type UnparsableRecordError struct {
	SourceID string
	VulnID   string
	Reason   string
}

func (e *UnparsableRecordError) Error() string {
	id := e.VulnID
	if id == "" {
		id = "<no id>"
	}
	return fmt.Sprintf("unparsable record %s from %s: %s", id, e.SourceID, e.Reason)
}

// Fragment is one source's normalized view of a vulnerability, before
// asset matching and cross-source merging.
type Fragment struct {
	SourceID       string
	VulnID         string
	Ecosystem      string
	Package        string
	Range          *version.Range
	CVSS           *float64
	Exploitability int
	Title          string
	Description    string
	References     []string
	FixedVersion   string
}

// Textual severities map to representative CVSS midpoints when a source
// (GitHub advisories, mostly) publishes no numeric score.
var severityTextScore = map[string]float64{
	"critical": 9.1,
	"high":     7.5,
	"moderate": 5.5,
	"medium":   5.5,
	"low":      3.1,
}

// Record normalizes one raw feed record. CVSS passes through when the
// source reports a number, is computed from the vector when only a vector
// is published, falls back to the textual-severity table, and stays nil
// otherwise (KEV entries carry no score at all).
func Record(rec model.RawFindingRecord) (Fragment, error) {
	vulnID := strings.TrimSpace(rec.VulnID)
	if vulnID == "" {
		vulnID = firstCVEAlias(rec.Aliases)
	}
	if vulnID == "" {
		return Fragment{}, &UnparsableRecordError{
			SourceID: rec.SourceID,
			Reason:   "no vulnerability identifier",
		}
	}

	rng, err := version.ParseRange(rec.AffectedRange)
	if err != nil {
		return Fragment{}, &UnparsableRecordError{
			SourceID: rec.SourceID,
			VulnID:   vulnID,
			Reason:   fmt.Sprintf("affected range %q: %v", rec.AffectedRange, err),
		}
	}

	frag := Fragment{
		SourceID:     rec.SourceID,
		VulnID:       vulnID,
		Ecosystem:    rec.Ecosystem,
		Package:      rec.Package,
		Range:        rng,
		Title:        rec.Title,
		Description:  rec.Description,
		References:   rec.References,
		FixedVersion: rec.FixedVersion,
	}

	switch {
	case rec.CVSS != nil:
		v := *rec.CVSS
		frag.CVSS = &v
	case rec.CVSSVector != "":
		if score := cvss.BaseScore(rec.CVSSVector); score > 0 {
			frag.CVSS = &score
		}
	case rec.SeverityText != "":
		if score, ok := severityTextScore[strings.ToLower(rec.SeverityText)]; ok {
			frag.CVSS = &score
		}
	}

	frag.Exploitability = exploitability(rec)
	return frag, nil
}

// exploitability resolves the closed {10, 7, 3} enumeration: KEV presence
// dominates, a published exploit reference is next, everything else is 3.
func exploitability(rec model.RawFindingRecord) int {
	if rec.KnownExploited || rec.SourceID == model.SourceKEV {
		return 10
	}
	for _, ref := range rec.References {
		if strings.Contains(strings.ToLower(ref), "exploit") {
			return 7
		}
	}
	return 3
}

func firstCVEAlias(aliases []string) string {
	for _, a := range aliases {
		if strings.HasPrefix(a, "CVE-") {
			return a
		}
	}
	return ""
}
