package aggregate

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vulnplan/internal/model"
)

func floatPtr(v float64) *float64 { return &v }

func depAsset(name, version string, tags ...string) model.Asset {
	return model.Asset{
		Ecosystem: "npm",
		Name:      name,
		Version:   version,
		FilePath:  "package.json",
		Kind:      model.KindDependency,
		Tags:      tags,
	}
}

func TestAggregateEmptyInventory(t *testing.T) {
	_, err := Aggregate(nil, []model.RawFindingRecord{{VulnID: "CVE-1", AffectedRange: "*"}}, Options{})
	if !errors.Is(err, ErrEmptyInventory) {
		t.Fatalf("expected ErrEmptyInventory, got %v", err)
	}
}

func TestAggregateMatchesAffectedVersionsOnly(t *testing.T) {
	assets := []model.Asset{
		depAsset("lodash", "4.17.20"),
		depAsset("lodash", "4.17.21"),
	}
	records := []model.RawFindingRecord{{
		SourceID:      model.SourceOSV,
		VulnID:        "CVE-2021-23337",
		Ecosystem:     "npm",
		Package:       "lodash",
		AffectedRange: "<4.17.21",
	}}

	res, err := Aggregate(assets, records, Options{})
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "npm/lodash@4.17.20", res.Findings[0].Asset.Identity())
	assert.Equal(t, 0, res.Dropped)
}

func TestAggregateDropsUnmatchedRecords(t *testing.T) {
	assets := []model.Asset{depAsset("express", "4.18.2")}
	records := []model.RawFindingRecord{{
		SourceID:      model.SourceOSV,
		VulnID:        "CVE-2020-0001",
		Ecosystem:     "npm",
		Package:       "some-other-package",
		AffectedRange: "*",
	}}

	res, err := Aggregate(assets, records, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Findings)
	assert.Equal(t, 1, res.Dropped)
	assert.Empty(t, res.Warnings, "a non-matching record is routine, not a warning")
}

func TestAggregateUnparsableRecordBecomesWarning(t *testing.T) {
	assets := []model.Asset{depAsset("express", "4.18.2")}
	records := []model.RawFindingRecord{
		{
			SourceID:      model.SourceOSV,
			VulnID:        "", // no id and no CVE alias
			Ecosystem:     "npm",
			Package:       "express",
			AffectedRange: "*",
		},
		{
			SourceID:      model.SourceOSV,
			VulnID:        "CVE-2024-1000",
			Ecosystem:     "npm",
			Package:       "express",
			AffectedRange: "*",
		},
	}

	res, err := Aggregate(assets, records, Options{})
	require.NoError(t, err)
	require.Len(t, res.Findings, 1, "the good record must survive the bad one")
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0].Message, "unparsable record")
}

func TestMergePrecedenceBySourcePriority(t *testing.T) {
	assets := []model.Asset{depAsset("lodash", "4.17.20")}
	records := []model.RawFindingRecord{
		{
			SourceID:      model.SourceOSV,
			VulnID:        "CVE-2021-23337",
			Ecosystem:     "npm",
			Package:       "lodash",
			AffectedRange: "<4.17.21",
			CVSS:          floatPtr(5.0),
			Title:         "osv title",
			References:    []string{"https://osv.dev/CVE-2021-23337"},
		},
		{
			SourceID:      model.SourceNVD,
			VulnID:        "CVE-2021-23337",
			Ecosystem:     "npm",
			Package:       "lodash",
			AffectedRange: "<4.17.21",
			CVSS:          floatPtr(9.8),
			References:    []string{"https://nvd.nist.gov/vuln/detail/CVE-2021-23337"},
		},
	}

	res, err := Aggregate(assets, records, Options{})
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)

	f := res.Findings[0]
	// NVD outranks OSV, so its CVSS wins; OSV still fills the title NVD
	// did not provide, and both references survive.
	require.NotNil(t, f.CVSS)
	assert.Equal(t, 9.8, *f.CVSS)
	assert.Equal(t, "osv title", f.Title)
	assert.Equal(t, []string{model.SourceNVD, model.SourceOSV}, f.Sources)
	assert.Len(t, f.References, 2)
}

func TestMergeExploitabilityTakesMaximum(t *testing.T) {
	assets := []model.Asset{depAsset("lodash", "4.17.20")}
	records := []model.RawFindingRecord{
		{
			SourceID:      model.SourceNVD,
			VulnID:        "CVE-2021-23337",
			Ecosystem:     "npm",
			Package:       "lodash",
			AffectedRange: "<4.17.21",
			CVSS:          floatPtr(9.8),
		},
		{
			SourceID:       model.SourceKEV,
			VulnID:         "CVE-2021-23337",
			Ecosystem:      "npm",
			Package:        "lodash",
			AffectedRange:  "<4.17.21",
			KnownExploited: true,
		},
	}

	res, err := Aggregate(assets, records, Options{})
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, 10, res.Findings[0].Exploitability, "KEV listing must dominate the merged exploitability")
	require.NotNil(t, res.Findings[0].CVSS)
	assert.Equal(t, 9.8, *res.Findings[0].CVSS, "KEV has no score, NVD's must survive")
}

func TestAggregateCommutative(t *testing.T) {
	assets := []model.Asset{
		depAsset("lodash", "4.17.20", model.TagTierCritical),
		depAsset("express", "4.16.0"),
	}
	records := []model.RawFindingRecord{
		{SourceID: model.SourceOSV, VulnID: "CVE-2021-23337", Ecosystem: "npm", Package: "lodash", AffectedRange: "<4.17.21", CVSS: floatPtr(7.2), Title: "a"},
		{SourceID: model.SourceNVD, VulnID: "CVE-2021-23337", Ecosystem: "npm", Package: "lodash", AffectedRange: "<4.17.21", CVSS: floatPtr(9.8)},
		{SourceID: model.SourceGHSA, VulnID: "CVE-2021-23337", Ecosystem: "npm", Package: "lodash", AffectedRange: "<4.17.21", SeverityText: "high", Title: "b"},
		{SourceID: model.SourceOSV, VulnID: "CVE-2022-24999", Ecosystem: "npm", Package: "express", AffectedRange: "<4.17.3", CVSS: floatPtr(7.5)},
		{SourceID: model.SourceKEV, VulnID: "CVE-2022-24999", Ecosystem: "npm", Package: "express", AffectedRange: "<4.17.3", KnownExploited: true},
	}

	baseline, err := Aggregate(assets, records, Options{Concurrency: 1})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := make([]model.RawFindingRecord, len(records))
		copy(shuffled, records)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got, err := Aggregate(assets, shuffled, Options{Concurrency: 4})
		require.NoError(t, err)
		if !reflect.DeepEqual(baseline.Findings, got.Findings) {
			t.Fatalf("shuffle %d changed the output:\nbaseline: %+v\ngot: %+v", i, baseline.Findings, got.Findings)
		}
	}
}

func TestAggregateCanonicalID(t *testing.T) {
	assets := []model.Asset{depAsset("lodash", "4.17.20")}
	records := []model.RawFindingRecord{{
		SourceID:      model.SourceOSV,
		VulnID:        "CVE-2021-23337",
		Ecosystem:     "npm",
		Package:       "lodash",
		AffectedRange: "<4.17.21",
	}}

	res, err := Aggregate(assets, records, Options{})
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "CVE-2021-23337|npm/lodash@4.17.20|<4.17.21", res.Findings[0].CanonicalID)
}

func TestAggregateDistinctIDsPerPinnedVersion(t *testing.T) {
	// The same package pinned at two different affected versions must
	// produce two findings with distinct canonical ids, or the differ
	// would collapse them into one.
	assets := []model.Asset{
		depAsset("lodash", "4.17.19"),
		depAsset("lodash", "4.17.20"),
	}
	records := []model.RawFindingRecord{{
		SourceID:      model.SourceOSV,
		VulnID:        "CVE-2021-23337",
		Ecosystem:     "npm",
		Package:       "lodash",
		AffectedRange: "<4.17.21",
	}}

	res, err := Aggregate(assets, records, Options{})
	require.NoError(t, err)
	require.Len(t, res.Findings, 2)

	ids := map[string]bool{}
	for _, f := range res.Findings {
		ids[f.CanonicalID] = true
	}
	assert.Len(t, ids, 2, "canonical ids must be unique within a plan, got %+v", res.Findings)
	assert.True(t, ids["CVE-2021-23337|npm/lodash@4.17.19|<4.17.21"])
	assert.True(t, ids["CVE-2021-23337|npm/lodash@4.17.20|<4.17.21"])
}

func TestMergeTiesBrokenByContentNotArrival(t *testing.T) {
	// Two records identical on (priority, source, range) but differing in
	// content must merge the same way whichever finishes first.
	assets := []model.Asset{depAsset("lodash", "4.17.20")}
	records := []model.RawFindingRecord{
		{SourceID: model.SourceOSV, VulnID: "CVE-2021-23337", Ecosystem: "npm", Package: "lodash", AffectedRange: "<4.17.21", Title: "zeta title"},
		{SourceID: model.SourceOSV, VulnID: "CVE-2021-23337", Ecosystem: "npm", Package: "lodash", AffectedRange: "<4.17.21", Title: "alpha title"},
	}
	reversed := []model.RawFindingRecord{records[1], records[0]}

	a, err := Aggregate(assets, records, Options{Concurrency: 1})
	require.NoError(t, err)
	b, err := Aggregate(assets, reversed, Options{Concurrency: 1})
	require.NoError(t, err)

	require.Len(t, a.Findings, 1)
	assert.Equal(t, "alpha title", a.Findings[0].Title)
	assert.Equal(t, a.Findings, b.Findings)
}

func TestAggregateAssetTiersCarryThrough(t *testing.T) {
	assets := []model.Asset{depAsset("lodash", "4.17.20", model.TagTierCritical, model.TagExposureInternet)}
	records := []model.RawFindingRecord{{
		SourceID:      model.SourceOSV,
		VulnID:        "CVE-2021-23337",
		Ecosystem:     "npm",
		Package:       "lodash",
		AffectedRange: "*",
	}}

	res, err := Aggregate(assets, records, Options{})
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, 10, res.Findings[0].Criticality)
	assert.Equal(t, 10, res.Findings[0].Exposure)
}

func TestAggregateUncomparableVersionWarns(t *testing.T) {
	assets := []model.Asset{depAsset("weird", "not!a!version")}
	records := []model.RawFindingRecord{{
		SourceID:      model.SourceOSV,
		VulnID:        "CVE-2024-2000",
		Ecosystem:     "npm",
		Package:       "weird",
		AffectedRange: "<2.0.0",
	}}

	res, err := Aggregate(assets, records, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Findings)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0].Message, "cannot compare")
}
