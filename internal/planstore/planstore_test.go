package planstore

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vulnplan/internal/model"
)

func samplePlan(generatedAt time.Time) *model.RemediationPlan {
	cvss := 9.8
	p := &model.RemediationPlan{
		GeneratedAt:      generatedAt,
		ProjectPath:      "/proj",
		TotalEffortHours: 1.0,
	}
	for _, tier := range model.Tiers() {
		p.Phases = append(p.Phases, model.RemediationPhase{Tier: tier})
	}
	p.Phases[0].Findings = []model.Finding{{
		CanonicalID: "CVE-2021-23337|npm/lodash@4.17.20|<4.17.21",
		Asset: model.Asset{
			Ecosystem: "npm", Name: "lodash", Version: "4.17.20",
			FilePath: "package.json", Kind: model.KindDependency,
		},
		Title:          "Command injection in lodash",
		CVSS:           &cvss,
		Exploitability: 10,
		Criticality:    2,
		Exposure:       2,
		Sources:        []string{model.SourceNVD, model.SourceOSV},
		RiskScore:      model.Score(6.94),
	}}
	p.Phases[0].EstimatedEffortHours = 1.0
	return p
}

func TestEncodeExcludesTimestamp(t *testing.T) {
	first, err := Encode(samplePlan(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	second, err := Encode(samplePlan(time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	assert.True(t, bytes.Equal(first, second),
		"plans differing only in GeneratedAt must encode byte-identically")
	assert.NotContains(t, string(first), "generated_at")
}

func TestEncodeRoundsScores(t *testing.T) {
	data, err := Encode(samplePlan(time.Now()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"risk_score": 6.9`)
	assert.NotContains(t, string(data), "6.94")
}

func TestDecodeRoundTrip(t *testing.T) {
	p := samplePlan(time.Now())
	data, err := Encode(p)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, p.ProjectPath, got.ProjectPath)
	require.Len(t, got.Phases, 4)
	require.Len(t, got.Phases[0].Findings, 1)
	assert.Equal(t, p.Phases[0].Findings[0].CanonicalID, got.Phases[0].Findings[0].CanonicalID)
	assert.True(t, got.GeneratedAt.IsZero())
}

func TestFileStoreLoadMissing(t *testing.T) {
	store := NewFileStore(t.TempDir())
	p, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, p, "no snapshot yet should be (nil, nil), not an error")
}

func TestFileStoreSaveLoad(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	require.NoError(t, store.Save(samplePlan(time.Now())))

	got, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "/proj", got.ProjectPath)
}

func TestFileStoreRepeatedSaveKeepsBytesIdentical(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	require.NoError(t, store.Save(samplePlan(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))))

	path := filepath.Join(dir, ".vulnplan", "plan.json")
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	// Same findings, later timestamp: the file must not change.
	require.NoError(t, store.Save(samplePlan(time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC))))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second))
}

func TestFeedCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cache := NewFeedCache(dir)

	cvss := 9.8
	records := []model.RawFindingRecord{{
		SourceID:      model.SourceOSV,
		VulnID:        "CVE-2021-23337",
		Ecosystem:     "npm",
		Package:       "lodash",
		AffectedRange: "<4.17.21",
		CVSS:          &cvss,
	}}
	require.NoError(t, cache.Save(records))

	got, err := cache.Load()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "CVE-2021-23337", got[0].VulnID)
	require.NotNil(t, got[0].CVSS)
	assert.Equal(t, 9.8, *got[0].CVSS)
}

func TestFeedCacheLoadMissing(t *testing.T) {
	cache := NewFeedCache(t.TempDir())
	_, err := cache.Load()
	require.Error(t, err, "replaying without a cached snapshot must fail loudly")
}

func TestSQLiteHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewSQLiteHistory(path)
	require.NoError(t, err)
	defer store.Close()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.SaveScan(ScanRecord{
			ProjectPath: "/proj",
			GeneratedAt: base.Add(time.Duration(i) * time.Hour),
			Findings:    10 - i,
			Critical:    1,
			High:        2,
			Medium:      3,
			Low:         4 - i,
			EffortHours: 2.5,
		}))
	}
	require.NoError(t, store.SaveScan(ScanRecord{
		ProjectPath: "/other",
		GeneratedAt: base,
		Findings:    1,
	}))

	scans, err := store.ListScans("/proj", 2)
	require.NoError(t, err)
	require.Len(t, scans, 2, "limit should apply")
	assert.Equal(t, 8, scans[0].Findings, "newest scan first")
	assert.Equal(t, "/proj", scans[0].ProjectPath)

	all, err := store.ListScans("/proj", 10)
	require.NoError(t, err)
	assert.Len(t, all, 3, "other projects' scans must not leak in")
}

func TestNewHistoryStore(t *testing.T) {
	t.Run("sqlite default", func(t *testing.T) {
		store, err := NewHistoryStore(HistoryConfig{
			Type:             "sqlite",
			ConnectionString: filepath.Join(t.TempDir(), "h.db"),
		})
		require.NoError(t, err)
		store.Close()
	})
	t.Run("postgres requires dsn", func(t *testing.T) {
		_, err := NewHistoryStore(HistoryConfig{Type: "postgres"})
		require.Error(t, err)
	})
	t.Run("unknown type rejected", func(t *testing.T) {
		_, err := NewHistoryStore(HistoryConfig{Type: "cassandra"})
		require.Error(t, err)
	})
}
