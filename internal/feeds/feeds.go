// Package feeds implements the vulnerability source clients. OSV and
// GitHub Advisories are queried per asset; NVD and the CISA KEV catalog
// enrich the records those two discover. All I/O happens here, outside the
// pipeline core, and every source failure degrades to a warning: the
// aggregator's correctness does not depend on all sources answering.
package feeds

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"vulnplan/internal/model"
)

// Client fetches raw records for the assets it knows how to look up.
type Client interface {
	Name() string
	Fetch(ctx context.Context, assets []model.Asset) ([]model.RawFindingRecord, error)
}

// FetchAll runs every client concurrently, each under its own timeout.
// Failed sources contribute a warning instead of records.
func FetchAll(ctx context.Context, clients []Client, assets []model.Asset, timeout time.Duration, logger *slog.Logger) ([]model.RawFindingRecord, []model.PlanWarning) {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	type result struct {
		name    string
		records []model.RawFindingRecord
		err     error
	}

	results := make(chan result, len(clients))
	var wg sync.WaitGroup
	for _, c := range clients {
		wg.Add(1)
		go func(c Client) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			recs, err := c.Fetch(cctx, assets)
			results <- result{name: c.Name(), records: recs, err: err}
		}(c)
	}
	wg.Wait()
	close(results)

	var records []model.RawFindingRecord
	var warnings []model.PlanWarning
	for r := range results {
		if r.err != nil {
			logger.Warn("feed fetch failed", "source", r.name, "error", r.err)
			warnings = append(warnings, model.PlanWarning{
				Source:  r.name,
				Message: "fetch failed: " + r.err.Error(),
			})
			continue
		}
		logger.Debug("feed fetch complete", "source", r.name, "records", len(r.records))
		records = append(records, r.records...)
	}
	return records, warnings
}

func sortedKeys(m map[string][]model.RawFindingRecord) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
