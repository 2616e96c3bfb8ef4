// Package aggregate matches normalized feed records against the asset
// inventory and merges per-source reports into at most one finding per
// vulnerability per asset.
package aggregate

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"sync"

	"vulnplan/internal/model"
	"vulnplan/internal/normalize"
	"vulnplan/internal/version"
)

// ErrEmptyInventory is returned before any work is done when there are no
// assets to match against.
var ErrEmptyInventory = errors.New("empty asset inventory: no findings can match")

// Options tunes aggregation. The zero value gets the default source
// priority table and one worker per CPU.
type Options struct {
	// SourcePriority orders feeds for field merge precedence; lower wins.
	SourcePriority map[string]int
	// Concurrency bounds the normalization/matching fan-out.
	Concurrency int
	Logger      *slog.Logger
}

// Result carries the merged findings plus every non-fatal problem hit on
// the way; nothing is silently dropped.
type Result struct {
	Findings []model.Finding
	Warnings []model.PlanWarning
	// Dropped counts records that matched no asset. Routine, not an error.
	Dropped int
}

type match struct {
	frag  normalize.Fragment
	asset model.Asset
}

// Aggregate runs the normalizer over every record, matches fragments
// against the inventory, and merges groups by source priority. Shuffling
// the input records never changes the output: grouping and field merge
// order are fixed by (priority, source id, range) with content tie-breaks,
// not arrival order.
func Aggregate(assets []model.Asset, records []model.RawFindingRecord, opts Options) (Result, error) {
	if len(assets) == 0 {
		return Result{}, ErrEmptyInventory
	}
	priority := opts.SourcePriority
	if priority == nil {
		priority = model.DefaultSourcePriority()
	}
	workers := opts.Concurrency
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	type workerOut struct {
		matches  []match
		warnings []model.PlanWarning
		dropped  int
	}

	jobs := make(chan model.RawFindingRecord)
	outs := make(chan workerOut, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var out workerOut
			for rec := range jobs {
				frag, err := normalize.Record(rec)
				if err != nil {
					out.warnings = append(out.warnings, model.PlanWarning{
						Source:  rec.SourceID,
						Subject: rec.VulnID,
						Message: err.Error(),
					})
					continue
				}
				matched := false
				for _, a := range matchAssets(assets, frag, &out.warnings) {
					out.matches = append(out.matches, match{frag: frag, asset: a})
					matched = true
				}
				if !matched {
					logger.Debug("record matched no asset",
						"source", frag.SourceID, "vuln", frag.VulnID, "package", frag.Package)
					out.dropped++
				}
			}
			outs <- out
		}()
	}

	for _, rec := range records {
		jobs <- rec
	}
	close(jobs)
	wg.Wait()
	close(outs)

	var res Result
	var matches []match
	for out := range outs {
		matches = append(matches, out.matches...)
		res.Warnings = append(res.Warnings, out.warnings...)
		res.Dropped += out.dropped
	}

	// Group by (vulnID, asset identity); merge each group by precedence.
	groups := make(map[string][]match)
	for _, m := range matches {
		key := m.frag.VulnID + "\x00" + m.asset.Identity()
		groups[key] = append(groups[key], m)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		res.Findings = append(res.Findings, mergeGroup(groups[k], priority))
	}

	// Warnings collected from concurrent workers arrive in nondeterministic
	// order; fix it for stable plans.
	sort.Slice(res.Warnings, func(i, j int) bool {
		a, b := res.Warnings[i], res.Warnings[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		return a.Message < b.Message
	})

	return res, nil
}

// matchAssets returns every asset whose (ecosystem, name) matches the
// fragment and whose version falls inside the affected range. A version
// the ecosystem's comparator cannot parse produces a warning, not a
// failure.
func matchAssets(assets []model.Asset, frag normalize.Fragment, warnings *[]model.PlanWarning) []model.Asset {
	var out []model.Asset
	for _, a := range assets {
		if !strings.EqualFold(a.Ecosystem, frag.Ecosystem) || a.Name != frag.Package {
			continue
		}
		cmp := version.ForEcosystem(a.Ecosystem)
		ok, err := frag.Range.Matches(cmp, a.Version)
		if err != nil {
			*warnings = append(*warnings, model.PlanWarning{
				Source:  frag.SourceID,
				Subject: frag.VulnID,
				Message: fmt.Sprintf("cannot compare %s against range for %s: %v", a.Identity(), frag.VulnID, err),
			})
			continue
		}
		if ok {
			out = append(out, a)
		}
	}
	return out
}

// mergeGroup folds one (vulnID, asset) group into a finding. For each
// field the highest-priority source supplying a non-null value wins;
// sources and references accumulate from everyone. Sorting the group
// first makes the merge commutative over input order.
func mergeGroup(group []match, priority map[string]int) model.Finding {
	sort.SliceStable(group, func(i, j int) bool {
		a, b := group[i], group[j]
		pi, pj := sourceRank(a.frag.SourceID, priority), sourceRank(b.frag.SourceID, priority)
		if pi != pj {
			return pi < pj
		}
		if a.frag.SourceID != b.frag.SourceID {
			return a.frag.SourceID < b.frag.SourceID
		}
		if ri, rj := a.frag.Range.String(), b.frag.Range.String(); ri != rj {
			return ri < rj
		}
		// Matches from concurrent workers arrive in completion order; break
		// the remaining ties on content so the merged fields never depend
		// on scheduling.
		if a.asset.FilePath != b.asset.FilePath {
			return a.asset.FilePath < b.asset.FilePath
		}
		if a.frag.Title != b.frag.Title {
			return a.frag.Title < b.frag.Title
		}
		return a.frag.Description < b.frag.Description
	})

	top := group[0]
	f := model.Finding{
		Asset:          top.asset,
		Exploitability: 3,
		Criticality:    top.asset.Criticality(),
		Exposure:       top.asset.Exposure(),
	}

	seenSource := map[string]bool{}
	seenRef := map[string]bool{}
	for _, m := range group {
		frag := m.frag
		if !seenSource[frag.SourceID] {
			seenSource[frag.SourceID] = true
			f.Sources = append(f.Sources, frag.SourceID)
		}
		for _, ref := range frag.References {
			if !seenRef[ref] {
				seenRef[ref] = true
				f.References = append(f.References, ref)
			}
		}
		if f.CVSS == nil && frag.CVSS != nil {
			v := *frag.CVSS
			f.CVSS = &v
		}
		if f.Title == "" {
			f.Title = frag.Title
		}
		if f.Description == "" {
			f.Description = frag.Description
		}
		if f.FixedVersion == "" {
			f.FixedVersion = frag.FixedVersion
		}
		// KEV presence dominates regardless of which source carried the
		// descriptive fields; the exploit-reference signal survives the
		// merge the same way.
		if frag.Exploitability > f.Exploitability {
			f.Exploitability = frag.Exploitability
		}
	}
	sort.Strings(f.References)

	if f.Title == "" {
		f.Title = top.frag.VulnID + " in " + top.asset.Name
	}
	f.CanonicalID = model.CanonicalID(top.frag.VulnID, top.asset, top.frag.Range.String())
	return f
}

func sourceRank(sourceID string, priority map[string]int) int {
	if p, ok := priority[sourceID]; ok {
		return p
	}
	// Unknown feeds merge last but still contribute.
	return len(priority) + 100
}
