package feeds

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"vulnplan/internal/model"
)

const (
	osvQueryBatchURL = "https://api.osv.dev/v1/querybatch"
	osvVulnURL       = "https://api.osv.dev/v1/vulns/"
)

// OSVClient queries the OSV.dev database: one querybatch call for the
// whole inventory, then a detail fetch per discovered id.
type OSVClient struct {
	HTTPClient *http.Client
	BatchURL   string
	VulnURL    string
}

func NewOSVClient() *OSVClient {
	return &OSVClient{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		BatchURL:   osvQueryBatchURL,
		VulnURL:    osvVulnURL,
	}
}

func (c *OSVClient) Name() string { return model.SourceOSV }

type osvQuery struct {
	Package osvPackage `json:"package"`
	Version string     `json:"version,omitempty"`
}

type osvPackage struct {
	Name      string `json:"name"`
	Ecosystem string `json:"ecosystem"`
}

type osvBatchResponse struct {
	Results []struct {
		Vulns []struct {
			ID string `json:"id"`
		} `json:"vulns"`
	} `json:"results"`
}

type osvVuln struct {
	ID         string   `json:"id"`
	Summary    string   `json:"summary"`
	Details    string   `json:"details"`
	Aliases    []string `json:"aliases"`
	References []struct {
		Type string `json:"type"`
		URL  string `json:"url"`
	} `json:"references"`
	Severity []struct {
		Type  string `json:"type"`
		Score string `json:"score"`
	} `json:"severity"`
	Affected []struct {
		Package struct {
			Name      string `json:"name"`
			Ecosystem string `json:"ecosystem"`
		} `json:"package"`
		Ranges []struct {
			Type   string `json:"type"`
			Events []map[string]string `json:"events"`
		} `json:"ranges"`
	} `json:"affected"`
}

// Fetch queries OSV for every dependency-like asset and emits one record
// per (vulnerability, affected range) pair.
func (c *OSVClient) Fetch(ctx context.Context, assets []model.Asset) ([]model.RawFindingRecord, error) {
	queried := queryableAssets(assets)
	if len(queried) == 0 {
		return nil, nil
	}

	queries := make([]osvQuery, len(queried))
	for i, a := range queried {
		queries[i] = osvQuery{
			Package: osvPackage{Name: a.Name, Ecosystem: toOSVEcosystem(a.Ecosystem)},
			Version: a.Version,
		}
	}

	body, err := json.Marshal(map[string]any{"queries": queries})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal querybatch request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BatchURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OSV querybatch request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OSV querybatch returned status: %s", resp.Status)
	}

	var batch osvBatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		return nil, fmt.Errorf("failed to decode OSV response: %w", err)
	}

	now := time.Now().UTC()
	seen := map[string]bool{}
	var records []model.RawFindingRecord
	for i, res := range batch.Results {
		if i >= len(queried) {
			break
		}
		asset := queried[i]
		for _, v := range res.Vulns {
			// The same OSV id can show up for several assets; fetch the
			// detail once, then range-match per asset in the aggregator.
			if seen[v.ID+"|"+asset.Name] {
				continue
			}
			seen[v.ID+"|"+asset.Name] = true

			detail, err := c.vuln(ctx, v.ID)
			if err != nil {
				return records, fmt.Errorf("OSV detail for %s: %w", v.ID, err)
			}
			records = append(records, c.toRecords(detail, asset, now)...)
		}
	}
	return records, nil
}

func (c *OSVClient) vuln(ctx context.Context, id string) (*osvVuln, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.VulnURL+id, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %s", resp.Status)
	}
	var v osvVuln
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// toRecords flattens an OSV entry into raw records for one asset's
// package. Introduced/fixed events render as ">=A <B"; a missing fixed
// event leaves an open upper bound.
func (c *OSVClient) toRecords(v *osvVuln, asset model.Asset, fetchedAt time.Time) []model.RawFindingRecord {
	base := model.RawFindingRecord{
		SourceID:    model.SourceOSV,
		VulnID:      preferCVE(v.ID, v.Aliases),
		Aliases:     v.Aliases,
		Ecosystem:   asset.Ecosystem,
		Package:     asset.Name,
		Title:       v.Summary,
		Description: v.Details,
		FetchedAt:   fetchedAt,
	}
	for _, ref := range v.References {
		base.References = append(base.References, ref.URL)
	}
	for _, s := range v.Severity {
		if strings.HasPrefix(s.Type, "CVSS_V3") {
			base.CVSSVector = s.Score
		}
	}

	var records []model.RawFindingRecord
	for _, aff := range v.Affected {
		if aff.Package.Name != asset.Name {
			continue
		}
		for _, r := range aff.Ranges {
			var introduced, fixed string
			for _, ev := range r.Events {
				if val, ok := ev["introduced"]; ok {
					introduced = val
				}
				if val, ok := ev["fixed"]; ok {
					fixed = val
				}
			}
			rec := base
			rec.AffectedRange = renderRange(introduced, fixed)
			rec.FixedVersion = fixed
			if rec.AffectedRange != "" {
				records = append(records, rec)
			}
		}
	}
	if len(records) == 0 {
		// No range data: report the installed version as affected, since
		// the querybatch match was version-specific.
		rec := base
		rec.AffectedRange = asset.Version
		records = append(records, rec)
	}
	return records
}

func renderRange(introduced, fixed string) string {
	switch {
	case introduced != "" && fixed != "":
		if introduced == "0" {
			return "<" + fixed
		}
		return ">=" + introduced + " <" + fixed
	case introduced != "":
		if introduced == "0" {
			return "*"
		}
		return ">=" + introduced
	case fixed != "":
		return "<" + fixed
	default:
		return ""
	}
}

func preferCVE(id string, aliases []string) string {
	for _, a := range aliases {
		if strings.HasPrefix(a, "CVE-") {
			return a
		}
	}
	return id
}

// queryableAssets filters the inventory down to the kinds the package
// databases can answer for.
func queryableAssets(assets []model.Asset) []model.Asset {
	var out []model.Asset
	for _, a := range assets {
		if a.Kind == model.KindDependency && a.Name != "" && a.Version != "" {
			out = append(out, a)
		}
	}
	return out
}
