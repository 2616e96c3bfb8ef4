package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"vulnplan/internal/model"
)

const kevCatalogURL = "https://www.cisa.gov/sites/default/files/feeds/known_exploited_vulnerabilities.json"

// KEVClient fetches the CISA Known Exploited Vulnerabilities catalog. KEV
// is keyed by CVE with no package coordinates, so like NVD it annotates
// the records discovered by the package databases rather than being
// queried per asset.
type KEVClient struct {
	HTTPClient *http.Client
	CatalogURL string
}

func NewKEVClient() *KEVClient {
	return &KEVClient{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		CatalogURL: kevCatalogURL,
	}
}

func (c *KEVClient) Name() string { return model.SourceKEV }

// KEVEntry is one catalog row.
type KEVEntry struct {
	CVEID             string `json:"cveID"`
	VendorProject     string `json:"vendorProject"`
	Product           string `json:"product"`
	VulnerabilityName string `json:"vulnerabilityName"`
	ShortDescription  string `json:"shortDescription"`
	RequiredAction    string `json:"requiredAction"`
	DateAdded         string `json:"dateAdded"`
	DueDate           string `json:"dueDate"`
}

type kevCatalog struct {
	Vulnerabilities []KEVEntry `json:"vulnerabilities"`
}

// Catalog downloads the KEV list, indexed by CVE id.
func (c *KEVClient) Catalog(ctx context.Context) (map[string]KEVEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.CatalogURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("KEV catalog request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("KEV catalog returned status: %s", resp.Status)
	}

	var cat kevCatalog
	if err := json.NewDecoder(resp.Body).Decode(&cat); err != nil {
		return nil, fmt.Errorf("failed to decode KEV catalog: %w", err)
	}

	byID := make(map[string]KEVEntry, len(cat.Vulnerabilities))
	for _, e := range cat.Vulnerabilities {
		byID[e.CVEID] = e
	}
	return byID, nil
}

// Annotate emits one KEV-sourced record per discovery record whose CVE is
// in the catalog, reusing the discovered package/range coordinates. KEV
// records carry no CVSS; their value is the exploited-in-the-wild signal.
func Annotate(records []model.RawFindingRecord, catalog map[string]KEVEntry) []model.RawFindingRecord {
	now := time.Now().UTC()
	seen := map[string]bool{}
	var out []model.RawFindingRecord
	for _, rec := range records {
		entry, ok := catalog[rec.VulnID]
		if !ok {
			continue
		}
		key := rec.VulnID + "|" + rec.Ecosystem + "|" + rec.Package + "|" + rec.AffectedRange
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, model.RawFindingRecord{
			SourceID:       model.SourceKEV,
			VulnID:         rec.VulnID,
			Ecosystem:      rec.Ecosystem,
			Package:        rec.Package,
			AffectedRange:  rec.AffectedRange,
			Title:          entry.VulnerabilityName,
			Description:    entry.ShortDescription + " Required action: " + entry.RequiredAction,
			FixedVersion:   rec.FixedVersion,
			KnownExploited: true,
			FetchedAt:      now,
		})
	}
	return out
}
