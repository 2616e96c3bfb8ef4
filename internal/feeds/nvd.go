package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vulnplan/internal/model"
)

const nvdCVEURL = "https://services.nvd.nist.gov/rest/json/cves/2.0"

// NVDClient enriches already-discovered CVEs with NVD's authoritative
// CVSS scores. NVD is keyed by CVE, not by package, so it emits one record
// per (CVE, package, range) pair it saw in the discovery records.
type NVDClient struct {
	HTTPClient *http.Client
	APIURL     string
}

func NewNVDClient() *NVDClient {
	return &NVDClient{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		APIURL:     nvdCVEURL,
	}
}

func (c *NVDClient) Name() string { return model.SourceNVD }

type nvdResponse struct {
	Vulnerabilities []struct {
		CVE struct {
			ID           string `json:"id"`
			Descriptions []struct {
				Lang  string `json:"lang"`
				Value string `json:"value"`
			} `json:"descriptions"`
			References []struct {
				URL string `json:"url"`
			} `json:"references"`
			Metrics struct {
				CVSSMetricV31 []struct {
					CVSSData struct {
						BaseScore    float64 `json:"baseScore"`
						VectorString string  `json:"vectorString"`
					} `json:"cvssData"`
				} `json:"cvssMetricV31"`
			} `json:"metrics"`
		} `json:"cve"`
	} `json:"vulnerabilities"`
}

// Enrich looks up each distinct CVE in the given records and returns
// NVD-sourced records carrying the same package/range coordinates. A CVE
// NVD does not know is skipped silently.
func (c *NVDClient) Enrich(ctx context.Context, records []model.RawFindingRecord) ([]model.RawFindingRecord, error) {
	now := time.Now().UTC()
	byID := groupByCVE(records)

	var out []model.RawFindingRecord
	for _, cveID := range sortedKeys(byID) {
		score, vector, description, refs, err := c.lookup(ctx, cveID)
		if err != nil {
			return out, fmt.Errorf("NVD lookup for %s: %w", cveID, err)
		}
		if score == 0 && description == "" {
			continue
		}
		for _, origin := range byID[cveID] {
			rec := model.RawFindingRecord{
				SourceID:      model.SourceNVD,
				VulnID:        cveID,
				Ecosystem:     origin.Ecosystem,
				Package:       origin.Package,
				AffectedRange: origin.AffectedRange,
				CVSSVector:    vector,
				Description:   description,
				References:    refs,
				FixedVersion:  origin.FixedVersion,
				FetchedAt:     now,
			}
			if score > 0 {
				s := score
				rec.CVSS = &s
			}
			out = append(out, rec)
		}
	}
	return out, nil
}

func (c *NVDClient) lookup(ctx context.Context, cveID string) (float64, string, string, []string, error) {
	q := url.Values{}
	q.Set("cveId", cveID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL+"?"+q.Encode(), nil)
	if err != nil {
		return 0, "", "", nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, "", "", nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return 0, "", "", nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return 0, "", "", nil, fmt.Errorf("status %s", resp.Status)
	}

	var body nvdResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, "", "", nil, err
	}
	if len(body.Vulnerabilities) == 0 {
		return 0, "", "", nil, nil
	}

	cve := body.Vulnerabilities[0].CVE
	var score float64
	var vector string
	if len(cve.Metrics.CVSSMetricV31) > 0 {
		score = cve.Metrics.CVSSMetricV31[0].CVSSData.BaseScore
		vector = cve.Metrics.CVSSMetricV31[0].CVSSData.VectorString
	}
	var description string
	for _, d := range cve.Descriptions {
		if d.Lang == "en" {
			description = d.Value
			break
		}
	}
	var refs []string
	for _, r := range cve.References {
		refs = append(refs, r.URL)
	}
	return score, vector, description, refs, nil
}

// groupByCVE indexes discovery records by CVE id, keeping one exemplar per
// distinct (package, range) coordinate.
func groupByCVE(records []model.RawFindingRecord) map[string][]model.RawFindingRecord {
	byID := make(map[string][]model.RawFindingRecord)
	seen := map[string]bool{}
	for _, rec := range records {
		if !strings.HasPrefix(rec.VulnID, "CVE-") {
			continue
		}
		key := rec.VulnID + "|" + rec.Ecosystem + "|" + rec.Package + "|" + rec.AffectedRange
		if seen[key] {
			continue
		}
		seen[key] = true
		byID[rec.VulnID] = append(byID[rec.VulnID], rec)
	}
	return byID
}
