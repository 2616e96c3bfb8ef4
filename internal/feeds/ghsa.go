package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"vulnplan/internal/model"
)

const ghsaAdvisoriesURL = "https://api.github.com/advisories"

// GHSAClient queries the GitHub Advisory Database REST endpoint per
// dependency asset. A GITHUB_TOKEN raises the rate limit but is optional.
type GHSAClient struct {
	HTTPClient *http.Client
	APIURL     string
	Token      string
}

func NewGHSAClient() *GHSAClient {
	return &GHSAClient{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		APIURL:     ghsaAdvisoriesURL,
		Token:      os.Getenv("GITHUB_TOKEN"),
	}
}

func (c *GHSAClient) Name() string { return model.SourceGHSA }

type ghsaAdvisory struct {
	GHSAID      string   `json:"ghsa_id"`
	CVEID       string   `json:"cve_id"`
	Summary     string   `json:"summary"`
	Description string   `json:"description"`
	Severity    string   `json:"severity"`
	HTMLURL     string   `json:"html_url"`
	References  []string `json:"references"`
	CVSS        struct {
		VectorString string  `json:"vector_string"`
		Score        float64 `json:"score"`
	} `json:"cvss"`
	Vulnerabilities []struct {
		Package struct {
			Ecosystem string `json:"ecosystem"`
			Name      string `json:"name"`
		} `json:"package"`
		VulnerableVersionRange string `json:"vulnerable_version_range"`
		FirstPatchedVersion    string `json:"first_patched_version"`
	} `json:"vulnerabilities"`
}

func (c *GHSAClient) Fetch(ctx context.Context, assets []model.Asset) ([]model.RawFindingRecord, error) {
	now := time.Now().UTC()
	var records []model.RawFindingRecord
	for _, a := range queryableAssets(assets) {
		advisories, err := c.query(ctx, a)
		if err != nil {
			return records, fmt.Errorf("GHSA lookup for %s: %w", a.Name, err)
		}
		for _, adv := range advisories {
			records = append(records, c.toRecords(adv, a, now)...)
		}
	}
	return records, nil
}

func (c *GHSAClient) query(ctx context.Context, asset model.Asset) ([]ghsaAdvisory, error) {
	q := url.Values{}
	q.Set("ecosystem", toOSVEcosystem(asset.Ecosystem))
	q.Set("affects", asset.Name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %s", resp.Status)
	}

	var advisories []ghsaAdvisory
	if err := json.NewDecoder(resp.Body).Decode(&advisories); err != nil {
		return nil, err
	}
	return advisories, nil
}

func (c *GHSAClient) toRecords(adv ghsaAdvisory, asset model.Asset, fetchedAt time.Time) []model.RawFindingRecord {
	vulnID := adv.CVEID
	if vulnID == "" {
		vulnID = adv.GHSAID
	}

	var records []model.RawFindingRecord
	for _, v := range adv.Vulnerabilities {
		if v.Package.Name != asset.Name {
			continue
		}
		rec := model.RawFindingRecord{
			SourceID:      model.SourceGHSA,
			VulnID:        vulnID,
			Ecosystem:     asset.Ecosystem,
			Package:       asset.Name,
			AffectedRange: v.VulnerableVersionRange,
			SeverityText:  adv.Severity,
			CVSSVector:    adv.CVSS.VectorString,
			Title:         adv.Summary,
			Description:   adv.Description,
			References:    append([]string{adv.HTMLURL}, adv.References...),
			FixedVersion:  v.FirstPatchedVersion,
			FetchedAt:     fetchedAt,
		}
		if adv.CVSS.Score > 0 {
			score := adv.CVSS.Score
			rec.CVSS = &score
		}
		records = append(records, rec)
	}
	return records
}
