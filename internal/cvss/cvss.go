// Package cvss computes CVSS v3.x base scores from vector strings. Feeds
// like OSV frequently publish only the vector, so the normalizer needs the
// numeric score to rank findings.
package cvss

import (
	"math"
	"strings"
)

var (
	attackVector     = map[string]float64{"N": 0.85, "A": 0.62, "L": 0.55, "P": 0.2}
	attackComplexity = map[string]float64{"L": 0.77, "H": 0.44}
	privsUnchanged   = map[string]float64{"N": 0.85, "L": 0.62, "H": 0.27}
	privsChanged     = map[string]float64{"N": 0.85, "L": 0.68, "H": 0.50}
	userInteraction  = map[string]float64{"N": 0.85, "R": 0.62}
	impactMetric     = map[string]float64{"H": 0.56, "L": 0.22, "N": 0.0}
)

// BaseScore computes the CVSS v3.1 base score for a vector string such as
// "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H". It returns 0 for vectors
// it cannot interpret, never an error: an unscorable vector must not sink
// the record that carried it.
func BaseScore(vector string) float64 {
	parts := strings.Split(vector, "/")
	if len(parts) == 0 || !strings.HasPrefix(parts[0], "CVSS:3") {
		return 0
	}

	m := make(map[string]string, len(parts)-1)
	for _, p := range parts[1:] {
		if k, v, ok := strings.Cut(p, ":"); ok {
			m[k] = v
		}
	}

	scopeChanged := m["S"] == "C"

	av := attackVector[m["AV"]]
	ac := attackComplexity[m["AC"]]
	ui := userInteraction[m["UI"]]
	var pr float64
	if scopeChanged {
		pr = privsChanged[m["PR"]]
	} else {
		pr = privsUnchanged[m["PR"]]
	}
	c := impactMetric[m["C"]]
	i := impactMetric[m["I"]]
	a := impactMetric[m["A"]]

	iss := 1 - (1-c)*(1-i)*(1-a)

	var impact float64
	if scopeChanged {
		impact = 7.52*(iss-0.029) - 3.25*math.Pow(iss-0.02, 15)
	} else {
		impact = 6.42 * iss
	}

	exploitability := 8.22 * av * ac * pr * ui

	if impact <= 0 {
		return 0
	}

	score := impact + exploitability
	if scopeChanged {
		score = 1.08 * score
	}
	if score > 10 {
		score = 10
	}

	// CVSS mandates round-up to one decimal, not round-half-even.
	return math.Ceil(score*10) / 10
}

// Level maps a 0-10 score onto the conventional severity buckets.
func Level(score float64) string {
	switch {
	case score >= 9.0:
		return "CRITICAL"
	case score >= 7.0:
		return "HIGH"
	case score >= 4.0:
		return "MEDIUM"
	case score > 0:
		return "LOW"
	default:
		return "UNKNOWN"
	}
}
