package inventory

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"vulnplan/internal/model"
)

var (
	reAWSAccessKey    = regexp.MustCompile(`AKIA[0-9A-Z]{16}`)
	rePrivateKey      = regexp.MustCompile(`-----BEGIN [A-Z ]+PRIVATE KEY-----`)
	reGenericAPIToken = regexp.MustCompile(`(api|access)[_-]?key\s*[:=]\s*['"][a-zA-Z0-9_\-]{20,}['"]`)
	reSlackToken      = regexp.MustCompile(`xox[baprs]-([0-9a-zA-Z]{10,48})`)
	reGitHubToken     = regexp.MustCompile(`gh[pousr]_[a-zA-Z0-9]{36,255}`)
)

// SecretScanner finds committed credential material and reports each hit
// as a secret-exposure asset. Exposed secrets are always treated as
// internet-exposed: once committed, the blast radius is unknowable.
type SecretScanner struct {
	patterns map[string]*regexp.Regexp
}

func NewSecretScanner() *SecretScanner {
	return &SecretScanner{
		patterns: map[string]*regexp.Regexp{
			"aws-access-key":    reAWSAccessKey,
			"private-key":       rePrivateKey,
			"generic-api-token": reGenericAPIToken,
			"slack-token":       reSlackToken,
			"github-token":      reGitHubToken,
		},
	}
}

// Parse scans one file's content for every pattern.
func (s *SecretScanner) Parse(path string) ([]model.Asset, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(s.patterns))
	for name := range s.patterns {
		names = append(names, name)
	}
	sort.Strings(names)

	var assets []model.Asset
	for _, name := range names {
		matches := s.patterns[name].FindAllIndex(content, -1)
		for _, m := range matches {
			line := 1 + countNewlines(content[:m[0]])
			assets = append(assets, model.Asset{
				Ecosystem: "secret",
				Name:      name,
				Version:   fmt.Sprintf("line-%d", line),
				FilePath:  path,
				Kind:      model.KindSecretExposure,
				Tags:      []string{model.TagExposureInternet},
			})
		}
	}
	return assets, nil
}

func countNewlines(b []byte) int {
	n := 0
	for _, c := range b {
		if c == '\n' {
			n++
		}
	}
	return n
}
