// Package version provides per-ecosystem version ordering and affected-range
// matching. The aggregator depends only on the Comparator interface; the
// concrete ordering rules are selected by the asset's ecosystem.
package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Comparator orders two version strings under one ecosystem's rules.
// It returns -1, 0 or 1, or an error when a string cannot be parsed.
type Comparator interface {
	Compare(a, b string) (int, error)
}

// ForEcosystem selects the comparator for an ecosystem. Semantic versioning
// covers npm, cargo, go, gem, maven and nuget closely enough for range
// checks; pip follows PEP 440. Unknown ecosystems fall back to semver.
func ForEcosystem(ecosystem string) Comparator {
	switch strings.ToLower(ecosystem) {
	case "pip", "pypi":
		return PEP440{}
	case "go", "golang":
		return GoMod{}
	default:
		return Semver{}
	}
}

// Semver compares under semantic versioning rules, tolerating a leading
// "v" and missing minor/patch segments.
type Semver struct{}

func (Semver) Compare(a, b string) (int, error) {
	va, err := semver.NewVersion(strings.TrimPrefix(a, "v"))
	if err != nil {
		return 0, fmt.Errorf("invalid semver %q: %w", a, err)
	}
	vb, err := semver.NewVersion(strings.TrimPrefix(b, "v"))
	if err != nil {
		return 0, fmt.Errorf("invalid semver %q: %w", b, err)
	}
	return va.Compare(vb), nil
}

// GoMod compares Go module versions. Stripping the mandatory "v" prefix
// reduces the problem to semver; pseudo-versions
// (v0.0.0-20210101000000-abcdef123456) order as pre-releases of the next
// patch, which matches the module resolution rules.
type GoMod struct{}

func (GoMod) Compare(a, b string) (int, error) {
	return Semver{}.Compare(a, b)
}
