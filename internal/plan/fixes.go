package plan

import (
	"fmt"

	"vulnplan/internal/model"
)

// UnsupportedAssetKindError marks a finding whose asset kind has no fix
// dispatch entry. Non-fatal: the builder keeps the finding and flags it
// for manual review.
type UnsupportedAssetKindError struct {
	Kind        model.AssetKind
	CanonicalID string
}

func (e *UnsupportedAssetKindError) Error() string {
	return fmt.Sprintf("no fix action for asset kind %q (%s), flagged for manual review", e.Kind, e.CanonicalID)
}

// fixActionFor selects the remediation step by asset kind.
func fixActionFor(f model.Finding) (*model.FixAction, error) {
	a := f.Asset
	switch a.Kind {
	case model.KindDependency:
		target := f.FixedVersion
		if target == "" {
			target = "latest"
		}
		return &model.FixAction{
			Kind:        a.Kind,
			Command:     upgradeCommand(a, target),
			Description: fmt.Sprintf("Bump %s from %s to %s in %s, then regenerate the lockfile and reinstall.", a.Name, a.Version, target, a.FilePath),
		}, nil
	case model.KindContainerImage:
		target := f.FixedVersion
		described := target
		if target == "" {
			target = "latest"
			described = "a patched tag"
		}
		return &model.FixAction{
			Kind:        a.Kind,
			Command:     fmt.Sprintf("docker pull %s:%s", a.Name, target),
			Description: fmt.Sprintf("Update the base image %s:%s in %s to %s and rebuild.", a.Name, a.Version, a.FilePath, described),
		}, nil
	case model.KindIaCResource:
		return &model.FixAction{
			Kind:        a.Kind,
			Command:     fmt.Sprintf("kubectl apply -f %s", a.FilePath),
			Description: fmt.Sprintf("Patch the manifest for %s in %s per the advisory and re-apply.", a.Name, a.FilePath),
		}, nil
	case model.KindSecretExposure:
		return &model.FixAction{
			Kind:        a.Kind,
			Command:     fmt.Sprintf("git rm --cached %s && echo %q >> .gitignore", a.FilePath, a.FilePath),
			Description: fmt.Sprintf("Rotate the credential exposed in %s, purge it from history, and ignore the file.", a.FilePath),
		}, nil
	default:
		return nil, &UnsupportedAssetKindError{Kind: a.Kind, CanonicalID: f.CanonicalID}
	}
}

// upgradeCommand renders the ecosystem-native version bump.
func upgradeCommand(a model.Asset, target string) string {
	switch a.Ecosystem {
	case "npm":
		return fmt.Sprintf("npm install %s@%s", a.Name, target)
	case "pip":
		return fmt.Sprintf("pip install %s==%s", a.Name, target)
	case "go":
		return fmt.Sprintf("go get %s@%s && go mod tidy", a.Name, target)
	case "cargo":
		return fmt.Sprintf("cargo update -p %s --precise %s", a.Name, target)
	case "gem":
		return fmt.Sprintf("bundle update %s", a.Name)
	default:
		return fmt.Sprintf("upgrade %s to %s", a.Name, target)
	}
}
