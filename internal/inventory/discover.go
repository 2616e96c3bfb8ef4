package inventory

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"vulnplan/internal/model"
)

// Options tunes discovery.
type Options struct {
	// Tags maps an asset name (or ecosystem/name@version identity) to the
	// criticality/exposure tags applied to matching assets.
	Tags map[string][]string
	// SkipSecrets disables the secret scan pass.
	SkipSecrets bool
	Logger      *slog.Logger
}

var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	".vulnplan":    true,
}

var secretScanExts = map[string]bool{
	".env": true, ".yaml": true, ".yml": true, ".json": true,
	".py": true, ".js": true, ".go": true, ".tf": true,
	".txt": true, ".pem": true, ".cfg": true, ".ini": true,
}

// Discover walks the project tree, runs every parser whose filename
// matches, applies configured tags, and returns a deduplicated, sorted
// inventory. A file one parser chokes on is logged and skipped; discovery
// is best-effort by design.
func Discover(root string, opts Options) ([]model.Asset, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	secrets := NewSecretScanner()

	var assets []model.Asset
	collect := func(p Parser, path string) {
		found, err := p.Parse(path)
		if err != nil {
			logger.Warn("failed to parse manifest", "path", path, "error", err)
			return
		}
		assets = append(assets, found...)
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		ext := filepath.Ext(name)
		switch {
		case name == "go.mod":
			collect(&GoModParser{}, path)
		case name == "package.json":
			collect(&PackageJSONParser{}, path)
		case name == "requirements.txt":
			collect(&RequirementsParser{}, path)
		case name == "Dockerfile" || strings.HasPrefix(name, "Dockerfile."):
			collect(&DockerfileParser{}, path)
		case ext == ".yaml" || ext == ".yml":
			collect(&ManifestParser{}, path)
		}

		if !opts.SkipSecrets && (secretScanExts[ext] || strings.HasPrefix(name, ".env")) {
			collect(secrets, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	assets = dedupe(assets)
	applyTags(assets, opts.Tags)
	sort.Slice(assets, func(i, j int) bool {
		if assets[i].Identity() != assets[j].Identity() {
			return assets[i].Identity() < assets[j].Identity()
		}
		return assets[i].FilePath < assets[j].FilePath
	})
	return assets, nil
}

func dedupe(assets []model.Asset) []model.Asset {
	seen := map[string]bool{}
	var out []model.Asset
	for _, a := range assets {
		key := a.Identity() + "\x00" + a.FilePath + "\x00" + string(a.Kind)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}

// applyTags attaches configured tags, matching on the full identity first
// and falling back to the bare name.
func applyTags(assets []model.Asset, tags map[string][]string) {
	if len(tags) == 0 {
		return
	}
	for i := range assets {
		if extra, ok := tags[assets[i].Identity()]; ok {
			assets[i].Tags = append(assets[i].Tags, extra...)
		} else if extra, ok := tags[assets[i].Name]; ok {
			assets[i].Tags = append(assets[i].Tags, extra...)
		}
	}
}
