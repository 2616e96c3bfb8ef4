// Package inventory discovers the assets a project exposes: declared
// dependencies, container base images, infrastructure resources and
// committed secrets.
package inventory

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"

	"vulnplan/internal/model"
)

// Parser turns one manifest file into assets.
type Parser interface {
	Parse(path string) ([]model.Asset, error)
}

// GoModParser parses go.mod require blocks.
type GoModParser struct{}

func (p *GoModParser) Parse(path string) ([]model.Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var assets []model.Asset
	scanner := bufio.NewScanner(f)
	inRequire := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "require (" {
			inRequire = true
			continue
		}
		if line == ")" && inRequire {
			inRequire = false
			continue
		}

		if strings.HasPrefix(line, "require ") {
			parts := strings.Fields(line)
			if len(parts) >= 3 {
				assets = append(assets, depAsset("go", parts[1], parts[2], path))
			}
		} else if inRequire {
			// Indirect dependencies are included: vulnerabilities in them
			// are just as reachable.
			parts := strings.Fields(line)
			if len(parts) >= 2 && !strings.HasPrefix(parts[0], "//") {
				assets = append(assets, depAsset("go", parts[0], parts[1], path))
			}
		}
	}
	return assets, scanner.Err()
}

// PackageJSONParser parses package.json dependency maps.
type PackageJSONParser struct{}

type packageJSON struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func (p *PackageJSONParser) Parse(path string) ([]model.Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var data packageJSON
	if err := json.NewDecoder(f).Decode(&data); err != nil {
		return nil, err
	}

	var assets []model.Asset
	for name, version := range data.Dependencies {
		assets = append(assets, depAsset("npm", name, cleanNpmVersion(version), path))
	}
	for name, version := range data.DevDependencies {
		assets = append(assets, depAsset("npm", name, cleanNpmVersion(version), path))
	}
	return assets, nil
}

// cleanNpmVersion strips range prefixes; the declared floor is the best
// proxy for the installed version without a lockfile.
func cleanNpmVersion(v string) string {
	return strings.TrimLeft(v, "^~>=<")
}

// RequirementsParser parses pip requirements.txt with == pins. Unpinned
// lines are skipped; there is no version to match ranges against.
type RequirementsParser struct{}

func (p *RequirementsParser) Parse(path string) ([]model.Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var assets []model.Asset
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		if i := strings.IndexAny(line, " ;#"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		name, version, ok := strings.Cut(line, "==")
		if !ok {
			continue
		}
		assets = append(assets, depAsset("pip", strings.TrimSpace(name), strings.TrimSpace(version), path))
	}
	return assets, scanner.Err()
}

func depAsset(ecosystem, name, version, path string) model.Asset {
	return model.Asset{
		Ecosystem: ecosystem,
		Name:      name,
		Version:   version,
		FilePath:  path,
		Kind:      model.KindDependency,
	}
}
