package inventory

import (
	"bufio"
	"os"
	"strings"

	"vulnplan/internal/model"
)

// DockerfileParser extracts base images from FROM instructions. Build
// stage aliases and scratch are not scannable images and are skipped.
type DockerfileParser struct{}

func (p *DockerfileParser) Parse(path string) ([]model.Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stageAliases := map[string]bool{}
	var assets []model.Asset
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)
		if len(fields) < 2 || !strings.EqualFold(fields[0], "FROM") {
			continue
		}

		ref := fields[1]
		if len(fields) >= 4 && strings.EqualFold(fields[2], "AS") {
			stageAliases[fields[3]] = true
		}
		if ref == "scratch" || stageAliases[ref] {
			continue
		}

		name, tag := splitImageRef(ref)
		assets = append(assets, model.Asset{
			Ecosystem: "docker",
			Name:      name,
			Version:   tag,
			FilePath:  path,
			Kind:      model.KindContainerImage,
		})
	}
	return assets, scanner.Err()
}

// splitImageRef separates name and tag, leaving digests on the name so a
// pinned image still has an identity.
func splitImageRef(ref string) (string, string) {
	if i := strings.LastIndex(ref, ":"); i > strings.LastIndex(ref, "/") {
		return ref[:i], ref[i+1:]
	}
	return ref, "latest"
}
