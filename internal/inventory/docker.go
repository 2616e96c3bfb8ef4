package inventory

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"

	"vulnplan/internal/model"
)

// ImageLister is the subset of the Docker API used for image discovery.
// Narrowed for mocking in tests.
type ImageLister interface {
	ImageList(ctx context.Context, options image.ListOptions) ([]image.Summary, error)
	Close() error
}

// DockerImages lists locally present images from the daemon, so a scan
// can cover images that are running but not referenced by any Dockerfile
// in the tree.
type DockerImages struct {
	api ImageLister
}

// NewDockerImages connects to the local daemon using the environment's
// configuration.
func NewDockerImages() (*DockerImages, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &DockerImages{api: cli}, nil
}

// NewDockerImagesWithAPI injects an API client, used by tests.
func NewDockerImagesWithAPI(api ImageLister) *DockerImages {
	return &DockerImages{api: api}
}

func (d *DockerImages) Close() error {
	return d.api.Close()
}

// List returns one container-image asset per tagged local image.
func (d *DockerImages) List(ctx context.Context) ([]model.Asset, error) {
	summaries, err := d.api.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list docker images: %w", err)
	}

	var assets []model.Asset
	for _, s := range summaries {
		for _, tag := range s.RepoTags {
			if tag == "<none>:<none>" {
				continue
			}
			name, version := splitImageRef(tag)
			assets = append(assets, model.Asset{
				Ecosystem: "docker",
				Name:      name,
				Version:   version,
				FilePath:  "docker-daemon",
				Kind:      model.KindContainerImage,
			})
		}
	}
	return assets, nil
}
