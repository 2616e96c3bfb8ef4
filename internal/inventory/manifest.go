package inventory

import (
	"encoding/json"
	"errors"
	"io"
	"os"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"

	"vulnplan/internal/model"
)

// ManifestParser reads Kubernetes manifests, emitting one iac-resource
// asset per workload plus a container-image asset for every container the
// workload runs. Documents with kinds it does not model are skipped.
type ManifestParser struct{}

func (p *ManifestParser) Parse(path string) ([]model.Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var assets []model.Asset
	decoder := utilyaml.NewYAMLOrJSONDecoder(f, 4096)
	for {
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return assets, err
		}
		if len(raw) == 0 {
			continue
		}

		var meta struct {
			APIVersion string `json:"apiVersion"`
			Kind       string `json:"kind"`
		}
		if err := json.Unmarshal(raw, &meta); err != nil {
			continue
		}

		switch meta.Kind {
		case "Deployment":
			var d appsv1.Deployment
			if err := json.Unmarshal(raw, &d); err != nil {
				continue
			}
			assets = append(assets, workloadAssets(meta.Kind, d.Name, d.Spec.Template.Spec, path)...)
		case "StatefulSet":
			var s appsv1.StatefulSet
			if err := json.Unmarshal(raw, &s); err != nil {
				continue
			}
			assets = append(assets, workloadAssets(meta.Kind, s.Name, s.Spec.Template.Spec, path)...)
		case "DaemonSet":
			var d appsv1.DaemonSet
			if err := json.Unmarshal(raw, &d); err != nil {
				continue
			}
			assets = append(assets, workloadAssets(meta.Kind, d.Name, d.Spec.Template.Spec, path)...)
		case "Pod":
			var pod corev1.Pod
			if err := json.Unmarshal(raw, &pod); err != nil {
				continue
			}
			assets = append(assets, workloadAssets(meta.Kind, pod.Name, pod.Spec, path)...)
		}
	}
	return assets, nil
}

func workloadAssets(kind, name string, spec corev1.PodSpec, path string) []model.Asset {
	assets := []model.Asset{{
		Ecosystem: "kubernetes",
		Name:      kind + "/" + name,
		Version:   "",
		FilePath:  path,
		Kind:      model.KindIaCResource,
	}}
	for _, c := range append(spec.InitContainers, spec.Containers...) {
		if c.Image == "" {
			continue
		}
		imgName, tag := splitImageRef(c.Image)
		assets = append(assets, model.Asset{
			Ecosystem: "docker",
			Name:      imgName,
			Version:   tag,
			FilePath:  path,
			Kind:      model.KindContainerImage,
		})
	}
	return assets
}
