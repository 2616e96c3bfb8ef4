package model

// AssetKind classifies what a scanned unit is, which in turn selects the
// fix action dispatch in the plan builder.
type AssetKind string

const (
	KindDependency     AssetKind = "dependency"
	KindContainerImage AssetKind = "container-image"
	KindIaCResource    AssetKind = "iac-resource"
	KindSecretExposure AssetKind = "secret-exposure"
)

// Asset is one scanned unit produced by inventory discovery. It is an
// immutable input to the pipeline.
type Asset struct {
	Ecosystem string    `json:"ecosystem"`
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	FilePath  string    `json:"file_path"`
	Kind      AssetKind `json:"kind"`
	Tags      []string  `json:"tags,omitempty"`
}

// Identity returns the stable key used to match findings against this asset.
func (a Asset) Identity() string {
	return a.Ecosystem + "/" + a.Name + "@" + a.Version
}

// Tag values recognized on assets. Untagged assets resolve to the lowest
// tier for both criticality and exposure.
const (
	TagTierCritical     = "tier:critical"
	TagTierImportant    = "tier:important"
	TagExposureInternet = "exposure:internet"
	TagExposureInternal = "exposure:internal"
)

// Criticality maps asset tags to the closed {10, 5, 2} enumeration.
func (a Asset) Criticality() int {
	for _, t := range a.Tags {
		switch t {
		case TagTierCritical:
			return 10
		case TagTierImportant:
			return 5
		}
	}
	return 2
}

// Exposure maps asset tags to the closed {10, 5, 2} enumeration.
func (a Asset) Exposure() int {
	for _, t := range a.Tags {
		switch t {
		case TagExposureInternet:
			return 10
		case TagExposureInternal:
			return 5
		}
	}
	return 2
}
