package planstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"vulnplan/internal/model"
)

// FeedCache records the raw feed responses of the last scan so offline
// re-runs (and the diff command) can replay an identical feed snapshot.
type FeedCache struct {
	ProjectPath string
}

func NewFeedCache(projectPath string) *FeedCache {
	return &FeedCache{ProjectPath: projectPath}
}

func (c *FeedCache) path() string {
	return filepath.Join(c.ProjectPath, stateDir, "feeds.json")
}

// Save writes the fetched records.
func (c *FeedCache) Save(records []model.RawFindingRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode feed cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path()), 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := os.WriteFile(c.path(), data, 0644); err != nil {
		return fmt.Errorf("write feed cache: %w", err)
	}
	return nil
}

// Load returns the cached records; an error when no cache exists yet.
func (c *FeedCache) Load() ([]model.RawFindingRecord, error) {
	data, err := os.ReadFile(c.path())
	if err != nil {
		return nil, fmt.Errorf("no feed cache for %s (run a scan online first): %w", c.ProjectPath, err)
	}
	var records []model.RawFindingRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode feed cache: %w", err)
	}
	return records, nil
}
