package planstore

import (
	"fmt"
	"os"
	"path/filepath"

	"vulnplan/internal/model"
)

const stateDir = ".vulnplan"

// FileStore keeps the most recent plan snapshot under <project>/.vulnplan/.
type FileStore struct {
	ProjectPath string
}

func NewFileStore(projectPath string) *FileStore {
	return &FileStore{ProjectPath: projectPath}
}

func (s *FileStore) planPath() string {
	return filepath.Join(s.ProjectPath, stateDir, "plan.json")
}

// Load returns the previously persisted plan, or (nil, nil) when no scan
// has run yet.
func (s *FileStore) Load() (*model.RemediationPlan, error) {
	data, err := os.ReadFile(s.planPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read plan snapshot: %w", err)
	}
	return Decode(data)
}

// Save writes the canonical snapshot. When the content is unchanged the
// file is left untouched, so repeated scans of an unchanged environment
// keep the snapshot byte-for-byte identical.
func (s *FileStore) Save(p *model.RemediationPlan) error {
	data, err := Encode(p)
	if err != nil {
		return err
	}
	path := s.planPath()
	if existing, err := os.ReadFile(path); err == nil && string(existing) == string(data) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write plan snapshot: %w", err)
	}
	return nil
}
