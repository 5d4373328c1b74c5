package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// File and directory names inside a report dir.
const (
	IndexFile    = "report.json"
	ScenariosDir = "scenarios"
	AssetsDir    = "assets"
)

func ensureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// atomicWriteJSON marshals v and replaces path in one rename so readers of a
// live report never see a partial file.
func atomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return renameio.WriteFile(path, data, 0o644)
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadReport loads report.json and every scenario detail it references.
func ReadReport(dir string) (*Index, []ScenarioDetail, error) {
	var index Index
	if err := readJSON(filepath.Join(dir, IndexFile), &index); err != nil {
		return nil, nil, fmt.Errorf("read index: %w", err)
	}

	details := make([]ScenarioDetail, 0, len(index.Scenarios))
	for _, s := range index.Scenarios {
		var d ScenarioDetail
		if err := readJSON(filepath.Join(dir, s.DataFile), &d); err != nil {
			return nil, nil, fmt.Errorf("read scenario %s: %w", s.ID, err)
		}
		details = append(details, d)
	}
	return &index, details, nil
}
