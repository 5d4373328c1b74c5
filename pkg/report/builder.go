package report

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ScenarioInfo names a scenario before it runs.
type ScenarioInfo struct {
	Name  string
	Group string
	Tags  []string
}

// BuilderConfig holds run-level metadata for the skeleton.
type BuilderConfig struct {
	App           App
	Devices       []Device
	DriverName    string
	ServerURL     string
	RunnerVersion string
}

// BuildSkeleton creates an index with every scenario pending.
func BuildSkeleton(scenarios []ScenarioInfo, cfg BuilderConfig) (*Index, []ScenarioDetail) {
	now := time.Now()
	index := &Index{
		Version:     Version,
		RunID:       uuid.NewString(),
		Status:      StatusPending,
		StartTime:   now,
		LastUpdated: now,
		App:         cfg.App,
		Devices:     cfg.Devices,
		Runner: RunnerInfo{
			Version:   cfg.RunnerVersion,
			Driver:    cfg.DriverName,
			ServerURL: cfg.ServerURL,
		},
		Summary:   Summary{Total: len(scenarios), Pending: len(scenarios)},
		Scenarios: make([]ScenarioEntry, len(scenarios)),
	}
	if index.Devices == nil {
		index.Devices = []Device{}
	}

	details := make([]ScenarioDetail, len(scenarios))
	for i, s := range scenarios {
		id := fmt.Sprintf("scenario-%03d-%s", i, uuid.NewString()[:8])
		index.Scenarios[i] = ScenarioEntry{
			Index:     i,
			ID:        id,
			Name:      s.Name,
			Group:     s.Group,
			Tags:      s.Tags,
			DataFile:  filepath.ToSlash(filepath.Join(ScenariosDir, id+".json")),
			AssetsDir: filepath.ToSlash(filepath.Join(AssetsDir, id)),
			Status:    StatusPending,
		}
		details[i] = ScenarioDetail{
			ID:      id,
			Name:    s.Name,
			Group:   s.Group,
			Tags:    s.Tags,
			Status:  StatusPending,
			Entries: []LogEntry{},
		}
	}
	return index, details
}

// WriteSkeleton writes the pending index and scenario files into dir.
func WriteSkeleton(dir string, index *Index, details []ScenarioDetail) error {
	for _, sub := range []string{ScenariosDir, AssetsDir} {
		if err := ensureDir(filepath.Join(dir, sub)); err != nil {
			return fmt.Errorf("create %s dir: %w", sub, err)
		}
	}
	for i, d := range details {
		if err := atomicWriteJSON(filepath.Join(dir, index.Scenarios[i].DataFile), d); err != nil {
			return fmt.Errorf("write scenario %s: %w", d.ID, err)
		}
	}
	if err := atomicWriteJSON(filepath.Join(dir, IndexFile), index); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}
