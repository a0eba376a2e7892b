package prediction

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Snapshot mirrors the upstream tracker and lane-graph output: every
// obstacle's observation history together with the candidate lane
// sequences hypothesised for it.
type Snapshot struct {
	Obstacles []SnapshotObstacle `json:"obstacles"`
}

// SnapshotObstacle pairs one obstacle's track with its candidates.
type SnapshotObstacle struct {
	Track      ObstacleTrack   `json:"track"`
	Candidates []*LaneSequence `json:"candidates"`
}

// maxSnapshotSize caps snapshot files at 64MB.
const maxSnapshotSize = 64 * 1024 * 1024

// LoadSnapshot reads a JSON obstacle snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("snapshot file must have .json extension, got %q", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat snapshot file: %w", err)
	}
	if info.Size() > maxSnapshotSize {
		return nil, fmt.Errorf("snapshot file too large: %d bytes (max %d)", info.Size(), maxSnapshotSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot JSON: %w", err)
	}
	return &s, nil
}
