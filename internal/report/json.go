package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"migscan/internal/gap"
	"migscan/internal/model"
)

// Artifact is the machine-readable counterpart of the workbooks.
type Artifact struct {
	RunID          string                `json:"run_id"`
	SourceSystem   string                `json:"source_system"`
	TargetSystem   string                `json:"target_system"`
	Coverage       gap.Coverage          `json:"coverage"`
	Processes      []model.Process       `json:"processes"`
	Matches        []model.MatchResult   `json:"matches"`
	Gaps           []model.Gap           `json:"gaps"`
	SourceMappings []model.ColumnMapping `json:"source_mappings"`
	TargetMappings []model.ColumnMapping `json:"target_mappings"`
}

// WriteJSON writes the artifact with stable indentation so diffs between
// runs stay readable.
func WriteJSON(path string, artifact Artifact) error {
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}
