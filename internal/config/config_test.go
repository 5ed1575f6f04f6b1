package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"migscan/internal/model"
)

func TestDefaultSettingsValidate(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default settings must validate: %v", err)
	}
}

func TestValidateRejectsBadWeights(t *testing.T) {
	cfg := Default()
	cfg.Weights = Weights{Name: 0.5, Tables: 0.5, Keywords: 0.5, Component: 0.5}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("weights summing to 2.0 must fail validation")
	}
}

func TestValidateRejectsPartialAboveThreshold(t *testing.T) {
	cfg := Default()
	cfg.PartialThreshold = 0.8
	if err := cfg.Validate(); err == nil {
		t.Fatalf("partial threshold above match threshold must fail")
	}
}

func TestValidateRejectsUnknownSeverityOverride(t *testing.T) {
	cfg := Default()
	cfg.SeverityOverrides = map[model.GapType]model.Severity{
		model.GapMissingTable: "Catastrophic",
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("unknown severity must fail validation")
	}
}

func TestLoadAppliesFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	content := `match_threshold: 0.75
weights:
  name: 0.25
  tables: 0.35
  keywords: 0.2
  component: 0.2
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	t.Setenv("MIGSCAN_MATCH_THRESHOLD", "0.8")
	t.Setenv("MIGSCAN_ANALYZE_TIMEOUT", "45s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if cfg.MatchThreshold != 0.8 {
		t.Fatalf("env should override file threshold, got %f", cfg.MatchThreshold)
	}
	if cfg.Weights.Name != 0.25 {
		t.Fatalf("file weights not applied: %+v", cfg.Weights)
	}
	if cfg.AnalyzeTimeout != 45*time.Second {
		t.Fatalf("env timeout not applied: %s", cfg.AnalyzeTimeout)
	}
	if len(cfg.BusinessKeywords) == 0 {
		t.Fatalf("defaults should survive partial overrides")
	}
}

func TestSeverityForFallsBack(t *testing.T) {
	cfg := Default()
	if got := cfg.SeverityFor(model.GapMissingTable, model.SeverityHigh); got != model.SeverityHigh {
		t.Fatalf("expected fallback severity, got %s", got)
	}
	cfg.SeverityOverrides = map[model.GapType]model.Severity{model.GapMissingTable: model.SeverityLow}
	if got := cfg.SeverityFor(model.GapMissingTable, model.SeverityHigh); got != model.SeverityLow {
		t.Fatalf("expected override severity, got %s", got)
	}
}
