package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"migscan/internal/model"
)

// Weights controls the composite similarity score. The four values must
// sum to 1.0.
type Weights struct {
	Name      float64 `yaml:"name"`
	Tables    float64 `yaml:"tables"`
	Keywords  float64 `yaml:"keywords"`
	Component float64 `yaml:"component"`
}

// Settings is the logical configuration surface of an analysis run. It is
// loaded once at startup and treated as immutable afterwards.
type Settings struct {
	Weights        Weights `yaml:"weights"`
	MatchThreshold float64 `yaml:"match_threshold"`
	// PartialThreshold separates "partial coverage" from "missing" in the
	// coverage summary. Always below MatchThreshold.
	PartialThreshold float64 `yaml:"partial_threshold"`
	// LogicTolerance is the minimum component-type cosine similarity a
	// matched pair may have before a LogicDifference gap is raised.
	LogicTolerance float64 `yaml:"logic_tolerance"`
	// TransformTolerance is the maximum normalized string distance between
	// two transformation rules before they count as different.
	TransformTolerance float64 `yaml:"transform_tolerance"`

	PIIKeywords []string `yaml:"pii_keywords"`
	PKKeywords  []string `yaml:"pk_keywords"`

	// BusinessKeywords maps a business-function family to the substrings
	// that indicate it, used both for process keyword tagging and the
	// keyword-overlap sub-score.
	BusinessKeywords map[string][]string `yaml:"business_keywords"`

	// GrainKeywords maps an aggregation-grain class (e.g. "account",
	// "person") to the substrings that indicate it in key field names.
	GrainKeywords map[string][]string `yaml:"grain_keywords"`

	// NoiseTokens are stripped from process names before name similarity.
	NoiseTokens []string `yaml:"noise_tokens"`

	// SeverityOverrides replaces the default severity for a gap type.
	SeverityOverrides map[model.GapType]model.Severity `yaml:"severity_overrides"`

	// AnalyzeTimeout bounds a single AI analysis call.
	AnalyzeTimeout       time.Duration `yaml:"-"`
	AnalyzeTimeoutString string        `yaml:"analyze_timeout"`
	// ExtractWorkers caps concurrent column-mapping extractions.
	ExtractWorkers int `yaml:"extract_workers"`
}

// Default returns the built-in settings. Keyword families and thresholds
// follow the legacy validation tooling this replaces.
func Default() Settings {
	return Settings{
		Weights:            Weights{Name: 0.2, Tables: 0.4, Keywords: 0.2, Component: 0.2},
		MatchThreshold:     0.7,
		PartialThreshold:   0.4,
		LogicTolerance:     0.8,
		TransformTolerance: 0.25,
		PIIKeywords: []string{
			"ssn", "email", "dob", "birth", "phone", "address", "addr",
			"zip", "name", "demographic",
		},
		PKKeywords: []string{"id", "key", "pk", "permid"},
		BusinessKeywords: map[string][]string{
			"patient":    {"patient", "demographic", "demographics", "patientacct"},
			"coverage":   {"coverage", "insurance", "policy", "payer", "benefit"},
			"permid":     {"permid", "person_id", "personid"},
			"address":    {"address", "addr", "location", "zip", "city", "state"},
			"phone":      {"phone", "telephone", "contact"},
			"family":     {"family", "household", "member", "dependent", "subscriber"},
			"lead":       {"lead", "discovery", "generation", "propagation"},
			"validation": {"validate", "validation", "check", "verify"},
			"transform":  {"transform", "convert", "map", "process"},
			"merge":      {"merge", "join", "combine", "union"},
			"filter":     {"filter", "where", "condition", "criteria"},
			"aggregate":  {"group", "aggregate", "sum", "count", "avg"},
			"dedupe":     {"dedupe", "distinct", "unique", "duplicate"},
			"billing":    {"billing", "invoice", "charge", "account"},
			"eligibility": {
				"escan", "eligibility", "enrollment",
			},
		},
		GrainKeywords: map[string][]string{
			"account": {"account", "acct"},
			"person":  {"person", "individual", "member", "patient"},
		},
		NoiseTokens: []string{
			"wf", "workflow", "pipeline", "job", "dev", "prod", "test",
			"v1", "v2", "v3", "final", "new", "old",
		},
		AnalyzeTimeout: 30 * time.Second,
		ExtractWorkers: 4,
	}
}

// Load builds settings from defaults, an optional YAML file, then
// environment overrides, and validates the result.
func Load(path string) (Settings, error) {
	cfg := Default()
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		fileCfg, err := loadFile(trimmed)
		if err != nil {
			return Settings{}, err
		}
		cfg = cfg.Merge(fileCfg)
	}
	cfg = cfg.Merge(loadEnv())
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Settings{}, err
	}
	return cfg, nil
}

func loadFile(path string) (Settings, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	var cfg Settings
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	return cfg, nil
}

func loadEnv() Settings {
	cfg := Settings{}
	if v := strings.TrimSpace(os.Getenv("MIGSCAN_MATCH_THRESHOLD")); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.MatchThreshold = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("MIGSCAN_ANALYZE_TIMEOUT")); v != "" {
		cfg.AnalyzeTimeoutString = v
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.AnalyzeTimeout = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("MIGSCAN_EXTRACT_WORKERS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.ExtractWorkers = parsed
		}
	}
	return cfg
}

// Merge overlays the non-zero fields of override onto the receiver.
func (s Settings) Merge(override Settings) Settings {
	result := s
	if override.Weights != (Weights{}) {
		result.Weights = override.Weights
	}
	if override.MatchThreshold > 0 {
		result.MatchThreshold = override.MatchThreshold
	}
	if override.PartialThreshold > 0 {
		result.PartialThreshold = override.PartialThreshold
	}
	if override.LogicTolerance > 0 {
		result.LogicTolerance = override.LogicTolerance
	}
	if override.TransformTolerance > 0 {
		result.TransformTolerance = override.TransformTolerance
	}
	if len(override.PIIKeywords) > 0 {
		result.PIIKeywords = append([]string(nil), override.PIIKeywords...)
	}
	if len(override.PKKeywords) > 0 {
		result.PKKeywords = append([]string(nil), override.PKKeywords...)
	}
	if len(override.BusinessKeywords) > 0 {
		result.BusinessKeywords = override.BusinessKeywords
	}
	if len(override.GrainKeywords) > 0 {
		result.GrainKeywords = override.GrainKeywords
	}
	if len(override.NoiseTokens) > 0 {
		result.NoiseTokens = append([]string(nil), override.NoiseTokens...)
	}
	if len(override.SeverityOverrides) > 0 {
		result.SeverityOverrides = override.SeverityOverrides
	}
	if override.AnalyzeTimeout > 0 {
		result.AnalyzeTimeout = override.AnalyzeTimeout
	}
	if strings.TrimSpace(override.AnalyzeTimeoutString) != "" {
		result.AnalyzeTimeoutString = strings.TrimSpace(override.AnalyzeTimeoutString)
	}
	if override.ExtractWorkers > 0 {
		result.ExtractWorkers = override.ExtractWorkers
	}
	return result
}

func (s *Settings) applyDefaults() {
	if s.AnalyzeTimeout <= 0 && s.AnalyzeTimeoutString != "" {
		if parsed, err := time.ParseDuration(s.AnalyzeTimeoutString); err == nil {
			s.AnalyzeTimeout = parsed
		}
	}
	if s.AnalyzeTimeout <= 0 {
		s.AnalyzeTimeout = 30 * time.Second
	}
	if s.ExtractWorkers <= 0 {
		s.ExtractWorkers = 4
	}
}

// Validate fails fast on settings that would silently skew scoring.
func (s Settings) Validate() error {
	sum := s.Weights.Name + s.Weights.Tables + s.Weights.Keywords + s.Weights.Component
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("match weights must sum to 1.0, got %.6f", sum)
	}
	for _, w := range []float64{s.Weights.Name, s.Weights.Tables, s.Weights.Keywords, s.Weights.Component} {
		if w < 0 || w > 1 {
			return fmt.Errorf("match weight out of range [0,1]: %.6f", w)
		}
	}
	if s.MatchThreshold <= 0 || s.MatchThreshold >= 1 {
		return fmt.Errorf("match threshold must be in (0,1), got %.6f", s.MatchThreshold)
	}
	if s.PartialThreshold < 0 || s.PartialThreshold >= s.MatchThreshold {
		return fmt.Errorf("partial threshold must be in [0, match threshold), got %.6f", s.PartialThreshold)
	}
	if s.LogicTolerance < 0 || s.LogicTolerance > 1 {
		return fmt.Errorf("logic tolerance must be in [0,1], got %.6f", s.LogicTolerance)
	}
	if s.TransformTolerance < 0 || s.TransformTolerance > 1 {
		return fmt.Errorf("transform tolerance must be in [0,1], got %.6f", s.TransformTolerance)
	}
	if len(s.PIIKeywords) == 0 {
		return fmt.Errorf("pii keyword lexicon must not be empty")
	}
	if len(s.PKKeywords) == 0 {
		return fmt.Errorf("pk keyword lexicon must not be empty")
	}
	for kind, severity := range s.SeverityOverrides {
		switch severity {
		case model.SeverityCritical, model.SeverityHigh, model.SeverityMedium, model.SeverityLow:
		default:
			return fmt.Errorf("invalid severity override for %s: %q", kind, severity)
		}
	}
	return nil
}

// SeverityFor resolves the severity for a gap type, honoring overrides.
func (s Settings) SeverityFor(kind model.GapType, fallback model.Severity) model.Severity {
	if s.SeverityOverrides != nil {
		if sev, ok := s.SeverityOverrides[kind]; ok {
			return sev
		}
	}
	return fallback
}
