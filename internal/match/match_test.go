package match

import (
	"math/rand"
	"testing"

	"migscan/internal/config"
	"migscan/internal/model"
)

func process(name string, tables, keywords []string, types ...model.ComponentType) model.Process {
	p := model.Process{Name: name, System: "test", Tables: tables, Keywords: keywords, Referenced: true}
	for i, t := range types {
		p.Components = append(p.Components, model.Component{Name: name, Type: t, Ordinal: i})
	}
	return p
}

func TestScoreIdenticalProcessesIsOne(t *testing.T) {
	m := NewMatcher(config.Default())
	p := process("patient_demographics_wf",
		[]string{"patient_raw", "patient_demographics"},
		[]string{"patient", "dedupe"},
		model.ComponentExtract, model.ComponentTransform, model.ComponentLoad)
	result := m.Score(p, p)
	if result.Score < 0.999 {
		t.Fatalf("identical processes should score ~1.0, got %f", result.Score)
	}
}

func TestScoreEmptyProcessesIsZero(t *testing.T) {
	m := NewMatcher(config.Default())
	result := m.Score(model.Process{Name: ""}, model.Process{Name: ""})
	if result.Score != 0 {
		t.Fatalf("empty processes should score 0, got %f", result.Score)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	m := NewMatcher(config.Default())
	a := process("coverage_wf", []string{"coverage", "eligibility"}, []string{"coverage"}, model.ComponentTransform)
	b := process("coverage_pipeline", []string{"coverage", "coverage_summary"}, []string{"coverage"}, model.ComponentTransform, model.ComponentLoad)
	first := m.Score(a, b)
	for i := 0; i < 10; i++ {
		if again := m.Score(a, b); again != first {
			t.Fatalf("score not deterministic: %+v vs %+v", first, again)
		}
	}
}

func TestNameNoiseTokensAreStripped(t *testing.T) {
	cfg := config.Default()
	score := nameSimilarity("patient_demographics_wf", "patient_demographics_pipeline", cfg.NoiseTokens)
	if score < 0.999 {
		t.Fatalf("noise suffixes should not lower name similarity, got %f", score)
	}
}

func TestMatchRejectsBelowThreshold(t *testing.T) {
	cfg := config.Default()
	m := NewMatcher(cfg)
	source := process("patient_demographics_wf",
		[]string{"patient_raw", "patient_demographics"},
		[]string{"patient"},
		model.ComponentExtract, model.ComponentLoad)
	unrelated := process("billing_export",
		[]string{"billing", "invoices"},
		[]string{"billing"},
		model.ComponentControl)
	results := m.Match([]model.Process{source}, []model.Process{unrelated})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Matched() {
		t.Fatalf("unrelated processes must not match: %+v", results[0])
	}
	if results[0].Tier == model.TierHigh || results[0].Tier == model.TierMedium {
		t.Fatalf("unmatched result carries matched tier: %s", results[0].Tier)
	}
}

func TestMatchPrefersStrongerCandidate(t *testing.T) {
	cfg := config.Default()
	m := NewMatcher(cfg)
	source := process("patient_demographics_wf",
		[]string{"patient_raw", "patient_demographics"},
		[]string{"patient", "dedupe"},
		model.ComponentExtract, model.ComponentTransform, model.ComponentLoad)
	strong := process("patient_demographics",
		[]string{"patient_raw", "patient_demographics"},
		[]string{"patient", "dedupe"},
		model.ComponentExtract, model.ComponentTransform, model.ComponentLoad)
	weak := process("patient_addresses",
		[]string{"patient_addresses"},
		[]string{"patient", "address"},
		model.ComponentTransform)
	results := m.Match([]model.Process{source}, []model.Process{weak, strong})
	if !results[0].Matched() || results[0].Target != "patient_demographics" {
		t.Fatalf("expected strong candidate to win: %+v", results[0])
	}
	if results[0].Tier != model.TierHigh {
		t.Fatalf("expected high tier for near-identical pair, got %s", results[0].Tier)
	}
}

func TestMatchTieBreaksLexicographically(t *testing.T) {
	cfg := config.Default()
	m := NewMatcher(cfg)
	source := process("coverage_wf", []string{"coverage"}, []string{"coverage"}, model.ComponentTransform)
	twinA := process("coverage_b", []string{"coverage"}, []string{"coverage"}, model.ComponentTransform)
	twinB := process("coverage_a", []string{"coverage"}, []string{"coverage"}, model.ComponentTransform)
	results := m.Match([]model.Process{source}, []model.Process{twinA, twinB})
	if results[0].Target != "coverage_a" {
		t.Fatalf("tie should break to lexicographically smaller target, got %q", results[0].Target)
	}
}

func TestThresholdMonotonicity(t *testing.T) {
	sources := []model.Process{
		process("patient_demographics_wf", []string{"patient_raw", "patient_demographics"}, []string{"patient", "dedupe"}, model.ComponentExtract, model.ComponentLoad),
		process("coverage_wf", []string{"coverage"}, []string{"coverage"}, model.ComponentTransform),
		process("billing_export", []string{"billing"}, []string{"billing"}, model.ComponentControl),
	}
	targets := []model.Process{
		process("patient_demographics", []string{"patient_raw", "patient_demographics"}, []string{"patient", "dedupe"}, model.ComponentExtract, model.ComponentLoad),
		process("coverage_pipeline", []string{"coverage", "coverage_summary"}, []string{"coverage"}, model.ComponentTransform),
		process("lead_discovery", []string{"leads"}, []string{"lead"}, model.ComponentExtract),
	}

	matchedPairs := func(threshold float64) map[string]string {
		cfg := config.Default()
		cfg.MatchThreshold = threshold
		pairs := make(map[string]string)
		for _, r := range NewMatcher(cfg).Match(sources, targets) {
			if r.Matched() {
				pairs[r.Source] = r.Target
			}
		}
		return pairs
	}

	thresholds := []float64{0.2, 0.4, 0.6, 0.8, 0.95}
	previous := matchedPairs(thresholds[0])
	for _, threshold := range thresholds[1:] {
		current := matchedPairs(threshold)
		if len(current) > len(previous) {
			t.Fatalf("raising the threshold to %.2f grew the match set: %v -> %v", threshold, previous, current)
		}
		for source, target := range current {
			if previous[source] != target {
				t.Fatalf("pair %s->%s at threshold %.2f absent at the lower threshold", source, target, threshold)
			}
		}
		previous = current
	}
}

func TestCompositeScoreBoundsUnderRandomWeights(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pool := []model.Process{
		process("patient_demographics_wf", []string{"patient_raw", "patient_demographics"}, []string{"patient", "dedupe"}, model.ComponentExtract, model.ComponentTransform, model.ComponentLoad),
		process("coverage_pipeline", []string{"coverage", "coverage_summary"}, []string{"coverage"}, model.ComponentTransform, model.ComponentLoad),
		process("billing_export", []string{"billing", "invoices"}, []string{"billing"}, model.ComponentControl),
		process("", nil, nil),
	}
	for i := 0; i < 50; i++ {
		raw := [4]float64{rng.Float64() + 0.01, rng.Float64() + 0.01, rng.Float64() + 0.01, rng.Float64() + 0.01}
		sum := raw[0] + raw[1] + raw[2] + raw[3]
		cfg := config.Default()
		cfg.Weights.Name = raw[0] / sum
		cfg.Weights.Tables = raw[1] / sum
		cfg.Weights.Keywords = raw[2] / sum
		cfg.Weights.Component = raw[3] / sum
		if err := cfg.Validate(); err != nil {
			t.Fatalf("normalized weights must validate: %v", err)
		}
		m := NewMatcher(cfg)
		for _, a := range pool {
			for _, b := range pool {
				r := m.Score(a, b)
				for _, sub := range []float64{r.NameScore, r.TableScore, r.KeywordScore, r.ComponentScore} {
					if sub < 0 || sub > 1 {
						t.Fatalf("sub-score out of [0,1]: %+v", r)
					}
				}
				if r.Score < -1e-9 || r.Score > 1+1e-9 {
					t.Fatalf("composite score out of [0,1]: %+v", r)
				}
			}
		}
	}
}

func TestJaccardSymmetry(t *testing.T) {
	a := map[string]bool{"x": true, "y": true}
	b := map[string]bool{"y": true, "z": true}
	if jaccard(a, b) != jaccard(b, a) {
		t.Fatalf("jaccard must be symmetric")
	}
	if got := jaccard(a, b); got != 1.0/3.0 {
		t.Fatalf("jaccard(a,b) = %f, want 1/3", got)
	}
}

func TestTextDistance(t *testing.T) {
	if d := TextDistance("filter, distinct", "filter, distinct"); d != 0 {
		t.Fatalf("identical texts should have distance 0, got %f", d)
	}
	if d := TextDistance("filter", "aggregate"); d < 0.5 {
		t.Fatalf("dissimilar texts should have high distance, got %f", d)
	}
	if d := TextDistance("Filter, Distinct", "filter, distinct"); d != 0 {
		t.Fatalf("distance must be case-insensitive, got %f", d)
	}
}
