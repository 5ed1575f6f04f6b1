// Package match pairs processes across the two systems with a weighted
// combination of name, table, keyword, and component-shape similarity.
package match

import (
	"sort"

	"migscan/internal/common"
	"migscan/internal/config"
	"migscan/internal/model"
)

const highTier = 0.85

type Matcher struct {
	cfg config.Settings
}

func NewMatcher(cfg config.Settings) *Matcher {
	return &Matcher{cfg: cfg}
}

// Score computes the composite similarity between one source and one
// target process. Deterministic; a process with no comparable signals
// scores zero.
func (m *Matcher) Score(source, target model.Process) model.MatchResult {
	result := model.MatchResult{Source: source.Name}
	result.NameScore = nameSimilarity(source.Name, target.Name, m.cfg.NoiseTokens)
	result.TableScore = jaccard(model.NormalizeTableSet(source.Tables), model.NormalizeTableSet(target.Tables))
	result.KeywordScore = jaccard(keywordSet(source.Keywords), keywordSet(target.Keywords))
	result.ComponentScore = componentSimilarity(source, target)
	result.Score = m.cfg.Weights.Name*result.NameScore +
		m.cfg.Weights.Tables*result.TableScore +
		m.cfg.Weights.Keywords*result.KeywordScore +
		m.cfg.Weights.Component*result.ComponentScore
	return result
}

// Match finds, for every source process, the best-scoring target above
// the acceptance threshold. Targets may be claimed by more than one
// source; consolidation splits and renames happen in real migrations and
// forcing bijectivity would hide them. Ties break toward the
// lexicographically smaller target name.
func (m *Matcher) Match(sources, targets []model.Process) []model.MatchResult {
	logger := common.Logger()
	ordered := append([]model.Process(nil), targets...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Name < ordered[j].Name })

	results := make([]model.MatchResult, 0, len(sources))
	matched := 0
	for _, source := range sources {
		best := model.MatchResult{Source: source.Name}
		for _, target := range ordered {
			candidate := m.Score(source, target)
			if candidate.Score > best.Score {
				best = candidate
				best.Target = target.Name
			}
		}
		if best.Score < m.cfg.MatchThreshold {
			best.Target = ""
		}
		best.Tier = m.tierFor(best)
		if best.Matched() {
			matched++
		}
		results = append(results, best)
	}
	logger.Info("match complete", "sources", len(sources), "targets", len(targets), "matched", matched)
	return results
}

func (m *Matcher) tierFor(result model.MatchResult) model.ConfidenceTier {
	switch {
	case result.Matched() && result.Score >= highTier:
		return model.TierHigh
	case result.Matched():
		return model.TierMedium
	case result.Score >= m.cfg.PartialThreshold:
		return model.TierPartial
	default:
		return model.TierNone
	}
}

// Unmatched lists target processes that no source claimed, the reverse
// view of the match set.
func Unmatched(targets []model.Process, results []model.MatchResult) []model.Process {
	claimed := make(map[string]bool, len(results))
	for _, r := range results {
		if r.Matched() {
			claimed[r.Target] = true
		}
	}
	var orphans []model.Process
	for _, target := range targets {
		if !claimed[target.Name] {
			orphans = append(orphans, target)
		}
	}
	return orphans
}
