package gap

import (
	"fmt"
	"sort"
	"strings"

	"migscan/internal/model"
)

// grainMismatch flags matched pairs whose aggregation level appears to
// differ, inferred from key field names and process keywords against the
// configured grain lexicon. Heuristic by nature, so it only fires when
// both sides classify and disagree.
func (a *Analyzer) grainMismatch(source, target model.Process, result model.MatchResult, srcMaps, tgtMaps []model.ColumnMapping) *model.Gap {
	srcGrain := a.classifyGrain(source, srcMaps)
	tgtGrain := a.classifyGrain(target, tgtMaps)
	if srcGrain == "" || tgtGrain == "" || srcGrain == tgtGrain {
		return nil
	}
	return &model.Gap{
		ID:             model.GapID(model.GapAggregationLevelMismatch, source.Name, target.Name, "", ""),
		Type:           model.GapAggregationLevelMismatch,
		Severity:       a.cfg.SeverityFor(model.GapAggregationLevelMismatch, model.SeverityCritical),
		SourceProcess:  source.Name,
		TargetProcess:  target.Name,
		Description:    fmt.Sprintf("%q operates at %s grain while %q operates at %s grain", source.Name, srcGrain, target.Name, tgtGrain),
		BusinessImpact: "aggregates and joins keyed at different grains produce different row counts and totals",
		Recommendation: "confirm the intended grain with the data owner and align the key columns",
		Confidence:     minFloat(result.Score, minMappingConfidence(srcMaps, tgtMaps)),
	}
}

// classifyGrain returns the first grain family (in sorted family order)
// whose indicators appear in the pair's key fields or process text, or ""
// when nothing classifies.
func (a *Analyzer) classifyGrain(proc model.Process, mappings []model.ColumnMapping) string {
	var text strings.Builder
	text.WriteString(strings.ToLower(proc.Name))
	for _, kw := range proc.Keywords {
		text.WriteString(" ")
		text.WriteString(strings.ToLower(kw))
	}
	for _, m := range mappings {
		if m.SourcePK || m.TargetPK {
			text.WriteString(" ")
			text.WriteString(strings.ToLower(m.SourceColumn))
			text.WriteString(" ")
			text.WriteString(strings.ToLower(m.TargetColumn))
		}
	}
	haystack := text.String()
	families := make([]string, 0, len(a.cfg.GrainKeywords))
	for family := range a.cfg.GrainKeywords {
		families = append(families, family)
	}
	sort.Strings(families)
	for _, family := range families {
		for _, indicator := range a.cfg.GrainKeywords[family] {
			if strings.Contains(haystack, indicator) {
				return family
			}
		}
	}
	return ""
}

func minMappingConfidence(groups ...[]model.ColumnMapping) float64 {
	lowest := 1.0
	for _, group := range groups {
		for _, m := range group {
			if m.Confidence < lowest {
				lowest = m.Confidence
			}
		}
	}
	return lowest
}
