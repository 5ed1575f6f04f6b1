// Package gap derives classified discrepancies from the match set and the
// extracted column mappings of both systems.
package gap

import (
	"fmt"
	"sort"
	"strings"

	"migscan/internal/common"
	"migscan/internal/config"
	"migscan/internal/match"
	"migscan/internal/model"
)

type Analyzer struct {
	cfg config.Settings
}

func NewAnalyzer(cfg config.Settings) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze walks every match result and emits the gaps it implies. An
// unmatched source yields exactly one MissingProcess gap and nothing
// finer grained; table and column comparisons only apply to matched
// pairs, where both sides are known.
func (a *Analyzer) Analyze(
	sources, targets []model.Process,
	matches []model.MatchResult,
	sourceMappings, targetMappings []model.ColumnMapping,
) []model.Gap {
	logger := common.Logger()
	sourceByName := indexProcesses(sources)
	targetByName := indexProcesses(targets)
	srcMapsByProc := indexMappings(sourceMappings)
	tgtMapsByProc := indexMappings(targetMappings)

	var gaps []model.Gap
	for _, result := range matches {
		source, ok := sourceByName[result.Source]
		if !ok {
			continue
		}
		if !result.Matched() {
			gaps = append(gaps, a.missingProcess(source, result))
			continue
		}
		target := targetByName[result.Target]
		gaps = append(gaps, a.missingTables(source, target, result)...)
		gaps = append(gaps, a.compareMappings(source, target, result, srcMapsByProc[source.Name], tgtMapsByProc[target.Name])...)
		if logic := a.logicDifference(source, target, result); logic != nil {
			gaps = append(gaps, *logic)
		}
		if grain := a.grainMismatch(source, target, result, srcMapsByProc[source.Name], tgtMapsByProc[target.Name]); grain != nil {
			gaps = append(gaps, *grain)
		}
	}
	for _, orphan := range match.Unmatched(targets, matches) {
		gaps = append(gaps, a.orphanProcess(orphan))
	}
	sort.SliceStable(gaps, func(i, j int) bool { return gaps[i].ID < gaps[j].ID })
	logger.Info("gap analysis complete", "matches", len(matches), "gaps", len(gaps))
	return gaps
}

func (a *Analyzer) missingProcess(source model.Process, result model.MatchResult) model.Gap {
	severity := a.cfg.SeverityFor(model.GapMissingProcess, model.SeverityCritical)
	if !source.Referenced {
		severity = a.cfg.SeverityFor(model.GapMissingProcess, model.SeverityMedium)
	}
	description := fmt.Sprintf("process %q has no counterpart in the target system (best score %.2f)", source.Name, result.Score)
	if !source.Referenced {
		description += "; the source script is not referenced by any workflow"
	}
	return model.Gap{
		ID:             model.GapID(model.GapMissingProcess, source.Name, "", "", ""),
		Type:           model.GapMissingProcess,
		Severity:       severity,
		SourceProcess:  source.Name,
		Description:    description,
		BusinessImpact: "functionality present in the source system is absent after migration",
		Recommendation: fmt.Sprintf("confirm whether %q was intentionally retired; if not, port it to the target system", source.Name),
		Confidence:     1.0,
	}
}

func (a *Analyzer) orphanProcess(target model.Process) model.Gap {
	return model.Gap{
		ID:             model.GapID(model.GapMissingProcess, "", target.Name, "", ""),
		Type:           model.GapMissingProcess,
		Severity:       a.cfg.SeverityFor(model.GapMissingProcess, model.SeverityLow),
		TargetProcess:  target.Name,
		Description:    fmt.Sprintf("target process %q has no counterpart in the source system", target.Name),
		Recommendation: fmt.Sprintf("verify %q is new functionality rather than a misnamed port", target.Name),
		Confidence:     1.0,
	}
}

func (a *Analyzer) missingTables(source, target model.Process, result model.MatchResult) []model.Gap {
	targetTables := model.NormalizeTableSet(target.Tables)
	var gaps []model.Gap
	for _, table := range source.Tables {
		norm := model.NormalizeTable(table)
		if norm == "" || targetTables[norm] {
			continue
		}
		gaps = append(gaps, model.Gap{
			ID:             model.GapID(model.GapMissingTable, source.Name, target.Name, norm, ""),
			Type:           model.GapMissingTable,
			Severity:       a.cfg.SeverityFor(model.GapMissingTable, model.SeverityHigh),
			SourceProcess:  source.Name,
			TargetProcess:  target.Name,
			Table:          norm,
			Description:    fmt.Sprintf("table %q used by %q does not appear in %q", norm, source.Name, target.Name),
			BusinessImpact: "data consumed or produced in the source flow is unaccounted for in the target flow",
			Recommendation: fmt.Sprintf("locate the target-side equivalent of %q or document why it is no longer needed", norm),
			Confidence:     result.Score,
		})
	}
	return gaps
}

// compareMappings lines the two mapping sets up per equivalent target
// table and reports columns that vanished plus per-column semantic
// drift. A column the target maps only under a different table still
// counts as missing from its own table; the column-only fallback applies
// when either side's extractor left the table unattributed. Column
// comparison only makes sense when the target side produced mappings at
// all; otherwise absence means the extractor saw nothing, not that the
// column is gone.
func (a *Analyzer) compareMappings(source, target model.Process, result model.MatchResult, srcMaps, tgtMaps []model.ColumnMapping) []model.Gap {
	if len(srcMaps) == 0 || len(tgtMaps) == 0 {
		return nil
	}
	tgtByTableColumn := make(map[string]model.ColumnMapping, len(tgtMaps))
	tgtByColumn := make(map[string]model.ColumnMapping, len(tgtMaps))
	for _, m := range tgtMaps {
		column := strings.ToLower(m.TargetColumn)
		tgtByTableColumn[model.NormalizeTable(m.TargetTable)+"\x00"+column] = m
		tgtByColumn[column] = m
	}
	var gaps []model.Gap
	for _, sm := range srcMaps {
		column := strings.ToLower(sm.TargetColumn)
		if column == "" {
			continue
		}
		table := model.NormalizeTable(sm.TargetTable)
		tm, ok := tgtByTableColumn[table+"\x00"+column]
		if !ok {
			if fallback, found := tgtByColumn[column]; found && (table == "" || model.NormalizeTable(fallback.TargetTable) == "") {
				tm, ok = fallback, true
			}
		}
		if !ok {
			gaps = append(gaps, a.missingColumn(source, target, result, sm))
			continue
		}
		confidence := minFloat(result.Score, sm.Confidence, tm.Confidence)
		if g := a.dataTypeChange(source, target, sm, tm, confidence); g != nil {
			gaps = append(gaps, *g)
		}
		if g := a.textDrift(model.GapTransformationDifference, source, target, sm, tm, sm.Transformation, tm.Transformation, confidence); g != nil {
			gaps = append(gaps, *g)
		}
		if g := a.textDrift(model.GapBusinessRuleDifference, source, target, sm, tm, sm.BusinessRule, tm.BusinessRule, confidence); g != nil {
			gaps = append(gaps, *g)
		}
	}
	return gaps
}

func (a *Analyzer) missingColumn(source, target model.Process, result model.MatchResult, sm model.ColumnMapping) model.Gap {
	severity := a.cfg.SeverityFor(model.GapMissingColumn, model.SeverityMedium)
	impact := "a populated field is absent from the target mapping"
	if sm.ContainsPII || sm.SourcePK || sm.TargetPK {
		severity = a.cfg.SeverityFor(model.GapMissingColumn, model.SeverityCritical)
		if sm.ContainsPII {
			impact = "a PII-bearing field is absent from the target mapping"
		} else {
			impact = "a key field is absent from the target mapping"
		}
	}
	return model.Gap{
		ID:             model.GapID(model.GapMissingColumn, source.Name, target.Name, sm.TargetTable, sm.TargetColumn),
		Type:           model.GapMissingColumn,
		Severity:       severity,
		SourceProcess:  source.Name,
		TargetProcess:  target.Name,
		Table:          sm.TargetTable,
		Column:         sm.TargetColumn,
		Description:    fmt.Sprintf("column %q mapped by %q has no mapping in %q", sm.TargetColumn, source.Name, target.Name),
		BusinessImpact: impact,
		Recommendation: fmt.Sprintf("map %q in the target process or record the approved omission", sm.TargetColumn),
		Confidence:     minFloat(result.Score, sm.Confidence),
	}
}

func (a *Analyzer) dataTypeChange(source, target model.Process, sm, tm model.ColumnMapping, confidence float64) *model.Gap {
	srcType := strings.ToLower(strings.TrimSpace(sm.TargetType))
	tgtType := strings.ToLower(strings.TrimSpace(tm.TargetType))
	if srcType == "" || tgtType == "" || srcType == tgtType {
		return nil
	}
	severity := a.cfg.SeverityFor(model.GapDataTypeChange, model.SeverityLow)
	if sm.SourcePK || sm.TargetPK || tm.TargetPK {
		severity = a.cfg.SeverityFor(model.GapDataTypeChange, model.SeverityMedium)
	}
	return &model.Gap{
		ID:             model.GapID(model.GapDataTypeChange, source.Name, target.Name, sm.TargetTable, sm.TargetColumn),
		Type:           model.GapDataTypeChange,
		Severity:       severity,
		SourceProcess:  source.Name,
		TargetProcess:  target.Name,
		Table:          sm.TargetTable,
		Column:         sm.TargetColumn,
		Description:    fmt.Sprintf("column %q is %s in the source mapping but %s in the target mapping", sm.TargetColumn, srcType, tgtType),
		Recommendation: "verify the conversion is lossless for the full value range",
		Confidence:     confidence,
	}
}

func (a *Analyzer) textDrift(kind model.GapType, source, target model.Process, sm, tm model.ColumnMapping, srcText, tgtText string, confidence float64) *model.Gap {
	srcText = strings.TrimSpace(srcText)
	tgtText = strings.TrimSpace(tgtText)
	if srcText == "" && tgtText == "" {
		return nil
	}
	if match.TextDistance(srcText, tgtText) <= a.cfg.TransformTolerance {
		return nil
	}
	noun := "transformation"
	impact := "the target may compute this field differently than the source did"
	if kind == model.GapBusinessRuleDifference {
		noun = "business rule"
		impact = "the target may apply different business logic to this field"
	}
	severity := a.cfg.SeverityFor(kind, model.SeverityMedium)
	if sm.ContainsPII || tm.ContainsPII || sm.SourcePK || sm.TargetPK || tm.SourcePK || tm.TargetPK {
		severity = a.cfg.SeverityFor(kind, model.SeverityHigh)
	}
	return &model.Gap{
		ID:             model.GapID(kind, source.Name, target.Name, sm.TargetTable, sm.TargetColumn),
		Type:           kind,
		Severity:       severity,
		SourceProcess:  source.Name,
		TargetProcess:  target.Name,
		Table:          sm.TargetTable,
		Column:         sm.TargetColumn,
		Description:    fmt.Sprintf("%s for %q differs: source %q, target %q", noun, sm.TargetColumn, srcText, tgtText),
		BusinessImpact: impact,
		Recommendation: fmt.Sprintf("reconcile the %s for %q with the business owner", noun, sm.TargetColumn),
		Confidence:     confidence,
	}
}

// logicDifference fires on a component-count difference or a
// component-type cosine below the tolerance. Identical type proportions
// over different step counts still restructure the logic.
func (a *Analyzer) logicDifference(source, target model.Process, result model.MatchResult) *model.Gap {
	countsDiffer := len(source.Components) != len(target.Components)
	if !countsDiffer && result.ComponentScore >= a.cfg.LogicTolerance {
		return nil
	}
	description := fmt.Sprintf("processes %q and %q match but their step shapes diverge (component similarity %.2f)", source.Name, target.Name, result.ComponentScore)
	if countsDiffer {
		description = fmt.Sprintf("processes %q and %q match but differ in step count (%d vs %d, component similarity %.2f)",
			source.Name, target.Name, len(source.Components), len(target.Components), result.ComponentScore)
	}
	return &model.Gap{
		ID:             model.GapID(model.GapLogicDifference, source.Name, target.Name, "", ""),
		Type:           model.GapLogicDifference,
		Severity:       a.cfg.SeverityFor(model.GapLogicDifference, model.SeverityMedium),
		SourceProcess:  source.Name,
		TargetProcess:  target.Name,
		Description:    description,
		BusinessImpact: "the rewritten pipeline restructures the original logic; behavior parity is unverified",
		Recommendation: "review the restructured steps side by side and add a reconciliation check on the output",
		Confidence:     result.Score,
	}
}

// minFloat caps a gap's confidence at the weakest contributing fact.
func minFloat(values ...float64) float64 {
	lowest := 1.0
	for _, v := range values {
		if v < lowest {
			lowest = v
		}
	}
	return lowest
}

func indexProcesses(processes []model.Process) map[string]model.Process {
	byName := make(map[string]model.Process, len(processes))
	for _, p := range processes {
		byName[p.Name] = p
	}
	return byName
}

func indexMappings(mappings []model.ColumnMapping) map[string][]model.ColumnMapping {
	byProc := make(map[string][]model.ColumnMapping)
	for _, m := range mappings {
		byProc[m.Process] = append(byProc[m.Process], m)
	}
	return byProc
}
