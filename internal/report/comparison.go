package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"migscan/internal/common"
	"migscan/internal/gap"
	"migscan/internal/model"
	"migscan/internal/sttm"
)

// Comparison bundles everything the cross-system workbook renders.
type Comparison struct {
	SourceSystem string
	TargetSystem string
	Coverage     gap.Coverage
	Matches      []model.MatchResult
	Gaps         []model.Gap
	CrossRows    []sttm.CrossRow
	Sources      []model.Process
	Targets      []model.Process
}

var (
	matchHeader = []string{
		"Source Process", "Target Process", "Score", "Name", "Tables",
		"Keywords", "Components", "Confidence Tier",
	}
	gapHeader = []string{
		"Gap ID", "Type", "Severity", "Source Process", "Target Process",
		"Table", "Column", "Description", "Business Impact", "Recommendation", "Confidence",
	}
	crossHeader = []string{
		"Source Process", "Target Process", "Column", "Status",
		"Source Transformation", "Target Transformation",
		"Source Business Rule", "Target Business Rule",
	}
	unusedHeader = []string{"System", "Script", "Path"}
)

// WriteComparison renders the full comparison workbook: summary,
// process matches, gaps, the joined cross-system mapping view, and any
// scripts no workflow references.
func WriteComparison(path string, c Comparison) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummarySheet(f, c); err != nil {
		return err
	}
	if err := writeMatchSheet(f, c.Matches); err != nil {
		return err
	}
	if err := writeGapSheet(f, c.Gaps); err != nil {
		return err
	}
	if err := writeCrossSheet(f, c.CrossRows); err != nil {
		return err
	}
	if err := writeUnusedSheet(f, c.Sources, c.Targets); err != nil {
		return err
	}
	if err := finalize(f, path); err != nil {
		return err
	}
	common.Logger().Info("comparison report written", "path", path, "matches", len(c.Matches), "gaps", len(c.Gaps))
	return nil
}

func writeSummarySheet(f *excelize.File, c Comparison) error {
	if _, err := f.NewSheet("Summary"); err != nil {
		return err
	}
	severities := gap.SeverityCounts(c.Gaps)
	rows := [][]interface{}{
		{"Source system", c.SourceSystem},
		{"Target system", c.TargetSystem},
		{"Source processes", c.Coverage.Total},
		{"Covered", fmt.Sprintf("%d (%.1f%%)", c.Coverage.Covered, c.Coverage.CoveredPct)},
		{"Partial", fmt.Sprintf("%d (%.1f%%)", c.Coverage.Partial, c.Coverage.PartialPct)},
		{"Missing", fmt.Sprintf("%d (%.1f%%)", c.Coverage.Missing, c.Coverage.MissingPct)},
		{"Total gaps", len(c.Gaps)},
		{"Critical gaps", severities[model.SeverityCritical]},
		{"High gaps", severities[model.SeverityHigh]},
		{"Medium gaps", severities[model.SeverityMedium]},
		{"Low gaps", severities[model.SeverityLow]},
	}
	return writeSheet(f, "Summary", []string{"Metric", "Value"}, rows)
}

func writeMatchSheet(f *excelize.File, matches []model.MatchResult) error {
	if _, err := f.NewSheet("Matches"); err != nil {
		return err
	}
	rows := make([][]interface{}, 0, len(matches))
	for _, m := range matches {
		target := m.Target
		if !m.Matched() {
			target = "(no match)"
		}
		rows = append(rows, []interface{}{
			m.Source, target, m.Score, m.NameScore, m.TableScore,
			m.KeywordScore, m.ComponentScore, string(m.Tier),
		})
	}
	return writeSheet(f, "Matches", matchHeader, rows)
}

func writeGapSheet(f *excelize.File, gaps []model.Gap) error {
	if _, err := f.NewSheet("Gaps"); err != nil {
		return err
	}
	rows := make([][]interface{}, 0, len(gaps))
	for _, g := range gaps {
		rows = append(rows, []interface{}{
			g.ID, string(g.Type), string(g.Severity), g.SourceProcess, g.TargetProcess,
			g.Table, g.Column, g.Description, g.BusinessImpact, g.Recommendation, g.Confidence,
		})
	}
	return writeSheet(f, "Gaps", gapHeader, rows)
}

func writeCrossSheet(f *excelize.File, rows []sttm.CrossRow) error {
	if _, err := f.NewSheet("Field Mappings"); err != nil {
		return err
	}
	data := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		srcTransform, srcRule := mappingTexts(row.Source)
		tgtTransform, tgtRule := mappingTexts(row.Target)
		data = append(data, []interface{}{
			row.SourceProcess, row.TargetProcess, row.Column, string(row.Status),
			srcTransform, tgtTransform, srcRule, tgtRule,
		})
	}
	return writeSheet(f, "Field Mappings", crossHeader, data)
}

func writeUnusedSheet(f *excelize.File, sources, targets []model.Process) error {
	var rows [][]interface{}
	for _, proc := range append(append([]model.Process(nil), sources...), targets...) {
		if proc.Referenced {
			continue
		}
		rows = append(rows, []interface{}{proc.System, proc.Name, proc.SourcePath})
	}
	if len(rows) == 0 {
		return nil
	}
	if _, err := f.NewSheet("Unused Scripts"); err != nil {
		return err
	}
	return writeSheet(f, "Unused Scripts", unusedHeader, rows)
}

func mappingTexts(m *model.ColumnMapping) (transformation, rule string) {
	if m == nil {
		return "", ""
	}
	return m.Transformation, m.BusinessRule
}
