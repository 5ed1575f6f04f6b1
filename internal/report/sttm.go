package report

import (
	"errors"

	"github.com/xuri/excelize/v2"

	"migscan/internal/common"
	"migscan/internal/model"
	"migscan/internal/sttm"
)

var sttmHeader = []string{
	"Field ID", "Process", "Source Table", "Source Field", "Source Type", "Source PK",
	"Target Table", "Target Field", "Target Type", "Target PK", "Contains PII",
	"Transformation", "Business Rule", "Mapping Type", "Processing Order",
	"Confidence", "Provenance",
}

// WriteSTTM renders one system's column mappings as a workbook: a
// summary sheet followed by one sheet per target table.
func WriteSTTM(path string, mappings []model.ColumnMapping) error {
	sheets := sttm.BySheet(mappings)
	if len(sheets) == 0 {
		return errors.New("no mappings to report")
	}
	f := excelize.NewFile()
	defer f.Close()
	if err := writeSTTMSummary(f, sheets, mappings); err != nil {
		return err
	}
	for _, sheet := range sheets {
		name := sheetName(f, sheet.Table)
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
		rows := make([][]interface{}, 0, len(sheet.Mappings))
		for _, m := range sheet.Mappings {
			rows = append(rows, sttmRow(m))
		}
		if err := writeSheet(f, name, sttmHeader, rows); err != nil {
			return err
		}
	}
	if err := finalize(f, path); err != nil {
		return err
	}
	common.Logger().Info("sttm report written", "path", path, "sheets", len(sheets), "mappings", len(mappings))
	return nil
}

func writeSTTMSummary(f *excelize.File, sheets []sttm.TableSheet, mappings []model.ColumnMapping) error {
	if _, err := f.NewSheet("Summary"); err != nil {
		return err
	}
	var pk, pii, ai int
	types := map[model.MappingType]int{}
	for _, m := range mappings {
		if m.SourcePK || m.TargetPK {
			pk++
		}
		if m.ContainsPII {
			pii++
		}
		if m.Provenance == model.ProvenanceAI {
			ai++
		}
		types[m.Type]++
	}
	rows := [][]interface{}{
		{"Target tables", len(sheets)},
		{"Field mappings", len(mappings)},
		{"Primary key fields", pk},
		{"PII fields", pii},
		{"AI-derived", ai},
		{"Heuristic", len(mappings) - ai},
	}
	for _, kind := range []model.MappingType{
		model.MappingDirect, model.MappingDerived, model.MappingLookup,
		model.MappingCalculated, model.MappingAggregated,
	} {
		rows = append(rows, []interface{}{string(kind) + " mappings", types[kind]})
	}
	return writeSheet(f, "Summary", []string{"Metric", "Value"}, rows)
}

func sttmRow(m model.ColumnMapping) []interface{} {
	return []interface{}{
		m.ID, m.Process, m.SourceTable, m.SourceColumn, m.SourceType, yesNo(m.SourcePK),
		m.TargetTable, m.TargetColumn, m.TargetType, yesNo(m.TargetPK), yesNo(m.ContainsPII),
		m.Transformation, m.BusinessRule, string(m.Type), m.ProcessingOrder,
		m.Confidence, string(m.Provenance),
	}
}
