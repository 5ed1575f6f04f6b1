package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"migscan/internal/gap"
	"migscan/internal/model"
)

func sampleMappings() []model.ColumnMapping {
	return []model.ColumnMapping{
		{
			ID:           model.MappingID("patient_wf", "", 0, "patient_demographics", "patient_id"),
			Process:      "patient_wf",
			SourceTable:  "patient_raw",
			SourceColumn: "patient_id",
			TargetTable:  "patient_demographics",
			TargetColumn: "patient_id",
			SourcePK:     true,
			TargetPK:     true,
			Type:         model.MappingDirect,
			Confidence:   0.9,
			Provenance:   model.ProvenanceAI,
		},
		{
			ID:           model.MappingID("coverage_wf", "", 0, "coverage_summary", "total_paid"),
			Process:      "coverage_wf",
			SourceTable:  "coverage",
			SourceColumn: "paid_amount",
			TargetTable:  "coverage_summary",
			TargetColumn: "total_paid",
			Type:         model.MappingAggregated,
			Confidence:   0.5,
			Provenance:   model.ProvenanceHeuristic,
		},
	}
}

func TestWriteSTTMCreatesSheetPerTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sttm.xlsx")
	if err := WriteSTTM(path, sampleMappings()); err != nil {
		t.Fatalf("write sttm: %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	want := map[string]bool{"Summary": false, "coverage_summary": false, "patient_demographics": false}
	for _, sheet := range sheets {
		if _, ok := want[sheet]; ok {
			want[sheet] = true
		}
	}
	for sheet, seen := range want {
		if !seen {
			t.Fatalf("sheet %q missing from %v", sheet, sheets)
		}
	}
	value, err := f.GetCellValue("patient_demographics", "A1")
	if err != nil || value != "Field ID" {
		t.Fatalf("header row missing: %q %v", value, err)
	}
}

func TestWriteSTTMRejectsEmptyInput(t *testing.T) {
	if err := WriteSTTM(filepath.Join(t.TempDir(), "empty.xlsx"), nil); err == nil {
		t.Fatalf("empty mapping set must be rejected")
	}
}

func TestWriteComparisonIncludesAllSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comparison.xlsx")
	c := Comparison{
		SourceSystem: "hadoop",
		TargetSystem: "databricks",
		Coverage:     gap.Coverage{Total: 2, Covered: 1, Missing: 1, CoveredPct: 50, MissingPct: 50},
		Matches: []model.MatchResult{
			{Source: "patient_wf", Target: "patient_pipeline", Score: 0.9, Tier: model.TierHigh},
			{Source: "legacy_only", Score: 0.2, Tier: model.TierNone},
		},
		Gaps: []model.Gap{{
			ID:             model.GapID(model.GapMissingProcess, "legacy_only", "", "", ""),
			Type:           model.GapMissingProcess,
			Severity:       model.SeverityCritical,
			SourceProcess:  "legacy_only",
			Description:    "no counterpart",
			Recommendation: "port or retire",
			Confidence:     1.0,
		}},
		Sources: []model.Process{{Name: "orphan_script", System: "hadoop", SourcePath: "scripts/orphan.pig", Referenced: false}},
	}
	if err := WriteComparison(path, c); err != nil {
		t.Fatalf("write comparison: %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()
	for _, sheet := range []string{"Summary", "Matches", "Gaps", "Field Mappings", "Unused Scripts"} {
		if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
			t.Fatalf("sheet %q missing from %v", sheet, f.GetSheetList())
		}
	}
	value, err := f.GetCellValue("Matches", "B3")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if value != "(no match)" {
		t.Fatalf("unmatched row should read (no match), got %q", value)
	}
}

func TestWriteJSONRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "run.json")
	artifact := Artifact{
		RunID:        "run-1",
		SourceSystem: "hadoop",
		TargetSystem: "databricks",
		Coverage:     gap.Coverage{Total: 1, Covered: 1, CoveredPct: 100},
		Gaps:         nil,
	}
	if err := WriteJSON(path, artifact); err != nil {
		t.Fatalf("write json: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	var decoded Artifact
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode artifact: %v", err)
	}
	if decoded.RunID != "run-1" || decoded.Coverage.CoveredPct != 100 {
		t.Fatalf("artifact did not round trip: %+v", decoded)
	}
}
