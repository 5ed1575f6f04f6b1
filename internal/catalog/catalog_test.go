package catalog

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"migscan/internal/config"
	"migscan/internal/gap"
	"migscan/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRecord() RunRecord {
	return RunRecord{
		ID:           NewRunID(),
		SourceRoot:   "/repos/hadoop",
		TargetRoot:   "/repos/databricks",
		SourceSystem: "hadoop",
		TargetSystem: "databricks",
		Coverage:     gap.Coverage{Total: 2, Covered: 1, Missing: 1, CoveredPct: 50, MissingPct: 50},
		Settings:     config.Default(),
		Processes: []model.Process{
			{Name: "patient_wf", System: "hadoop", SourcePath: "workflows/patient.xml", Referenced: true},
			{Name: "patient_pipeline", System: "databricks", SourcePath: "jobs/patient.json", Referenced: true},
		},
		Matches: []model.MatchResult{
			{Source: "patient_wf", Target: "patient_pipeline", Score: 0.9, Tier: model.TierHigh},
		},
		Gaps: []model.Gap{{
			ID:             model.GapID(model.GapMissingTable, "patient_wf", "patient_pipeline", "eligibility", ""),
			Type:           model.GapMissingTable,
			Severity:       model.SeverityHigh,
			SourceProcess:  "patient_wf",
			TargetProcess:  "patient_pipeline",
			Table:          "eligibility",
			Description:    "table eligibility missing",
			Recommendation: "locate the target-side equivalent",
			Confidence:     1.0,
		}},
		Mappings: map[string][]model.ColumnMapping{
			"hadoop": {{
				ID:           model.MappingID("patient_wf", "", 0, "patient_demographics", "patient_id"),
				Process:      "patient_wf",
				SourceColumn: "patient_id",
				TargetTable:  "patient_demographics",
				TargetColumn: "patient_id",
				Type:         model.MappingDirect,
				Confidence:   0.9,
				Provenance:   model.ProvenanceAI,
			}},
		},
	}
}

func TestSaveAndLoadRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	record := sampleRecord()
	if err := store.SaveRun(ctx, record); err != nil {
		t.Fatalf("save run: %v", err)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != record.ID {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	if runs[0].Coverage.Covered != 1 {
		t.Fatalf("coverage not round-tripped: %+v", runs[0].Coverage)
	}

	run, err := store.GetRun(ctx, record.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if run.SourceSystem != "hadoop" || run.TargetSystem != "databricks" {
		t.Fatalf("unexpected run header: %+v", run)
	}
	if run.Settings.MatchThreshold != 0.7 {
		t.Fatalf("settings snapshot not round-tripped: %+v", run.Settings)
	}

	matches, err := store.MatchesForRun(ctx, record.ID)
	if err != nil {
		t.Fatalf("matches: %v", err)
	}
	if len(matches) != 1 || matches[0].Target != "patient_pipeline" || matches[0].Tier != model.TierHigh {
		t.Fatalf("unexpected matches: %+v", matches)
	}

	gaps, err := store.GapsForRun(ctx, record.ID, "High", "")
	if err != nil {
		t.Fatalf("gaps: %v", err)
	}
	if len(gaps) != 1 || gaps[0].Table != "eligibility" {
		t.Fatalf("unexpected gaps: %+v", gaps)
	}
	if none, err := store.GapsForRun(ctx, record.ID, "Critical", ""); err != nil || len(none) != 0 {
		t.Fatalf("severity filter failed: %v %+v", err, none)
	}

	mappings, err := store.MappingsForRun(ctx, record.ID, "hadoop", "")
	if err != nil {
		t.Fatalf("mappings: %v", err)
	}
	if len(mappings) != 1 || mappings[0].TargetColumn != "patient_id" || mappings[0].Provenance != model.ProvenanceAI {
		t.Fatalf("unexpected mappings: %+v", mappings)
	}

	processes, err := store.ProcessesForRun(ctx, record.ID, "hadoop")
	if err != nil {
		t.Fatalf("processes: %v", err)
	}
	if len(processes) != 1 || processes[0].Name != "patient_wf" {
		t.Fatalf("system filter failed: %+v", processes)
	}
}

func TestGetRunMissing(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.GetRun(context.Background(), "nope"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestSaveRunRequiresID(t *testing.T) {
	store := openTestStore(t)
	record := sampleRecord()
	record.ID = " "
	if err := store.SaveRun(context.Background(), record); err == nil {
		t.Fatalf("blank run id must be rejected")
	}
}
