package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"migscan/internal/catalog"
	"migscan/internal/gap"
	"migscan/internal/model"
)

func seededServer(t *testing.T) (*Server, string) {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	record := catalog.RunRecord{
		ID:           catalog.NewRunID(),
		SourceRoot:   "/repos/hadoop",
		TargetRoot:   "/repos/databricks",
		SourceSystem: "hadoop",
		TargetSystem: "databricks",
		Coverage:     gap.Coverage{Total: 1, Covered: 1, CoveredPct: 100},
		Processes: []model.Process{
			{Name: "patient_wf", System: "hadoop", SourcePath: "workflows/patient.xml", Referenced: true},
			{Name: "patient_pipeline", System: "databricks", SourcePath: "jobs/patient.json", Referenced: true},
		},
		Matches: []model.MatchResult{
			{Source: "patient_wf", Target: "patient_pipeline", Score: 0.9, Tier: model.TierHigh},
		},
		Gaps: []model.Gap{{
			ID:            model.GapID(model.GapMissingColumn, "patient_wf", "patient_pipeline", "patient_demographics", "patient_email"),
			Type:          model.GapMissingColumn,
			Severity:      model.SeverityCritical,
			SourceProcess: "patient_wf",
			TargetProcess: "patient_pipeline",
			Table:         "patient_demographics",
			Column:        "patient_email",
			Description:   "column patient_email not mapped on the target side",
			Confidence:    0.9,
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
	if err := store.SaveRun(context.Background(), record); err != nil {
		t.Fatalf("seed run: %v", err)
	}

	srv, err := NewServer(store)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv, record.ID
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	srv, _ := seededServer(t)
	rec := get(t, srv, "/healthz")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected health response: %d %q", rec.Code, rec.Body.String())
	}
}

func TestListRuns(t *testing.T) {
	srv, runID := seededServer(t)
	rec := get(t, srv, "/api/runs")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), runID) {
		t.Fatalf("run list should include %s: %s", runID, rec.Body.String())
	}
}

func TestGetRunNotFound(t *testing.T) {
	srv, _ := seededServer(t)
	rec := get(t, srv, "/api/runs/does-not-exist")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing run should 404, got %d", rec.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil || payload["error"] == "" {
		t.Fatalf("error body missing: %s %v", rec.Body.String(), err)
	}
}

func TestGapFilters(t *testing.T) {
	srv, runID := seededServer(t)

	rec := get(t, srv, "/api/runs/"+runID+"/gaps?severity=Critical")
	var payload struct {
		Gaps []model.Gap `json:"gaps"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode gaps: %v", err)
	}
	if len(payload.Gaps) != 1 || payload.Gaps[0].Column != "patient_email" {
		t.Fatalf("unexpected gaps: %+v", payload.Gaps)
	}

	rec = get(t, srv, "/api/runs/"+runID+"/gaps?severity=Low")
	payload.Gaps = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode gaps: %v", err)
	}
	if len(payload.Gaps) != 0 {
		t.Fatalf("severity filter leaked gaps: %+v", payload.Gaps)
	}
}

func TestMappingsBySystem(t *testing.T) {
	srv, runID := seededServer(t)
	rec := get(t, srv, "/api/runs/"+runID+"/mappings?system=hadoop")
	var payload struct {
		Mappings []model.ColumnMapping `json:"mappings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode mappings: %v", err)
	}
	if len(payload.Mappings) != 1 || payload.Mappings[0].TargetColumn != "patient_id" {
		t.Fatalf("unexpected mappings: %+v", payload.Mappings)
	}
}
