package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"migscan/internal/config"
	"migscan/internal/model"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestScanRepoLinksWorkflowActionsToScripts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "workflows/patient/workflow.xml", `<workflow-app name="patient_wf">
    <start to="extract"/>
    <action name="extract">
        <pig><script>${scriptDir}/extract_patients.pig</script></pig>
        <ok to="end"/>
    </action>
    <end name="end"/>
</workflow-app>`)
	writeFile(t, root, "scripts/extract_patients.pig", `patients = LOAD '/data/input/patient_raw/current';
deduped = DISTINCT patients;
STORE deduped INTO '/data/publish/patient_demographics/current';
`)
	writeFile(t, root, "scripts/orphan_cleanup.pig", `tmp = LOAD '/data/input/billing_raw/current';
STORE tmp INTO '/data/publish/billing/current';
`)

	scanner := NewScanner(config.Default().BusinessKeywords)
	processes, err := scanner.ScanRepo(context.Background(), root, "hadoop")
	if err != nil {
		t.Fatalf("scan repo: %v", err)
	}
	if len(processes) != 2 {
		t.Fatalf("expected 2 processes, got %d", len(processes))
	}

	byName := make(map[string]model.Process, len(processes))
	for _, p := range processes {
		byName[p.Name] = p
	}
	wf, ok := byName["patient_wf"]
	if !ok {
		t.Fatalf("workflow process missing: %v", processes)
	}
	if !wf.Referenced {
		t.Fatalf("workflow process should be referenced")
	}
	if len(wf.Components) != 1 {
		t.Fatalf("expected 1 component, got %d", len(wf.Components))
	}
	comp := wf.Components[0]
	if comp.Dialect != model.DialectPig || len(comp.Inputs) != 1 || comp.Inputs[0] != "patient_raw" {
		t.Fatalf("script not linked to action: %+v", comp)
	}
	if comp.Excerpt == "" {
		t.Fatalf("expected script excerpt on linked component")
	}
	wantTables := []string{"patient_demographics", "patient_raw"}
	if len(wf.Tables) != len(wantTables) {
		t.Fatalf("unexpected tables: %v", wf.Tables)
	}
	for i, table := range wantTables {
		if wf.Tables[i] != table {
			t.Fatalf("tables not sorted: %v", wf.Tables)
		}
	}
	if len(wf.Keywords) == 0 {
		t.Fatalf("expected business keywords for patient process")
	}

	orphan, ok := byName["orphan_cleanup"]
	if !ok {
		t.Fatalf("orphan script process missing")
	}
	if orphan.Referenced {
		t.Fatalf("orphan script should be flagged unreferenced")
	}
}

func TestScanRepoGroupsLooseScriptsByDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "patient_demographics/ingest.py", `# Databricks notebook source
df = spark.read.parquet("dbfs:/mnt/raw/patient_raw/current")
df.write.saveAsTable("publish.patient_stage")
`)
	writeFile(t, root, "patient_demographics/publish.py", `# Databricks notebook source
df = spark.table("publish.patient_stage")
df.dropDuplicates(["patient_id"]).write.saveAsTable("publish.patient_demographics")
`)

	scanner := NewScanner(config.Default().BusinessKeywords)
	processes, err := scanner.ScanRepo(context.Background(), root, "databricks")
	if err != nil {
		t.Fatalf("scan repo: %v", err)
	}
	if len(processes) != 1 {
		t.Fatalf("expected 1 grouped process, got %d: %v", len(processes), processes)
	}
	proc := processes[0]
	if proc.Name != "patient_demographics" {
		t.Fatalf("unexpected process name: %s", proc.Name)
	}
	if !proc.Referenced {
		t.Fatalf("grouped process should count as referenced")
	}
	if len(proc.Components) != 2 {
		t.Fatalf("expected 2 components, got %d", len(proc.Components))
	}
	for i, comp := range proc.Components {
		if comp.Ordinal != i {
			t.Fatalf("component ordinals not sequential: %+v", proc.Components)
		}
	}
}
