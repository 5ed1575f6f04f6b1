package parser

import (
	"context"
	"testing"

	"migscan/internal/model"
)

func TestOozieWorkflowParsesActionsInChainOrder(t *testing.T) {
	src := []byte(`<workflow-app xmlns="uri:oozie:workflow:0.5" name="patient_demographics_wf">
    <start to="extract_patients"/>
    <action name="load_results">
        <hive xmlns="uri:oozie:hive-action:0.2">
            <script>${scriptDir}/load_results.hql</script>
        </hive>
        <ok to="end"/>
        <error to="fail"/>
    </action>
    <action name="extract_patients">
        <pig>
            <script>${scriptDir}/extract_patients.pig</script>
        </pig>
        <ok to="transform_demographics"/>
        <error to="fail"/>
    </action>
    <action name="transform_demographics">
        <spark xmlns="uri:oozie:spark-action:0.1">
            <jar>${appDir}/transform_demographics.py</jar>
        </spark>
        <ok to="load_results"/>
        <error to="fail"/>
    </action>
    <kill name="fail"><message>failed</message></kill>
    <end name="end"/>
</workflow-app>`)

	p := &oozieParser{}
	if !p.Match("workflows/patient/workflow.xml", src) {
		t.Fatalf("expected workflow xml to match")
	}
	result, err := p.Parse(context.Background(), "workflows/patient/workflow.xml", src)
	if err != nil {
		t.Fatalf("parse workflow: %v", err)
	}
	wf := result.Workflow
	if wf == nil {
		t.Fatalf("expected workflow result")
	}
	if wf.Name != "patient_demographics_wf" {
		t.Fatalf("unexpected workflow name: %s", wf.Name)
	}
	if len(wf.Actions) != 3 {
		t.Fatalf("expected 3 actions, got %d", len(wf.Actions))
	}
	order := []string{"extract_patients", "transform_demographics", "load_results"}
	for i, want := range order {
		if wf.Actions[i].Name != want {
			t.Fatalf("action %d: got %s, want %s", i, wf.Actions[i].Name, want)
		}
	}
	if wf.Actions[0].Dialect != model.DialectPig {
		t.Fatalf("expected pig dialect, got %s", wf.Actions[0].Dialect)
	}
	if wf.Actions[1].Dialect != model.DialectSpark {
		t.Fatalf("expected spark dialect, got %s", wf.Actions[1].Dialect)
	}
	if wf.Actions[0].ScriptPath != "extract_patients.pig" {
		t.Fatalf("placeholder not cleaned from script path: %q", wf.Actions[0].ScriptPath)
	}
}

func TestOozieCoordinatorCarriesSchedule(t *testing.T) {
	src := []byte(`<coordinator-app name="patient_coord" frequency="${coord:days(1)}"
    start="2023-01-01T00:00Z" end="2024-01-01T00:00Z"
    xmlns="uri:oozie:coordinator:0.4">
    <action>
        <workflow>
            <app-path>${nameNode}/apps/patient_demographics_wf</app-path>
        </workflow>
    </action>
</coordinator-app>`)

	p := &oozieParser{}
	result, err := p.Parse(context.Background(), "coordinator.xml", src)
	if err != nil {
		t.Fatalf("parse coordinator: %v", err)
	}
	wf := result.Workflow
	if wf == nil || !wf.Coordinator {
		t.Fatalf("expected coordinator workflow")
	}
	if wf.Schedule.Start != "2023-01-01T00:00Z" {
		t.Fatalf("unexpected schedule start: %s", wf.Schedule.Start)
	}
	if wf.WorkflowRef != "apps/patient_demographics_wf" {
		t.Fatalf("unexpected workflow ref: %s", wf.WorkflowRef)
	}
}
