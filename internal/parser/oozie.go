package parser

import (
	"context"
	"encoding/xml"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"migscan/internal/model"
)

type oozieParser struct{}

func (o *oozieParser) Name() string { return "oozie" }

func (o *oozieParser) Match(path string, data []byte) bool {
	if !strings.HasSuffix(strings.ToLower(path), ".xml") {
		return false
	}
	content := string(data)
	return strings.Contains(content, "<workflow-app") || strings.Contains(content, "<coordinator-app")
}

func (o *oozieParser) Parse(ctx context.Context, path string, data []byte) (*FileResult, error) {
	if strings.Contains(string(data), "<coordinator-app") {
		return o.parseCoordinator(path, data)
	}
	return o.parseWorkflow(path, data)
}

type oozieWorkflowXML struct {
	Name  string `xml:"name,attr"`
	Start struct {
		To string `xml:"to,attr"`
	} `xml:"start"`
	Actions []oozieActionXML `xml:"action"`
}

type oozieActionXML struct {
	Name  string          `xml:"name,attr"`
	Spark *oozieSparkXML  `xml:"spark"`
	Pig   *oozieScriptXML `xml:"pig"`
	Hive  *oozieScriptXML `xml:"hive"`
	Shell *oozieShellXML  `xml:"shell"`
	OK    struct {
		To string `xml:"to,attr"`
	} `xml:"ok"`
}

type oozieScriptXML struct {
	Script string `xml:"script"`
}

type oozieSparkXML struct {
	Jar  string `xml:"jar"`
	Name string `xml:"name"`
}

type oozieShellXML struct {
	Exec string `xml:"exec"`
}

func (o *oozieParser) parseWorkflow(path string, data []byte) (*FileResult, error) {
	var wf oozieWorkflowXML
	if err := xml.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parse oozie workflow %s: %w", path, err)
	}
	name := strings.TrimSpace(wf.Name)
	if name == "" {
		name = stemOf(path)
	}
	workflow := &Workflow{Name: name, Path: path}
	for _, raw := range orderActions(wf) {
		action, ok := interpretAction(raw)
		if !ok {
			continue
		}
		workflow.Actions = append(workflow.Actions, action)
	}
	return &FileResult{Workflow: workflow}, nil
}

// orderActions sequences actions by following the start/ok transition
// chain; actions unreachable through ok edges (fork branches, error paths)
// are appended in document order so none are dropped.
func orderActions(wf oozieWorkflowXML) []oozieActionXML {
	byName := make(map[string]oozieActionXML, len(wf.Actions))
	for _, action := range wf.Actions {
		byName[action.Name] = action
	}
	var ordered []oozieActionXML
	visited := make(map[string]bool, len(wf.Actions))
	next := wf.Start.To
	for next != "" && !visited[next] {
		action, ok := byName[next]
		if !ok {
			break
		}
		visited[next] = true
		ordered = append(ordered, action)
		next = action.OK.To
	}
	for _, action := range wf.Actions {
		if !visited[action.Name] {
			ordered = append(ordered, action)
		}
	}
	return ordered
}

func interpretAction(raw oozieActionXML) (Action, bool) {
	action := Action{Name: raw.Name}
	switch {
	case raw.Spark != nil:
		action.Dialect = model.DialectSpark
		action.Type = model.ComponentTransform
		action.ScriptPath = cleanScriptPath(raw.Spark.Jar)
	case raw.Pig != nil:
		action.Dialect = model.DialectPig
		action.Type = model.ComponentTransform
		action.ScriptPath = cleanScriptPath(raw.Pig.Script)
	case raw.Hive != nil:
		action.Dialect = model.DialectHive
		action.Type = model.ComponentTransform
		action.ScriptPath = cleanScriptPath(raw.Hive.Script)
	case raw.Shell != nil:
		action.Dialect = model.DialectShell
		action.Type = model.ComponentControl
		action.ScriptPath = cleanScriptPath(raw.Shell.Exec)
	default:
		return Action{}, false
	}
	return action, true
}

type oozieCoordinatorXML struct {
	Name      string `xml:"name,attr"`
	Frequency string `xml:"frequency,attr"`
	Start     string `xml:"start,attr"`
	End       string `xml:"end,attr"`
	Action    struct {
		Workflow struct {
			AppPath string `xml:"app-path"`
		} `xml:"workflow"`
	} `xml:"action"`
}

func (o *oozieParser) parseCoordinator(path string, data []byte) (*FileResult, error) {
	var coord oozieCoordinatorXML
	if err := xml.Unmarshal(data, &coord); err != nil {
		return nil, fmt.Errorf("parse oozie coordinator %s: %w", path, err)
	}
	name := strings.TrimSpace(coord.Name)
	if name == "" {
		name = stemOf(path)
	}
	return &FileResult{Workflow: &Workflow{
		Name:        name,
		Path:        path,
		Coordinator: true,
		WorkflowRef: cleanScriptPath(coord.Action.Workflow.AppPath),
		Schedule: model.Schedule{
			Frequency: strings.TrimSpace(coord.Frequency),
			Start:     strings.TrimSpace(coord.Start),
			End:       strings.TrimSpace(coord.End),
		},
	}}, nil
}

var placeholderPattern = regexp.MustCompile(`\$\{[^}]*\}`)

func cleanScriptPath(path string) string {
	cleaned := placeholderPattern.ReplaceAllString(strings.TrimSpace(path), "")
	return strings.TrimLeft(cleaned, "/")
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
