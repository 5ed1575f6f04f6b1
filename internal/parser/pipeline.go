package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"migscan/internal/model"
)

// pipelineParser reads Databricks job and pipeline definitions exported as
// JSON. Tasks are ordered by their dependency edges.
type pipelineParser struct{}

func (p *pipelineParser) Name() string { return "pipeline" }

func (p *pipelineParser) Match(path string, data []byte) bool {
	if !strings.HasSuffix(strings.ToLower(path), ".json") {
		return false
	}
	content := string(data)
	return strings.Contains(content, `"tasks"`) ||
		strings.Contains(content, `"stages"`) ||
		strings.Contains(content, `"notebook_task"`)
}

type pipelineJSON struct {
	Name     string `json:"name"`
	Schedule struct {
		QuartzCronExpression string `json:"quartz_cron_expression"`
		StartTime            string `json:"start_time"`
		EndTime              string `json:"end_time"`
	} `json:"schedule"`
	Tasks  []pipelineTaskJSON `json:"tasks"`
	Stages []pipelineTaskJSON `json:"stages"`
}

type pipelineTaskJSON struct {
	TaskKey      string `json:"task_key"`
	Name         string `json:"name"`
	NotebookTask *struct {
		NotebookPath string `json:"notebook_path"`
	} `json:"notebook_task"`
	SparkPythonTask *struct {
		PythonFile string `json:"python_file"`
	} `json:"spark_python_task"`
	SQLTask *struct {
		File struct {
			Path string `json:"path"`
		} `json:"file"`
	} `json:"sql_task"`
	DependsOn []struct {
		TaskKey string `json:"task_key"`
	} `json:"depends_on"`
}

func (p *pipelineParser) Parse(ctx context.Context, path string, data []byte) (*FileResult, error) {
	var def pipelineJSON
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse pipeline %s: %w", path, err)
	}
	tasks := def.Tasks
	if len(tasks) == 0 {
		tasks = def.Stages
	}
	name := strings.TrimSpace(def.Name)
	if name == "" {
		name = stemOf(path)
	}
	workflow := &Workflow{
		Name: name,
		Path: path,
		Schedule: model.Schedule{
			Frequency: strings.TrimSpace(def.Schedule.QuartzCronExpression),
			Start:     strings.TrimSpace(def.Schedule.StartTime),
			End:       strings.TrimSpace(def.Schedule.EndTime),
		},
	}
	for _, task := range orderTasks(tasks) {
		workflow.Actions = append(workflow.Actions, interpretTask(task))
	}
	return &FileResult{Workflow: workflow}, nil
}

// orderTasks sequences tasks so every task follows its depends_on
// predecessors, keeping declaration order among ready tasks. Cycles fall
// back to declaration order for whatever remains.
func orderTasks(tasks []pipelineTaskJSON) []pipelineTaskJSON {
	placed := make(map[string]bool, len(tasks))
	ordered := make([]pipelineTaskJSON, 0, len(tasks))
	remaining := append([]pipelineTaskJSON(nil), tasks...)
	for len(remaining) > 0 {
		progressed := false
		var next []pipelineTaskJSON
		for _, task := range remaining {
			if depsSatisfied(task, placed) {
				placed[taskKey(task)] = true
				ordered = append(ordered, task)
				progressed = true
			} else {
				next = append(next, task)
			}
		}
		if !progressed {
			ordered = append(ordered, next...)
			break
		}
		remaining = next
	}
	return ordered
}

func depsSatisfied(task pipelineTaskJSON, placed map[string]bool) bool {
	for _, dep := range task.DependsOn {
		if !placed[dep.TaskKey] {
			return false
		}
	}
	return true
}

func taskKey(task pipelineTaskJSON) string {
	if task.TaskKey != "" {
		return task.TaskKey
	}
	return task.Name
}

func interpretTask(task pipelineTaskJSON) Action {
	action := Action{
		Name:    taskKey(task),
		Dialect: model.DialectNotebook,
		Type:    model.ComponentTransform,
	}
	switch {
	case task.NotebookTask != nil:
		action.ScriptPath = cleanScriptPath(task.NotebookTask.NotebookPath)
	case task.SparkPythonTask != nil:
		action.Dialect = model.DialectSpark
		action.ScriptPath = cleanScriptPath(task.SparkPythonTask.PythonFile)
	case task.SQLTask != nil:
		action.Dialect = model.DialectSQL
		action.ScriptPath = cleanScriptPath(task.SQLTask.File.Path)
	default:
		action.Dialect = model.DialectUnknown
		action.Type = model.ComponentControl
	}
	return action
}
