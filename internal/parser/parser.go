package parser

import (
	"context"

	"migscan/internal/model"
)

// Parser interprets one repository file into either a workflow definition
// or a script. Parsers are matched in registration order; the first match
// wins.
type Parser interface {
	Name() string
	Match(path string, data []byte) bool
	Parse(ctx context.Context, path string, data []byte) (*FileResult, error)
}

// FileResult is the outcome of parsing a single file. Exactly one of the
// fields is set.
type FileResult struct {
	Workflow *Workflow
	Script   *Script
}

// Workflow is a parsed orchestration definition: an Oozie workflow or
// coordinator, or a Databricks pipeline/jobs file.
type Workflow struct {
	Name     string
	Path     string
	Actions  []Action
	Schedule model.Schedule

	// Coordinator definitions carry only scheduling; WorkflowRef points at
	// the workflow application they trigger.
	Coordinator bool
	WorkflowRef string
}

// Action is one orchestrated step within a workflow definition.
type Action struct {
	Name       string
	Dialect    model.Dialect
	Type       model.ComponentType
	ScriptPath string
}

// Script is a parsed executable file: a Pig/Hive/Spark script or a
// Databricks notebook.
type Script struct {
	Name           string
	Path           string
	Dialect        model.Dialect
	Type           model.ComponentType
	Inputs         []string
	Outputs        []string
	Transformation string
	Comments       []string
	Content        string
}

func defaultParsers() []Parser {
	return []Parser{
		&oozieParser{},
		&pipelineParser{},
		&pigParser{},
		&notebookParser{},
		&hiveParser{},
	}
}
