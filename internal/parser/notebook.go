package parser

import (
	"context"
	"regexp"
	"strings"

	"migscan/internal/model"
)

const notebookMarker = "# Databricks notebook source"

type notebookParser struct{}

func (n *notebookParser) Name() string { return "notebook" }

func (n *notebookParser) Match(path string, data []byte) bool {
	if !strings.HasSuffix(strings.ToLower(path), ".py") {
		return false
	}
	content := string(data)
	return strings.Contains(content, notebookMarker) ||
		strings.Contains(content, "spark.read") ||
		strings.Contains(content, "spark.table") ||
		strings.Contains(content, "spark.sql")
}

var (
	sparkReadPattern  = regexp.MustCompile(`spark\.read[\w.]*\.(?:parquet|csv|json|orc|load|table)\(\s*["']([^"']+)["']`)
	sparkTablePattern = regexp.MustCompile(`spark\.table\(\s*["']([^"']+)["']`)
	sparkWritePattern = regexp.MustCompile(`\.write[\w.("')]*\.(?:parquet|csv|json|orc|save)\(\s*["']([^"']+)["']`)
	sparkSavePattern  = regexp.MustCompile(`\.(?:saveAsTable|insertInto)\(\s*["']([^"']+)["']`)
	sparkSQLPattern   = regexp.MustCompile(`spark\.sql\(\s*(?:f?"""([\s\S]*?)"""|f?"([^"]*)")`)
	sparkOpPatterns   = []struct {
		label   string
		pattern *regexp.Regexp
	}{
		{"join", regexp.MustCompile(`\.join\(`)},
		{"filter", regexp.MustCompile(`\.(?:filter|where)\(`)},
		{"group", regexp.MustCompile(`\.groupBy\(`)},
		{"aggregate", regexp.MustCompile(`\.agg\(`)},
		{"derive", regexp.MustCompile(`\.withColumn\(`)},
		{"distinct", regexp.MustCompile(`\.(?:distinct|dropDuplicates)\(`)},
		{"union", regexp.MustCompile(`\.union(?:ByName)?\(`)},
		{"window", regexp.MustCompile(`Window\.partitionBy\(`)},
	}
)

func (n *notebookParser) Parse(ctx context.Context, path string, data []byte) (*FileResult, error) {
	content := string(data)
	script := &Script{
		Name:    stemOf(path),
		Path:    path,
		Dialect: model.DialectNotebook,
		Content: content,
	}
	if !strings.Contains(content, notebookMarker) {
		script.Dialect = model.DialectSpark
	}
	for _, pattern := range []*regexp.Regexp{sparkReadPattern, sparkTablePattern} {
		for _, match := range pattern.FindAllStringSubmatch(content, -1) {
			if table := notebookTable(match[1]); table != "" {
				script.Inputs = appendUnique(script.Inputs, table)
			}
		}
	}
	for _, pattern := range []*regexp.Regexp{sparkWritePattern, sparkSavePattern} {
		for _, match := range pattern.FindAllStringSubmatch(content, -1) {
			if table := notebookTable(match[1]); table != "" {
				script.Outputs = appendUnique(script.Outputs, table)
			}
		}
	}
	// SQL embedded in spark.sql cells contributes tables the same way a
	// standalone Hive script would.
	for _, match := range sparkSQLPattern.FindAllStringSubmatch(content, -1) {
		sql := match[1]
		if sql == "" {
			sql = match[2]
		}
		inputs, outputs := sqlTables(sql)
		for _, t := range inputs {
			script.Inputs = appendUnique(script.Inputs, t)
		}
		for _, t := range outputs {
			script.Outputs = appendUnique(script.Outputs, t)
		}
	}
	script.Transformation = describeOps(content, sparkOpPatterns)
	script.Comments = notebookComments(content)
	script.Type = classifyScript(script)
	return &FileResult{Script: script}, nil
}

// notebookTable resolves a read/write argument that may be either a
// storage path or a catalog table reference.
func notebookTable(arg string) string {
	if strings.Contains(arg, "/") {
		return TableNameFromPath(arg)
	}
	return model.NormalizeTable(arg)
}

func notebookComments(content string) []string {
	var comments []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			continue
		}
		text := strings.TrimSpace(strings.TrimLeft(trimmed, "# "))
		if text == "" || isNotebookDirective(text) {
			continue
		}
		comments = append(comments, text)
	}
	return comments
}

func isNotebookDirective(text string) bool {
	return strings.HasPrefix(text, "Databricks notebook source") ||
		strings.HasPrefix(text, "COMMAND ----------") ||
		strings.HasPrefix(text, "MAGIC") ||
		strings.HasPrefix(text, "DBTITLE")
}
