package parser

import (
	"context"
	"regexp"
	"strings"

	"migscan/internal/model"
)

type hiveParser struct{}

func (h *hiveParser) Name() string { return "hive" }

func (h *hiveParser) Match(path string, data []byte) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".hql") ||
		strings.HasSuffix(lower, ".hive") ||
		strings.HasSuffix(lower, ".sql")
}

var (
	sqlFromPattern   = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+([a-zA-Z_][\w.]*)`)
	sqlInsertPattern = regexp.MustCompile(`(?i)\bINSERT\s+(?:INTO|OVERWRITE)\s+(?:TABLE\s+)?([a-zA-Z_][\w.]*)`)
	sqlCreatePattern = regexp.MustCompile(`(?i)\bCREATE\s+(?:EXTERNAL\s+)?TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?([a-zA-Z_][\w.]*)`)
	sqlOpPatterns    = []struct {
		label   string
		pattern *regexp.Regexp
	}{
		{"join", regexp.MustCompile(`(?i)\bJOIN\b`)},
		{"filter", regexp.MustCompile(`(?i)\bWHERE\b`)},
		{"group", regexp.MustCompile(`(?i)\bGROUP\s+BY\b`)},
		{"distinct", regexp.MustCompile(`(?i)\bDISTINCT\b`)},
		{"union", regexp.MustCompile(`(?i)\bUNION\b`)},
		{"case", regexp.MustCompile(`(?i)\bCASE\s+WHEN\b`)},
		{"window", regexp.MustCompile(`(?i)\bOVER\s*\(`)},
	}
)

func (h *hiveParser) Parse(ctx context.Context, path string, data []byte) (*FileResult, error) {
	content := string(data)
	dialect := model.DialectHive
	if strings.HasSuffix(strings.ToLower(path), ".sql") {
		dialect = model.DialectSQL
	}
	script := &Script{
		Name:    stemOf(path),
		Path:    path,
		Dialect: dialect,
		Content: content,
	}
	script.Inputs, script.Outputs = sqlTables(content)
	script.Transformation = describeOps(content, sqlOpPatterns)
	script.Comments = collectComments(content, "--")
	script.Type = classifyScript(script)
	return &FileResult{Script: script}, nil
}

// sqlTables splits table references into reads and writes. A table both
// written and read stays on the write side only, matching how staged
// intermediate tables should count.
func sqlTables(content string) (inputs, outputs []string) {
	written := make(map[string]bool)
	for _, pattern := range []*regexp.Regexp{sqlInsertPattern, sqlCreatePattern} {
		for _, match := range pattern.FindAllStringSubmatch(content, -1) {
			name := model.NormalizeTable(match[1])
			if name == "" || written[name] {
				continue
			}
			written[name] = true
			outputs = append(outputs, name)
		}
	}
	seen := make(map[string]bool)
	for _, match := range sqlFromPattern.FindAllStringSubmatch(content, -1) {
		name := model.NormalizeTable(match[1])
		if name == "" || seen[name] || written[name] {
			continue
		}
		seen[name] = true
		inputs = append(inputs, name)
	}
	return inputs, outputs
}
