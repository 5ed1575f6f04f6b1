package parser

import (
	"context"
	"regexp"
	"strings"

	"migscan/internal/model"
)

type pigParser struct{}

func (p *pigParser) Name() string { return "pig" }

func (p *pigParser) Match(path string, data []byte) bool {
	return strings.HasSuffix(strings.ToLower(path), ".pig")
}

var (
	pigLoadPattern  = regexp.MustCompile(`(?im)^\s*\w+\s*=\s*LOAD\s+'([^']+)'`)
	pigStorePattern = regexp.MustCompile(`(?i)\bSTORE\s+\w+\s+INTO\s+'([^']+)'`)
	pigOpPatterns   = []struct {
		label   string
		pattern *regexp.Regexp
	}{
		{"join", regexp.MustCompile(`(?i)\bJOIN\b`)},
		{"filter", regexp.MustCompile(`(?i)\bFILTER\b`)},
		{"group", regexp.MustCompile(`(?i)\bGROUP\s+\w+\s+BY\b|\bCOGROUP\b`)},
		{"distinct", regexp.MustCompile(`(?i)\bDISTINCT\b`)},
		{"union", regexp.MustCompile(`(?i)\bUNION\b`)},
		{"generate", regexp.MustCompile(`(?i)\bFOREACH\b[\s\S]*?\bGENERATE\b`)},
		{"order", regexp.MustCompile(`(?i)\bORDER\s+\w+\s+BY\b`)},
	}
)

func (p *pigParser) Parse(ctx context.Context, path string, data []byte) (*FileResult, error) {
	content := string(data)
	script := &Script{
		Name:    stemOf(path),
		Path:    path,
		Dialect: model.DialectPig,
		Content: content,
	}
	for _, match := range pigLoadPattern.FindAllStringSubmatch(content, -1) {
		if table := TableNameFromPath(match[1]); table != "" {
			script.Inputs = appendUnique(script.Inputs, table)
		}
	}
	for _, match := range pigStorePattern.FindAllStringSubmatch(content, -1) {
		if table := TableNameFromPath(match[1]); table != "" {
			script.Outputs = appendUnique(script.Outputs, table)
		}
	}
	script.Transformation = describeOps(content, pigOpPatterns)
	script.Comments = collectComments(content, "--")
	script.Type = classifyScript(script)
	return &FileResult{Script: script}, nil
}

func describeOps(content string, ops []struct {
	label   string
	pattern *regexp.Regexp
}) string {
	var found []string
	for _, op := range ops {
		if op.pattern.MatchString(content) {
			found = append(found, op.label)
		}
	}
	return strings.Join(found, ", ")
}

func collectComments(content, marker string) []string {
	var comments []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, marker) {
			continue
		}
		text := strings.TrimSpace(strings.TrimLeft(trimmed, marker+" "))
		if text != "" {
			comments = append(comments, text)
		}
	}
	return comments
}

// classifyScript derives the component role from observed IO. Reads with
// no writes are extracts, writes with no transformation are loads,
// everything else is a transform.
func classifyScript(s *Script) model.ComponentType {
	switch {
	case len(s.Outputs) == 0 && len(s.Inputs) > 0 && s.Transformation == "":
		return model.ComponentExtract
	case len(s.Outputs) > 0 && s.Transformation == "":
		return model.ComponentLoad
	default:
		return model.ComponentTransform
	}
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}
