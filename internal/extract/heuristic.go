package extract

import (
	"regexp"
	"strings"

	"migscan/internal/config"
	"migscan/internal/model"
)

var (
	selectListPattern = regexp.MustCompile(`(?is)\bSELECT\s+(.*?)\s+FROM\b`)
	generatePattern   = regexp.MustCompile(`(?is)\bGENERATE\s+(.*?);`)
	aliasPattern      = regexp.MustCompile(`(?i)^(.*?)\s+AS\s+([\w]+)$`)
	bareFieldPattern  = regexp.MustCompile(`^[\w.]+$`)
	withColumnPattern = regexp.MustCompile(`\.withColumn\(\s*["'](\w+)["']\s*,\s*([^)]*)\)`)
	renamedPattern    = regexp.MustCompile(`\.withColumnRenamed\(\s*["'](\w+)["']\s*,\s*["'](\w+)["']\s*\)`)
	aggregatePattern  = regexp.MustCompile(`(?i)\b(?:SUM|COUNT|AVG|MIN|MAX)\s*\(`)
	calculatePattern  = regexp.MustCompile(`(?i)\bCASE\s+WHEN\b|\bCOALESCE\s*\(|\bCONCAT\s*\(`)
)

const (
	heuristicConfidence = 0.5
	aliasConfidence     = 1.0
)

// heuristicMappings recovers field mappings from component excerpts with
// pattern matching alone. Explicit rename constructs (src AS tgt,
// withColumnRenamed) are trusted fully; everything else is tagged with
// reduced confidence.
func heuristicMappings(proc model.Process, cfg config.Settings) []model.ColumnMapping {
	var mappings []model.ColumnMapping
	seen := make(map[string]bool)
	add := func(comp model.Component, source, target, expr string, confidence float64) {
		source = strings.TrimSpace(source)
		target = strings.TrimSpace(target)
		if target == "" {
			target = source
		}
		if target == "" {
			return
		}
		if source == "" {
			source = target
		}
		key := comp.Name + "\x00" + source + "\x00" + target
		if seen[key] {
			return
		}
		seen[key] = true
		m := model.ColumnMapping{
			Process:         proc.Name,
			SourceTable:     firstOf(comp.Inputs),
			SourceColumn:    source,
			TargetTable:     firstOf(comp.Outputs),
			TargetColumn:    target,
			Transformation:  strings.TrimSpace(expr),
			Type:            classifyMapping(source, target, expr),
			ProcessingOrder: comp.Ordinal,
			Confidence:      confidence,
			Provenance:      model.ProvenanceHeuristic,
		}
		m.SourcePK = isKeyField(source, cfg.PKKeywords)
		m.TargetPK = isKeyField(target, cfg.PKKeywords)
		m.ContainsPII = containsPII(source, cfg.PIIKeywords) || containsPII(target, cfg.PIIKeywords)
		m.ID = model.MappingID(proc.Name, comp.Name, comp.Ordinal, m.TargetTable, m.TargetColumn)
		mappings = append(mappings, m)
	}

	for _, comp := range proc.Components {
		if comp.Excerpt == "" {
			continue
		}
		for _, pattern := range []*regexp.Regexp{selectListPattern, generatePattern} {
			for _, match := range pattern.FindAllStringSubmatch(comp.Excerpt, -1) {
				for _, item := range splitFieldList(match[1]) {
					if alias := aliasPattern.FindStringSubmatch(item); alias != nil {
						expr := strings.TrimSpace(alias[1])
						if bareFieldPattern.MatchString(expr) {
							add(comp, stripQualifier(expr), alias[2], "", aliasConfidence)
						} else {
							add(comp, "", alias[2], expr, heuristicConfidence)
						}
						continue
					}
					if bareFieldPattern.MatchString(item) && !isSQLKeyword(item) {
						field := stripQualifier(item)
						add(comp, field, field, "", heuristicConfidence)
					}
				}
			}
		}
		for _, match := range renamedPattern.FindAllStringSubmatch(comp.Excerpt, -1) {
			add(comp, match[1], match[2], "", aliasConfidence)
		}
		for _, match := range withColumnPattern.FindAllStringSubmatch(comp.Excerpt, -1) {
			add(comp, "", match[1], match[2], heuristicConfidence)
		}
	}
	return mappings
}

// splitFieldList breaks a SELECT or GENERATE projection on top-level
// commas, leaving commas inside parentheses alone.
func splitFieldList(list string) []string {
	var items []string
	depth := 0
	start := 0
	for i, r := range list {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				items = append(items, strings.TrimSpace(list[start:i]))
				start = i + 1
			}
		}
	}
	items = append(items, strings.TrimSpace(list[start:]))
	var cleaned []string
	for _, item := range items {
		if item != "" && item != "*" {
			cleaned = append(cleaned, item)
		}
	}
	return cleaned
}

func classifyMapping(source, target, expr string) model.MappingType {
	switch {
	case aggregatePattern.MatchString(expr):
		return model.MappingAggregated
	case calculatePattern.MatchString(expr):
		return model.MappingCalculated
	case strings.TrimSpace(expr) != "":
		return model.MappingDerived
	case !strings.EqualFold(source, target):
		return model.MappingDerived
	default:
		return model.MappingDirect
	}
}

func stripQualifier(field string) string {
	if idx := strings.LastIndex(field, "."); idx >= 0 {
		return field[idx+1:]
	}
	return field
}

// isKeyField matches key lexicon entries as whole tokens, not substrings;
// "id" must not light up inside "valid".
func isKeyField(field string, lexicon []string) bool {
	lower := strings.ToLower(field)
	for _, kw := range lexicon {
		if lower == kw || strings.HasSuffix(lower, "_"+kw) || strings.HasPrefix(lower, kw+"_") {
			return true
		}
	}
	return false
}

func containsPII(field string, lexicon []string) bool {
	lower := strings.ToLower(field)
	for _, kw := range lexicon {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func isSQLKeyword(item string) bool {
	switch strings.ToUpper(item) {
	case "DISTINCT", "ALL", "TOP", "NULL", "TRUE", "FALSE":
		return true
	}
	return false
}

func firstOf(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[0]
}
