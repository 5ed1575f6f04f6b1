package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type aiMapping struct {
	SourceField    string `json:"source_field"`
	TargetField    string `json:"target_field"`
	DataType       string `json:"data_type"`
	IsPK           bool   `json:"is_pk"`
	ContainsPII    bool   `json:"contains_pii"`
	Transformation string `json:"transformation"`
	BusinessLogic  string `json:"business_logic"`
}

type aiResponse struct {
	SourceTables    []string    `json:"source_tables"`
	TargetTables    []string    `json:"target_tables"`
	FieldMappings   []aiMapping `json:"field_mappings"`
	ProcessingRules []string    `json:"processing_rules"`
}

// decodeResponse parses a chat reply into the analysis schema. Replies
// wrapped in markdown fences or surrounded by prose are tolerated; a reply
// with no parseable object, or no usable field mapping, is an error so the
// caller falls through to heuristics.
func decodeResponse(raw string) (*aiResponse, error) {
	payload := extractJSON(raw)
	if payload == "" {
		return nil, errors.New("no JSON object in reply")
	}
	var resp aiResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return nil, fmt.Errorf("decode analysis reply: %w", err)
	}
	usable := resp.FieldMappings[:0]
	for _, m := range resp.FieldMappings {
		if strings.TrimSpace(m.SourceField) == "" && strings.TrimSpace(m.TargetField) == "" {
			continue
		}
		usable = append(usable, m)
	}
	resp.FieldMappings = usable
	if len(resp.FieldMappings) == 0 {
		return nil, errors.New("reply carries no field mappings")
	}
	return &resp, nil
}

func extractJSON(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if fenced := strings.Index(trimmed, "```"); fenced >= 0 {
		rest := trimmed[fenced+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			trimmed = rest[:end]
		} else {
			trimmed = rest
		}
	}
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return ""
	}
	return trimmed[start : end+1]
}
