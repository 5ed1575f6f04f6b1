package model

import (
	"strings"
	"testing"
)

func TestValidateRequiresNameAndSystem(t *testing.T) {
	p := &Process{Name: "  ", System: "hadoop"}
	if err := p.Validate(); err == nil {
		t.Fatalf("blank name must fail validation")
	}
	p = &Process{Name: "wf", System: ""}
	if err := p.Validate(); err == nil {
		t.Fatalf("blank system must fail validation")
	}
}

func TestValidateChecksOrdinals(t *testing.T) {
	p := &Process{
		Name: "wf", System: "hadoop",
		Components: []Component{
			{Name: "a", Ordinal: 0},
			{Name: "b", Ordinal: 2},
		},
	}
	if err := p.Validate(); err == nil {
		t.Fatalf("gapped ordinals must fail validation")
	}
}

func TestFilterValidDropsDuplicatesAndInvalid(t *testing.T) {
	processes := []Process{
		{Name: "wf_a", System: "hadoop"},
		{Name: "", System: "hadoop", SourcePath: "scripts/unnamed.pig"},
		{Name: "wf_a", System: "hadoop"},
		{Name: "wf_b", System: "hadoop"},
	}
	valid, rejected := FilterValid(processes)
	if len(valid) != 2 || valid[0].Name != "wf_a" || valid[1].Name != "wf_b" {
		t.Fatalf("unexpected valid set: %+v", valid)
	}
	if len(rejected) != 2 {
		t.Fatalf("expected 2 rejections, got %v", rejected)
	}
	if !strings.Contains(rejected[0], "scripts/unnamed.pig") {
		t.Fatalf("rejection should name the source path: %v", rejected)
	}
	if !strings.Contains(rejected[1], "duplicate") {
		t.Fatalf("duplicate should be reported: %v", rejected)
	}
}

func TestNormalizeTable(t *testing.T) {
	cases := map[string]string{
		"Warehouse.Coverage_Summary": "coverage_summary",
		"  patient_raw  ":            "patient_raw",
		"db.schema.table":            "table",
		"":                           "",
	}
	for in, want := range cases {
		if got := NormalizeTable(in); got != want {
			t.Fatalf("NormalizeTable(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMappingIDStableAndDistinct(t *testing.T) {
	a := MappingID("wf", "comp", 0, "patient_demographics", "patient_id")
	b := MappingID("wf", "comp", 0, "patient_demographics", "patient_id")
	c := MappingID("wf", "comp", 0, "patient_demographics", "patient_email")
	if a != b {
		t.Fatalf("same inputs must produce the same id: %q vs %q", a, b)
	}
	if a == c {
		t.Fatalf("different columns must produce different ids")
	}
}

func TestGapIDDistinguishesKinds(t *testing.T) {
	a := GapID(GapMissingColumn, "wf", "pipe", "t", "c")
	b := GapID(GapDataTypeChange, "wf", "pipe", "t", "c")
	if a == b {
		t.Fatalf("gap ids must incorporate the gap type")
	}
}

func TestMatchResultMatched(t *testing.T) {
	if (MatchResult{Source: "a"}).Matched() {
		t.Fatalf("empty target must not count as matched")
	}
	if !(MatchResult{Source: "a", Target: "b"}).Matched() {
		t.Fatalf("populated target must count as matched")
	}
}
