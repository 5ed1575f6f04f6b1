package model

// ComponentType tags the role one step plays inside a process.
type ComponentType string

const (
	ComponentExtract   ComponentType = "extract"
	ComponentTransform ComponentType = "transform"
	ComponentLoad      ComponentType = "load"
	ComponentControl   ComponentType = "control"
)

// ComponentTypes lists the fixed vocabulary in histogram order.
var ComponentTypes = []ComponentType{
	ComponentExtract,
	ComponentTransform,
	ComponentLoad,
	ComponentControl,
}

// Dialect identifies the scripting technology a component was written in.
type Dialect string

const (
	DialectPig      Dialect = "pig"
	DialectHive     Dialect = "hive"
	DialectSpark    Dialect = "spark"
	DialectNotebook Dialect = "notebook"
	DialectSQL      Dialect = "sql"
	DialectShell    Dialect = "shell"
	DialectUnknown  Dialect = "unknown"
)

// Schedule carries trigger metadata captured from coordinator or pipeline
// definitions. Informational only; nothing downstream keys off it.
type Schedule struct {
	Frequency string `json:"frequency,omitempty"`
	Start     string `json:"start,omitempty"`
	End       string `json:"end,omitempty"`
}

// Component is one executable step (script, job, notebook) inside a Process.
type Component struct {
	Name           string        `json:"name"`
	Type           ComponentType `json:"type"`
	Dialect        Dialect       `json:"dialect"`
	Ordinal        int           `json:"ordinal"`
	Inputs         []string      `json:"inputs,omitempty"`
	Outputs        []string      `json:"outputs,omitempty"`
	Transformation string        `json:"transformation,omitempty"`
	Description    string        `json:"description,omitempty"`

	// Excerpt carries a bounded slice of the underlying script text for
	// downstream analysis. Not serialized.
	Excerpt string `json:"-"`
}

// Process is one pipeline unit: an Oozie workflow or a Databricks
// pipeline/notebook chain. Immutable after parsing.
type Process struct {
	Name       string      `json:"name"`
	System     string      `json:"system"`
	SourcePath string      `json:"source_path,omitempty"`
	Components []Component `json:"components,omitempty"`
	Tables     []string    `json:"tables,omitempty"`
	Keywords   []string    `json:"keywords,omitempty"`
	Schedule   Schedule    `json:"schedule,omitempty"`

	// Referenced is false for scripts found in the repository but never
	// reached from any workflow definition.
	Referenced bool `json:"referenced"`
}

// MappingType classifies how a target field derives from its sources.
type MappingType string

const (
	MappingDirect     MappingType = "direct"
	MappingDerived    MappingType = "derived"
	MappingLookup     MappingType = "lookup"
	MappingCalculated MappingType = "calculated"
	MappingAggregated MappingType = "aggregated"
)

// Provenance records which extraction path produced a mapping.
type Provenance string

const (
	ProvenanceAI        Provenance = "ai"
	ProvenanceHeuristic Provenance = "heuristic"
)

// ColumnMapping is one field-level source-to-target relationship.
type ColumnMapping struct {
	ID              string      `json:"id"`
	Process         string      `json:"process"`
	SourceTable     string      `json:"source_table,omitempty"`
	SourceColumn    string      `json:"source_column"`
	SourceType      string      `json:"source_type,omitempty"`
	TargetTable     string      `json:"target_table,omitempty"`
	TargetColumn    string      `json:"target_column"`
	TargetType      string      `json:"target_type,omitempty"`
	SourcePK        bool        `json:"source_pk"`
	TargetPK        bool        `json:"target_pk"`
	ContainsPII     bool        `json:"contains_pii"`
	SourceNullable  bool        `json:"source_nullable"`
	TargetNullable  bool        `json:"target_nullable"`
	Transformation  string      `json:"transformation,omitempty"`
	BusinessRule    string      `json:"business_rule,omitempty"`
	Type            MappingType `json:"type"`
	ProcessingOrder int         `json:"processing_order"`
	Confidence      float64     `json:"confidence"`
	Provenance      Provenance  `json:"provenance"`
}

// ConfidenceTier buckets a composite match score.
type ConfidenceTier string

const (
	TierHigh    ConfidenceTier = "high"
	TierMedium  ConfidenceTier = "medium"
	TierPartial ConfidenceTier = "partial"
	TierNone    ConfidenceTier = "none"
)

// MatchResult pairs one source process with at most one target process.
// Target is empty when no candidate reached the acceptance threshold.
type MatchResult struct {
	Source         string         `json:"source"`
	Target         string         `json:"target,omitempty"`
	Score          float64        `json:"score"`
	NameScore      float64        `json:"name_score"`
	TableScore     float64        `json:"table_score"`
	KeywordScore   float64        `json:"keyword_score"`
	ComponentScore float64        `json:"component_score"`
	Tier           ConfidenceTier `json:"tier"`
}

// Matched reports whether the result carries an accepted target.
func (m MatchResult) Matched() bool { return m.Target != "" }

// GapType enumerates the discrepancy categories the analyzer emits.
type GapType string

const (
	GapMissingProcess           GapType = "MissingProcess"
	GapMissingTable             GapType = "MissingTable"
	GapMissingColumn            GapType = "MissingColumn"
	GapLogicDifference          GapType = "LogicDifference"
	GapAggregationLevelMismatch GapType = "AggregationLevelMismatch"
	GapTransformationDifference GapType = "TransformationDifference"
	GapBusinessRuleDifference   GapType = "BusinessRuleDifference"
	GapDataTypeChange           GapType = "DataTypeChange"
)

// Severity ranks how urgently a gap needs attention.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
)

// Gap is one identified discrepancy between the two systems. At least one
// of SourceProcess/TargetProcess is always set.
type Gap struct {
	ID             string   `json:"id"`
	Type           GapType  `json:"type"`
	Severity       Severity `json:"severity"`
	SourceProcess  string   `json:"source_process,omitempty"`
	TargetProcess  string   `json:"target_process,omitempty"`
	Table          string   `json:"table,omitempty"`
	Column         string   `json:"column,omitempty"`
	Description    string   `json:"description"`
	BusinessImpact string   `json:"business_impact,omitempty"`
	Recommendation string   `json:"recommendation"`
	Confidence     float64  `json:"confidence"`
}
