package extract

import (
	"fmt"
	"strings"

	"migscan/internal/llm"
	"migscan/internal/model"
)

const analystSystemPrompt = `You are a data engineering analyst reviewing ETL code. ` +
	`Identify source-to-target field mappings, the tables involved, and the processing rules applied. ` +
	`Respond with a single JSON object and nothing else, using this shape: ` +
	`{"source_tables": ["..."], "target_tables": ["..."], ` +
	`"field_mappings": [{"source_field": "...", "target_field": "...", "data_type": "...", ` +
	`"is_pk": false, "contains_pii": false, "transformation": "...", "business_logic": "..."}], ` +
	`"processing_rules": ["..."]}. ` +
	`Use empty strings for unknown values. Do not invent fields that the code does not reference.`

// buildMessages renders one process into an analysis request. Component
// excerpts are included verbatim; they were already size-capped at parse
// time.
func buildMessages(proc model.Process) []llm.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Process: %s (system: %s)\n", proc.Name, proc.System)
	if len(proc.Tables) > 0 {
		fmt.Fprintf(&b, "Known tables: %s\n", strings.Join(proc.Tables, ", "))
	}
	for _, comp := range proc.Components {
		fmt.Fprintf(&b, "\n--- Component %d: %s (%s, %s)\n", comp.Ordinal, comp.Name, comp.Dialect, comp.Type)
		if len(comp.Inputs) > 0 {
			fmt.Fprintf(&b, "Reads: %s\n", strings.Join(comp.Inputs, ", "))
		}
		if len(comp.Outputs) > 0 {
			fmt.Fprintf(&b, "Writes: %s\n", strings.Join(comp.Outputs, ", "))
		}
		if comp.Transformation != "" {
			fmt.Fprintf(&b, "Operations: %s\n", comp.Transformation)
		}
		if comp.Excerpt != "" {
			fmt.Fprintf(&b, "Code:\n%s\n", comp.Excerpt)
		}
	}
	return []llm.Message{
		{Role: "system", Content: analystSystemPrompt},
		{Role: "user", Content: b.String()},
	}
}
