package extract

import (
	"context"
	"strings"
	"sync"

	"migscan/internal/common"
	"migscan/internal/config"
	"migscan/internal/llm"
	"migscan/internal/model"
)

const aiConfidence = 0.9

// Extractor recovers column-level mappings for parsed processes, asking
// the chat provider first and falling back to pattern heuristics when the
// reply is unusable. Extraction never fails a run; at worst a process
// contributes no mappings.
type Extractor struct {
	provider llm.Provider
	cfg      config.Settings
}

func New(provider llm.Provider, cfg config.Settings) *Extractor {
	return &Extractor{provider: provider, cfg: cfg}
}

// Extract analyzes every process concurrently and returns the combined
// mappings grouped by process, in the order the processes were given.
func (e *Extractor) Extract(ctx context.Context, processes []model.Process) []model.ColumnMapping {
	logger := common.Logger()
	if len(processes) == 0 {
		return nil
	}
	type job struct {
		index int
		proc  model.Process
	}
	type result struct {
		index    int
		mappings []model.ColumnMapping
	}
	workerCount := e.cfg.ExtractWorkers
	if workerCount > len(processes) {
		workerCount = len(processes)
	}
	jobCh := make(chan job)
	results := make(chan result, len(processes))
	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				results <- result{index: j.index, mappings: e.ExtractProcess(ctx, j.proc)}
			}
		}()
	}
	go func() {
		for idx, proc := range processes {
			jobCh <- job{index: idx, proc: proc}
		}
		close(jobCh)
		wg.Wait()
		close(results)
	}()
	ordered := make([][]model.ColumnMapping, len(processes))
	for res := range results {
		ordered[res.index] = res.mappings
	}
	var combined []model.ColumnMapping
	for _, mappings := range ordered {
		combined = append(combined, mappings...)
	}
	logger.Info("extract complete", "processes", len(processes), "mappings", len(combined))
	return combined
}

// ExtractProcess analyzes a single process. The AI path is tried first
// when a provider is configured; any failure there routes to heuristics.
func (e *Extractor) ExtractProcess(ctx context.Context, proc model.Process) []model.ColumnMapping {
	logger := common.Logger()
	if e.provider != nil {
		mappings, err := e.analyze(ctx, proc)
		if err == nil {
			return mappings
		}
		logger.Warn("extract: analysis failed, using heuristics", "process", proc.Name, "error", err)
	}
	return heuristicMappings(proc, e.cfg)
}

func (e *Extractor) analyze(ctx context.Context, proc model.Process) ([]model.ColumnMapping, error) {
	childCtx, cancel := context.WithTimeout(ctx, e.cfg.AnalyzeTimeout)
	defer cancel()
	reply, err := e.provider.Chat(childCtx, buildMessages(proc))
	if err != nil {
		return nil, err
	}
	resp, err := decodeResponse(reply)
	if err != nil {
		return nil, err
	}
	return e.convert(proc, resp), nil
}

func (e *Extractor) convert(proc model.Process, resp *aiResponse) []model.ColumnMapping {
	sourceTable := firstTable(resp.SourceTables)
	targetTable := firstTable(resp.TargetTables)
	rules := strings.Join(resp.ProcessingRules, "; ")
	mappings := make([]model.ColumnMapping, 0, len(resp.FieldMappings))
	seen := make(map[string]bool, len(resp.FieldMappings))
	for i, field := range resp.FieldMappings {
		source := strings.TrimSpace(field.SourceField)
		target := strings.TrimSpace(field.TargetField)
		if target == "" {
			target = source
		}
		if source == "" {
			source = target
		}
		key := source + "\x00" + target
		if seen[key] {
			continue
		}
		seen[key] = true
		m := model.ColumnMapping{
			Process:         proc.Name,
			SourceTable:     sourceTable,
			SourceColumn:    source,
			SourceType:      strings.TrimSpace(field.DataType),
			TargetTable:     targetTable,
			TargetColumn:    target,
			TargetType:      strings.TrimSpace(field.DataType),
			SourcePK:        field.IsPK,
			TargetPK:        field.IsPK,
			ContainsPII:     field.ContainsPII,
			Transformation:  strings.TrimSpace(field.Transformation),
			BusinessRule:    strings.TrimSpace(field.BusinessLogic),
			Type:            classifyMapping(source, target, field.Transformation),
			ProcessingOrder: i,
			Confidence:      aiConfidence,
			Provenance:      model.ProvenanceAI,
		}
		if m.BusinessRule == "" {
			m.BusinessRule = rules
		}
		if !m.ContainsPII {
			m.ContainsPII = containsPII(source, e.cfg.PIIKeywords) || containsPII(target, e.cfg.PIIKeywords)
		}
		if !m.SourcePK {
			m.SourcePK = isKeyField(source, e.cfg.PKKeywords)
		}
		if !m.TargetPK {
			m.TargetPK = isKeyField(target, e.cfg.PKKeywords)
		}
		m.ID = model.MappingID(proc.Name, "", i, m.TargetTable, m.TargetColumn)
		mappings = append(mappings, m)
	}
	return mappings
}

func firstTable(tables []string) string {
	for _, t := range tables {
		if norm := model.NormalizeTable(t); norm != "" {
			return norm
		}
	}
	return ""
}
