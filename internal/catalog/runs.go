package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"migscan/internal/config"
	"migscan/internal/gap"
	"migscan/internal/model"
)

// Run is the stored header of one analysis run. Settings snapshot the
// configuration the run executed with.
type Run struct {
	ID           string          `json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	SourceRoot   string          `json:"source_root"`
	TargetRoot   string          `json:"target_root"`
	SourceSystem string          `json:"source_system"`
	TargetSystem string          `json:"target_system"`
	Coverage     gap.Coverage    `json:"coverage"`
	Settings     config.Settings `json:"settings"`
}

// RunRecord bundles everything one analysis run produced. Mappings are
// keyed by the system tag they were extracted from.
type RunRecord struct {
	ID           string
	SourceRoot   string
	TargetRoot   string
	SourceSystem string
	TargetSystem string
	Coverage     gap.Coverage
	Settings     config.Settings
	Processes    []model.Process
	Matches      []model.MatchResult
	Gaps         []model.Gap
	Mappings     map[string][]model.ColumnMapping
}

// NewRunID returns a fresh run identifier.
func NewRunID() string { return uuid.NewString() }

// SaveRun persists a complete run atomically.
func (s *Store) SaveRun(ctx context.Context, record RunRecord) error {
	if s == nil || s.db == nil {
		return errors.New("catalog store not initialised")
	}
	if strings.TrimSpace(record.ID) == "" {
		return errors.New("run id required")
	}
	coverage, err := json.Marshal(record.Coverage)
	if err != nil {
		return fmt.Errorf("encode coverage: %w", err)
	}
	settings, err := json.Marshal(record.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO runs(id, source_root, target_root, source_system, target_system, coverage, settings)
                        VALUES(?, ?, ?, ?, ?, ?, ?)`,
			record.ID, record.SourceRoot, record.TargetRoot, record.SourceSystem, record.TargetSystem,
			string(coverage), string(settings)); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		for _, proc := range record.Processes {
			payload, err := json.Marshal(proc)
			if err != nil {
				return fmt.Errorf("encode process %s: %w", proc.Name, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO processes(run_id, name, system, source_path, referenced, payload)
                                VALUES(?, ?, ?, ?, ?, ?)`,
				record.ID, proc.Name, proc.System, proc.SourcePath, boolToInt(proc.Referenced), string(payload)); err != nil {
				return fmt.Errorf("insert process %s: %w", proc.Name, err)
			}
		}
		for _, m := range record.Matches {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO matches(run_id, source, target, score, name_score, table_score, keyword_score, component_score, tier)
                                VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				record.ID, m.Source, m.Target, m.Score, m.NameScore, m.TableScore, m.KeywordScore, m.ComponentScore, string(m.Tier)); err != nil {
				return fmt.Errorf("insert match %s: %w", m.Source, err)
			}
		}
		for _, g := range record.Gaps {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO gaps(run_id, gap_id, kind, severity, source_process, target_process, table_name, column_name, description, business_impact, recommendation, confidence)
                                VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				record.ID, g.ID, string(g.Type), string(g.Severity), g.SourceProcess, g.TargetProcess,
				g.Table, g.Column, g.Description, g.BusinessImpact, g.Recommendation, g.Confidence); err != nil {
				return fmt.Errorf("insert gap %s: %w", g.ID, err)
			}
		}
		for system, mappings := range record.Mappings {
			for _, m := range mappings {
				payload, err := json.Marshal(m)
				if err != nil {
					return fmt.Errorf("encode mapping %s: %w", m.ID, err)
				}
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO mappings(run_id, mapping_id, system, process, source_table, source_column, target_table, target_column, payload)
                                        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
                                        ON CONFLICT(run_id, system, mapping_id) DO NOTHING`,
					record.ID, m.ID, system, m.Process, m.SourceTable, m.SourceColumn,
					m.TargetTable, m.TargetColumn, string(payload)); err != nil {
					return fmt.Errorf("insert mapping %s: %w", m.ID, err)
				}
			}
		}
		return nil
	})
}

type runRow struct {
	ID           string    `db:"id"`
	CreatedAt    time.Time `db:"created_at"`
	SourceRoot   string    `db:"source_root"`
	TargetRoot   string    `db:"target_root"`
	SourceSystem string    `db:"source_system"`
	TargetSystem string    `db:"target_system"`
	Coverage     string    `db:"coverage"`
	Settings     string    `db:"settings"`
}

func (r runRow) toRun() (Run, error) {
	run := Run{
		ID:           r.ID,
		CreatedAt:    r.CreatedAt,
		SourceRoot:   r.SourceRoot,
		TargetRoot:   r.TargetRoot,
		SourceSystem: r.SourceSystem,
		TargetSystem: r.TargetSystem,
	}
	if strings.TrimSpace(r.Coverage) != "" {
		if err := json.Unmarshal([]byte(r.Coverage), &run.Coverage); err != nil {
			return Run{}, fmt.Errorf("decode coverage for run %s: %w", r.ID, err)
		}
	}
	if strings.TrimSpace(r.Settings) != "" {
		if err := json.Unmarshal([]byte(r.Settings), &run.Settings); err != nil {
			return Run{}, fmt.Errorf("decode settings for run %s: %w", r.ID, err)
		}
	}
	return run, nil
}

// ListRuns returns stored run headers, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("catalog store not initialised")
	}
	rows := []runRow{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM runs ORDER BY created_at DESC, id`); err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	runs := make([]Run, 0, len(rows))
	for _, row := range rows {
		run, err := row.toRun()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// GetRun fetches one run header by id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("catalog store not initialised")
	}
	var row runRow
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM runs WHERE id = ?`, id); err != nil {
		return nil, err
	}
	run, err := row.toRun()
	if err != nil {
		return nil, err
	}
	return &run, nil
}

type matchRow struct {
	ID             int64   `db:"id"`
	RunID          string  `db:"run_id"`
	Source         string  `db:"source"`
	Target         string  `db:"target"`
	Score          float64 `db:"score"`
	NameScore      float64 `db:"name_score"`
	TableScore     float64 `db:"table_score"`
	KeywordScore   float64 `db:"keyword_score"`
	ComponentScore float64 `db:"component_score"`
	Tier           string  `db:"tier"`
}

// MatchesForRun returns the stored match set in source order.
func (s *Store) MatchesForRun(ctx context.Context, runID string) ([]model.MatchResult, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("catalog store not initialised")
	}
	rows := []matchRow{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM matches WHERE run_id = ? ORDER BY source`, runID); err != nil {
		return nil, fmt.Errorf("select matches: %w", err)
	}
	results := make([]model.MatchResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, model.MatchResult{
			Source:         row.Source,
			Target:         row.Target,
			Score:          row.Score,
			NameScore:      row.NameScore,
			TableScore:     row.TableScore,
			KeywordScore:   row.KeywordScore,
			ComponentScore: row.ComponentScore,
			Tier:           model.ConfidenceTier(row.Tier),
		})
	}
	return results, nil
}

type gapRow struct {
	ID             int64   `db:"id"`
	RunID          string  `db:"run_id"`
	GapID          string  `db:"gap_id"`
	Kind           string  `db:"kind"`
	Severity       string  `db:"severity"`
	SourceProcess  string  `db:"source_process"`
	TargetProcess  string  `db:"target_process"`
	TableName      string  `db:"table_name"`
	ColumnName     string  `db:"column_name"`
	Description    string  `db:"description"`
	BusinessImpact string  `db:"business_impact"`
	Recommendation string  `db:"recommendation"`
	Confidence     float64 `db:"confidence"`
}

// GapsForRun returns gaps for a run, optionally filtered by severity and
// type.
func (s *Store) GapsForRun(ctx context.Context, runID, severity, kind string) ([]model.Gap, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("catalog store not initialised")
	}
	query := `SELECT * FROM gaps WHERE run_id = ?`
	args := []interface{}{runID}
	if trimmed := strings.TrimSpace(severity); trimmed != "" {
		query += ` AND severity = ?`
		args = append(args, trimmed)
	}
	if trimmed := strings.TrimSpace(kind); trimmed != "" {
		query += ` AND kind = ?`
		args = append(args, trimmed)
	}
	query += ` ORDER BY gap_id`
	rows := []gapRow{}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select gaps: %w", err)
	}
	gaps := make([]model.Gap, 0, len(rows))
	for _, row := range rows {
		gaps = append(gaps, model.Gap{
			ID:             row.GapID,
			Type:           model.GapType(row.Kind),
			Severity:       model.Severity(row.Severity),
			SourceProcess:  row.SourceProcess,
			TargetProcess:  row.TargetProcess,
			Table:          row.TableName,
			Column:         row.ColumnName,
			Description:    row.Description,
			BusinessImpact: row.BusinessImpact,
			Recommendation: row.Recommendation,
			Confidence:     row.Confidence,
		})
	}
	return gaps, nil
}

// MappingsForRun returns stored mappings, optionally filtered by system
// and process.
func (s *Store) MappingsForRun(ctx context.Context, runID, system, process string) ([]model.ColumnMapping, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("catalog store not initialised")
	}
	query := `SELECT payload FROM mappings WHERE run_id = ?`
	args := []interface{}{runID}
	if trimmed := strings.TrimSpace(system); trimmed != "" {
		query += ` AND system = ?`
		args = append(args, trimmed)
	}
	if trimmed := strings.TrimSpace(process); trimmed != "" {
		query += ` AND process = ?`
		args = append(args, trimmed)
	}
	query += ` ORDER BY process, target_table, target_column`
	payloads := []string{}
	if err := s.db.SelectContext(ctx, &payloads, query, args...); err != nil {
		return nil, fmt.Errorf("select mappings: %w", err)
	}
	mappings := make([]model.ColumnMapping, 0, len(payloads))
	for _, payload := range payloads {
		var m model.ColumnMapping
		if err := json.Unmarshal([]byte(payload), &m); err != nil {
			return nil, fmt.Errorf("decode mapping: %w", err)
		}
		mappings = append(mappings, m)
	}
	return mappings, nil
}

// ProcessesForRun returns stored processes, optionally filtered by system.
func (s *Store) ProcessesForRun(ctx context.Context, runID, system string) ([]model.Process, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("catalog store not initialised")
	}
	query := `SELECT payload FROM processes WHERE run_id = ?`
	args := []interface{}{runID}
	if trimmed := strings.TrimSpace(system); trimmed != "" {
		query += ` AND system = ?`
		args = append(args, trimmed)
	}
	query += ` ORDER BY system, name`
	payloads := []string{}
	if err := s.db.SelectContext(ctx, &payloads, query, args...); err != nil {
		return nil, fmt.Errorf("select processes: %w", err)
	}
	processes := make([]model.Process, 0, len(payloads))
	for _, payload := range payloads {
		var p model.Process
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return nil, fmt.Errorf("decode process: %w", err)
		}
		processes = append(processes, p)
	}
	return processes, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
