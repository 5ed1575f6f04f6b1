// Package sttm arranges extracted column mappings into source-to-target
// mapping views: per-table sheets for one system and a joined
// cross-system view for matched process pairs.
package sttm

import (
	"sort"
	"strings"

	"migscan/internal/model"
)

// TableSheet groups the mappings that populate one target table.
type TableSheet struct {
	Table    string
	Mappings []model.ColumnMapping
}

// BySheet buckets mappings by target table, keeping mappings in
// processing order within a sheet and sheets in table order. Mappings
// with no target table land on a sheet named after their process.
func BySheet(mappings []model.ColumnMapping) []TableSheet {
	groups := make(map[string][]model.ColumnMapping)
	for _, m := range mappings {
		table := strings.TrimSpace(m.TargetTable)
		if table == "" {
			table = m.Process
		}
		groups[table] = append(groups[table], m)
	}
	tables := make([]string, 0, len(groups))
	for table := range groups {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	sheets := make([]TableSheet, 0, len(tables))
	for _, table := range tables {
		rows := groups[table]
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].Process != rows[j].Process {
				return rows[i].Process < rows[j].Process
			}
			if rows[i].ProcessingOrder != rows[j].ProcessingOrder {
				return rows[i].ProcessingOrder < rows[j].ProcessingOrder
			}
			return rows[i].TargetColumn < rows[j].TargetColumn
		})
		sheets = append(sheets, TableSheet{Table: table, Mappings: rows})
	}
	return sheets
}

// CrossStatus marks which side of a matched pair mapped the column.
type CrossStatus string

const (
	CrossBoth       CrossStatus = "both"
	CrossSourceOnly CrossStatus = "source_only"
	CrossTargetOnly CrossStatus = "target_only"
)

// CrossRow joins one column across a matched process pair.
type CrossRow struct {
	SourceProcess string
	TargetProcess string
	Column        string
	Status        CrossStatus
	Source        *model.ColumnMapping
	Target        *model.ColumnMapping
}

// CrossSystem joins the mapping sets of every matched pair on target
// column. Rows come out grouped by source process and sorted by column,
// so repeated runs produce identical output.
func CrossSystem(matches []model.MatchResult, sourceMappings, targetMappings []model.ColumnMapping) []CrossRow {
	srcByProc := groupByProcess(sourceMappings)
	tgtByProc := groupByProcess(targetMappings)
	var rows []CrossRow
	for _, result := range matches {
		if !result.Matched() {
			continue
		}
		src := srcByProc[result.Source]
		tgt := tgtByProc[result.Target]
		srcByCol := byColumn(src)
		tgtByCol := byColumn(tgt)
		columns := make(map[string]bool, len(srcByCol)+len(tgtByCol))
		for col := range srcByCol {
			columns[col] = true
		}
		for col := range tgtByCol {
			columns[col] = true
		}
		for _, col := range model.SortedKeys(columns) {
			row := CrossRow{
				SourceProcess: result.Source,
				TargetProcess: result.Target,
				Column:        col,
			}
			if m, ok := srcByCol[col]; ok {
				clone := m
				row.Source = &clone
			}
			if m, ok := tgtByCol[col]; ok {
				clone := m
				row.Target = &clone
			}
			switch {
			case row.Source != nil && row.Target != nil:
				row.Status = CrossBoth
			case row.Source != nil:
				row.Status = CrossSourceOnly
			default:
				row.Status = CrossTargetOnly
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func groupByProcess(mappings []model.ColumnMapping) map[string][]model.ColumnMapping {
	byProc := make(map[string][]model.ColumnMapping)
	for _, m := range mappings {
		byProc[m.Process] = append(byProc[m.Process], m)
	}
	return byProc
}

func byColumn(mappings []model.ColumnMapping) map[string]model.ColumnMapping {
	byCol := make(map[string]model.ColumnMapping, len(mappings))
	for _, m := range mappings {
		col := strings.ToLower(strings.TrimSpace(m.TargetColumn))
		if col == "" {
			continue
		}
		if _, exists := byCol[col]; !exists {
			byCol[col] = m
		}
	}
	return byCol
}
