package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"migscan/internal/catalog"
	"migscan/internal/common"
	"migscan/internal/config"
	"migscan/internal/extract"
	"migscan/internal/gap"
	"migscan/internal/llm"
	"migscan/internal/match"
	"migscan/internal/model"
	"migscan/internal/parser"
	"migscan/internal/report"
	"migscan/internal/sttm"
)

func newCompareCmd() *cobra.Command {
	var (
		sourceRoot   string
		targetRoot   string
		sourceSystem string
		targetSystem string
		out          string
		sttmDir      string
		jsonPath     string
		dbPath       string
	)
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare two repositories and report the migration gaps",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sourceRoot == "" || targetRoot == "" {
				return fmt.Errorf("--source and --target are required")
			}
			logger := common.Logger()
			cfg, err := config.Load(settingsPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			scanner := parser.NewScanner(cfg.BusinessKeywords)

			var sources, targets []model.Process
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				processes, err := scanner.ScanRepo(gctx, sourceRoot, sourceSystem)
				sources = processes
				return err
			})
			g.Go(func() error {
				processes, err := scanner.ScanRepo(gctx, targetRoot, targetSystem)
				targets = processes
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}
			sources = filterLogged(logger, "source", sources)
			targets = filterLogged(logger, "target", targets)
			if len(sources) == 0 {
				return fmt.Errorf("no processes found under %s", sourceRoot)
			}

			extractor := extract.New(llm.NewProvider(), cfg)
			sourceMappings := extractor.Extract(ctx, sources)
			targetMappings := extractor.Extract(ctx, targets)

			matches := match.NewMatcher(cfg).Match(sources, targets)
			gaps := gap.NewAnalyzer(cfg).Analyze(sources, targets, matches, sourceMappings, targetMappings)
			coverage := gap.Summarize(matches)
			crossRows := sttm.CrossSystem(matches, sourceMappings, targetMappings)

			if out != "" {
				comparison := report.Comparison{
					SourceSystem: sourceSystem,
					TargetSystem: targetSystem,
					Coverage:     coverage,
					Matches:      matches,
					Gaps:         gaps,
					CrossRows:    crossRows,
					Sources:      sources,
					Targets:      targets,
				}
				if err := report.WriteComparison(out, comparison); err != nil {
					return err
				}
			}
			if sttmDir != "" {
				if len(sourceMappings) > 0 {
					if err := report.WriteSTTM(filepath.Join(sttmDir, sourceSystem+"_sttm.xlsx"), sourceMappings); err != nil {
						return err
					}
				}
				if len(targetMappings) > 0 {
					if err := report.WriteSTTM(filepath.Join(sttmDir, targetSystem+"_sttm.xlsx"), targetMappings); err != nil {
						return err
					}
				}
			}

			runID := catalog.NewRunID()
			if jsonPath != "" {
				artifact := report.Artifact{
					RunID:          runID,
					SourceSystem:   sourceSystem,
					TargetSystem:   targetSystem,
					Coverage:       coverage,
					Processes:      append(append([]model.Process(nil), sources...), targets...),
					Matches:        matches,
					Gaps:           gaps,
					SourceMappings: sourceMappings,
					TargetMappings: targetMappings,
				}
				if err := report.WriteJSON(jsonPath, artifact); err != nil {
					return err
				}
			}
			if dbPath != "" {
				store, err := catalog.Open(dbPath)
				if err != nil {
					return err
				}
				defer store.Close()
				record := catalog.RunRecord{
					ID:           runID,
					SourceRoot:   sourceRoot,
					TargetRoot:   targetRoot,
					SourceSystem: sourceSystem,
					TargetSystem: targetSystem,
					Coverage:     coverage,
					Settings:     cfg,
					Processes:    append(append([]model.Process(nil), sources...), targets...),
					Matches:      matches,
					Gaps:         gaps,
					Mappings: map[string][]model.ColumnMapping{
						sourceSystem: sourceMappings,
						targetSystem: targetMappings,
					},
				}
				if err := store.SaveRun(ctx, record); err != nil {
					return err
				}
				logger.Info("run persisted", "run_id", runID, "db", dbPath)
			}
			logger.Info("compare finished",
				"run_id", runID,
				"covered_pct", fmt.Sprintf("%.1f", coverage.CoveredPct),
				"gaps", len(gaps))
			return nil
		},
	}
	cmd.Flags().StringVar(&sourceRoot, "source", "", "source repository root")
	cmd.Flags().StringVar(&targetRoot, "target", "", "target repository root")
	cmd.Flags().StringVar(&sourceSystem, "source-system", "hadoop", "source system tag")
	cmd.Flags().StringVar(&targetSystem, "target-system", "databricks", "target system tag")
	cmd.Flags().StringVar(&out, "out", "comparison.xlsx", "comparison workbook path")
	cmd.Flags().StringVar(&sttmDir, "sttm-dir", "", "directory for per-system mapping workbooks")
	cmd.Flags().StringVar(&jsonPath, "json", "", "optional JSON artifact path")
	cmd.Flags().StringVar(&dbPath, "db", "", "optional catalog database path")
	return cmd
}

func filterLogged(logger *slog.Logger, side string, processes []model.Process) []model.Process {
	valid, rejected := model.FilterValid(processes)
	for _, reason := range rejected {
		logger.Warn("compare: process rejected", "side", side, "reason", reason)
	}
	return valid
}
