package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"migscan/internal/common"
	"migscan/internal/config"
	"migscan/internal/extract"
	"migscan/internal/llm"
	"migscan/internal/model"
	"migscan/internal/parser"
	"migscan/internal/report"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		repo     string
		system   string
		out      string
		jsonPath string
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Scan one repository and extract its field mappings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if repo == "" {
				return fmt.Errorf("--repo is required")
			}
			logger := common.Logger()
			cfg, err := config.Load(settingsPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			scanner := parser.NewScanner(cfg.BusinessKeywords)
			processes, err := scanner.ScanRepo(ctx, repo, system)
			if err != nil {
				return err
			}
			processes, rejected := model.FilterValid(processes)
			for _, reason := range rejected {
				logger.Warn("analyze: process rejected", "reason", reason)
			}
			if len(processes) == 0 {
				return fmt.Errorf("no processes found under %s", repo)
			}
			extractor := extract.New(llm.NewProvider(), cfg)
			mappings := extractor.Extract(ctx, processes)
			if out != "" {
				if err := report.WriteSTTM(out, mappings); err != nil {
					return err
				}
			}
			if jsonPath != "" {
				artifact := report.Artifact{
					SourceSystem:   system,
					Processes:      processes,
					SourceMappings: mappings,
				}
				if err := report.WriteJSON(jsonPath, artifact); err != nil {
					return err
				}
			}
			logger.Info("analyze finished", "repo", repo, "processes", len(processes), "mappings", len(mappings))
			return nil
		},
	}
	cmd.Flags().StringVar(&repo, "repo", "", "repository root to scan")
	cmd.Flags().StringVar(&system, "system", "hadoop", "system tag for the scanned repository")
	cmd.Flags().StringVar(&out, "out", "sttm.xlsx", "output workbook path")
	cmd.Flags().StringVar(&jsonPath, "json", "", "optional JSON artifact path")
	return cmd
}
