package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"migscan/internal/common"
)

var settingsPath string

func main() {
	if err := godotenv.Load(); err == nil {
		common.Logger().Debug("environment file loaded")
	}
	root := &cobra.Command{
		Use:           "migscan",
		Short:         "Cross-system migration gap analysis",
		Long:          "migscan scans a legacy Hadoop codebase and its Databricks rewrite, extracts source-to-target field mappings, matches equivalent processes, and reports the gaps between them.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&settingsPath, "settings", "", "path to a YAML settings file")
	root.AddCommand(newAnalyzeCmd(), newCompareCmd(), newServeCmd())
	if err := root.Execute(); err != nil {
		common.Logger().Error("command failed", "error", err)
		os.Exit(1)
	}
}
