package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/drift-audit/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "drift-audit",
	Short: "Faithfulness audit for BRSR sustainability disclosures",
	Long:  "Extracts Principle 6 environmental metrics from BRSR PDFs with Claude, scores each claim's drift from its cited source and mandate with a local NLI model, and writes colour-coded audit reports.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
