package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/drift-audit/internal/model"
)

var (
	extractPDF     string
	extractCompany string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract Principle 6 metrics from a report without scoring",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx, "extract")
		if err != nil {
			return err
		}
		defer env.Close()

		doc, ext, err := env.Pipeline.Extract(ctx, extractPDF, extractCompany)
		if err != nil {
			return eris.Wrap(err, "extract")
		}

		out := struct {
			Document    model.Document          `json:"document"`
			Pages       int                     `json:"pages"`
			Chunks      int                     `json:"chunks"`
			Cached      bool                    `json:"cached"`
			Metrics     []model.ExtractedMetric `json:"metrics"`
			Initiatives []string                `json:"other_initiatives"`
			Usage       model.TokenUsage        `json:"usage"`
		}{
			Document:    doc,
			Pages:       doc.PageCount(),
			Chunks:      len(ext.Chunks),
			Cached:      ext.Cached,
			Metrics:     ext.Metrics(),
			Initiatives: ext.Record.OtherInitiatives,
			Usage:       ext.Usage,
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractPDF, "pdf", "", "path to the BRSR PDF (required)")
	extractCmd.Flags().StringVar(&extractCompany, "company", "", "company name")
	_ = extractCmd.MarkFlagRequired("pdf")
	rootCmd.AddCommand(extractCmd)
}
