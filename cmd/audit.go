package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/drift-audit/internal/model"
)

var (
	auditPDF     string
	auditCompany string
	auditOut     string
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit a single BRSR report",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if auditOut != "" {
			cfg.Report.OutputDir = auditOut
		}

		env, err := initPipeline(ctx, "audit")
		if err != nil {
			return err
		}
		defer env.Close()

		rep, err := env.Pipeline.Run(ctx, auditPDF, auditCompany)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("audit complete",
			zap.String("run_id", rep.RunID),
			zap.Int("metrics", len(rep.Records)),
			zap.Float64("cost_usd", rep.Usage.Cost),
		)

		return writeSummary(os.Stdout, rep)
	},
}

// auditSummary is the stdout view of a finished audit.
type auditSummary struct {
	RunID    string            `json:"run_id"`
	Company  string            `json:"company,omitempty"`
	Document string            `json:"document"`
	Cached   bool              `json:"extraction_cached"`
	Summary  []model.BandCount `json:"summary"`
	Metrics  []metricSummary   `json:"metrics"`
	Usage    model.TokenUsage  `json:"usage"`
}

type metricSummary struct {
	Metric        string           `json:"metric"`
	Claim         string           `json:"claim"`
	Score         model.DriftScore `json:"drift_score"`
	Justification string           `json:"justification"`
}

func writeSummary(w io.Writer, rep *model.AuditReport) error {
	s := auditSummary{
		RunID:    rep.RunID,
		Company:  rep.Document.Company,
		Document: rep.Document.Path,
		Cached:   rep.ExtractionCached,
		Summary:  rep.Summary,
		Usage:    rep.Usage,
	}
	for _, r := range rep.Records {
		s.Metrics = append(s.Metrics, metricSummary{
			Metric:        r.Metric.Name,
			Claim:         r.Metric.Claim(),
			Score:         r.Score,
			Justification: r.Justification,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func init() {
	auditCmd.Flags().StringVar(&auditPDF, "pdf", "", "path to the BRSR PDF (required)")
	auditCmd.Flags().StringVar(&auditCompany, "company", "", "company name")
	auditCmd.Flags().StringVar(&auditOut, "out", "", "output directory (overrides report.output_dir)")
	_ = auditCmd.MarkFlagRequired("pdf")
	rootCmd.AddCommand(auditCmd)
}
