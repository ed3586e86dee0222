package main

import (
	"context"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/drift-audit/internal/model"
)

var batchLimit int

var batchCmd = &cobra.Command{
	Use:   "batch <pdf>...",
	Short: "Audit many BRSR reports",
	Long:  "Audits each PDF in its own run. Company names default to the file name. A failed document is logged and does not stop the batch.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "audit")
		if err != nil {
			return err
		}
		defer env.Close()

		failed, err := processBatch(ctx, args, batchLimit, cfg.Batch.MaxConcurrentDocuments, env.Pipeline.Run)
		if err != nil {
			return err
		}
		if failed > 0 {
			return eris.Errorf("batch: %d of %d documents failed", failed, limitOr(batchLimit, len(args)))
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().IntVar(&batchLimit, "limit", 100, "max number of documents to process")
	rootCmd.AddCommand(batchCmd)
}

// auditFunc is the callback signature for auditing one document.
type auditFunc func(ctx context.Context, pdfPath, company string) (*model.AuditReport, error)

// processBatch applies limit, then audits documents concurrently with at most
// concurrency in flight. It returns the number of failed documents.
func processBatch(ctx context.Context, pdfs []string, limit, concurrency int, audit auditFunc) (int, error) {
	if len(pdfs) == 0 {
		zap.L().Info("no documents to audit")
		return 0, nil
	}

	pdfs = pdfs[:limitOr(limit, len(pdfs))]
	if concurrency < 1 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("documents", len(pdfs)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for _, path := range pdfs {
		company := companyFromPath(path)
		g.Go(func() error {
			log := zap.L().With(zap.String("pdf", path))

			rep, err := audit(gctx, path, company)
			if err != nil {
				failed.Add(1)
				log.Error("audit failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			log.Info("audit complete",
				zap.String("run_id", rep.RunID),
				zap.Int("drift_3", rep.Count(model.DriftDrifted)),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(failed.Load()), eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return int(failed.Load()), nil
}

func limitOr(limit, n int) int {
	if limit > 0 && limit < n {
		return limit
	}
	return n
}

// companyFromPath derives a company name from a file name such as
// "acme-steel_brsr-2024.pdf" → "acme steel brsr 2024".
func companyFromPath(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.Join(strings.FieldsFunc(stem, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	}), " ")
}
