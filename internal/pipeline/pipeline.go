package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/drift-audit/internal/config"
	"github.com/sells-group/drift-audit/internal/drift"
	"github.com/sells-group/drift-audit/internal/ingest"
	"github.com/sells-group/drift-audit/internal/mandate"
	"github.com/sells-group/drift-audit/internal/model"
	"github.com/sells-group/drift-audit/internal/pdf"
	"github.com/sells-group/drift-audit/internal/report"
	"github.com/sells-group/drift-audit/internal/store"
	"github.com/sells-group/drift-audit/pkg/anthropic"
	"github.com/sells-group/drift-audit/pkg/nli"
)

// Pipeline runs load → extract → evaluate → report for one document at a
// time. It is safe for concurrent use when its clients are.
type Pipeline struct {
	cfg       *config.Config
	store     store.Store
	pages     pdf.Extractor
	extractor *ingest.Extractor
	evaluator *drift.Evaluator
	reporter  *report.Reporter
}

// New creates a Pipeline. The store doubles as the extraction cache.
func New(
	cfg *config.Config,
	st store.Store,
	pages pdf.Extractor,
	aiClient anthropic.Client,
	classifier nli.Client,
	mandates mandate.Catalog,
) *Pipeline {
	var cache ingest.Cache
	if st != nil {
		cache = st
	}
	return &Pipeline{
		cfg:       cfg,
		store:     st,
		pages:     pages,
		extractor: ingest.NewExtractor(aiClient, cache, cfg.Anthropic, cfg.Ingest),
		evaluator: drift.NewEvaluator(classifier, mandates, cfg.Evaluate),
		reporter:  report.New(cfg.Report),
	}
}

// Evaluator returns the pipeline's drift evaluator.
func (p *Pipeline) Evaluator() *drift.Evaluator {
	return p.evaluator
}

// Run audits the PDF at pdfPath. The run record tracks each stage. On failure
// the run is marked failed with the error text and the error is returned.
func (p *Pipeline) Run(ctx context.Context, pdfPath, company string) (*model.AuditReport, error) {
	log := zap.L().With(zap.String("pdf", pdfPath), zap.String("company", company))
	start := time.Now()

	doc, err := describe(pdfPath, company)
	if err != nil {
		return nil, err
	}

	run, err := p.store.CreateRun(ctx, doc)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	log = log.With(zap.String("run_id", run.ID))
	log.Info("pipeline: run created", zap.String("sha256", doc.SHA256))

	rep, err := p.run(ctx, log, run.ID, doc)
	if err != nil {
		log.Error("pipeline: run failed", zap.Error(err))
		if failErr := p.store.FailRun(context.WithoutCancel(ctx), run.ID, err); failErr != nil {
			log.Warn("pipeline: failed to mark run failed", zap.Error(failErr))
		}
		return nil, err
	}

	log.Info("pipeline: run complete",
		zap.Int("metrics", len(rep.Records)),
		zap.Int("drift_3", rep.Count(model.DriftDrifted)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return rep, nil
}

func (p *Pipeline) run(ctx context.Context, log *zap.Logger, runID string, doc model.Document) (*model.AuditReport, error) {
	p.setStatus(ctx, log, runID, model.RunStatusIngesting)
	doc, ext, err := p.ingest(ctx, log, doc)
	if err != nil {
		return nil, err
	}

	p.setStatus(ctx, log, runID, model.RunStatusEvaluating)
	records, err := p.evaluator.EvaluateAll(ctx, doc, ext.Metrics())
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: evaluate")
	}

	p.setStatus(ctx, log, runID, model.RunStatusReporting)
	rep := report.Build(runID, doc, records, ext, ext.Usage)

	dir := filepath.Join(p.cfg.Report.OutputDir, runID)
	paths, err := p.reporter.WriteAll(ctx, dir, rep)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: write report")
	}

	result := &model.RunResult{
		Metrics:     len(records),
		Summary:     rep.Summary,
		Records:     records,
		Artifacts:   paths,
		TotalTokens: rep.Usage.InputTokens + rep.Usage.OutputTokens,
		TotalCost:   rep.Usage.Cost,
	}
	if err := p.store.UpdateRunResult(ctx, runID, result); err != nil {
		return nil, eris.Wrap(err, "pipeline: save result")
	}
	return rep, nil
}

// Extract loads the PDF and runs the extraction stage only. No run record is
// created, but the extraction cache is still used.
func (p *Pipeline) Extract(ctx context.Context, pdfPath, company string) (model.Document, *ingest.Extraction, error) {
	doc, err := describe(pdfPath, company)
	if err != nil {
		return model.Document{}, nil, err
	}
	return p.ingest(ctx, zap.L().With(zap.String("pdf", pdfPath), zap.String("company", company)), doc)
}

func (p *Pipeline) ingest(ctx context.Context, log *zap.Logger, doc model.Document) (model.Document, *ingest.Extraction, error) {
	pages, err := p.pages.ExtractPages(ctx, doc.Path)
	if err != nil {
		return doc, nil, eris.Wrap(err, "pipeline: load pdf")
	}
	doc.Pages = pages
	log.Info("pipeline: document loaded", zap.Int("pages", len(pages)))

	ext, err := p.extractor.Extract(ctx, doc)
	if err != nil {
		return doc, nil, eris.Wrap(err, "pipeline: extract")
	}
	return doc, ext, nil
}

func (p *Pipeline) setStatus(ctx context.Context, log *zap.Logger, runID string, status model.RunStatus) {
	if err := p.store.UpdateRunStatus(ctx, runID, status); err != nil {
		log.Warn("pipeline: failed to update status", zap.String("status", string(status)), zap.Error(err))
	}
}

// describe returns the document header for pdfPath: its path, company and
// content hash.
func describe(pdfPath, company string) (model.Document, error) {
	sum, err := fileSHA256(pdfPath)
	if err != nil {
		return model.Document{}, err
	}
	return model.Document{Path: pdfPath, Company: company, SHA256: sum}, nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", eris.Wrapf(err, "pipeline: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", eris.Wrapf(err, "pipeline: hash %s", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
