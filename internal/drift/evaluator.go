package drift

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/drift-audit/internal/config"
	"github.com/sells-group/drift-audit/internal/ingest"
	"github.com/sells-group/drift-audit/internal/mandate"
	"github.com/sells-group/drift-audit/internal/model"
	"github.com/sells-group/drift-audit/pkg/nli"
)

const (
	defaultPassageChars = 1500
	excerptChars        = 80
)

// Evaluator assigns a DriftRecord to each extracted metric.
type Evaluator struct {
	classifier   nli.Client
	scorer       Scorer
	mandates     mandate.Catalog
	relevance    bool
	passageChars int
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(classifier nli.Client, mandates mandate.Catalog, cfg config.EvaluateConfig) *Evaluator {
	if mandates == nil {
		mandates = mandate.Default()
	}
	passage := cfg.PassageChars
	if passage <= 0 {
		passage = defaultPassageChars
	}
	return &Evaluator{
		classifier:   classifier,
		scorer:       NewScorer(cfg.EntailmentThreshold),
		mandates:     mandates,
		relevance:    cfg.Relevance,
		passageChars: passage,
	}
}

// EvaluateAll scores metrics in order, one at a time. The first classifier
// failure aborts the evaluation.
func (e *Evaluator) EvaluateAll(ctx context.Context, doc model.Document, metrics []model.ExtractedMetric) ([]model.DriftRecord, error) {
	records := make([]model.DriftRecord, 0, len(metrics))
	for _, m := range metrics {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "drift: evaluate")
		}
		rec, err := e.Evaluate(ctx, doc, m)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Evaluate scores one metric against its cited page and category mandate.
func (e *Evaluator) Evaluate(ctx context.Context, doc model.Document, m model.ExtractedMetric) (model.DriftRecord, error) {
	mandateText, _ := e.mandates.Statement(m.Category)
	rec := model.DriftRecord{Metric: m, Mandate: mandateText}
	claim := m.Claim()

	pageText, pageOK := doc.PageText(m.Page)
	switch {
	case m.Value == nil || !m.HasCitation():
		rec.Score, rec.Label, rec.Confidence = model.DriftDrifted, model.LabelMissing, 1
		rec.Justification = fmt.Sprintf("MISSING: no supporting quotation and page citation for %s.", m.DisplayName())

	case !pageOK:
		rec.Score, rec.Label, rec.Confidence = model.DriftDrifted, model.LabelMissing, 1
		rec.Justification = fmt.Sprintf("MISSING: cited page %d is not in the document.", m.Page)

	case ingest.SameText(mandateText, m.Quote):
		rec.Score, rec.Label, rec.Confidence = model.DriftFaithful, model.LabelVerbatim, 1
		rec.Premise = m.Quote
		rec.Justification = fmt.Sprintf("STRONG EVIDENCE: quotation matches the mandate statement verbatim: %q.", excerpt(m.Quote))

	case ingest.ContainsQuote(pageText, m.Quote) && quoteStatesValue(m.Quote, *m.Value):
		rec.Score, rec.Label, rec.Confidence = model.DriftFaithful, model.LabelVerbatim, 1
		rec.Premise = m.Quote
		rec.Justification = fmt.Sprintf("STRONG EVIDENCE: quotation found verbatim on page %d: %q.", m.Page, excerpt(m.Quote))

	default:
		premise := findPassage(model.Page{Number: m.Page, Text: pageText}, m.Quote, claim, e.passageChars)
		source := fmt.Sprintf("page %d", m.Page)
		if premise == "" {
			premise, source = mandateText, "the mandate"
		}
		if premise == "" {
			return rec, eris.Errorf("drift: no premise for %s", m.Name)
		}

		preds, err := e.classifier.Classify(ctx, premise, claim)
		if err != nil {
			return rec, eris.Wrapf(err, "drift: classify %s", m.Name)
		}
		v, err := e.scorer.Score(preds)
		if err != nil {
			return rec, eris.Wrapf(err, "drift: score %s", m.Name)
		}
		rec.Score, rec.Label, rec.Confidence = v.Score, v.Label, v.Confidence
		rec.Premise = premise
		rec.Justification = justify(v, source, m.Quote)
	}

	if e.relevance && m.Quote != "" && mandateText != "" {
		rel, err := e.relevanceOf(ctx, mandateText, m.Quote)
		if err != nil {
			return rec, err
		}
		rec.Relevance = &rel
	}

	zap.L().Debug("drift: metric scored",
		zap.String("metric", m.Name),
		zap.Int("drift_score", int(rec.Score)),
		zap.String("label", string(rec.Label)),
		zap.Float64("confidence", rec.Confidence),
	)
	return rec, nil
}

// ScorePair scores an arbitrary (premise, claim) pair. Identical texts score
// 0 without a classifier call; anything else, including a claim that is only
// a fragment of the premise, goes to the classifier.
func (e *Evaluator) ScorePair(ctx context.Context, premise, claim string) (Verdict, error) {
	if ingest.SameText(premise, claim) {
		return Verdict{Score: model.DriftFaithful, Label: model.LabelVerbatim, Confidence: 1}, nil
	}
	preds, err := e.classifier.Classify(ctx, premise, claim)
	if err != nil {
		return Verdict{}, eris.Wrap(err, "drift: classify pair")
	}
	return e.scorer.Score(preds)
}

func (e *Evaluator) relevanceOf(ctx context.Context, mandateText, quote string) (float64, error) {
	vecs, err := e.classifier.Embed(ctx, []string{mandateText, quote})
	if err != nil {
		return 0, eris.Wrap(err, "drift: relevance embeddings")
	}
	if len(vecs) != 2 {
		return 0, eris.Errorf("drift: relevance embeddings: got %d vectors", len(vecs))
	}
	return nli.Cosine(vecs[0], vecs[1]), nil
}

func justify(v Verdict, source, quote string) string {
	var head string
	switch v.Score {
	case model.DriftFaithful:
		head = fmt.Sprintf("STRONG EVIDENCE: %s entails the claim (p=%.2f)", source, v.Confidence)
	case model.DriftParaphrased:
		head = fmt.Sprintf("PLAUSIBLE PARAPHRASE: %s weakly entails the claim (p=%.2f)", source, v.Confidence)
	case model.DriftAbstract:
		head = fmt.Sprintf("PARTIAL EVIDENCE: %s neither supports nor contradicts the claim (p=%.2f)", source, v.Confidence)
	default:
		head = fmt.Sprintf("CONTRADICTED: %s contradicts the claim (p=%.2f)", source, v.Confidence)
	}
	if quote == "" {
		return head + "."
	}
	return fmt.Sprintf("%s; cited: %q.", head, excerpt(quote))
}

func excerpt(s string) string {
	s = ingest.Normalize(s)
	if utf8.RuneCountInString(s) <= excerptChars {
		return s
	}
	r := []rune(s)
	return string(r[:excerptChars]) + "..."
}
