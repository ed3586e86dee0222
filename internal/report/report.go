// Package report renders an AuditReport as DOCX, XLSX, JSON and Sankey
// artifacts.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/sells-group/drift-audit/internal/config"
	"github.com/sells-group/drift-audit/internal/ingest"
	"github.com/sells-group/drift-audit/internal/model"
)

const (
	defaultTitle     = "BRSR Faithfulness Audit Report"
	defaultFocusArea = "Principle 6 (Environmental Responsibilities)"
)

// bandColors are the RGB hex fills for drift scores 0 through 3.
var bandColors = map[model.DriftScore]string{
	model.DriftFaithful:    "00B050",
	model.DriftParaphrased: "92D050",
	model.DriftAbstract:    "FFA500",
	model.DriftDrifted:     "FF0000",
}

var bandKey = map[model.DriftScore]string{
	model.DriftFaithful:    "Faithful: verbatim or strongly entailed by the source",
	model.DriftParaphrased: "Paraphrased: entailed with low confidence",
	model.DriftAbstract:    "Abstract: neither supported nor contradicted",
	model.DriftDrifted:     "Drift: contradicted or missing citation",
}

// Color returns the fill colour for a drift score.
func Color(score model.DriftScore) string {
	if c, ok := bandColors[score]; ok {
		return c
	}
	return "FFFFFF"
}

// Reporter renders audit artifacts.
type Reporter struct {
	title     string
	focusArea string
	printer   *message.Printer
}

// New creates a Reporter from the report settings.
func New(cfg config.ReportConfig) *Reporter {
	title := cfg.Title
	if title == "" {
		title = defaultTitle
	}
	focus := cfg.FocusArea
	if focus == "" {
		focus = defaultFocusArea
	}
	return &Reporter{
		title:     title,
		focusArea: focus,
		printer:   message.NewPrinter(language.English),
	}
}

// Build assembles the AuditReport for a run. Every drift band appears in the
// summary, including empty ones. ext may be nil.
func Build(runID string, doc model.Document, records []model.DriftRecord, ext *ingest.Extraction, usage model.TokenUsage) *model.AuditReport {
	counts := make(map[model.DriftScore]int)
	for _, r := range records {
		counts[r.Score]++
	}

	summary := make([]model.BandCount, 0, len(model.AllDriftScores()))
	for _, s := range model.AllDriftScores() {
		summary = append(summary, model.BandCount{Score: s, Band: s.Band(), Count: counts[s]})
	}

	r := &model.AuditReport{
		RunID:       runID,
		Document:    doc,
		Records:     records,
		Summary:     summary,
		Usage:       usage,
		GeneratedAt: time.Now().UTC(),
	}
	if ext != nil {
		r.Initiatives = ext.Record.OtherInitiatives
		r.ExtractionCached = ext.Cached
	}
	return r
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r *model.AuditReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return eris.Wrap(err, "report: encode json")
	}
	return nil
}

// formatValue renders a metric value with digit grouping, e.g. "1,200 tCO2e".
func (rp *Reporter) formatValue(m model.ExtractedMetric) string {
	if m.Value == nil {
		return "Not disclosed"
	}
	s := rp.printer.Sprintf("%v", number.Decimal(*m.Value, number.MaxFractionDigits(4)))
	if m.Unit != "" {
		s += " " + m.Unit
	}
	return s
}

func (rp *Reporter) disclosure(m model.ExtractedMetric) string {
	s := rp.formatValue(m)
	if m.Page > 0 {
		s += fmt.Sprintf(" (p.%d)", m.Page)
	}
	return s
}

func evidence(rec model.DriftRecord) string {
	if rec.Metric.Quote == "" {
		return rec.Justification
	}
	return "“" + ingest.Normalize(rec.Metric.Quote) + "”\n" + rec.Justification
}

// artifactBase returns the file stem shared by every artifact of a report.
func artifactBase(r *model.AuditReport) string {
	stem := strings.TrimSuffix(filepath.Base(r.Document.Path), filepath.Ext(r.Document.Path))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		stem = r.RunID
	}
	if stem == "" {
		stem = "audit"
	}
	return strings.Map(func(c rune) rune {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			return c
		default:
			return '_'
		}
	}, stem)
}
