package report

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/drift-audit/internal/model"
)

// WriteXLSX writes the drift dashboard and band summary as a workbook. Drift
// cells are filled with the band colour.
func (rp *Reporter) WriteXLSX(w io.Writer, r *model.AuditReport) error {
	f := xlsx.NewFile()

	dash, err := f.AddSheet("Dashboard")
	if err != nil {
		return eris.Wrap(err, "report: add dashboard sheet")
	}
	addHeader(dash, "Category", "Metric", "Mandate", "Value", "Unit", "Page", "Quote", "Label", "Confidence", "Justification", "Drift")

	for _, rec := range r.Records {
		row := dash.AddRow()
		row.AddCell().SetString(rec.Metric.Category.Label())
		row.AddCell().SetString(rec.Metric.DisplayName())
		row.AddCell().SetString(rec.Mandate)
		if rec.Metric.Value != nil {
			row.AddCell().SetFloat(*rec.Metric.Value)
		} else {
			row.AddCell().SetString("")
		}
		row.AddCell().SetString(rec.Metric.Unit)
		if rec.Metric.Page > 0 {
			row.AddCell().SetInt(rec.Metric.Page)
		} else {
			row.AddCell().SetString("")
		}
		row.AddCell().SetString(rec.Metric.Quote)
		row.AddCell().SetString(string(rec.Label))
		row.AddCell().SetFloat(rec.Confidence)
		row.AddCell().SetString(rec.Justification)

		drift := row.AddCell()
		drift.SetInt(int(rec.Score))
		drift.SetStyle(fillStyle(Color(rec.Score)))
	}

	sum, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}
	addHeader(sum, "Drift", "Band", "Count", "Meaning")
	for _, b := range r.Summary {
		row := sum.AddRow()
		c := row.AddCell()
		c.SetInt(int(b.Score))
		c.SetStyle(fillStyle(Color(b.Score)))
		row.AddCell().SetString(b.Band)
		row.AddCell().SetInt(b.Count)
		row.AddCell().SetString(bandKey[b.Score])
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "report: write xlsx")
	}
	return nil
}

func addHeader(sheet *xlsx.Sheet, names ...string) {
	style := xlsx.NewStyle()
	style.Font.Bold = true
	style.ApplyFont = true

	row := sheet.AddRow()
	for _, n := range names {
		c := row.AddCell()
		c.SetString(n)
		c.SetStyle(style)
	}
}

func fillStyle(rgb string) *xlsx.Style {
	style := xlsx.NewStyle()
	style.Fill = *xlsx.NewFill("solid", "FF"+rgb, "FF"+rgb)
	style.ApplyFill = true
	return style
}
