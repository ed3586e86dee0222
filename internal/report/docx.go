package report

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"
	"text/template"

	"github.com/rotisserie/eris"

	"github.com/sells-group/drift-audit/internal/model"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

var documentTmpl = template.Must(template.New("document").Funcs(template.FuncMap{
	"x":     escapeXML,
	"color": Color,
}).Parse(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:rPr><w:b/><w:sz w:val="36"/></w:rPr><w:t>{{x .Title}}</w:t></w:r></w:p>
{{range .Meta}}<w:p><w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">{{x .Key}}: </w:t></w:r><w:r><w:t xml:space="preserve">{{x .Value}}</w:t></w:r></w:p>
{{end}}
<w:p><w:pPr><w:spacing w:before="240"/></w:pPr><w:r><w:rPr><w:b/><w:sz w:val="28"/></w:rPr><w:t>Summary</w:t></w:r></w:p>
{{range .Summary}}<w:p><w:r><w:t xml:space="preserve">Drift {{.Score}} ({{x .Band}}): {{.Count}}</w:t></w:r></w:p>
{{end}}
<w:p><w:pPr><w:spacing w:before="240"/></w:pPr><w:r><w:rPr><w:b/><w:sz w:val="28"/></w:rPr><w:t>Drift Dashboard</w:t></w:r></w:p>
<w:tbl>
<w:tblPr><w:tblStyle w:val="TableGrid"/><w:tblW w:w="5000" w:type="pct"/><w:tblBorders><w:top w:val="single" w:sz="4"/><w:left w:val="single" w:sz="4"/><w:bottom w:val="single" w:sz="4"/><w:right w:val="single" w:sz="4"/><w:insideH w:val="single" w:sz="4"/><w:insideV w:val="single" w:sz="4"/></w:tblBorders></w:tblPr>
<w:tr>{{range .Headers}}<w:tc><w:tcPr><w:shd w:val="clear" w:color="auto" w:fill="D9D9D9"/></w:tcPr><w:p><w:r><w:rPr><w:b/></w:rPr><w:t>{{x .}}</w:t></w:r></w:p></w:tc>{{end}}</w:tr>
{{range .Rows}}<w:tr>
<w:tc><w:p><w:r><w:t xml:space="preserve">{{x .Metric}}</w:t></w:r></w:p></w:tc>
<w:tc><w:p><w:r><w:t xml:space="preserve">{{x .Mandate}}</w:t></w:r></w:p></w:tc>
<w:tc><w:p><w:r><w:t xml:space="preserve">{{x .Disclosure}}</w:t></w:r></w:p></w:tc>
<w:tc>{{range .Evidence}}<w:p><w:r><w:t xml:space="preserve">{{x .}}</w:t></w:r></w:p>{{end}}</w:tc>
<w:tc><w:tcPr><w:shd w:val="clear" w:color="auto" w:fill="{{color .Score}}"/></w:tcPr><w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:rPr><w:b/></w:rPr><w:t>{{.Score}}</w:t></w:r></w:p></w:tc>
</w:tr>
{{end}}</w:tbl>
<w:p><w:pPr><w:spacing w:before="240"/></w:pPr><w:r><w:rPr><w:b/><w:sz w:val="28"/></w:rPr><w:t>Drift Key</w:t></w:r></w:p>
<w:tbl>
<w:tblPr><w:tblW w:w="5000" w:type="pct"/></w:tblPr>
{{range .Key}}<w:tr><w:tc><w:tcPr><w:tcW w:w="800" w:type="dxa"/><w:shd w:val="clear" w:color="auto" w:fill="{{color .Score}}"/></w:tcPr><w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:t>{{.Score}}</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t xml:space="preserve">{{x .Text}}</w:t></w:r></w:p></w:tc></w:tr>
{{end}}</w:tbl>
{{if .Initiatives}}<w:p><w:pPr><w:spacing w:before="240"/></w:pPr><w:r><w:rPr><w:b/><w:sz w:val="28"/></w:rPr><w:t>Other Initiatives</w:t></w:r></w:p>
{{range .Initiatives}}<w:p><w:r><w:t xml:space="preserve">• {{x .}}</w:t></w:r></w:p>
{{end}}{{end}}
<w:p><w:pPr><w:spacing w:before="240"/></w:pPr><w:r><w:rPr><w:b/><w:sz w:val="28"/></w:rPr><w:t>Drift Flow</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">{{x .SankeyNote}}</w:t></w:r></w:p>
<w:sectPr><w:pgSz w:w="16838" w:h="11906" w:orient="landscape"/><w:pgMar w:top="1000" w:right="1000" w:bottom="1000" w:left="1000"/></w:sectPr>
</w:body>
</w:document>
`))

type docxMeta struct {
	Key, Value string
}

type docxRow struct {
	Metric     string
	Mandate    string
	Disclosure string
	Evidence   []string
	Score      model.DriftScore
}

type docxKey struct {
	Score model.DriftScore
	Text  string
}

type docxData struct {
	Title       string
	Meta        []docxMeta
	Summary     []model.BandCount
	Headers     []string
	Rows        []docxRow
	Key         []docxKey
	Initiatives []string
	SankeyNote  string
}

var dashboardHeaders = []string{"Metric", "Mandate", "Disclosure", "Evidence & Justification", "Drift"}

// WriteDOCX writes the report as a WordprocessingML package.
func (rp *Reporter) WriteDOCX(w io.Writer, r *model.AuditReport) error {
	var doc bytes.Buffer
	if err := documentTmpl.Execute(&doc, rp.docxData(r)); err != nil {
		return eris.Wrap(err, "report: render docx")
	}

	zw := zip.NewWriter(w)
	parts := []struct {
		name string
		body []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(relsXML)},
		{"word/document.xml", doc.Bytes()},
	}
	for _, p := range parts {
		f, err := zw.Create(p.name)
		if err != nil {
			return eris.Wrapf(err, "report: create docx part %s", p.name)
		}
		if _, err := f.Write(p.body); err != nil {
			return eris.Wrapf(err, "report: write docx part %s", p.name)
		}
	}
	if err := zw.Close(); err != nil {
		return eris.Wrap(err, "report: close docx")
	}
	return nil
}

func (rp *Reporter) docxData(r *model.AuditReport) docxData {
	company := r.Document.Company
	if company == "" {
		company = "Unknown"
	}
	d := docxData{
		Title: rp.title,
		Meta: []docxMeta{
			{"Company", company},
			{"Focus Area", rp.focusArea},
			{"Source", r.Document.Path},
			{"SHA-256", r.Document.SHA256},
			{"Run", r.RunID},
			{"Generated", r.GeneratedAt.Format("2006-01-02 15:04 MST")},
			{"Metrics Audited", rp.printer.Sprintf("%d", len(r.Records))},
		},
		Summary:     r.Summary,
		Headers:     dashboardHeaders,
		Initiatives: r.Initiatives,
		SankeyNote:  "The requirement to disclosure to drift flow is rendered in " + artifactBase(r) + "_sankey.svg and " + artifactBase(r) + "_sankey.html.",
	}
	for _, rec := range r.Records {
		d.Rows = append(d.Rows, docxRow{
			Metric:     rec.Metric.DisplayName(),
			Mandate:    rec.Mandate,
			Disclosure: rp.disclosure(rec.Metric),
			Evidence:   strings.Split(evidence(rec), "\n"),
			Score:      rec.Score,
		})
	}
	for _, s := range model.AllDriftScores() {
		d.Key = append(d.Key, docxKey{Score: s, Text: bandKey[s]})
	}
	return d
}

func escapeXML(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return ""
	}
	return b.String()
}
