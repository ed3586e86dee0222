package report

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/drift-audit/internal/config"
	"github.com/sells-group/drift-audit/internal/ingest"
	"github.com/sells-group/drift-audit/internal/model"
)

func ptr(v float64) *float64 { return &v }

func testRecords() []model.DriftRecord {
	return []model.DriftRecord{
		{
			Metric:        model.ExtractedMetric{Name: "scope_1_emissions", Category: model.CategoryEmissions, Value: ptr(1200), Unit: "tCO2e", Quote: "Scope 1 emissions 1,200 tCO2e", Page: 42},
			Score:         model.DriftFaithful,
			Label:         model.LabelVerbatim,
			Confidence:    1,
			Mandate:       "Report Scope 1 & 2 GHG emissions (Metric Tonnes CO2e).",
			Justification: "STRONG EVIDENCE: quotation found verbatim on page 42.",
		},
		{
			Metric:        model.ExtractedMetric{Name: "scope_2_emissions", Category: model.CategoryEmissions, Unit: "tCO2e"},
			Score:         model.DriftDrifted,
			Label:         model.LabelMissing,
			Confidence:    1,
			Mandate:       "Report Scope 1 & 2 GHG emissions (Metric Tonnes CO2e).",
			Justification: "MISSING: no supporting quotation and page citation for Scope 2 emissions.",
		},
		{
			Metric:        model.ExtractedMetric{Name: "total_water_consumed", Category: model.CategoryWater, Value: ptr(56000), Unit: "kL", Quote: "56,000 kilolitres", Page: 43},
			Score:         model.DriftParaphrased,
			Label:         model.LabelEntailment,
			Confidence:    0.62,
			Mandate:       "Disclose total water consumption and intensity/turnover.",
			Justification: "PLAUSIBLE PARAPHRASE: page 43 weakly entails the claim (p=0.62).",
		},
	}
}

func testReport() *model.AuditReport {
	doc := model.Document{Path: "/tmp/acme steel brsr.pdf", Company: "Acme <Steel>", SHA256: "abc123"}
	ext := &ingest.Extraction{
		Record: model.DisclosureRecord{OtherInitiatives: []string{"Solar rooftop 5 MW", "Zero liquid discharge"}},
		Cached: true,
	}
	return Build("run-1", doc, testRecords(), ext, model.TokenUsage{InputTokens: 100, OutputTokens: 20, Cost: 0.01})
}

func TestBuild(t *testing.T) {
	r := testReport()

	assert.Equal(t, "run-1", r.RunID)
	require.Len(t, r.Summary, 4)
	assert.Equal(t, 1, r.Count(model.DriftFaithful))
	assert.Equal(t, 1, r.Count(model.DriftParaphrased))
	assert.Equal(t, 0, r.Count(model.DriftAbstract))
	assert.Equal(t, 1, r.Count(model.DriftDrifted))
	assert.Equal(t, "abstract", r.Summary[2].Band)
	assert.True(t, r.ExtractionCached)
	assert.Equal(t, []string{"Solar rooftop 5 MW", "Zero liquid discharge"}, r.Initiatives)
	assert.False(t, r.GeneratedAt.IsZero())
}

func TestBuild_NilExtraction(t *testing.T) {
	r := Build("run-2", model.Document{}, nil, nil, model.TokenUsage{})
	require.Len(t, r.Summary, 4)
	for _, b := range r.Summary {
		assert.Zero(t, b.Count)
	}
	assert.False(t, r.ExtractionCached)
	assert.Nil(t, r.Initiatives)
}

func TestColor(t *testing.T) {
	assert.Equal(t, "00B050", Color(model.DriftFaithful))
	assert.Equal(t, "92D050", Color(model.DriftParaphrased))
	assert.Equal(t, "FFA500", Color(model.DriftAbstract))
	assert.Equal(t, "FF0000", Color(model.DriftDrifted))
	assert.Equal(t, "FFFFFF", Color(model.DriftScore(9)))
}

func TestFormatValue(t *testing.T) {
	rp := New(config.ReportConfig{})
	assert.Equal(t, "1,200 tCO2e", rp.formatValue(model.ExtractedMetric{Value: ptr(1200), Unit: "tCO2e"}))
	assert.Equal(t, "67.5 %", rp.formatValue(model.ExtractedMetric{Value: ptr(67.5), Unit: "%"}))
	assert.Equal(t, "Not disclosed", rp.formatValue(model.ExtractedMetric{Unit: "kL"}))
	assert.Equal(t, "1,200 tCO2e (p.42)", rp.disclosure(model.ExtractedMetric{Value: ptr(1200), Unit: "tCO2e", Page: 42}))
}

func TestNew_Defaults(t *testing.T) {
	rp := New(config.ReportConfig{})
	assert.Equal(t, defaultTitle, rp.title)
	assert.Equal(t, defaultFocusArea, rp.focusArea)

	rp = New(config.ReportConfig{Title: "Custom", FocusArea: "Principle 3"})
	assert.Equal(t, "Custom", rp.title)
	assert.Equal(t, "Principle 3", rp.focusArea)
}

func readZipPart(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close() //nolint:errcheck
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(body)
	}
	t.Fatalf("part %s not found", name)
	return ""
}

func assertWellFormed(t *testing.T, doc string) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(doc))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return
		}
		require.NoError(t, err)
	}
}

func TestWriteDOCX(t *testing.T) {
	rp := New(config.ReportConfig{})
	var buf bytes.Buffer
	require.NoError(t, rp.WriteDOCX(&buf, testReport()))

	assert.Contains(t, readZipPart(t, buf.Bytes(), "[Content_Types].xml"), "wordprocessingml.document.main+xml")
	assert.Contains(t, readZipPart(t, buf.Bytes(), "_rels/.rels"), "word/document.xml")

	doc := readZipPart(t, buf.Bytes(), "word/document.xml")
	assertWellFormed(t, doc)

	assert.Contains(t, doc, defaultTitle)
	assert.Contains(t, doc, "Acme &lt;Steel&gt;")
	assert.Contains(t, doc, "Scope 1 &amp; 2 GHG emissions")
	assert.Contains(t, doc, "Evidence &amp; Justification")
	assert.Contains(t, doc, "1,200 tCO2e (p.42)")
	assert.Contains(t, doc, "Not disclosed")
	assert.Contains(t, doc, "Solar rooftop 5 MW")
	assert.Contains(t, doc, "acme_steel_brsr_sankey.svg")
	for _, c := range []string{"00B050", "92D050", "FFA500", "FF0000"} {
		assert.Contains(t, doc, `w:fill="`+c+`"`)
	}
	assert.Contains(t, doc, "Drift 2 (abstract): 0")
}

func TestWriteXLSX(t *testing.T) {
	rp := New(config.ReportConfig{})
	var buf bytes.Buffer
	require.NoError(t, rp.WriteXLSX(&buf, testReport()))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)

	dash := f.Sheet["Dashboard"]
	require.NotNil(t, dash)
	require.Len(t, dash.Rows, 4)
	assert.Equal(t, "Metric", dash.Rows[0].Cells[1].String())
	assert.Equal(t, "Emissions", dash.Rows[1].Cells[0].String())
	assert.Equal(t, "Scope 1 emissions", dash.Rows[1].Cells[1].String())
	assert.Equal(t, "42", dash.Rows[1].Cells[5].String())
	assert.Equal(t, "missing_citation", dash.Rows[2].Cells[7].String())
	assert.Equal(t, "3", dash.Rows[2].Cells[10].String())

	sum := f.Sheet["Summary"]
	require.NotNil(t, sum)
	require.Len(t, sum.Rows, 5)
	assert.Equal(t, "drift", sum.Rows[4].Cells[1].String())
	assert.Equal(t, "1", sum.Rows[4].Cells[2].String())
}

func TestBuildSankey(t *testing.T) {
	g := BuildSankey(testReport())

	names := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		names[i] = n.Name
	}
	assert.Equal(t, []string{
		"Req: Emissions", "Disc: Scope 1 emissions", "Drift: 0",
		"Disc: Scope 2 emissions", "Drift: 3",
		"Req: Water", "Disc: Total water consumed", "Drift: 1",
	}, names)

	assert.InDelta(t, 2.0, g.Nodes[0].Value, 1e-9)
	assert.Equal(t, 0, g.Nodes[0].Column)
	assert.Equal(t, 2, g.Nodes[2].Column)
	assert.Equal(t, "FF0000", g.Nodes[4].Color)
	require.Len(t, g.Links, 6)
	assert.Equal(t, SankeyLink{Source: "Disc: Scope 2 emissions", Target: "Drift: 3", Value: 1}, g.Links[3])
}

func TestBuildSankey_Empty(t *testing.T) {
	g := BuildSankey(&model.AuditReport{})
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Links)
}

func TestWriteSankeySVG(t *testing.T) {
	rp := New(config.ReportConfig{})
	var buf bytes.Buffer
	require.NoError(t, rp.WriteSankeySVG(&buf, BuildSankey(testReport())))

	svg := buf.String()
	assertWellFormed(t, svg)
	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.Contains(t, svg, "Req: Emissions")
	assert.Contains(t, svg, "Drift: 3")
	assert.Contains(t, svg, `fill="#FF0000"`)
	assert.Contains(t, svg, `stroke="#00B050"`)
	assert.Equal(t, 6, strings.Count(svg, "<path "))
	assert.Equal(t, 8, strings.Count(svg, "<rect "))
}

func TestWriteSankeySVG_Errors(t *testing.T) {
	rp := New(config.ReportConfig{})

	err := rp.WriteSankeySVG(io.Discard, Sankey{
		Nodes: []SankeyNode{{Name: "a", Column: 0, Value: 1}},
		Links: []SankeyLink{{Source: "a", Target: "b", Value: 1}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `target "b" not found`)

	err = rp.WriteSankeySVG(io.Discard, Sankey{Nodes: []SankeyNode{{Name: "a", Column: 5, Value: 1}}})
	require.Error(t, err)
}

func TestWriteSankeyHTML(t *testing.T) {
	rp := New(config.ReportConfig{Title: "Drift Flow"})
	var buf bytes.Buffer
	require.NoError(t, rp.WriteSankeyHTML(&buf, BuildSankey(testReport()), "Acme"))

	html := buf.String()
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "Drift Flow")
	assert.Contains(t, html, "Disc: Total water consumed")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, testReport()))

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "run-1", out["run_id"])
	assert.Len(t, out["records"], 3)
	assert.Len(t, out["summary"], 4)
	assert.Contains(t, buf.String(), "\n  \"run_id\"")
}

func TestWriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	rp := New(config.ReportConfig{})

	paths, err := rp.WriteAll(context.Background(), dir, testReport())
	require.NoError(t, err)
	require.Len(t, paths, 5)

	assert.Equal(t, filepath.Join(dir, "acme_steel_brsr_audit.docx"), paths[0])
	assert.Equal(t, filepath.Join(dir, "acme_steel_brsr_report.json"), paths[4])
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err, p)
		assert.Positive(t, info.Size(), p)
	}
}

func TestWriteAll_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(config.ReportConfig{}).WriteAll(ctx, t.TempDir(), testReport())
	require.ErrorIs(t, err, context.Canceled)
}

func TestWriteAll_BadDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := New(config.ReportConfig{}).WriteAll(context.Background(), filepath.Join(file, "sub"), testReport())
	require.Error(t, err)
}

func TestArtifactBase(t *testing.T) {
	assert.Equal(t, "acme_steel_brsr", artifactBase(&model.AuditReport{Document: model.Document{Path: "/x/acme steel brsr.pdf"}}))
	assert.Equal(t, "run-9", artifactBase(&model.AuditReport{RunID: "run-9"}))
	assert.Equal(t, "audit", artifactBase(&model.AuditReport{}))
}
