package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/rotisserie/eris"

	"github.com/sells-group/drift-audit/internal/model"
)

// SankeyNode is one node of the requirement → disclosure → drift graph.
// Column is 0 for requirements, 1 for disclosures and 2 for drift bands.
type SankeyNode struct {
	Name   string  `json:"name"`
	Column int     `json:"column"`
	Value  float64 `json:"value"`
	Color  string  `json:"color"`
}

// SankeyLink is a weighted edge between two nodes, by name.
type SankeyLink struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Value  float64 `json:"value"`
}

// Sankey is the flow graph for a report.
type Sankey struct {
	Nodes []SankeyNode `json:"nodes"`
	Links []SankeyLink `json:"links"`
}

const (
	requirementColor = "4472C4"
	disclosureColor  = "A5A5A5"
)

// BuildSankey links each category mandate to the metrics disclosed under it
// and each metric to its drift band. Nodes keep record order within a column.
func BuildSankey(r *model.AuditReport) Sankey {
	var g Sankey
	index := make(map[string]int)
	add := func(name string, col int, color string) {
		if i, ok := index[name]; ok {
			g.Nodes[i].Value++
			return
		}
		index[name] = len(g.Nodes)
		g.Nodes = append(g.Nodes, SankeyNode{Name: name, Column: col, Value: 1, Color: color})
	}

	for _, rec := range r.Records {
		req := "Req: " + rec.Metric.Category.Label()
		disc := "Disc: " + rec.Metric.DisplayName()
		drift := fmt.Sprintf("Drift: %d", rec.Score)

		add(req, 0, requirementColor)
		add(disc, 1, disclosureColor)
		add(drift, 2, Color(rec.Score))
		g.Links = append(g.Links,
			SankeyLink{Source: req, Target: disc, Value: 1},
			SankeyLink{Source: disc, Target: drift, Value: 1},
		)
	}
	return g
}

const (
	svgWidth     = 960
	svgMargin    = 20
	svgNodeWidth = 16
	svgUnit      = 28.0
	svgGap       = 14.0
	svgLabelSize = 12
)

type nodeBox struct {
	x, y, h   float64
	out, in   float64
	labelLeft bool
}

// WriteSankeySVG renders the graph as a static three-column SVG image.
func (rp *Reporter) WriteSankeySVG(w io.Writer, g Sankey) error {
	boxes := make(map[string]*nodeBox, len(g.Nodes))
	colX := []float64{svgMargin + 160, svgWidth / 2, svgWidth - svgMargin - 160 - svgNodeWidth}
	colY := make([]float64, len(colX))
	for i := range colY {
		colY[i] = svgMargin + 30
	}

	height := 0.0
	for _, n := range g.Nodes {
		if n.Column < 0 || n.Column >= len(colX) {
			return eris.Errorf("report: sankey node %q has column %d", n.Name, n.Column)
		}
		h := n.Value * svgUnit
		boxes[n.Name] = &nodeBox{x: colX[n.Column], y: colY[n.Column], h: h, labelLeft: n.Column == 0}
		colY[n.Column] += h + svgGap
		if colY[n.Column] > height {
			height = colY[n.Column]
		}
	}
	height += svgMargin

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%.0f" viewBox="0 0 %d %.0f" font-family="Helvetica, Arial, sans-serif">`+"\n",
		svgWidth, height, svgWidth, height)
	fmt.Fprintf(&b, `<text x="%d" y="%d" font-size="16" font-weight="bold">%s</text>`+"\n", svgMargin, svgMargin+8, escapeXML(rp.title+": drift flow"))

	for _, l := range g.Links {
		src, ok := boxes[l.Source]
		if !ok {
			return eris.Errorf("report: sankey link source %q not found", l.Source)
		}
		dst, ok := boxes[l.Target]
		if !ok {
			return eris.Errorf("report: sankey link target %q not found", l.Target)
		}
		width := l.Value * svgUnit
		y0 := src.y + src.out + width/2
		y1 := dst.y + dst.in + width/2
		src.out += width
		dst.in += width

		x0, x1 := src.x+svgNodeWidth, dst.x
		mid := (x0 + x1) / 2
		color := disclosureColor
		if strings.HasPrefix(l.Target, "Drift: ") {
			color = nodeColor(g, l.Target)
		}
		fmt.Fprintf(&b, `<path d="M%.1f,%.1f C%.1f,%.1f %.1f,%.1f %.1f,%.1f" fill="none" stroke="#%s" stroke-opacity="0.45" stroke-width="%.1f"/>`+"\n",
			x0, y0, mid, y0, mid, y1, x1, y1, color, width)
	}

	for _, n := range g.Nodes {
		box := boxes[n.Name]
		fmt.Fprintf(&b, `<rect x="%.1f" y="%.1f" width="%d" height="%.1f" fill="#%s"/>`+"\n", box.x, box.y, svgNodeWidth, box.h, n.Color)
		tx, anchor := box.x+svgNodeWidth+6, "start"
		if box.labelLeft {
			tx, anchor = box.x-6, "end"
		}
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" font-size="%d" dominant-baseline="middle" text-anchor="%s">%s</text>`+"\n",
			tx, box.y+box.h/2, svgLabelSize, anchor, escapeXML(n.Name))
	}
	b.WriteString("</svg>\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return eris.Wrap(err, "report: write sankey svg")
	}
	return nil
}

func nodeColor(g Sankey, name string) string {
	for _, n := range g.Nodes {
		if n.Name == name {
			return n.Color
		}
	}
	return disclosureColor
}

// WriteSankeyHTML renders the graph as an interactive ECharts page.
func (rp *Reporter) WriteSankeyHTML(w io.Writer, g Sankey, company string) error {
	chart := charts.NewSankey()
	chart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: rp.title, Subtitle: company}),
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: rp.title,
			Width:     "1200px",
			Height:    "700px",
		}),
	)

	nodes := make([]opts.SankeyNode, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes = append(nodes, opts.SankeyNode{Name: n.Name})
	}
	links := make([]opts.SankeyLink, 0, len(g.Links))
	for _, l := range g.Links {
		links = append(links, opts.SankeyLink{Source: l.Source, Target: l.Target, Value: float32(l.Value)})
	}
	chart.AddSeries("drift", nodes, links)

	if err := chart.Render(w); err != nil {
		return eris.Wrap(err, "report: render sankey html")
	}
	return nil
}
