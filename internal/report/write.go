package report

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/drift-audit/internal/model"
)

// WriteAll creates dir and renders every artifact into it concurrently. It
// returns the written paths in a fixed order: docx, xlsx, svg, html, json.
func (rp *Reporter) WriteAll(ctx context.Context, dir string, r *model.AuditReport) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "report: create output dir %s", dir)
	}

	base := filepath.Join(dir, artifactBase(r))
	graph := BuildSankey(r)

	artifacts := []struct {
		path  string
		write func(io.Writer) error
	}{
		{base + "_audit.docx", func(w io.Writer) error { return rp.WriteDOCX(w, r) }},
		{base + "_audit.xlsx", func(w io.Writer) error { return rp.WriteXLSX(w, r) }},
		{base + "_sankey.svg", func(w io.Writer) error { return rp.WriteSankeySVG(w, graph) }},
		{base + "_sankey.html", func(w io.Writer) error { return rp.WriteSankeyHTML(w, graph, r.Document.Company) }},
		{base + "_report.json", func(w io.Writer) error { return WriteJSON(w, r) }},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range artifacts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return writeFile(a.path, a.write)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	paths := make([]string, len(artifacts))
	for i, a := range artifacts {
		paths[i] = a.path
	}
	zap.L().Info("report: artifacts written",
		zap.String("run_id", r.RunID),
		zap.String("dir", dir),
		zap.Int("artifacts", len(paths)),
	)
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = eris.Wrapf(cerr, "report: close %s", path)
		}
	}()
	return write(f)
}
