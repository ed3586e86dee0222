// Package mandate holds the canonical SEBI Principle 6 mandate statements
// that extracted metrics are audited against.
package mandate

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/drift-audit/internal/model"
)

// Catalog maps each metric category to its mandate statement.
type Catalog map[model.MetricCategory]string

// Default returns the built-in BRSR Principle 6 statements.
func Default() Catalog {
	return Catalog{
		model.CategoryEmissions: "Report Scope 1 & 2 GHG emissions (Metric Tonnes CO2e).",
		model.CategoryWater:     "Disclose total water consumption and intensity/turnover.",
		model.CategoryWaste:     "Report total waste (Hazardous/Non-Hazardous) & Recycling %.",
	}
}

// Statement returns the mandate for the category. The second result is false
// when the catalog has no entry.
func (c Catalog) Statement(cat model.MetricCategory) (string, bool) {
	s, ok := c[cat]
	return s, ok
}

type catalogFile struct {
	Mandates map[string]string `yaml:"mandates"`
}

// LoadCatalog returns the default catalog overlaid with the statements in the
// YAML file at path. An empty path returns the defaults.
//
//	mandates:
//	  emissions: "Report Scope 1, 2 & 3 GHG emissions."
func LoadCatalog(path string) (Catalog, error) {
	cat := Default()
	if path == "" {
		return cat, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "mandate: read %s", path)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "mandate: parse %s", path)
	}

	known := make(map[model.MetricCategory]bool)
	for _, c := range model.AllCategories() {
		known[c] = true
	}

	for name, stmt := range f.Mandates {
		c := model.MetricCategory(strings.ToLower(strings.TrimSpace(name)))
		if !known[c] {
			return nil, eris.Errorf("mandate: unknown category %q in %s", name, path)
		}
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			return nil, eris.Errorf("mandate: empty statement for %q in %s", name, path)
		}
		cat[c] = stmt
	}
	return cat, nil
}
