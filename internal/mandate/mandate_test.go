package mandate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/drift-audit/internal/model"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mandates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_CoversEveryCategory(t *testing.T) {
	cat := Default()
	for _, c := range model.AllCategories() {
		stmt, ok := cat.Statement(c)
		assert.True(t, ok, c)
		assert.NotEmpty(t, stmt)
	}
	assert.Equal(t, "Report Scope 1 & 2 GHG emissions (Metric Tonnes CO2e).", cat[model.CategoryEmissions])
}

func TestLoadCatalog_EmptyPath(t *testing.T) {
	cat, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cat)
}

func TestLoadCatalog_Override(t *testing.T) {
	path := writeYAML(t, `
mandates:
  Water: "Disclose water withdrawal by source."
`)
	cat, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, "Disclose water withdrawal by source.", cat[model.CategoryWater])
	assert.Equal(t, Default()[model.CategoryWaste], cat[model.CategoryWaste])
}

func TestLoadCatalog_UnknownCategory(t *testing.T) {
	_, err := LoadCatalog(writeYAML(t, "mandates:\n  biodiversity: \"Protect habitats.\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown category "biodiversity"`)
}

func TestLoadCatalog_EmptyStatement(t *testing.T) {
	_, err := LoadCatalog(writeYAML(t, "mandates:\n  waste: \"  \"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty statement")
}

func TestLoadCatalog_InvalidYAML(t *testing.T) {
	_, err := LoadCatalog(writeYAML(t, "mandates: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mandate: parse")
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mandate: read")
}
