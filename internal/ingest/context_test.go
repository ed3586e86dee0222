package ingest

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/drift-audit/internal/model"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "Scope 1: 1,200 tCO2e", Normalize("Scope  1:\n 1,200\ttCO2e "))
	// NFKC folds ligatures and full-width digits.
	assert.Equal(t, "efficient 12", Normalize("eﬃcient １２"))
	assert.Equal(t, "", Normalize(" \n\t"))
}

func TestContainsQuote(t *testing.T) {
	page := "Table 6.1\nScope 1   emissions   1,200 tCO2e\nScope 2 emissions 3,400 tCO2e"
	assert.True(t, ContainsQuote(page, "Scope 1 emissions 1,200 tCO2e"))
	assert.False(t, ContainsQuote(page, "Scope 1 emissions 1,300 tCO2e"))
	assert.False(t, ContainsQuote(page, "   "))
}

func TestSameText(t *testing.T) {
	mandate := "Report Scope 1 & 2 GHG emissions (Metric Tonnes CO2e)."
	assert.True(t, SameText(mandate, "Report  Scope 1 & 2\nGHG emissions (Metric Tonnes CO2e)."))
	assert.False(t, SameText(mandate, "GHG emissions"))
	assert.False(t, SameText(mandate, "2"))
	assert.False(t, SameText(" ", "\t"))
}

func TestSelectRelevant(t *testing.T) {
	chunks := []model.Chunk{
		{Index: 0, Page: 1, Text: "Board of directors"},
		{Index: 1, Page: 7, Text: "PRINCIPLE 6 Businesses should respect the environment"},
		{Index: 2, Page: 8, Text: "Total Water consumption (kL)"},
	}

	got := SelectRelevant(chunks, nil)
	assert.Len(t, got, 2)
	assert.Equal(t, 7, got[0].Page)

	got = SelectRelevant(chunks, []string{"board"})
	assert.Len(t, got, 1)

	got = SelectRelevant(chunks, []string{"biodiversity"})
	assert.Len(t, got, 3, "no match keeps everything")
}

func TestBuildContext_PageMarkers(t *testing.T) {
	chunks := []model.Chunk{
		{Page: 4, Text: "first"},
		{Page: 4, Text: "second"},
		{Page: 9, Text: "third"},
	}
	got := BuildContext(chunks, 1000)
	assert.Equal(t, "[Page 4]\nfirst\n\nsecond\n\n\n[Page 9]\nthird", got)
	assert.Equal(t, 1, strings.Count(got, "[Page 4]"))
}

func TestBuildContext_Truncates(t *testing.T) {
	chunks := []model.Chunk{{Page: 1, Text: strings.Repeat("é", 100)}}
	got := BuildContext(chunks, 20)
	assert.Equal(t, 20, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))
}
