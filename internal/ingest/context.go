package ingest

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sells-group/drift-audit/internal/model"
)

// DefaultMaxContextChars bounds the text sent to the LLM.
const DefaultMaxContextChars = 40000

// DefaultKeywords select the Principle 6 sections of a BRSR filing.
var DefaultKeywords = []string{"principle 6", "emission", "ghg", "water", "waste"}

// SelectRelevant keeps the chunks mentioning any keyword, case-insensitively.
// When nothing matches every chunk is returned.
func SelectRelevant(chunks []model.Chunk, keywords []string) []model.Chunk {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	lower := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lower = append(lower, k)
		}
	}

	var out []model.Chunk
	for _, c := range chunks {
		text := strings.ToLower(c.Text)
		for _, k := range lower {
			if strings.Contains(text, k) {
				out = append(out, c)
				break
			}
		}
	}
	if len(out) == 0 {
		return chunks
	}
	return out
}

// BuildContext concatenates chunks into the extraction prompt body. A
// "[Page N]" marker precedes each run of chunks from the same page so the
// model can cite pages. The result is cut at maxChars characters.
func BuildContext(chunks []model.Chunk, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxContextChars
	}

	var sb strings.Builder
	lastPage := -1
	for _, c := range chunks {
		if c.Page != lastPage {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			fmt.Fprintf(&sb, "[Page %d]\n", c.Page)
			lastPage = c.Page
		}
		sb.WriteString(c.Text)
		sb.WriteString("\n\n")
	}

	return truncateRunes(strings.TrimSpace(sb.String()), maxChars)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
