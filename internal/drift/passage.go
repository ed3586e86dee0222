package drift

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/sells-group/drift-audit/internal/ingest"
	"github.com/sells-group/drift-audit/internal/model"
)

// findPassage returns the window of the page that best supports the quote:
// the window containing it, else the one sharing the most terms with the
// quote and claim. It returns "" when no window shares any term.
func findPassage(page model.Page, quote, claim string, size int) string {
	windows := ingest.Split([]model.Page{page}, size, size/10)
	if len(windows) == 0 {
		return ""
	}

	for _, w := range windows {
		if ingest.ContainsQuote(w.Text, quote) {
			return w.Text
		}
	}

	query := terms(quote + " " + claim)
	best, bestScore := "", 0
	for _, w := range windows {
		have := terms(w.Text)
		score := 0
		for t := range query {
			if have[t] {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = w.Text, score
		}
	}
	return best
}

// terms returns the distinct lower-cased words and numbers in text. Commas
// inside numbers are dropped so "1,200" and "1200" compare equal.
func terms(text string) map[string]bool {
	text = strings.ToLower(ingest.Normalize(text))
	out := make(map[string]bool)
	for _, f := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != ',' && r != '.'
	}) {
		f = strings.Trim(f, ",.")
		if isNumber(f) {
			f = strings.ReplaceAll(f, ",", "")
		} else if len(f) < 3 {
			continue
		}
		if f != "" {
			out[f] = true
		}
	}
	return out
}

var numberPattern = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

func isNumber(s string) bool {
	return s != "" && numberPattern.FindString(s) == s
}

// quoteStatesValue reports whether any number written in the quote equals v.
func quoteStatesValue(quote string, v float64) bool {
	for _, m := range numberPattern.FindAllString(ingest.Normalize(quote), -1) {
		n, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
		if err != nil {
			continue
		}
		if math.Abs(n-v) <= 1e-9*math.Max(1, math.Abs(v)) {
			return true
		}
	}
	return false
}
