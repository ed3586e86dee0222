package ingest

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize applies NFKC normalisation and collapses runs of whitespace to a
// single space. Ligatures and full-width digits common in PDF text layers
// compare equal to their plain forms afterwards.
func Normalize(text string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(text)), " ")
}

// ContainsQuote reports whether the normalised quote occurs in the
// normalised text. An empty quote never matches.
func ContainsQuote(text, quote string) bool {
	q := Normalize(quote)
	if q == "" {
		return false
	}
	return strings.Contains(Normalize(text), q)
}

// SameText reports whether a and b are equal after normalisation. Empty text
// never matches.
func SameText(a, b string) bool {
	na := Normalize(a)
	return na != "" && na == Normalize(b)
}
