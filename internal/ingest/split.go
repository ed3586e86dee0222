// Package ingest turns a PDF's pages into a validated DisclosureRecord via a
// single LLM extraction call.
package ingest

import (
	"strings"
	"unicode/utf8"

	"github.com/sells-group/drift-audit/internal/model"
)

// Splitter defaults.
const (
	DefaultChunkSize    = 2000
	DefaultChunkOverlap = 200
)

var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Split breaks every page into chunks of at most size characters with up to
// overlap characters shared between neighbours. Separators are tried from
// paragraph breaks down to single characters. Chunks never span pages.
func Split(pages []model.Page, size, overlap int) []model.Chunk {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var chunks []model.Chunk
	for _, p := range pages {
		from := 0
		for _, text := range splitText(p.Text, defaultSeparators, size, overlap) {
			off := strings.Index(p.Text[from:], text)
			if off < 0 {
				off = from
			} else {
				off += from
				from = off + 1
			}
			chunks = append(chunks, model.Chunk{
				Index:  len(chunks),
				Page:   p.Number,
				Offset: off,
				Text:   text,
			})
		}
	}
	return chunks
}

func splitText(text string, seps []string, size, overlap int) []string {
	sep := seps[len(seps)-1]
	var rest []string
	for i, s := range seps {
		if s == "" {
			sep = s
			break
		}
		if strings.Contains(text, s) {
			sep = s
			rest = seps[i+1:]
			break
		}
	}

	var splits []string
	if sep == "" {
		for _, r := range text {
			splits = append(splits, string(r))
		}
	} else {
		splits = strings.Split(text, sep)
	}

	var out, good []string
	for _, s := range splits {
		if utf8.RuneCountInString(s) < size {
			good = append(good, s)
			continue
		}
		if len(good) > 0 {
			out = append(out, mergeSplits(good, sep, size, overlap)...)
			good = nil
		}
		if len(rest) == 0 {
			if t := strings.TrimSpace(s); t != "" {
				out = append(out, t)
			}
		} else {
			out = append(out, splitText(s, rest, size, overlap)...)
		}
	}
	if len(good) > 0 {
		out = append(out, mergeSplits(good, sep, size, overlap)...)
	}
	return out
}

// mergeSplits joins adjacent pieces back together up to size characters,
// carrying the trailing overlap characters into the next chunk.
func mergeSplits(splits []string, sep string, size, overlap int) []string {
	sepLen := utf8.RuneCountInString(sep)
	joinLen := func(n int) int {
		if n > 0 {
			return sepLen
		}
		return 0
	}

	var docs, current []string
	total := 0
	for _, d := range splits {
		l := utf8.RuneCountInString(d)
		if len(current) > 0 && total+l+joinLen(len(current)) > size {
			if doc := strings.TrimSpace(strings.Join(current, sep)); doc != "" {
				docs = append(docs, doc)
			}
			for len(current) > 0 && (total > overlap || (total+l+joinLen(len(current)) > size && total > 0)) {
				total -= utf8.RuneCountInString(current[0]) + joinLen(len(current)-1)
				current = current[1:]
			}
		}
		total += l + joinLen(len(current))
		current = append(current, d)
	}
	if doc := strings.TrimSpace(strings.Join(current, sep)); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}
