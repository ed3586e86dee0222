package model

// Page is the extracted text of one PDF page. Number is 1-based.
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Chunk is a slice of page text produced by the splitter. A chunk never
// spans two pages.
type Chunk struct {
	Index  int    `json:"index"`
	Page   int    `json:"page"`
	Offset int    `json:"offset"`
	Text   string `json:"text"`
}

// Document is a loaded source report.
type Document struct {
	Path    string `json:"path"`
	Company string `json:"company,omitempty"`
	SHA256  string `json:"sha256"`
	Pages   []Page `json:"-"`
}

// PageText returns the text of the given 1-based page and whether it exists.
func (d Document) PageText(number int) (string, bool) {
	for _, p := range d.Pages {
		if p.Number == number {
			return p.Text, true
		}
	}
	return "", false
}

// PageCount returns the number of pages with extracted text.
func (d Document) PageCount() int {
	return len(d.Pages)
}
