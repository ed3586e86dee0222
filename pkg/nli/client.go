// Package nli provides a client for a local text-embeddings-inference server
// hosting a cross-encoder entailment model and a sentence embedding model.
package nli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the inference operations used by the evaluator.
type Client interface {
	// Classify scores the (premise, hypothesis) pair and returns one
	// prediction per label.
	Classify(ctx context.Context, premise, hypothesis string) ([]Prediction, error)
	// Embed returns one embedding vector per input text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Prediction is a single label probability from the classifier.
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Option configures the client.
type Option func(*httpClient)

// WithEmbedURL sets a separate base URL for the embedding model. By default
// embeddings are requested from the classifier's base URL.
func WithEmbedURL(url string) Option {
	return func(c *httpClient) {
		if url != "" {
			c.embedURL = strings.TrimRight(url, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

type httpClient struct {
	baseURL  string
	embedURL string
	http     *http.Client
}

// NewClient creates a client for the inference server at baseURL.
func NewClient(baseURL string, opts ...Option) Client {
	base := strings.TrimRight(baseURL, "/")
	c := &httpClient{
		baseURL:  base,
		embedURL: base,
		http:     &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type predictRequest struct {
	Inputs    [][2]string `json:"inputs"`
	RawScores bool        `json:"raw_scores"`
}

type embedRequest struct {
	Inputs    []string `json:"inputs"`
	Normalize bool     `json:"normalize"`
}

func (c *httpClient) Classify(ctx context.Context, premise, hypothesis string) ([]Prediction, error) {
	body := predictRequest{Inputs: [][2]string{{premise, hypothesis}}}

	var out [][]Prediction
	if err := c.post(ctx, c.baseURL+"/predict", body, &out); err != nil {
		return nil, eris.Wrap(err, "nli: classify")
	}
	if len(out) == 0 || len(out[0]) == 0 {
		return nil, eris.New("nli: classify: empty prediction set")
	}

	preds := out[0]
	for i := range preds {
		preds[i].Label = strings.ToLower(strings.TrimSpace(preds[i].Label))
	}
	return preds, nil
}

func (c *httpClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var out [][]float32
	if err := c.post(ctx, c.embedURL+"/embed", embedRequest{Inputs: texts, Normalize: true}, &out); err != nil {
		return nil, eris.Wrap(err, "nli: embed")
	}
	if len(out) != len(texts) {
		return nil, eris.Errorf("nli: embed: got %d vectors for %d inputs", len(out), len(texts))
	}
	return out, nil
}

func (c *httpClient) post(ctx context.Context, url string, payload, dst any) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response")
	}

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, dst); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}

// Top returns the highest-scoring prediction. The second result is false
// when preds is empty.
func Top(preds []Prediction) (Prediction, bool) {
	if len(preds) == 0 {
		return Prediction{}, false
	}
	best := preds[0]
	for _, p := range preds[1:] {
		if p.Score > best.Score {
			best = p
		}
	}
	return best, true
}

// Cosine returns the cosine similarity of two vectors, or 0 when either is
// empty, zero-length or the dimensions differ.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
