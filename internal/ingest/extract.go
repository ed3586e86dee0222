package ingest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/drift-audit/internal/config"
	"github.com/sells-group/drift-audit/internal/model"
	"github.com/sells-group/drift-audit/pkg/anthropic"
)

// ErrInvalidExtraction marks LLM output that cannot be decoded into a
// DisclosureRecord or fails validation. It is never retried.
var ErrInvalidExtraction = eris.New("ingest: invalid extraction")

// Cache stores validated extraction responses keyed by CacheKey.
type Cache interface {
	GetCachedExtraction(ctx context.Context, key string) ([]byte, error)
	SetCachedExtraction(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// Extraction is the result of ingesting one document.
type Extraction struct {
	Record   model.DisclosureRecord
	Chunks   []model.Chunk
	CacheKey string
	Cached   bool
	Usage    model.TokenUsage
}

// Metrics flattens the record into ExtractedMetrics in fixed order.
func (e *Extraction) Metrics() []model.ExtractedMetric {
	return e.Record.Metrics()
}

// Extractor runs the structured extraction call for a document.
type Extractor struct {
	client anthropic.Client
	cache  Cache
	aiCfg  config.AnthropicConfig
	cfg    config.IngestConfig
}

// NewExtractor creates an Extractor. cache may be nil, in which case every
// call reaches the LLM.
func NewExtractor(client anthropic.Client, cache Cache, aiCfg config.AnthropicConfig, cfg config.IngestConfig) *Extractor {
	return &Extractor{client: client, cache: cache, aiCfg: aiCfg, cfg: cfg}
}

// CacheKey derives the extraction cache key from everything that determines
// the LLM's input.
func CacheKey(modelID, promptVersion, text string) string {
	h := sha256.New()
	h.Write([]byte(modelID))
	h.Write([]byte{'|'})
	h.Write([]byte(promptVersion))
	h.Write([]byte{'|'})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Extract chunks the document, selects the Principle 6 sections and asks the
// LLM to fill the DisclosureRecord. A cached response for the same input is
// replayed without an LLM call.
func (e *Extractor) Extract(ctx context.Context, doc model.Document) (*Extraction, error) {
	log := zap.L().With(zap.String("company", doc.Company), zap.String("phase", "extract"))

	chunks := Split(doc.Pages, e.cfg.ChunkSize, e.cfg.ChunkOverlap)
	relevant := SelectRelevant(chunks, e.cfg.Keywords)
	text := BuildContext(relevant, e.cfg.MaxContextChars)
	if strings.TrimSpace(text) == "" {
		return nil, eris.New("ingest: document has no text to extract from")
	}

	log.Info("ingest: context built",
		zap.Int("pages", doc.PageCount()),
		zap.Int("chunks", len(chunks)),
		zap.Int("relevant_chunks", len(relevant)),
		zap.Int("context_chars", len(text)),
	)

	key := CacheKey(e.aiCfg.Model, PromptVersion, text)
	out := &Extraction{Chunks: chunks, CacheKey: key}

	if e.cache != nil {
		cached, err := e.cache.GetCachedExtraction(ctx, key)
		if err != nil {
			log.Warn("ingest: cache lookup failed", zap.Error(err))
		}
		if cached != nil {
			rec, err := ParseRecord(cached)
			if err == nil {
				log.Info("ingest: using cached extraction", zap.String("cache_key", key))
				out.Record = *rec
				out.Cached = true
				return out, nil
			}
			log.Warn("ingest: discarding unreadable cached extraction", zap.Error(err))
		}
	}

	temp := e.aiCfg.Temperature
	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       e.aiCfg.Model,
		MaxTokens:   e.aiCfg.MaxTokens,
		System:      anthropic.BuildCachedSystemBlocks(systemPrompt),
		Messages:    []anthropic.Message{{Role: "user", Content: userPrompt(doc.Company, text)}},
		Temperature: &temp,
	})
	if err != nil {
		return nil, eris.Wrap(err, "ingest: extraction call")
	}

	resp.Usage.LogCost(e.aiCfg.Model, "extract")
	out.Usage = model.TokenUsage{
		InputTokens:         int(resp.Usage.InputTokens),
		OutputTokens:        int(resp.Usage.OutputTokens),
		CacheCreationTokens: int(resp.Usage.CacheCreationInputTokens),
		CacheReadTokens:     int(resp.Usage.CacheReadInputTokens),
		Cost:                resp.Usage.EstimateCost(e.aiCfg.Model),
	}

	if resp.StopReason == "max_tokens" {
		log.Warn("ingest: response truncated at max_tokens", zap.Int64("max_tokens", e.aiCfg.MaxTokens))
	}

	rec, err := ParseRecord([]byte(cleanJSON(resp.Text())))
	if err != nil {
		log.Warn("ingest: extraction failed validation", zap.Error(err))
		return nil, err
	}
	out.Record = *rec

	if e.cache != nil {
		if data, marshalErr := json.Marshal(rec); marshalErr == nil {
			ttl := time.Duration(e.cfg.CacheTTLHours) * time.Hour
			if cacheErr := e.cache.SetCachedExtraction(ctx, key, data, ttl); cacheErr != nil {
				log.Warn("ingest: failed to cache extraction", zap.Error(cacheErr))
			}
		}
	}

	return out, nil
}

// ParseRecord strictly decodes and validates a DisclosureRecord. Unknown
// fields, trailing data and out-of-range values yield ErrInvalidExtraction.
func ParseRecord(data []byte) (*model.DisclosureRecord, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, eris.Wrap(ErrInvalidExtraction, "empty response")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var rec model.DisclosureRecord
	if err := dec.Decode(&rec); err != nil {
		return nil, eris.Wrapf(ErrInvalidExtraction, "decode: %v", err)
	}
	if dec.More() {
		return nil, eris.Wrap(ErrInvalidExtraction, "trailing data after record")
	}

	if err := Validate(rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Validate checks value ranges and citations of every field in rec.
func Validate(rec model.DisclosureRecord) error {
	var errs []string
	for _, m := range rec.Metrics() {
		if m.Page < 0 {
			errs = append(errs, m.Name+": negative page")
		}
		if m.Value == nil {
			continue
		}
		if *m.Value < 0 {
			errs = append(errs, m.Name+": negative value")
		}
		if m.Name == "waste_recycled_percentage" && *m.Value > 100 {
			errs = append(errs, m.Name+": above 100")
		}
	}
	if len(errs) > 0 {
		return eris.Wrapf(ErrInvalidExtraction, "validate: %s", strings.Join(errs, "; "))
	}
	return nil
}

// cleanJSON extracts a JSON object from text that may contain markdown code
// fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
