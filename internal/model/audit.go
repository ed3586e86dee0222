package model

import "time"

// RunStatus represents the current state of an audit run.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusIngesting  RunStatus = "ingesting"
	RunStatusEvaluating RunStatus = "evaluating"
	RunStatusReporting  RunStatus = "reporting"
	RunStatusComplete   RunStatus = "complete"
	RunStatusFailed     RunStatus = "failed"
)

// TokenUsage tracks LLM token consumption for a run.
type TokenUsage struct {
	InputTokens         int     `json:"input_tokens"`
	OutputTokens        int     `json:"output_tokens"`
	CacheCreationTokens int     `json:"cache_creation_tokens"`
	CacheReadTokens     int     `json:"cache_read_tokens"`
	Cost                float64 `json:"cost"`
}

// Add accumulates other into u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheCreationTokens += other.CacheCreationTokens
	u.CacheReadTokens += other.CacheReadTokens
	u.Cost += other.Cost
}

// BandCount is the number of records in one drift band.
type BandCount struct {
	Score DriftScore `json:"score"`
	Band  string     `json:"band"`
	Count int        `json:"count"`
}

// AuditReport is the terminal output of a run. It is written once and never
// mutated afterwards.
type AuditReport struct {
	RunID            string        `json:"run_id"`
	Document         Document      `json:"document"`
	Records          []DriftRecord `json:"records"`
	Summary          []BandCount   `json:"summary"`
	Initiatives      []string      `json:"initiatives,omitempty"`
	ExtractionCached bool          `json:"extraction_cached"`
	Usage            TokenUsage    `json:"usage"`
	GeneratedAt      time.Time     `json:"generated_at"`
}

// Count returns the number of records in the given band.
func (r AuditReport) Count(score DriftScore) int {
	for _, b := range r.Summary {
		if b.Score == score {
			return b.Count
		}
	}
	return 0
}

// Run represents a single audit run for a document.
type Run struct {
	ID        string     `json:"id"`
	Document  Document   `json:"document"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult holds the persisted outcome of a completed run.
type RunResult struct {
	Metrics     int           `json:"metrics"`
	Summary     []BandCount   `json:"summary"`
	Records     []DriftRecord `json:"records"`
	Artifacts   []string      `json:"artifacts"`
	TotalTokens int           `json:"total_tokens"`
	TotalCost   float64       `json:"total_cost"`
}
