package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/drift-audit/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status  model.RunStatus `json:"status,omitempty"`
	Company string          `json:"company,omitempty"`
	Limit   int             `json:"limit,omitempty"`
	Offset  int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for audit runs and the LLM
// response cache.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, doc model.Document) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error
	FailRun(ctx context.Context, runID string, runErr error) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Extraction cache
	GetCachedExtraction(ctx context.Context, key string) ([]byte, error)
	SetCachedExtraction(ctx context.Context, key string, data []byte, ttl time.Duration) error
	DeleteExpiredExtractions(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100

// decodeRun fills the JSON columns of r. A SQL NULL result is selected as the
// JSON literal null and leaves r.Result nil.
func decodeRun(r *model.Run, status string, docJSON, resultJSON []byte) error {
	r.Status = model.RunStatus(status)
	if err := json.Unmarshal(docJSON, &r.Document); err != nil {
		return eris.Wrap(err, "unmarshal document")
	}
	if len(resultJSON) > 0 {
		if err := json.Unmarshal(resultJSON, &r.Result); err != nil {
			return eris.Wrap(err, "unmarshal result")
		}
	}
	return nil
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
