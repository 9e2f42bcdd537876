package store

import (
	"context"
	"time"

	"github.com/sells-group/prospect-cli/internal/model"
)

// Cache source names used as the first key component in the source cache.
const (
	CacheSourceLinkedIn = "linkedin"
	CacheSourceFacebook = "facebook"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Handle string          `json:"handle,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the enrichment pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, handle string) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Source cache. Raw payloads fetched from slow or rate-limited
	// sources (LinkedIn company pages, Facebook contact sections) are
	// cached under (source, key) so repeated runs for the same company
	// skip the network. GetCachedSource returns nil with no error on a
	// miss or an expired entry.
	GetCachedSource(ctx context.Context, source, key string) ([]byte, error)
	SetCachedSource(ctx context.Context, source, key string, payload []byte, ttl time.Duration) error
	DeleteExpiredSources(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
