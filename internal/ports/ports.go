package ports

import (
	"context"

	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/domain"
)

// Page is one page of query results from the record service.
type Page struct {
	Records    []domain.Record
	HasMore    bool
	NextCursor string
}

// RecordService is the sole network boundary: a paginated query/update API
// over pages with typed properties.
type RecordService interface {
	// QueryPage fetches up to pageSize records sorted ascending by date,
	// starting at cursor (empty for the first page).
	QueryPage(ctx context.Context, cursor string, pageSize int) (Page, error)

	// Update applies a patch to a single record.
	Update(ctx context.Context, id string, patch domain.Patch) error

	// Archive soft-deletes a single record.
	Archive(ctx context.Context, id string) error
}

// CheckpointStore persists run progress across a failure/resume boundary.
type CheckpointStore interface {
	// Load returns the prior checkpoint and whether one existed. A missing or
	// malformed checkpoint yields (zero, false, nil), never an error.
	Load(ctx context.Context) (domain.Progress, bool, error)

	// Save overwrites the checkpoint with the given snapshot.
	Save(ctx context.Context, p domain.Progress) error

	// Clear removes the checkpoint. A missing checkpoint is not an error.
	Clear(ctx context.Context) error
}

// AuditLog keeps a local trace of runs and the records they removed.
type AuditLog interface {
	RecordRun(ctx context.Context, run domain.RunRecord) error
	RecordRemovals(ctx context.Context, runID string, removals []domain.Removal) error
	RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)
	Close() error
}

// Notifier delivers the final run summary to an external channel.
type Notifier interface {
	PublishSummary(ctx context.Context, summary string) error
}
