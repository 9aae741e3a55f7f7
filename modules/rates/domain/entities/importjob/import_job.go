package importjob

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/freightdesk/freightdesk/pkg/serrors"
)

var ErrNotFound = errors.New("import job not found")

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// RowError records one failed row: where it came from, which fields were
// violated, and the sanitized raw row for diagnostics. Message is set instead
// of Errors when the failure was an unexpected fault rather than a field
// violation.
type RowError struct {
	Sheet   string               `json:"sheet,omitempty"`
	Row     int                  `json:"row"`
	Errors  []serrors.FieldError `json:"errors,omitempty"`
	Message string               `json:"error,omitempty"`
	Raw     map[string]any       `json:"raw"`
}

// ImportJob is one file-processing attempt. Created PENDING at upload time,
// mutated only by the import service, immutable once terminal.
type ImportJob struct {
	ID        uuid.UUID
	PartnerID uuid.UUID
	Filename  string
	FileType  string
	Status    Status

	TotalRows    int
	SuccessCount int
	ErrorCount   int
	Errors       []RowError

	CreatedAt   time.Time
	CompletedAt *time.Time
}

type FindParams struct {
	PartnerID *uuid.UUID
	Limit     int
	Offset    int
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*ImportJob, error)
	List(ctx context.Context, params *FindParams) ([]*ImportJob, error)
	Create(ctx context.Context, job *ImportJob) error
	Update(ctx context.Context, job *ImportJob) error
}
