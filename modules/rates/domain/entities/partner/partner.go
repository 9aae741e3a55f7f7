package partner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrNotFound  = errors.New("partner not found")
	ErrCodeTaken = errors.New("partner code already in use")
)

// Partner is a transport partner publishing rate sheets. Code keys the
// partner's layout configuration.
type Partner struct {
	ID       uuid.UUID
	Code     string
	Name     string
	Currency string
	IsActive bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Partner, error)
	GetByCode(ctx context.Context, code string) (*Partner, error)
	List(ctx context.Context, limit, offset int) ([]*Partner, error)
	Create(ctx context.Context, p *Partner) error
}
