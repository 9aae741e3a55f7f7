package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	"github.com/freightdesk/freightdesk/modules/rates/domain/entities/partner"
	"github.com/freightdesk/freightdesk/pkg/composables"
	"github.com/freightdesk/freightdesk/pkg/repo"
)

const partnerColumns = `id, code, name, currency, is_active, created_at, updated_at`

type PartnerRepository struct{}

func NewPartnerRepository() partner.Repository {
	return &PartnerRepository{}
}

func (r *PartnerRepository) GetByID(ctx context.Context, id uuid.UUID) (*partner.Partner, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, `SELECT `+partnerColumns+` FROM partners WHERE id = $1`, id)
	return scanPartner(row)
}

func (r *PartnerRepository) GetByCode(ctx context.Context, code string) (*partner.Partner, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, `SELECT `+partnerColumns+` FROM partners WHERE code = $1`, strings.TrimSpace(code))
	return scanPartner(row)
}

func (r *PartnerRepository) List(ctx context.Context, limit, offset int) ([]*partner.Partner, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `SELECT `+partnerColumns+` FROM partners ORDER BY code `+repo.FormatLimitOffset(limit, offset))
	if err != nil {
		return nil, errors.Wrap(err, "failed to list partners")
	}
	defer rows.Close()

	var out []*partner.Partner
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PartnerRepository) Create(ctx context.Context, p *partner.Partner) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Currency == "" {
		p.Currency = "EUR"
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO partners (id, code, name, currency, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		`,
		p.ID,
		strings.TrimSpace(p.Code),
		strings.TrimSpace(p.Name),
		strings.ToUpper(p.Currency),
		p.IsActive,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return partner.ErrCodeTaken
		}
		return errors.Wrap(err, "failed to insert partner")
	}
	return nil
}

func scanPartner(row pgx.Row) (*partner.Partner, error) {
	var p partner.Partner
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Currency, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, partner.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
