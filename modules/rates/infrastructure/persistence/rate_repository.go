package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/freightdesk/freightdesk/modules/rates/domain/aggregates/rate"
	"github.com/freightdesk/freightdesk/pkg/composables"
	"github.com/freightdesk/freightdesk/pkg/repo"
)

const rateColumns = `
	id,
	partner_id,
	import_job_id,
	transport_mode,
	origin_postal_code,
	origin_city,
	origin_country,
	dest_postal_code,
	dest_city,
	dest_country,
	weight_min,
	weight_max,
	volume_min,
	volume_max,
	cost::text,
	pricing_type,
	currency,
	delivery_time,
	valid_from,
	valid_until,
	is_active,
	metadata,
	created_at,
	updated_at`

type RateRepository struct{}

func NewRateRepository() rate.Repository {
	return &RateRepository{}
}

func (r *RateRepository) GetByID(ctx context.Context, id uuid.UUID) (*rate.Rate, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `SELECT `+rateColumns+` FROM rates WHERE id = $1`, id)
	out, err := scanRate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, rate.ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

func (r *RateRepository) List(ctx context.Context, params *rate.FindParams) ([]*rate.Rate, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	if params == nil {
		params = &rate.FindParams{}
	}

	where, args := buildRateFilter(params)
	q := `SELECT ` + rateColumns + ` FROM rates` + where +
		` ORDER BY created_at DESC, id ` + repo.FormatLimitOffset(params.Limit, params.Offset)

	rows, err := tx.Query(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list rates")
	}
	defer rows.Close()

	var out []*rate.Rate
	for rows.Next() {
		rt, err := scanRate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (r *RateRepository) Count(ctx context.Context, params *rate.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	if params == nil {
		params = &rate.FindParams{}
	}

	where, args := buildRateFilter(params)
	var count int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM rates`+where, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count rates")
	}
	return count, nil
}

func (r *RateRepository) Create(ctx context.Context, rt *rate.Rate) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	now := time.Now()
	if rt.CreatedAt.IsZero() {
		rt.CreatedAt = now
	}
	rt.UpdatedAt = now
	if rt.ValidFrom.IsZero() {
		rt.ValidFrom = now
	}

	var metadata []byte
	if rt.Metadata != nil {
		metadata, err = json.Marshal(rt.Metadata)
		if err != nil {
			return errors.Wrap(err, "failed to marshal rate metadata")
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO rates (
			id,
			partner_id,
			import_job_id,
			transport_mode,
			origin_postal_code,
			origin_city,
			origin_country,
			dest_postal_code,
			dest_city,
			dest_country,
			weight_min,
			weight_max,
			volume_min,
			volume_max,
			cost,
			pricing_type,
			currency,
			delivery_time,
			valid_from,
			valid_until,
			is_active,
			metadata,
			created_at,
			updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15::numeric,$16,$17,$18,$19,$20,$21,$22::jsonb,$23,$24)
		`,
		rt.ID,
		rt.PartnerID,
		rt.ImportJobID,
		string(rt.TransportMode),
		rt.OriginPostalCode,
		rt.OriginCity,
		rt.OriginCountry,
		rt.DestPostalCode,
		rt.DestCity,
		rt.DestCountry,
		rt.WeightMin,
		rt.WeightMax,
		rt.VolumeMin,
		rt.VolumeMax,
		rt.Cost.String(),
		rt.PricingType,
		rt.Currency,
		rt.DeliveryTime,
		rt.ValidFrom,
		rt.ValidUntil,
		rt.IsActive,
		metadata,
		rt.CreatedAt,
		rt.UpdatedAt,
	)
	return errors.Wrap(err, "failed to insert rate")
}

func (r *RateRepository) DeleteByPartner(ctx context.Context, partnerID uuid.UUID) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	// Quote lines referencing the outgoing rates are detached, not deleted.
	_, err = tx.Exec(ctx, `
		UPDATE customer_quote_items SET rate_id = NULL
		WHERE rate_id IN (SELECT id FROM rates WHERE partner_id = $1)
		`, partnerID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to detach quote items")
	}

	tag, err := tx.Exec(ctx, `DELETE FROM rates WHERE partner_id = $1`, partnerID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete partner rates")
	}
	return tag.RowsAffected(), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE metacharacters in a user-supplied value used
// as a pattern prefix.
func escapeLike(v string) string {
	return likeEscaper.Replace(v)
}

// buildRateFilter renders the coarse store-level filter. Postal predicates
// over-admit (stored NULL or bidirectional prefix); precise geographic
// resolution happens in the matching service.
func buildRateFilter(params *rate.FindParams) (string, []any) {
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if params.PartnerID != nil {
		conds = append(conds, "partner_id = "+arg(*params.PartnerID))
	}
	if params.TransportMode != nil {
		conds = append(conds, "transport_mode = "+arg(string(*params.TransportMode)))
	}
	if params.OriginCountry != "" {
		conds = append(conds, "UPPER(origin_country) = UPPER("+arg(params.OriginCountry)+")")
	}
	if params.DestCountry != "" {
		conds = append(conds, "UPPER(dest_country) = UPPER("+arg(params.DestCountry)+")")
	}
	if params.Weight != nil {
		w := arg(*params.Weight)
		conds = append(conds, "(weight_min IS NULL OR weight_min <= "+w+")")
		conds = append(conds, "(weight_max IS NULL OR weight_max >= "+w+")")
	}
	if params.ShippingDate != nil {
		d := arg(*params.ShippingDate)
		conds = append(conds, "valid_from::date <= "+d+"::date")
		conds = append(conds, "(valid_until IS NULL OR valid_until::date >= "+d+"::date)")
	}
	if params.OriginPostalCode != "" {
		p := arg(params.OriginPostalCode)
		pat := arg(escapeLike(params.OriginPostalCode))
		conds = append(conds, "(origin_postal_code IS NULL OR origin_postal_code LIKE "+pat+" || '%' OR "+p+" LIKE origin_postal_code || '%')")
	}
	if params.DestPostalCode != "" {
		p := arg(params.DestPostalCode)
		pat := arg(escapeLike(params.DestPostalCode))
		conds = append(conds, "(dest_postal_code IS NULL OR dest_postal_code LIKE "+pat+" || '%' OR "+p+" LIKE dest_postal_code || '%')")
	}
	if params.ActiveOnly {
		conds = append(conds, "is_active = true")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanRate(row pgx.Row) (*rate.Rate, error) {
	var rt rate.Rate
	var mode string
	var cost string
	var metadata []byte

	err := row.Scan(
		&rt.ID,
		&rt.PartnerID,
		&rt.ImportJobID,
		&mode,
		&rt.OriginPostalCode,
		&rt.OriginCity,
		&rt.OriginCountry,
		&rt.DestPostalCode,
		&rt.DestCity,
		&rt.DestCountry,
		&rt.WeightMin,
		&rt.WeightMax,
		&rt.VolumeMin,
		&rt.VolumeMax,
		&cost,
		&rt.PricingType,
		&rt.Currency,
		&rt.DeliveryTime,
		&rt.ValidFrom,
		&rt.ValidUntil,
		&rt.IsActive,
		&metadata,
		&rt.CreatedAt,
		&rt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rt.TransportMode = rate.TransportMode(mode)
	rt.Cost, err = decimal.NewFromString(cost)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse rate cost")
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &rt.Metadata); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal rate metadata")
		}
	}
	return &rt, nil
}
