package rate

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("rate not found")

type TransportMode string

const (
	ModeRoad       TransportMode = "ROAD"
	ModeRail       TransportMode = "RAIL"
	ModeSea        TransportMode = "SEA"
	ModeAir        TransportMode = "AIR"
	ModeMultimodal TransportMode = "MULTIMODAL"
)

func (m TransportMode) Valid() bool {
	switch m {
	case ModeRoad, ModeRail, ModeSea, ModeAir, ModeMultimodal:
		return true
	}
	return false
}

// Pricing schemes with dedicated formulas. Any other value is priced as a
// flat fallback.
const (
	PricingPer100Kg = "PER_100KG"
	PricingPerKg    = "PER_KG"
	PricingLumpsum  = "LUMPSUM"
)

// WildcardCity stored in place of a specific city matches any query city.
const WildcardCity = "ALL"

// Rate is one partner's price for one lane, weight bracket and pricing
// scheme. Rates are created in bulk by an import job and replaced in full on
// the partner's next import, never patched.
type Rate struct {
	ID          uuid.UUID
	PartnerID   uuid.UUID
	ImportJobID *uuid.UUID

	TransportMode TransportMode

	OriginPostalCode *string
	OriginCity       string
	OriginCountry    string
	DestPostalCode   *string
	DestCity         string
	DestCountry      string

	WeightMin *float64
	WeightMax *float64
	VolumeMin *float64
	VolumeMax *float64

	Cost         decimal.Decimal
	PricingType  string
	Currency     string
	DeliveryTime *string

	ValidFrom  time.Time
	ValidUntil *time.Time
	IsActive   bool

	Metadata map[string]any

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FindParams is the coarse store-level filter. It over-admits on postal
// codes (bidirectional prefix or stored NULL); the matching service applies
// the precise geographic resolution on top.
type FindParams struct {
	PartnerID     *uuid.UUID
	TransportMode *TransportMode

	OriginCountry string
	DestCountry   string

	OriginPostalCode string
	DestPostalCode   string

	Weight       *float64
	ShippingDate *time.Time

	ActiveOnly bool

	Limit  int
	Offset int
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Rate, error)
	List(ctx context.Context, params *FindParams) ([]*Rate, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
	Create(ctx context.Context, rate *Rate) error
	// DeleteByPartner removes every rate owned by the partner after nulling
	// customer quote lines that reference them. Returns the number deleted.
	DeleteByPartner(ctx context.Context, partnerID uuid.UUID) (int64, error)
}
