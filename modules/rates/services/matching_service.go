package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/freightdesk/freightdesk/modules/rates/domain/aggregates/rate"
	"github.com/freightdesk/freightdesk/pkg/serrors"
)

// SearchQuery describes one shipment to find rates for. Each side of the
// lane needs at least a postal code or a city next to its country.
type SearchQuery struct {
	OriginCountry    string `json:"origin_country"`
	OriginPostalCode string `json:"origin_postal_code,omitempty"`
	OriginCity       string `json:"origin_city,omitempty"`

	DestCountry    string `json:"dest_country"`
	DestPostalCode string `json:"dest_postal_code,omitempty"`
	DestCity       string `json:"dest_city,omitempty"`

	Weight float64  `json:"weight"`
	Volume *float64 `json:"volume,omitempty"`

	TransportMode *rate.TransportMode `json:"transport_mode,omitempty"`
	// ShippingDate defaults to today.
	ShippingDate *time.Time `json:"shipping_date,omitempty"`

	HandlingFeePer100Kg  decimal.Decimal `json:"handling_fee_per_100kg,omitempty"`
	FuelSurchargePercent decimal.Decimal `json:"fuel_surcharge_percent,omitempty"`
}

// Validate reports every constraint the query violates.
func (q *SearchQuery) Validate() []serrors.FieldError {
	var errs []serrors.FieldError

	if strings.TrimSpace(q.OriginCountry) == "" {
		errs = append(errs, serrors.NewFieldError("origin_country", "value is required", q.OriginCountry))
	}
	if strings.TrimSpace(q.DestCountry) == "" {
		errs = append(errs, serrors.NewFieldError("dest_country", "value is required", q.DestCountry))
	}
	if strings.TrimSpace(q.OriginPostalCode) == "" && strings.TrimSpace(q.OriginCity) == "" {
		errs = append(errs, serrors.NewFieldError("origin", "a postal code or a city is required", nil))
	}
	if strings.TrimSpace(q.DestPostalCode) == "" && strings.TrimSpace(q.DestCity) == "" {
		errs = append(errs, serrors.NewFieldError("destination", "a postal code or a city is required", nil))
	}
	if q.Weight <= 0 {
		errs = append(errs, serrors.NewFieldError("weight", "value must be greater than 0", q.Weight))
	}
	if q.Volume != nil && *q.Volume <= 0 {
		errs = append(errs, serrors.NewFieldError("volume", "value must be greater than 0", *q.Volume))
	}
	if q.TransportMode != nil && !q.TransportMode.Valid() {
		errs = append(errs, serrors.NewFieldError("transport_mode", "unknown transport mode", string(*q.TransportMode)))
	}
	return errs
}

// ValidationError carries per-field violations out of a service call.
type ValidationError struct {
	Fields []serrors.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Error()
	}
	return strings.Join(parts, "; ")
}

// MatchedRate is one surviving rate with its computed price attached as a
// side channel; the stored rate is never mutated.
type MatchedRate struct {
	Rate      *rate.Rate     `json:"rate"`
	Breakdown PriceBreakdown `json:"price_breakdown"`
}

// MatchingService resolves shipment queries to priced rates in two stages: a
// coarse store-level filter that over-admits on postal codes, then precise
// geographic resolution per side. It is read-only and safe for concurrent
// use.
type MatchingService struct {
	rates   rate.Repository
	pricing *PricingService
}

func NewMatchingService(rates rate.Repository, pricing *PricingService) *MatchingService {
	return &MatchingService{rates: rates, pricing: pricing}
}

func (s *MatchingService) Search(ctx context.Context, q *SearchQuery) ([]MatchedRate, error) {
	if fieldErrs := q.Validate(); len(fieldErrs) > 0 {
		return nil, &ValidationError{Fields: fieldErrs}
	}

	shippingDate := time.Now()
	if q.ShippingDate != nil {
		shippingDate = *q.ShippingDate
	}

	candidates, err := s.rates.List(ctx, &rate.FindParams{
		TransportMode:    q.TransportMode,
		OriginCountry:    strings.TrimSpace(q.OriginCountry),
		DestCountry:      strings.TrimSpace(q.DestCountry),
		OriginPostalCode: strings.TrimSpace(q.OriginPostalCode),
		DestPostalCode:   strings.TrimSpace(q.DestPostalCode),
		Weight:           &q.Weight,
		ShippingDate:     &shippingDate,
		ActiveOnly:       true,
	})
	if err != nil {
		return nil, err
	}

	matches := make([]MatchedRate, 0, len(candidates))
	for _, rt := range candidates {
		if !locationMatches(q.OriginPostalCode, q.OriginCity, rt.OriginPostalCode, rt.OriginCity) {
			continue
		}
		if !locationMatches(q.DestPostalCode, q.DestCity, rt.DestPostalCode, rt.DestCity) {
			continue
		}
		matches = append(matches, MatchedRate{
			Rate:      rt,
			Breakdown: s.pricing.Price(rt, q.Weight, q.HandlingFeePer100Kg, q.FuelSurchargePercent),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Breakdown.Total.LessThan(matches[j].Breakdown.Total)
	})
	return matches, nil
}

// locationMatches applies the precise per-side geographic rules. A stored
// postal code matches a query postal code when either is a prefix of the
// other; a postal mismatch is final, with no city fallback. Wildcard stored
// city "ALL" matches any query city.
func locationMatches(queryPostal, queryCity string, storedPostal *string, storedCity string) bool {
	qp := strings.ToUpper(strings.TrimSpace(queryPostal))
	qc := strings.ToUpper(strings.TrimSpace(queryCity))
	sc := strings.ToUpper(strings.TrimSpace(storedCity))

	sp := ""
	if storedPostal != nil {
		sp = strings.ToUpper(strings.TrimSpace(*storedPostal))
	}

	if sp != "" {
		if qp == "" {
			// Postal-specific rate, city-only query: the stored city has to
			// speak for the postal code.
			if qc != "" && sc != "" {
				return sc == rate.WildcardCity || qc == sc
			}
			return false
		}
		if !strings.HasPrefix(qp, sp) && !strings.HasPrefix(sp, qp) {
			return false
		}
		if qc != "" && sc != "" {
			return sc == rate.WildcardCity || qc == sc
		}
		return true
	}

	if sc != "" {
		if qc == "" {
			return false
		}
		return sc == rate.WildcardCity || qc == sc
	}

	// Neither stored postal nor city: wildcard rate.
	return true
}
