package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/freightdesk/freightdesk/modules/rates/domain/aggregates/rate"
)

type mockRateRepository struct {
	rates      []*rate.Rate
	lastParams *rate.FindParams
	listErr    error

	created        []*rate.Rate
	deletedPartner *uuid.UUID
	deletedCount   int64
}

func (m *mockRateRepository) GetByID(_ context.Context, id uuid.UUID) (*rate.Rate, error) {
	for _, rt := range m.rates {
		if rt.ID == id {
			return rt, nil
		}
	}
	return nil, rate.ErrNotFound
}

func (m *mockRateRepository) List(_ context.Context, params *rate.FindParams) ([]*rate.Rate, error) {
	m.lastParams = params
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.rates, nil
}

func (m *mockRateRepository) Count(_ context.Context, _ *rate.FindParams) (int64, error) {
	return int64(len(m.rates)), nil
}

func (m *mockRateRepository) Create(_ context.Context, rt *rate.Rate) error {
	m.created = append(m.created, rt)
	return nil
}

func (m *mockRateRepository) DeleteByPartner(_ context.Context, partnerID uuid.UUID) (int64, error) {
	m.deletedPartner = &partnerID
	return m.deletedCount, nil
}

func laneRate(originPostal, originCity, destPostal, destCity, cost string) *rate.Rate {
	return &rate.Rate{
		ID:               uuid.New(),
		TransportMode:    rate.ModeRoad,
		OriginPostalCode: stringOrNil(originPostal),
		OriginCity:       originCity,
		OriginCountry:    "FR",
		DestPostalCode:   stringOrNil(destPostal),
		DestCity:         destCity,
		DestCountry:      "IT",
		Cost:             decimal.RequireFromString(cost),
		PricingType:      rate.PricingLumpsum,
		Currency:         "EUR",
		IsActive:         true,
	}
}

func stringOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func validQuery() *SearchQuery {
	return &SearchQuery{
		OriginCountry:    "FR",
		OriginPostalCode: "69100",
		DestCountry:      "IT",
		DestPostalCode:   "20100",
		Weight:           250,
	}
}

func TestSearch_RejectsIncompleteQuery(t *testing.T) {
	svc := NewMatchingService(&mockRateRepository{}, NewPricingService())

	_, err := svc.Search(context.Background(), &SearchQuery{
		OriginCountry: "FR",
		DestCountry:   "IT",
		DestCity:      "MILANO",
		Weight:        100,
	})
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Len(t, vErr.Fields, 1)
	require.Equal(t, "origin", vErr.Fields[0].Field)
}

func TestSearch_RejectsNonPositiveWeight(t *testing.T) {
	svc := NewMatchingService(&mockRateRepository{}, NewPricingService())

	q := validQuery()
	q.Weight = 0
	_, err := svc.Search(context.Background(), q)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, "weight", vErr.Fields[0].Field)
}

func TestSearch_PassesCoarseFilterParams(t *testing.T) {
	repo := &mockRateRepository{}
	svc := NewMatchingService(repo, NewPricingService())

	mode := rate.ModeRoad
	q := validQuery()
	q.TransportMode = &mode

	_, err := svc.Search(context.Background(), q)
	require.NoError(t, err)

	require.NotNil(t, repo.lastParams)
	require.True(t, repo.lastParams.ActiveOnly)
	require.Equal(t, "FR", repo.lastParams.OriginCountry)
	require.Equal(t, "IT", repo.lastParams.DestCountry)
	require.Equal(t, "69100", repo.lastParams.OriginPostalCode)
	require.NotNil(t, repo.lastParams.Weight)
	require.InDelta(t, 250, *repo.lastParams.Weight, 1e-9)
	require.NotNil(t, repo.lastParams.ShippingDate)
	require.Equal(t, mode, *repo.lastParams.TransportMode)
}

func TestSearch_BidirectionalPostalPrefix(t *testing.T) {
	// Stored "69" admits query "69100"; stored "69100" admits query "69".
	repo := &mockRateRepository{rates: []*rate.Rate{
		laneRate("69", "", "20", "", "100.00"),
		laneRate("69100", "", "20100", "", "110.00"),
		laneRate("75", "", "20", "", "90.00"),
	}}
	svc := NewMatchingService(repo, NewPricingService())

	out, err := svc.Search(context.Background(), validQuery())
	require.NoError(t, err)
	require.Len(t, out, 2)
}

func TestSearch_PostalMismatchHasNoCityFallback(t *testing.T) {
	repo := &mockRateRepository{rates: []*rate.Rate{
		laneRate("75", "PARIS", "20", "MILANO", "100.00"),
	}}
	svc := NewMatchingService(repo, NewPricingService())

	q := validQuery()
	q.OriginCity = "PARIS"
	out, err := svc.Search(context.Background(), q)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestSearch_PostalMatchStillChecksCityWhenBothPresent(t *testing.T) {
	repo := &mockRateRepository{rates: []*rate.Rate{
		laneRate("69", "LYON", "20", "MILANO", "100.00"),
		laneRate("69", "VILLEURBANNE", "20", "MILANO", "95.00"),
		laneRate("69", rate.WildcardCity, "20", "MILANO", "105.00"),
	}}
	svc := NewMatchingService(repo, NewPricingService())

	q := validQuery()
	q.OriginCity = "Lyon"
	q.DestCity = "Milano"
	out, err := svc.Search(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, out, 2)
}

func TestSearch_CityOnlyQueryAgainstPostalRate(t *testing.T) {
	repo := &mockRateRepository{rates: []*rate.Rate{
		laneRate("06000", "NICE", "", "MILANO", "100.00"),
	}}
	svc := NewMatchingService(repo, NewPricingService())

	q := &SearchQuery{
		OriginCountry: "FR",
		OriginCity:    "nice",
		DestCountry:   "IT",
		DestCity:      "Milano",
		Weight:        100,
	}
	out, err := svc.Search(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestSearch_CityOnlyRateRequiresQueryCity(t *testing.T) {
	repo := &mockRateRepository{rates: []*rate.Rate{
		laneRate("", "LYON", "20", "", "100.00"),
	}}
	svc := NewMatchingService(repo, NewPricingService())

	// Query has a postal code but no city; a city-only rate cannot match.
	out, err := svc.Search(context.Background(), validQuery())
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestSearch_WildcardRateAlwaysMatches(t *testing.T) {
	repo := &mockRateRepository{rates: []*rate.Rate{
		laneRate("", "", "", "", "100.00"),
	}}
	svc := NewMatchingService(repo, NewPricingService())

	out, err := svc.Search(context.Background(), validQuery())
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestSearch_SortsByTotalAscendingWithoutMutatingRates(t *testing.T) {
	expensive := laneRate("69", "", "20", "", "200.00")
	cheap := laneRate("69", "", "20", "", "50.00")
	repo := &mockRateRepository{rates: []*rate.Rate{expensive, cheap}}
	svc := NewMatchingService(repo, NewPricingService())

	out, err := svc.Search(context.Background(), validQuery())
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, cheap.ID, out[0].Rate.ID)
	require.Equal(t, expensive.ID, out[1].Rate.ID)

	// The stored cost is untouched; the computed price lives in the breakdown.
	require.Equal(t, "200.00", expensive.Cost.StringFixed(2))
	require.Equal(t, "200.00", out[1].Breakdown.Total.StringFixed(2))
}

func TestSearch_PropagatesRepositoryError(t *testing.T) {
	repo := &mockRateRepository{listErr: errors.New("boom")}
	svc := NewMatchingService(repo, NewPricingService())

	_, err := svc.Search(context.Background(), validQuery())
	require.Error(t, err)
}

func TestLocationMatches(t *testing.T) {
	cases := []struct {
		name         string
		queryPostal  string
		queryCity    string
		storedPostal string
		storedCity   string
		want         bool
	}{
		{"postal prefix stored shorter", "69100", "", "69", "", true},
		{"postal prefix query shorter", "69", "", "69100", "", true},
		{"postal mismatch", "75", "", "69", "", false},
		{"postal match city mismatch", "69", "LYON", "69", "GRENOBLE", false},
		{"postal match stored wildcard city", "69", "LYON", "69", "ALL", true},
		{"postal match city not comparable", "69", "", "69", "LYON", true},
		{"no query postal city equal", "", "NICE", "06000", "NICE", true},
		{"no query postal no city", "", "", "06000", "NICE", false},
		{"city only exact", "", "lyon", "", "LYON", true},
		{"city only wildcard", "", "ANYWHERE", "", "ALL", true},
		{"city only missing query city", "75", "", "", "LYON", false},
		{"full wildcard", "75", "", "", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, locationMatches(tc.queryPostal, tc.queryCity, stringOrNil(tc.storedPostal), tc.storedCity))
		})
	}
}
