package services

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/freightdesk/freightdesk/modules/rates/domain/aggregates/rate"
)

func testRate(pricingType string, cost string) *rate.Rate {
	return &rate.Rate{
		Cost:        decimal.RequireFromString(cost),
		PricingType: pricingType,
		Currency:    "EUR",
	}
}

func TestPrice_Per100Kg(t *testing.T) {
	svc := NewPricingService()

	b := svc.Price(testRate(rate.PricingPer100Kg, "17.00"), 250, decimal.Zero, decimal.Zero)

	require.InDelta(t, 250, b.ActualWeight, 1e-9)
	require.InDelta(t, 300, b.BillableWeight, 1e-9)
	require.Equal(t, "51.00", b.BaseCost.StringFixed(2))
	require.Equal(t, "51.00", b.Total.StringFixed(2))
	require.Equal(t, "17.00 × 3 = 51.00 €", b.Formula)
}

func TestPriceBreakdown_JSONKeepsTrailingZeros(t *testing.T) {
	svc := NewPricingService()

	b := svc.Price(testRate(rate.PricingPer100Kg, "17.00"), 250, decimal.Zero, decimal.Zero)
	body, err := json.Marshal(b)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	require.Equal(t, "51.00", out["total"])
	require.Equal(t, "17.00", out["unit_price"])
	require.Equal(t, "0.00", out["handling_fee"])
}

func TestPrice_Per100KgExactBoundary(t *testing.T) {
	svc := NewPricingService()

	b := svc.Price(testRate(rate.PricingPer100Kg, "17.00"), 300, decimal.Zero, decimal.Zero)
	require.InDelta(t, 300, b.BillableWeight, 1e-9)
	require.Equal(t, "51.00", b.Total.StringFixed(2))
}

func TestPrice_PerKg(t *testing.T) {
	svc := NewPricingService()

	b := svc.Price(testRate(rate.PricingPerKg, "0.55"), 250, decimal.Zero, decimal.Zero)
	require.InDelta(t, 250, b.BillableWeight, 1e-9)
	require.Equal(t, "137.50", b.Total.StringFixed(2))
	require.Equal(t, "0.55 × 250 kg = 137.50 €", b.Formula)
}

func TestPrice_Lumpsum(t *testing.T) {
	svc := NewPricingService()

	b := svc.Price(testRate(rate.PricingLumpsum, "80.00"), 1234, decimal.Zero, decimal.Zero)
	require.InDelta(t, 1234, b.BillableWeight, 1e-9)
	require.Equal(t, "80.00", b.Total.StringFixed(2))
}

func TestPrice_UnknownSchemeFallsBackToFlat(t *testing.T) {
	svc := NewPricingService()

	b := svc.Price(testRate("PER_PALLET", "45.00"), 500, decimal.Zero, decimal.Zero)
	require.Equal(t, "45.00", b.Total.StringFixed(2))
	require.InDelta(t, 500, b.BillableWeight, 1e-9)
}

func TestPrice_HandlingAndFuelSurcharge(t *testing.T) {
	svc := NewPricingService()

	b := svc.Price(
		testRate(rate.PricingPer100Kg, "17.00"),
		250,
		decimal.RequireFromString("2.50"),
		decimal.RequireFromString("10"),
	)

	// base 51.00, handling 3 × 2.50 = 7.50, fuel 10% of 58.50 = 5.85
	require.Equal(t, "51.00", b.BaseCost.StringFixed(2))
	require.Equal(t, "7.50", b.HandlingFee.StringFixed(2))
	require.Equal(t, "5.85", b.FuelSurcharge.StringFixed(2))
	require.Equal(t, "64.35", b.Total.StringFixed(2))
}

func TestPrice_RoundsHalfUp(t *testing.T) {
	svc := NewPricingService()

	// 0.125 × 1 kg would be 0.125; half-up quantization yields 0.13.
	b := svc.Price(testRate(rate.PricingPerKg, "0.125"), 1, decimal.Zero, decimal.Zero)
	require.Equal(t, "0.13", b.Total.StringFixed(2))
}

func TestCalculateSellPrice(t *testing.T) {
	svc := NewPricingService()

	sell := svc.CalculateSellPrice(decimal.RequireFromString("100.00"), decimal.RequireFromString("25"))
	require.Equal(t, "125.00", sell.StringFixed(2))
}

func TestCalculateMarginPercent(t *testing.T) {
	svc := NewPricingService()

	margin := svc.CalculateMarginPercent(decimal.RequireFromString("100.00"), decimal.RequireFromString("125.00"))
	require.Equal(t, "25.00", margin.StringFixed(2))
}

func TestCalculateMarginPercent_ZeroCost(t *testing.T) {
	svc := NewPricingService()

	require.Equal(t, "100.00", svc.CalculateMarginPercent(decimal.Zero, decimal.RequireFromString("50")).StringFixed(2))
	require.Equal(t, "0.00", svc.CalculateMarginPercent(decimal.Zero, decimal.Zero).StringFixed(2))
}

func TestMarginRoundTrip(t *testing.T) {
	svc := NewPricingService()

	cost := decimal.RequireFromString("80.00")
	sell := svc.CalculateSellPrice(cost, decimal.RequireFromString("30"))
	require.Equal(t, "104.00", sell.StringFixed(2))
	require.Equal(t, "30.00", svc.CalculateMarginPercent(cost, sell).StringFixed(2))
	require.Equal(t, "24.00", svc.CalculateMarginAmount(cost, sell).StringFixed(2))
}
