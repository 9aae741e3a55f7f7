package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/freightdesk/freightdesk/modules/rates/domain/aggregates/rate"
)

var (
	decimalHundred = decimal.NewFromInt(100)
	decimalOne     = decimal.NewFromInt(1)
)

// PriceBreakdown reports every term of a computed price so the quoted total
// can be audited against the stored rate.
type PriceBreakdown struct {
	PricingType    string
	UnitPrice      decimal.Decimal
	ActualWeight   float64
	BillableWeight float64
	BaseCost       decimal.Decimal
	HandlingFee    decimal.Decimal
	FuelSurcharge  decimal.Decimal
	Total          decimal.Decimal
	Currency       string
	Formula        string
}

// MarshalJSON renders monetary amounts as fixed two-decimal strings;
// decimal.Decimal's own encoding trims trailing zeros ("51.00" → "51").
func (b PriceBreakdown) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		PricingType    string  `json:"pricing_type"`
		UnitPrice      string  `json:"unit_price"`
		ActualWeight   float64 `json:"actual_weight"`
		BillableWeight float64 `json:"billable_weight"`
		BaseCost       string  `json:"base_cost"`
		HandlingFee    string  `json:"handling_fee"`
		FuelSurcharge  string  `json:"fuel_surcharge_amount"`
		Total          string  `json:"total"`
		Currency       string  `json:"currency"`
		Formula        string  `json:"formula"`
	}{
		PricingType:    b.PricingType,
		UnitPrice:      b.UnitPrice.StringFixed(2),
		ActualWeight:   b.ActualWeight,
		BillableWeight: b.BillableWeight,
		BaseCost:       b.BaseCost.StringFixed(2),
		HandlingFee:    b.HandlingFee.StringFixed(2),
		FuelSurcharge:  b.FuelSurcharge.StringFixed(2),
		Total:          b.Total.StringFixed(2),
		Currency:       b.Currency,
		Formula:        b.Formula,
	})
}

// PricingService computes quoted prices and margins. All monetary arithmetic
// uses fixed-point decimals quantized half-up to 2 decimal places; float64
// only ever carries weights.
type PricingService struct{}

func NewPricingService() *PricingService {
	return &PricingService{}
}

// Price computes the cost of shipping the requested weight under the rate's
// pricing scheme. handlingFeePer100kg and fuelSurchargePercent are optional
// extras; pass zero decimals to skip them.
func (s *PricingService) Price(rt *rate.Rate, weight float64, handlingFeePer100kg, fuelSurchargePercent decimal.Decimal) PriceBreakdown {
	unit := rt.Cost.Round(2)
	sym := currencySymbol(rt.Currency)

	b := PriceBreakdown{
		PricingType:  rt.PricingType,
		UnitPrice:    unit,
		ActualWeight: weight,
		Currency:     rt.Currency,
	}

	hundredsUnits := int64(math.Ceil(weight / 100))

	switch rt.PricingType {
	case rate.PricingPer100Kg:
		b.BillableWeight = float64(hundredsUnits * 100)
		b.BaseCost = unit.Mul(decimal.NewFromInt(hundredsUnits)).Round(2)
		b.Formula = fmt.Sprintf("%s × %d = %s %s", unit.StringFixed(2), hundredsUnits, b.BaseCost.StringFixed(2), sym)
	case rate.PricingPerKg:
		b.BillableWeight = weight
		b.BaseCost = unit.Mul(decimal.NewFromFloat(weight)).Round(2)
		b.Formula = fmt.Sprintf("%s × %s kg = %s %s", unit.StringFixed(2), formatWeight(weight), b.BaseCost.StringFixed(2), sym)
	default:
		// LUMPSUM and any unknown scheme price flat.
		b.BillableWeight = weight
		b.BaseCost = unit
		b.Formula = fmt.Sprintf("%s %s (flat)", unit.StringFixed(2), sym)
	}

	total := b.BaseCost
	if handlingFeePer100kg.IsPositive() {
		b.HandlingFee = handlingFeePer100kg.Mul(decimal.NewFromInt(hundredsUnits)).Round(2)
		total = total.Add(b.HandlingFee)
		b.Formula += fmt.Sprintf(" + %s handling", b.HandlingFee.StringFixed(2))
	}
	if fuelSurchargePercent.IsPositive() {
		b.FuelSurcharge = total.Mul(fuelSurchargePercent.Div(decimalHundred)).Round(2)
		total = total.Add(b.FuelSurcharge)
		b.Formula += fmt.Sprintf(" + %s fuel (%s%%)", b.FuelSurcharge.StringFixed(2), fuelSurchargePercent.String())
	}
	b.Total = total.Round(2)
	if !b.Total.Equal(b.BaseCost) {
		b.Formula += fmt.Sprintf(" = %s %s", b.Total.StringFixed(2), sym)
	}
	return b
}

// CalculateSellPrice derives the sell price from a cost price and a target
// margin percentage: sell = cost × (1 + margin/100).
func (s *PricingService) CalculateSellPrice(costPrice, marginPercent decimal.Decimal) decimal.Decimal {
	return costPrice.Mul(decimalOne.Add(marginPercent.Div(decimalHundred))).Round(2)
}

// CalculateMarginPercent derives the margin percentage from cost and sell
// prices: margin% = (sell/cost − 1) × 100. A zero cost is defined as 100%
// margin when anything was sold, 0% otherwise.
func (s *PricingService) CalculateMarginPercent(costPrice, sellPrice decimal.Decimal) decimal.Decimal {
	if costPrice.IsZero() {
		if sellPrice.IsPositive() {
			return decimalHundred
		}
		return decimal.Zero
	}
	return sellPrice.Div(costPrice).Sub(decimalOne).Mul(decimalHundred).Round(2)
}

func (s *PricingService) CalculateMarginAmount(costPrice, sellPrice decimal.Decimal) decimal.Decimal {
	return sellPrice.Sub(costPrice).Round(2)
}

func currencySymbol(code string) string {
	switch code {
	case "EUR":
		return "€"
	case "USD":
		return "$"
	case "GBP":
		return "£"
	default:
		return code
	}
}

func formatWeight(weight float64) string {
	return strconv.FormatFloat(weight, 'f', -1, 64)
}
