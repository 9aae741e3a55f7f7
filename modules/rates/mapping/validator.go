package mapping

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/freightdesk/freightdesk/pkg/constants"
	"github.com/freightdesk/freightdesk/pkg/serrors"
)

// RateRow is the strict canonical rate shape a candidate must satisfy
// before it is persisted.
type RateRow struct {
	TransportMode    string   `validate:"required,oneof=ROAD RAIL SEA AIR MULTIMODAL"`
	OriginPostalCode *string  `validate:"-"`
	OriginCity       string   `validate:"required"`
	OriginCountry    string   `validate:"required,len=2"`
	DestPostalCode   *string  `validate:"-"`
	DestCity         string   `validate:"required"`
	DestCountry      string   `validate:"required,len=2"`
	WeightMin        *float64 `validate:"-"`
	WeightMax        *float64 `validate:"-"`
	VolumeMin        *float64 `validate:"-"`
	VolumeMax        *float64 `validate:"-"`
	Cost             float64  `validate:"required,gt=0"`
	PricingType      string   `validate:"required"`
	Currency         string   `validate:"required,len=3"`
	DeliveryTime     *string  `validate:"-"`
}

// structToField maps RateRow struct fields back to canonical field names for
// error reporting.
var structToField = map[string]string{
	"TransportMode":    FieldTransportMode,
	"OriginPostalCode": FieldOriginPostalCode,
	"OriginCity":       FieldOriginCity,
	"OriginCountry":    FieldOriginCountry,
	"DestPostalCode":   FieldDestPostalCode,
	"DestCity":         FieldDestCity,
	"DestCountry":      FieldDestCountry,
	"WeightMin":        FieldWeightMin,
	"WeightMax":        FieldWeightMax,
	"VolumeMin":        FieldVolumeMin,
	"VolumeMax":        FieldVolumeMax,
	"Cost":             FieldCost,
	"PricingType":      FieldPricingType,
	"Currency":         FieldCurrency,
	"DeliveryTime":     FieldDeliveryTime,
}

// ValidateRow checks a normalized candidate against the canonical rate
// schema. defaultCurrency fills a missing currency (the partner's local
// default). On failure it returns one error record per violated constraint,
// with the offending value sanitized; failures never abort an import.
func ValidateRow(c Candidate, defaultCurrency string) (*RateRow, []serrors.FieldError) {
	row := &RateRow{
		TransportMode:    strings.ToUpper(fieldString(c, FieldTransportMode)),
		OriginPostalCode: fieldStringPtr(c, FieldOriginPostalCode),
		OriginCity:       fieldString(c, FieldOriginCity),
		OriginCountry:    strings.ToUpper(fieldString(c, FieldOriginCountry)),
		DestPostalCode:   fieldStringPtr(c, FieldDestPostalCode),
		DestCity:         fieldString(c, FieldDestCity),
		DestCountry:      strings.ToUpper(fieldString(c, FieldDestCountry)),
		WeightMin:        fieldFloatPtr(c, FieldWeightMin),
		WeightMax:        fieldFloatPtr(c, FieldWeightMax),
		VolumeMin:        fieldFloatPtr(c, FieldVolumeMin),
		VolumeMax:        fieldFloatPtr(c, FieldVolumeMax),
		PricingType:      fieldString(c, FieldPricingType),
		Currency:         strings.ToUpper(fieldString(c, FieldCurrency)),
		DeliveryTime:     fieldStringPtr(c, FieldDeliveryTime),
	}
	if f := fieldFloatPtr(c, FieldCost); f != nil {
		row.Cost = *f
	}
	if row.PricingType == "" {
		row.PricingType = PricingPer100Kg
	}
	if row.Currency == "" {
		row.Currency = strings.ToUpper(defaultCurrency)
	}

	err := constants.Validate.Struct(row)
	if err == nil {
		return row, nil
	}
	var violations validator.ValidationErrors
	if !errors.As(err, &violations) {
		return nil, []serrors.FieldError{serrors.NewFieldError("row", err.Error(), nil)}
	}
	fieldErrs := serrors.ProcessValidatorErrors(violations, func(structField string) string {
		return structToField[structField]
	}, map[string]any(c))
	return nil, fieldErrs
}

func fieldString(c Candidate, field string) string {
	v, ok := c[field]
	if !ok || v == nil {
		return ""
	}
	return stringify(v)
}

func fieldStringPtr(c Candidate, field string) *string {
	s := fieldString(c, field)
	if s == "" {
		return nil
	}
	return &s
}

func fieldFloatPtr(c Candidate, field string) *float64 {
	v, ok := c[field]
	if !ok || v == nil {
		return nil
	}
	return CleanDecimal(v)
}
