package mapping

import "strings"

// cleanFunc cleans one field value. Input may be any raw cell type; nil
// passes through untouched before the function is ever consulted.
type cleanFunc func(value any) any

// cleaners is the closed per-field cleaning table, built once. Fields
// without an entry fall back to trim-if-string.
var cleaners = map[string]cleanFunc{
	FieldCost:      cleanNumeric,
	FieldWeightMin: cleanNumeric,
	FieldWeightMax: cleanNumeric,
	FieldVolumeMin: cleanNumeric,
	FieldVolumeMax: cleanNumeric,

	FieldTransportMode: cleanUpper,
	FieldOriginCity:    cleanUpper,
	FieldDestCity:      cleanUpper,
	FieldOriginCountry: cleanUpper,
	FieldDestCountry:   cleanUpper,

	FieldOriginPostalCode: cleanOriginPostal,
}

// Normalize cleans every field of a candidate in place and returns it.
// Null values stay null.
func Normalize(c Candidate) Candidate {
	for field, value := range c {
		if value == nil {
			continue
		}
		if clean, ok := cleaners[field]; ok {
			c[field] = clean(value)
		} else if s, ok := value.(string); ok {
			c[field] = strings.TrimSpace(s)
		}
	}
	return c
}

func cleanNumeric(value any) any {
	if f := CleanDecimal(value); f != nil {
		return *f
	}
	return nil
}

func cleanUpper(value any) any {
	return strings.ToUpper(stringify(value))
}

// cleanOriginPostal keeps only the department-level prefix: matching happens
// on the first two characters of the origin side.
func cleanOriginPostal(value any) any {
	s := stringify(value)
	if len(s) > 2 {
		s = s[:2]
	}
	return s
}
