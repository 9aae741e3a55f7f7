package mapping

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/freightdesk/freightdesk/pkg/tabular"
)

// Canonical rate fields produced by the mapper.
const (
	FieldTransportMode    = "transport_mode"
	FieldOriginPostalCode = "origin_postal_code"
	FieldOriginCity       = "origin_city"
	FieldOriginCountry    = "origin_country"
	FieldDestPostalCode   = "dest_postal_code"
	FieldDestCity         = "dest_city"
	FieldDestCountry      = "dest_country"
	FieldWeightMin        = "weight_min"
	FieldWeightMax        = "weight_max"
	FieldVolumeMin        = "volume_min"
	FieldVolumeMax        = "volume_max"
	FieldCost             = "cost"
	FieldPricingType      = "pricing_type"
	FieldCurrency         = "currency"
	FieldDeliveryTime     = "delivery_time"
)

// stringFields get trimmed, substituted and postal-padded after any strategy.
var stringFields = []string{
	FieldOriginPostalCode,
	FieldDestPostalCode,
	FieldOriginCity,
	FieldDestCity,
	FieldOriginCountry,
	FieldDestCountry,
	FieldPricingType,
}

// Pricing scheme values the strategies assign themselves. Kept local so the
// mapping package stays free of a dependency on the rate aggregate.
const (
	PricingPer100Kg = "PER_100KG"
	PricingLumpsum  = "LUMPSUM"
)

// Candidate is one canonical rate row proposed by the mapper, keyed by
// canonical field name. It still needs normalization and validation.
type Candidate map[string]any

type Mapper struct {
	cfg *Config
}

func NewMapper(cfg *Config) *Mapper {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Mapper{cfg: cfg}
}

func (m *Mapper) Config() *Config {
	return m.cfg
}

// MapRow expands one raw row into zero or more candidate rows according to
// the sheet's layout strategy. It never fails on malformed input: a row
// without a usable cost simply yields no candidates. carry threads the
// previous row's maximum bracket bound through sequential-inference layouts
// and must be reset per sheet by the caller.
func (m *Mapper) MapRow(row tabular.Row, sheet *SheetConfig, carry *CarryState) []Candidate {
	if row == nil || sheet == nil {
		return nil
	}
	if carry == nil {
		carry = &CarryState{}
	}

	aliases := m.buildAliasMap(sheet)

	var candidates []Candidate
	switch sheet.Layout {
	case LayoutGrid:
		candidates = m.mapGrid(row, sheet, aliases)
	case LayoutDualGrid:
		candidates = m.mapDualGrid(row, sheet, aliases)
	case LayoutSingleGrid:
		candidates = m.mapSingleGrid(row, sheet, aliases)
	case LayoutZoneMatrix:
		candidates = m.mapZoneMatrix(row, sheet, aliases, carry)
	default:
		candidates = m.mapFlat(row, sheet, aliases)
	}

	for _, c := range candidates {
		m.finalize(c, sheet)
	}
	return candidates
}

// buildAliasMap merges the shared default alias table with the sheet's
// overrides and inverts it: normalized alias to the canonical fields it
// populates. One spreadsheet column may feed several canonical fields.
func (m *Mapper) buildAliasMap(sheet *SheetConfig) map[string][]string {
	aliases := make(map[string][]string)
	add := func(alias, field string) {
		norm := NormalizeLabel(alias)
		for _, existing := range aliases[norm] {
			if existing == field {
				return
			}
		}
		aliases[norm] = append(aliases[norm], field)
	}

	for field, list := range m.cfg.Default.Columns {
		for _, alias := range list {
			add(alias, field)
		}
	}
	for field, alias := range sheet.Columns {
		add(alias, field)
	}
	return aliases
}

var canonicalFields = map[string]struct{}{
	FieldTransportMode:    {},
	FieldOriginPostalCode: {},
	FieldOriginCity:       {},
	FieldOriginCountry:    {},
	FieldDestPostalCode:   {},
	FieldDestCity:         {},
	FieldDestCountry:      {},
	FieldWeightMin:        {},
	FieldWeightMax:        {},
	FieldVolumeMin:        {},
	FieldVolumeMax:        {},
	FieldCost:             {},
	FieldPricingType:      {},
	FieldCurrency:         {},
	FieldDeliveryTime:     {},
}

// isCanonicalField reports whether the label already names a canonical
// field; such columns pass through without an alias entry.
func (m *Mapper) isCanonicalField(label string) bool {
	_, ok := canonicalFields[label]
	return ok
}

// baseFields maps every non-pivot column of the row through the alias table.
func (m *Mapper) baseFields(row tabular.Row, aliases map[string][]string, skip func(label string) bool) Candidate {
	base := Candidate{}
	for label, value := range row {
		norm := NormalizeLabel(label)
		if skip != nil && skip(norm) {
			continue
		}
		if fields, ok := aliases[norm]; ok {
			for _, field := range fields {
				base[field] = value
			}
		} else if m.isCanonicalField(norm) {
			base[norm] = value
		}
	}
	return base
}

func applyDefaults(c Candidate, defaults map[string]any) {
	for field, value := range defaults {
		if existing, ok := c[field]; !ok || existing == nil {
			c[field] = value
		}
	}
}

// findCell looks a header up in the row: exact label first, then by
// normalized comparison.
func findCell(row tabular.Row, header string) any {
	if v, ok := row[header]; ok {
		return v
	}
	norm := NormalizeLabel(header)
	for label, value := range row {
		if NormalizeLabel(label) == norm {
			return value
		}
	}
	return nil
}

func (m *Mapper) mapFlat(row tabular.Row, sheet *SheetConfig, aliases map[string][]string) []Candidate {
	c := m.baseFields(row, aliases, nil)
	applyDefaults(c, sheet.Defaults)

	cost := CleanDecimal(c[FieldCost])
	if cost == nil {
		return nil
	}
	c[FieldCost] = *cost
	return []Candidate{c}
}

func (m *Mapper) mapGrid(row tabular.Row, sheet *SheetConfig, aliases map[string][]string) []Candidate {
	grid := sheet.Grid
	if grid == nil || grid.HeaderRegex == "" {
		return nil
	}
	headerRe, err := regexp.Compile("(?i)" + grid.HeaderRegex)
	if err != nil {
		return nil
	}
	valueField := grid.ValueColumn
	if valueField == "" {
		valueField = FieldCost
	}

	type pivot struct {
		weight float64
		cost   float64
	}
	var pivots []pivot

	base := Candidate{}
	for label, value := range row {
		// Row labels are normalized with underscores; also try the spaced
		// form so config regexps can be written against the visible header.
		match := headerRe.FindStringSubmatch(label)
		if match == nil {
			match = headerRe.FindStringSubmatch(strings.ReplaceAll(label, "_", " "))
		}
		if match != nil && len(match) > 1 {
			weight, err := strconv.ParseFloat(match[1], 64)
			if err != nil {
				continue
			}
			if cleaned := CleanDecimal(value); cleaned != nil {
				pivots = append(pivots, pivot{weight: weight, cost: *cleaned})
			}
			continue
		}
		norm := NormalizeLabel(label)
		if fields, ok := aliases[norm]; ok {
			for _, field := range fields {
				base[field] = value
			}
		} else if m.isCanonicalField(norm) {
			base[norm] = value
		}
	}
	applyDefaults(base, sheet.Defaults)

	sort.SliceStable(pivots, func(i, j int) bool { return pivots[i].weight < pivots[j].weight })

	candidates := make([]Candidate, 0, len(pivots))
	prevMax := 0.0
	first := true
	for _, p := range pivots {
		c := base.clone()
		if first {
			c[FieldWeightMin] = 0.0
			first = false
		} else {
			c[FieldWeightMin] = prevMax + 1 + grid.WeightGap
		}
		c[FieldWeightMax] = p.weight
		c[valueField] = p.cost
		candidates = append(candidates, c)
		prevMax = p.weight
	}
	return candidates
}

func (m *Mapper) mapDualGrid(row tabular.Row, sheet *SheetConfig, aliases map[string][]string) []Candidate {
	dual := sheet.DualGrid
	if dual == nil {
		return nil
	}

	base := m.baseFields(row, aliases, nil)
	applyDefaults(base, sheet.Defaults)

	var candidates []Candidate
	for _, section := range []*DualGridSection{dual.SmallWeights, dual.LargeWeights} {
		if section == nil {
			continue
		}
		pricingType := base[section.PricingCol]
		deliveryTime := base[section.DeliveryTimeCol]

		for _, bracket := range sortedBracketHeaders(section.Columns) {
			cleaned := CleanDecimal(findCell(row, bracket.header))
			if cleaned == nil || *cleaned <= 0 {
				continue
			}
			c := base.clone()
			c[FieldWeightMin] = bracket.rng.WeightMin
			c[FieldWeightMax] = bracket.rng.WeightMax
			c[FieldCost] = *cleaned
			if pricingType != nil {
				c[FieldPricingType] = pricingType
			}
			if deliveryTime != nil {
				c[FieldDeliveryTime] = deliveryTime
			}
			candidates = append(candidates, c)
		}
	}
	return candidates
}

type namedBracket struct {
	header string
	rng    WeightRange
}

// sortedBracketHeaders yields a section's brackets ordered by ascending
// minimum weight so output order is deterministic.
func sortedBracketHeaders(columns map[string]WeightRange) []namedBracket {
	out := make([]namedBracket, 0, len(columns))
	for header, rng := range columns {
		out = append(out, namedBracket{header: header, rng: rng})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].rng.WeightMin < out[j].rng.WeightMin })
	return out
}

func (m *Mapper) mapSingleGrid(row tabular.Row, sheet *SheetConfig, aliases map[string][]string) []Candidate {
	single := sheet.SingleGrid
	if single == nil {
		return nil
	}

	var extractRe *regexp.Regexp
	if t, ok := sheet.Transforms[FieldDestPostalCode]; ok && t.RegexExtract != "" {
		extractRe, _ = regexp.Compile(t.RegexExtract)
	}
	provinceNorm := NormalizeLabel(single.ProvinceColumn)

	base := Candidate{}
	for label, value := range row {
		norm := NormalizeLabel(label)
		if single.ProvinceColumn != "" && (label == single.ProvinceColumn || norm == provinceNorm) {
			m.extractProvince(base, value, extractRe)
			continue
		}
		if fields, ok := aliases[norm]; ok {
			for _, field := range fields {
				base[field] = value
			}
		} else if m.isCanonicalField(norm) {
			base[norm] = value
		}
	}
	applyDefaults(base, sheet.Defaults)

	var candidates []Candidate
	for _, bracket := range single.Brackets {
		cleaned := CleanDecimal(findCell(row, bracket.Header))
		if cleaned == nil {
			continue
		}
		c := base.clone()
		c[FieldWeightMin] = bracket.WeightMin
		c[FieldWeightMax] = bracket.WeightMax
		c[FieldCost] = *cleaned
		c[FieldPricingType] = bracket.PricingType
		if bracket.PricingType == "" {
			c[FieldPricingType] = PricingPer100Kg
		}
		candidates = append(candidates, c)
	}
	return candidates
}

// extractProvince pulls a postal prefix, and optionally a city, out of a
// combined cell like "20 Milano". Without a regexp the raw value is used as
// the postal code verbatim.
func (m *Mapper) extractProvince(base Candidate, value any, extractRe *regexp.Regexp) {
	if value == nil {
		return
	}
	if s, ok := value.(string); ok && extractRe != nil {
		if match := extractRe.FindStringSubmatch(s); match != nil {
			base[FieldDestPostalCode] = match[1]
			if len(match) > 2 {
				base[FieldDestCity] = strings.TrimSpace(match[2])
			}
		} else {
			base[FieldDestPostalCode] = s
		}
	} else {
		base[FieldDestPostalCode] = value
	}
	if _, ok := base[FieldDestCity]; !ok {
		base[FieldDestCity] = value
	}
}

func (m *Mapper) mapZoneMatrix(row tabular.Row, sheet *SheetConfig, aliases map[string][]string, carry *CarryState) []Candidate {
	zone := sheet.ZoneMatrix
	if zone == nil {
		return nil
	}
	weightCol := zone.WeightColumn
	if weightCol == "" {
		weightCol = "kg"
	}
	weightNorm := NormalizeLabel(weightCol)

	// Zone names are keyed in normalized form so "Zone A" in the config
	// matches the "zone_a" label the reader produces.
	zones := make(map[string]StringList, len(zone.ZoneToPostcodes))
	for key, codes := range zone.ZoneToPostcodes {
		zones[strings.ToUpper(NormalizeLabel(key))] = codes
	}

	base := m.baseFields(row, aliases, func(norm string) bool {
		_, isDest := zones[strings.ToUpper(norm)]
		return norm == weightNorm || isDest
	})
	applyDefaults(base, sheet.Defaults)

	var weightVal any
	for label, value := range row {
		if NormalizeLabel(label) == weightNorm {
			weightVal = value
			break
		}
	}
	if weightVal == nil {
		return nil
	}

	lo, hi := ParseWeightKey(weightVal, carry.PrevWeightMax)
	if hi > 0 {
		carry.PrevWeightMax = hi
	}

	emit := func(cost float64, postal string) Candidate {
		c := base.clone()
		c[FieldWeightMin] = lo
		c[FieldWeightMax] = hi
		c[FieldCost] = cost
		c[FieldDestPostalCode] = postal
		if existing, ok := c[FieldPricingType]; !ok || existing == nil {
			c[FieldPricingType] = PricingLumpsum
		}
		return c
	}

	// Deterministic column order: sort the destination headers.
	labels := make([]string, 0, len(row))
	for label := range row {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var candidates []Candidate
	for _, label := range labels {
		norm := NormalizeLabel(label)
		if norm == weightNorm || strings.Contains(norm, "unnamed") {
			continue
		}
		value := row[label]
		if value == nil {
			continue
		}
		if _, mapped := aliases[norm]; mapped {
			continue
		}
		cost := CleanDecimal(value)
		if cost == nil {
			continue
		}
		destKey := strings.ToUpper(norm)
		if postcodes, ok := zones[destKey]; ok {
			for _, pc := range postcodes {
				candidates = append(candidates, emit(*cost, strings.TrimSpace(pc)))
			}
		} else {
			candidates = append(candidates, emit(*cost, destKey))
		}
	}
	return candidates
}

// finalize trims string fields, applies exact-value substitutions and
// left-pads short numeric postal codes.
func (m *Mapper) finalize(c Candidate, sheet *SheetConfig) {
	for _, field := range stringFields {
		value, ok := c[field]
		if !ok || value == nil {
			continue
		}
		s := stringify(value)
		if t, ok := sheet.Transforms[field]; ok {
			if replacement, ok := t.Replace[s]; ok {
				s = replacement
			}
		}
		if (field == FieldOriginPostalCode || field == FieldDestPostalCode) && isDigits(s) && len(s) < 2 {
			s = strings.Repeat("0", 2-len(s)) + s
		}
		c[field] = s
	}
}

func (c Candidate) clone() Candidate {
	out := make(Candidate, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
