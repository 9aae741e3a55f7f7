package mapping

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/freightdesk/freightdesk/pkg/tabular"
)

func defaultTestConfig() *Config {
	return &Config{
		Default: DefaultConfig{
			Columns: map[string]StringList{
				FieldOriginCity:    {"origin city", "ville depart", "from"},
				FieldDestCity:      {"dest city", "ville arrivee", "to"},
				FieldOriginCountry: {"origin country", "pays depart"},
				FieldDestCountry:   {"dest country", "pays arrivee"},
				FieldCost:          {"price", "tarif", "prix"},
				FieldTransportMode: {"mode"},
				FieldDeliveryTime:  {"transit", "delai"},
			},
		},
	}
}

func TestMapRow_Flat(t *testing.T) {
	cfg := defaultTestConfig()
	mapper := NewMapper(cfg)

	sheet := &SheetConfig{
		Layout: LayoutFlat,
		Defaults: map[string]any{
			FieldTransportMode: "ROAD",
			FieldOriginCountry: "FR",
		},
	}

	row := tabular.Row{
		"ville_depart": "Paris",
		"dest_city":    "Milan",
		"dest_country": "IT",
		"tarif":        "1 200,50 €",
	}

	out := mapper.MapRow(row, sheet, &CarryState{})
	require.Len(t, out, 1)
	c := out[0]
	require.Equal(t, "Paris", c[FieldOriginCity])
	require.Equal(t, "Milan", c[FieldDestCity])
	require.Equal(t, "IT", c[FieldDestCountry])
	require.Equal(t, "FR", c[FieldOriginCountry])
	require.Equal(t, "ROAD", c[FieldTransportMode])
	require.InDelta(t, 1200.50, c[FieldCost].(float64), 1e-9)
}

func TestMapRow_FlatWithoutCostYieldsNothing(t *testing.T) {
	mapper := NewMapper(defaultTestConfig())
	sheet := &SheetConfig{Layout: LayoutFlat}

	out := mapper.MapRow(tabular.Row{"ville_depart": "Paris"}, sheet, &CarryState{})
	require.Empty(t, out)
}

func TestMapRow_OneColumnFeedsTwoFields(t *testing.T) {
	cfg := defaultTestConfig()
	mapper := NewMapper(cfg)

	sheet := &SheetConfig{
		Layout: LayoutFlat,
		Columns: map[string]string{
			FieldOriginCity:       "hub",
			FieldOriginPostalCode: "hub",
		},
		Defaults: map[string]any{FieldCost: 10.0},
	}

	out := mapper.MapRow(tabular.Row{"hub": "69"}, sheet, &CarryState{})
	require.Len(t, out, 1)
	require.Equal(t, "69", out[0][FieldOriginCity])
	require.Equal(t, "69", out[0][FieldOriginPostalCode])
}

func TestMapRow_GridBrackets(t *testing.T) {
	mapper := NewMapper(defaultTestConfig())
	sheet := &SheetConfig{
		Layout: LayoutGrid,
		Grid:   &GridConfig{HeaderRegex: `(\d+)\s*kg`},
	}

	row := tabular.Row{
		"ville_depart": "Lyon",
		"10_kg":        "22,00",
		"5_kg":         "15,00",
		"20_kg":        "30,00",
	}

	out := mapper.MapRow(row, sheet, &CarryState{})
	require.Len(t, out, 3)

	// Sorted ascending by extracted weight; bracket minimums chain from the
	// previous maximum.
	require.InDelta(t, 0, out[0][FieldWeightMin].(float64), 1e-9)
	require.InDelta(t, 5, out[0][FieldWeightMax].(float64), 1e-9)
	require.InDelta(t, 6, out[1][FieldWeightMin].(float64), 1e-9)
	require.InDelta(t, 10, out[1][FieldWeightMax].(float64), 1e-9)
	require.InDelta(t, 11, out[2][FieldWeightMin].(float64), 1e-9)
	require.InDelta(t, 20, out[2][FieldWeightMax].(float64), 1e-9)

	require.InDelta(t, 15, out[0][FieldCost].(float64), 1e-9)
	require.Equal(t, "Lyon", out[0][FieldOriginCity])
}

func TestMapRow_GridSkipsEmptyPivotCells(t *testing.T) {
	mapper := NewMapper(defaultTestConfig())
	sheet := &SheetConfig{
		Layout: LayoutGrid,
		Grid:   &GridConfig{HeaderRegex: `(\d+)\s*kg`},
	}

	row := tabular.Row{
		"5_kg":  "15,00",
		"10_kg": nil,
		"20_kg": "x",
	}

	out := mapper.MapRow(row, sheet, &CarryState{})
	require.Len(t, out, 1)
	require.InDelta(t, 5, out[0][FieldWeightMax].(float64), 1e-9)
}

func TestMapRow_DualGrid(t *testing.T) {
	cfg := defaultTestConfig()
	mapper := NewMapper(cfg)

	sheet := &SheetConfig{
		Layout: LayoutDualGrid,
		Columns: map[string]string{
			"pricing_type_small":  "unita piccoli",
			"delivery_time_small": "resa piccoli",
			"pricing_type_large":  "unita grandi",
		},
		DualGrid: &DualGridConfig{
			SmallWeights: &DualGridSection{
				Columns: map[string]WeightRange{
					"fino 50":  {WeightMin: 0, WeightMax: 50},
					"fino 100": {WeightMin: 51, WeightMax: 100},
				},
				PricingCol:      "pricing_type_small",
				DeliveryTimeCol: "delivery_time_small",
			},
			LargeWeights: &DualGridSection{
				Columns: map[string]WeightRange{
					"oltre 100": {WeightMin: 101, WeightMax: 500},
				},
				PricingCol: "pricing_type_large",
			},
		},
		Defaults: map[string]any{FieldDestCountry: "IT"},
	}

	row := tabular.Row{
		"dest_city":     "Torino",
		"unita_piccoli": "LUMPSUM",
		"resa_piccoli":  "24h",
		"unita_grandi":  "PER_100KG",
		"fino_50":       "18,50",
		"fino_100":      "0",
		"oltre_100":     "12,00",
	}

	out := mapper.MapRow(row, sheet, &CarryState{})
	require.Len(t, out, 2)

	small := out[0]
	require.InDelta(t, 0, small[FieldWeightMin].(float64), 1e-9)
	require.InDelta(t, 50, small[FieldWeightMax].(float64), 1e-9)
	require.InDelta(t, 18.5, small[FieldCost].(float64), 1e-9)
	require.Equal(t, "LUMPSUM", small[FieldPricingType])
	require.Equal(t, "24h", small[FieldDeliveryTime])

	large := out[1]
	require.InDelta(t, 101, large[FieldWeightMin].(float64), 1e-9)
	require.Equal(t, "PER_100KG", large[FieldPricingType])
	require.Equal(t, "IT", large[FieldDestCountry])
}

func TestMapRow_SingleGridProvinceExtraction(t *testing.T) {
	mapper := NewMapper(defaultTestConfig())
	sheet := &SheetConfig{
		Layout: LayoutSingleGrid,
		Transforms: map[string]Transform{
			FieldDestPostalCode: {RegexExtract: `^(\d+)\s+(.+)$`},
		},
		SingleGrid: &SingleGridConfig{
			ProvinceColumn: "provincia",
			Brackets: []SingleGridBracket{
				{Header: "fino a 100 kg", WeightMin: 0, WeightMax: 100, PricingType: "PER_100KG"},
				{Header: "oltre 100 kg", WeightMin: 101, WeightMax: 1000},
			},
		},
		Defaults: map[string]any{FieldDestCountry: "IT"},
	}

	row := tabular.Row{
		"provincia":     "20 Milano",
		"fino_a_100_kg": "25,00",
		"oltre_100_kg":  nil,
	}

	out := mapper.MapRow(row, sheet, &CarryState{})
	require.Len(t, out, 1)
	c := out[0]
	require.Equal(t, "20", c[FieldDestPostalCode])
	require.Equal(t, "Milano", c[FieldDestCity])
	require.InDelta(t, 0, c[FieldWeightMin].(float64), 1e-9)
	require.InDelta(t, 100, c[FieldWeightMax].(float64), 1e-9)
	require.Equal(t, "PER_100KG", c[FieldPricingType])
}

func TestMapRow_SingleGridWithoutRegexUsesRawValue(t *testing.T) {
	mapper := NewMapper(defaultTestConfig())
	sheet := &SheetConfig{
		Layout: LayoutSingleGrid,
		SingleGrid: &SingleGridConfig{
			ProvinceColumn: "provincia",
			Brackets: []SingleGridBracket{
				{Header: "tariffa", WeightMin: 0, WeightMax: 100},
			},
		},
	}

	out := mapper.MapRow(tabular.Row{"provincia": "8", "tariffa": "30"}, sheet, &CarryState{})
	require.Len(t, out, 1)
	// Purely numeric postal shorter than 2 chars is zero-padded.
	require.Equal(t, "08", out[0][FieldDestPostalCode])
}

func TestMapRow_ZoneMatrix(t *testing.T) {
	mapper := NewMapper(defaultTestConfig())
	sheet := &SheetConfig{
		Layout: LayoutZoneMatrix,
		ZoneMatrix: &ZoneMatrixConfig{
			WeightColumn: "kg",
			ZoneToPostcodes: map[string]StringList{
				"Zone A": {"75", "77"},
			},
		},
		Defaults: map[string]any{
			FieldDestCountry: "FR",
		},
	}

	carry := &CarryState{}

	out := mapper.MapRow(tabular.Row{
		"kg":     "0-20",
		"zone_a": "30,00",
		"zone_b": "45,00",
	}, sheet, carry)

	// zone_a expands to two postal codes, zone_b falls through verbatim.
	require.Len(t, out, 3)
	require.InDelta(t, 20, carry.PrevWeightMax, 1e-9)
	for _, c := range out {
		require.InDelta(t, 0, c[FieldWeightMin].(float64), 1e-9)
		require.InDelta(t, 20, c[FieldWeightMax].(float64), 1e-9)
		require.Equal(t, "LUMPSUM", c[FieldPricingType])
	}
	require.Equal(t, "75", out[0][FieldDestPostalCode])
	require.Equal(t, "77", out[1][FieldDestPostalCode])
	require.Equal(t, "ZONE_B", out[2][FieldDestPostalCode])

	// The next row's open-ended bracket continues from the carried maximum.
	out = mapper.MapRow(tabular.Row{
		"kg":     "-50",
		"zone_a": "40,00",
	}, sheet, carry)
	require.Len(t, out, 2)
	require.InDelta(t, 21, out[0][FieldWeightMin].(float64), 1e-9)
	require.InDelta(t, 50, out[0][FieldWeightMax].(float64), 1e-9)
	require.InDelta(t, 50, carry.PrevWeightMax, 1e-9)
}

func TestMapRow_ZoneMatrixFirstRowOpenBracket(t *testing.T) {
	mapper := NewMapper(defaultTestConfig())
	sheet := &SheetConfig{
		Layout:     LayoutZoneMatrix,
		ZoneMatrix: &ZoneMatrixConfig{WeightColumn: "kg"},
	}

	out := mapper.MapRow(tabular.Row{"kg": "-50", "nord": "12"}, sheet, &CarryState{})
	require.Len(t, out, 1)
	require.InDelta(t, 0, out[0][FieldWeightMin].(float64), 1e-9)
	require.InDelta(t, 50, out[0][FieldWeightMax].(float64), 1e-9)
}

func TestMapRow_ZoneMatrixSkipsUnnamedAndBlank(t *testing.T) {
	mapper := NewMapper(defaultTestConfig())
	sheet := &SheetConfig{
		Layout:     LayoutZoneMatrix,
		ZoneMatrix: &ZoneMatrixConfig{WeightColumn: "kg"},
	}

	out := mapper.MapRow(tabular.Row{
		"kg":         "0-10",
		"unnamed:_3": "99",
		"sud":        nil,
		"nord":       "12",
	}, sheet, &CarryState{})
	require.Len(t, out, 1)
	require.Equal(t, "NORD", out[0][FieldDestPostalCode])
}

func TestFinalize_TransformsAndPostalPadding(t *testing.T) {
	mapper := NewMapper(defaultTestConfig())
	sheet := &SheetConfig{
		Layout: LayoutFlat,
		Transforms: map[string]Transform{
			FieldDestCountry: {Replace: map[string]string{"Italie": "IT"}},
		},
		Defaults: map[string]any{FieldCost: 5.0},
	}

	out := mapper.MapRow(tabular.Row{
		"dest_country":       "Italie",
		"origin_postal_code": "7",
	}, sheet, &CarryState{})
	require.Len(t, out, 1)
	require.Equal(t, "IT", out[0][FieldDestCountry])
	require.Equal(t, "07", out[0][FieldOriginPostalCode])
}

func TestPartnerConfig_SheetConfigs(t *testing.T) {
	single := PartnerConfig{SheetConfig: SheetConfig{Layout: LayoutGrid}}
	require.Len(t, single.SheetConfigs(), 1)
	require.False(t, single.IsMultiSheet())

	multi := PartnerConfig{
		SheetConfig: SheetConfig{Layout: LayoutMultiSheet},
		Sheets: []SheetConfig{
			{Name: "domestic", Layout: LayoutDualGrid},
			{Name: "export", Layout: LayoutZoneMatrix},
		},
	}
	require.True(t, multi.IsMultiSheet())
	require.Len(t, multi.SheetConfigs(), 2)
	require.Equal(t, "domestic", multi.SheetConfigs()[0].Name)
}

func TestParseConfig(t *testing.T) {
	data := []byte(`
default:
  columns:
    origin_city: ["origin city", "ville depart"]
    cost: price
partners:
  ACME:
    layout: grid
    sheet_name: Tarifs
    header_row: 2
    columns:
      dest_city: destination
    defaults:
      transport_mode: ROAD
    grid:
      header_regex: '(\d+)\s*kg'
  ZETA:
    layout: multi_sheet
    sheets:
      - name: italy
        sheet_name: Italia
        layout: single_grid
        single_grid:
          province_column: provincia
          brackets:
            - header: "fino 100"
              weight_min: 0
              weight_max: 100
              pricing_type: PER_100KG
      - name: europe
        sheet_name: Europa
        layout: zone_matrix
        zone_matrix:
          weight_column: kg
          zone_to_postcodes:
            "Zone A": ["75", "77"]
            "Zone B": "69"
    transforms:
      dest_country:
        Italie: IT
`)
	cfg, err := ParseConfig(data)
	require.NoError(t, err)

	require.Equal(t, StringList{"origin city", "ville depart"}, cfg.Default.Columns["origin_city"])
	require.Equal(t, StringList{"price"}, cfg.Default.Columns["cost"])

	acme := cfg.Partner("ACME")
	require.Equal(t, LayoutGrid, acme.Layout)
	require.Equal(t, "Tarifs", acme.SheetName)
	require.Equal(t, 2, acme.HeaderRow)
	require.NotNil(t, acme.Grid)
	require.Equal(t, "ROAD", acme.Defaults["transport_mode"])

	zeta := cfg.Partner("ZETA")
	require.True(t, zeta.IsMultiSheet())
	require.Len(t, zeta.Sheets, 2)
	require.Equal(t, StringList{"69"}, zeta.Sheets[1].ZoneMatrix.ZoneToPostcodes["Zone B"])

	// Unknown partner code resolves to the empty flat default.
	unknown := cfg.Partner("NOPE")
	require.Equal(t, "", unknown.Layout)
	require.Len(t, unknown.SheetConfigs(), 1)
}
