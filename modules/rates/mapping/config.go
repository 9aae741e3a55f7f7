package mapping

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Layout tags. Exactly one strategy applies per sheet; multi_sheet is a
// partner-level composition of per-sheet strategies.
const (
	LayoutFlat       = "flat"
	LayoutGrid       = "grid"
	LayoutDualGrid   = "dual_grid"
	LayoutSingleGrid = "single_grid"
	LayoutZoneMatrix = "zone_matrix"
	LayoutMultiSheet = "multi_sheet"
)

// StringList accepts either a YAML scalar or a sequence.
type StringList []string

func (s *StringList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var single string
		if err := node.Decode(&single); err != nil {
			return err
		}
		*s = StringList{single}
		return nil
	}
	var many []string
	if err := node.Decode(&many); err != nil {
		return err
	}
	*s = StringList(many)
	return nil
}

// Transform either substitutes exact values, or extracts submatches with a
// regular expression (used for combined postal/city cells).
type Transform struct {
	RegexExtract string            `yaml:"regex_extract,omitempty"`
	Replace      map[string]string `yaml:",inline"`
}

type WeightRange struct {
	WeightMin float64 `yaml:"weight_min"`
	WeightMax float64 `yaml:"weight_max"`
}

// GridConfig pivots weight-bracket columns detected by a header regexp into
// one candidate row per bracket.
type GridConfig struct {
	HeaderRegex string  `yaml:"header_regex"`
	ValueColumn string  `yaml:"value_column,omitempty"`
	WeightGap   float64 `yaml:"weight_min_gap,omitempty"`
}

// DualGridSection is one of the two independently priced weight tables
// sharing a row.
type DualGridSection struct {
	Columns         map[string]WeightRange `yaml:"columns"`
	PricingCol      string                 `yaml:"pricing_col,omitempty"`
	DeliveryTimeCol string                 `yaml:"delivery_time_col,omitempty"`
}

type DualGridConfig struct {
	SmallWeights *DualGridSection `yaml:"small_weights,omitempty"`
	LargeWeights *DualGridSection `yaml:"large_weights,omitempty"`
}

type SingleGridBracket struct {
	Header      string  `yaml:"header"`
	WeightMin   float64 `yaml:"weight_min"`
	WeightMax   float64 `yaml:"weight_max"`
	PricingType string  `yaml:"pricing_type,omitempty"`
}

type SingleGridConfig struct {
	ProvinceColumn string              `yaml:"province_column,omitempty"`
	Brackets       []SingleGridBracket `yaml:"brackets"`
}

type ZoneMatrixConfig struct {
	WeightColumn    string                `yaml:"weight_column,omitempty"`
	ZoneToPostcodes map[string]StringList `yaml:"zone_to_postcodes,omitempty"`
}

// SheetConfig is the full declarative mapping for one sheet: where the data
// lives, how columns alias to canonical fields, and which expansion strategy
// applies.
type SheetConfig struct {
	Name      string `yaml:"name,omitempty"`
	SheetName string `yaml:"sheet_name,omitempty"`
	HeaderRow int    `yaml:"header_row,omitempty"`

	Layout     string               `yaml:"layout,omitempty"`
	Columns    map[string]string    `yaml:"columns,omitempty"`
	Defaults   map[string]any       `yaml:"defaults,omitempty"`
	Transforms map[string]Transform `yaml:"transforms,omitempty"`

	Grid       *GridConfig       `yaml:"grid,omitempty"`
	DualGrid   *DualGridConfig   `yaml:"dual_grid,omitempty"`
	SingleGrid *SingleGridConfig `yaml:"single_grid,omitempty"`
	ZoneMatrix *ZoneMatrixConfig `yaml:"zone_matrix,omitempty"`
}

type PartnerConfig struct {
	SheetConfig `yaml:",inline"`

	// Sheets is set only for multi_sheet partners.
	Sheets []SheetConfig `yaml:"sheets,omitempty"`
}

type DefaultConfig struct {
	Columns map[string]StringList `yaml:"columns"`
}

// Config is the full partner layout configuration, parsed once at startup
// and read-only afterwards.
type Config struct {
	Default  DefaultConfig            `yaml:"default"`
	Partners map[string]PartnerConfig `yaml:"partners"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, errors.Wrap(err, "failed to read mapping config")
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse mapping config")
	}
	return &cfg, nil
}

// Partner returns the partner's configuration. An unknown code gets the
// empty default: flat layout, no overrides.
func (c *Config) Partner(code string) PartnerConfig {
	if c.Partners == nil {
		return PartnerConfig{}
	}
	return c.Partners[code]
}

// SheetConfigs resolves a partner to its ordered sheet descriptors: the
// partner's own single sheet, or the listed sheets for multi_sheet layouts.
func (p PartnerConfig) SheetConfigs() []SheetConfig {
	if p.Layout == LayoutMultiSheet {
		return p.Sheets
	}
	return []SheetConfig{p.SheetConfig}
}

func (p PartnerConfig) IsMultiSheet() bool {
	return p.Layout == LayoutMultiSheet
}
