package mapping

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseWeightKey(t *testing.T) {
	cases := []struct {
		name    string
		in      any
		prevMax float64
		wantLo  float64
		wantHi  float64
	}{
		{"explicit range", "0-20", 0, 0, 20},
		{"open range continues from carry", "-50", 20, 21, 50},
		{"open range with zero carry starts at zero", "-50", 0, 0, 50},
		{"bare number continues from carry", "100", 50, 51, 100},
		{"bare number with zero carry", "20", 0, 0, 20},
		{"spaces tolerated", " 0 - 20 ", 0, 0, 20},
		{"numeric cell", 200.0, 100, 101, 200},
		{"garbage", "heavy", 10, 0, 0},
		{"empty", "", 10, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lo, hi := ParseWeightKey(tc.in, tc.prevMax)
			require.InDelta(t, tc.wantLo, lo, 1e-9)
			require.InDelta(t, tc.wantHi, hi, 1e-9)
		})
	}
}
