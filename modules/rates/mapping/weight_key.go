package mapping

import (
	"strconv"
	"strings"
)

// CarryState carries the previous row's maximum weight bracket bound forward
// within one sheet. It must be reset at the start of each sheet.
type CarryState struct {
	PrevWeightMax float64
}

// ParseWeightKey parses a zone-matrix weight cell into an inclusive bracket.
// "a-b" is literal; "-b" and a bare "b" continue sequentially from the
// carried previous maximum (plus one), starting from zero when nothing has
// been carried yet.
func ParseWeightKey(value any, prevMax float64) (float64, float64) {
	s := strings.ReplaceAll(stringify(value), " ", "")
	if s == "" {
		return 0, 0
	}

	if strings.Contains(s, "-") && !strings.HasPrefix(s, "-") {
		parts := strings.SplitN(s, "-", 2)
		lo, errLo := strconv.ParseFloat(parts[0], 64)
		hi, errHi := strconv.ParseFloat(parts[1], 64)
		if errLo != nil || errHi != nil {
			return 0, 0
		}
		return lo, hi
	}

	raw := strings.TrimPrefix(s, "-")
	hi, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, 0
	}
	if prevMax == 0 {
		return 0, hi
	}
	return prevMax + 1, hi
}
