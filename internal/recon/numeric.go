package recon

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ToNumber coerces an arbitrary stored value into a finite float64. Nil,
// unparsable strings, NaN and infinities all become 0. Every figure read
// from a voucher or a legacy record routes through here before arithmetic.
func ToNumber(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return finite(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return finite(f)
	default:
		return 0
	}
}

// Round2 rounds to two decimal places, half away from zero. It is applied
// once per computed quantity, never cumulatively.
func Round2(v float64) float64 {
	return math.Round(finite(v)*100) / 100
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
