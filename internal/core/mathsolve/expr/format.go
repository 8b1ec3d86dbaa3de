package expr

import (
	"math"
	"strconv"
)

const (
	epsilon        = 1e-9
	maxDenominator = 1000
)

// FormatNumber renders exact integers without a decimal point, simple
// fractions as p/q and everything else with up to ten significant digits.
func FormatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	if r := math.Round(v); math.Abs(v-r) < epsilon*math.Max(1, math.Abs(v)) && math.Abs(r) < 1e15 {
		return strconv.FormatInt(int64(r), 10)
	}
	if p, q := ratio(v); q != 1 {
		return FormatNumber(p) + "/" + FormatNumber(q)
	}
	return strconv.FormatFloat(v, 'g', 10, 64)
}

// ratio returns v as p/q for a small denominator q, or (v, 1) when v has no
// short rational form.
func ratio(v float64) (float64, float64) {
	if r := math.Round(v); math.Abs(v-r) < epsilon {
		return r, 1
	}
	for q := 2.0; q <= maxDenominator; q++ {
		p := v * q
		if r := math.Round(p); math.Abs(p-r) < epsilon*q {
			return r, q
		}
	}
	return v, 1
}
