// Package pricing computes order totals.
package pricing

import (
	"math"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ComputeTotal returns quantity * unitPrice less discountPercent, rounded to
// two decimal places half away from zero.
//
// Inputs outside their domain are clamped rather than rejected: a negative or
// non-finite quantity or price counts as 0 and the discount is held to
// [0, 100]. The result is therefore never negative. Range checks that should
// reach the caller belong to the order service.
func ComputeTotal(quantity int, unitPrice, discountPercent float64) float64 {
	if quantity < 0 {
		quantity = 0
	}
	price := clamp(unitPrice, 0, math.MaxFloat64)
	discount := clamp(discountPercent, 0, 100)

	total := decimal.NewFromInt(int64(quantity)).Mul(decimal.NewFromFloat(price))
	if discount > 0 {
		factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(discount).Div(hundred))
		total = total.Mul(factor)
	}
	return total.Round(2).InexactFloat64()
}

// Round2 rounds v to two decimal places half away from zero.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v), math.IsInf(v, 0), v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
