// Package pips converts an instrument's quoted decimal precision into pip
// sizes and pip offsets into absolute stop/target prices.
package pips

import "math"

// Direction is the side of an entry, used to orient stop and target offsets.
type Direction int

const (
	Long Direction = iota
	Short
)

// PipSize returns the pip size for an instrument quoted with the given number
// of price decimals.
//
// 5- and 3-digit quotes use fractional-pip pricing, so a pip is ten times the
// smallest increment (EUR_USD at 5 digits: pip = 0.0001). 2- and 4-digit
// quotes equate the pip with the smallest increment. Unusual precisions fall
// back to the fractional-pip rule.
func PipSize(digits int) float64 {
	point := math.Pow(10, -float64(digits))
	switch digits {
	case 2, 4:
		return point
	default:
		return 10 * point
	}
}

// Round rounds a price to the instrument's native decimal precision.
func Round(price float64, digits int) float64 {
	scale := math.Pow(10, float64(digits))
	return math.Round(price*scale) / scale
}

// StopLoss returns the absolute stop price the given number of pips away from
// the reference price: below it for a long entry, above it for a short.
// A zero or negative pip distance suppresses the leg and returns 0.
func StopLoss(ref, pips float64, d Direction, digits int) float64 {
	if pips <= 0 {
		return 0
	}
	offset := pips * PipSize(digits)
	if d == Long {
		return Round(ref-offset, digits)
	}
	return Round(ref+offset, digits)
}

// TakeProfit returns the absolute target price the given number of pips away
// from the reference price: above it for a long entry, below it for a short.
// A zero or negative pip distance suppresses the leg and returns 0.
func TakeProfit(ref, pips float64, d Direction, digits int) float64 {
	if pips <= 0 {
		return 0
	}
	offset := pips * PipSize(digits)
	if d == Long {
		return Round(ref+offset, digits)
	}
	return Round(ref-offset, digits)
}
