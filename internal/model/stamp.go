package model

import "github.com/shopspring/decimal"

// EventStamp orders events globally by (transaction version, event index).
// Open/close selection in candlestick merges depends only on this ordering,
// never on the order diffs happen to be merged in.
type EventStamp struct {
	Version int64
	Index   int64
}

// Before reports whether s precedes o.
func (s EventStamp) Before(o EventStamp) bool {
	if s.Version != o.Version {
		return s.Version < o.Version
	}
	return s.Index < o.Index
}

// CandlestickDecimals is the significant-digit precision candlestick prices
// are rounded to before persisting.
const CandlestickDecimals = 16

// RoundPrice rounds a price to CandlestickDecimals significant digits using
// banker's rounding (half to even).
func RoundPrice(d decimal.Decimal) decimal.Decimal {
	digits := int32(d.NumDigits())
	if digits <= CandlestickDecimals {
		return d
	}
	return d.RoundBank(-(d.Exponent() + digits - CandlestickDecimals))
}

func maxVersion(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
