// Package money provides integer-cent arithmetic for billing computations.
// All monetary values in the system are int64 cents; no float64 is ever used
// in a money path.
package money

// Cents is a monetary amount in integer cents.
type Cents = int64

// BpsDenominator is the divisor for basis-point rates (700 bps = 7%).
const BpsDenominator = 10000

// ApplyRateBps applies a basis-point rate to an amount using deterministic
// round-half-up semantics. Amounts and rates must be non-negative.
func ApplyRateBps(amount Cents, rateBps int64) Cents {
	if amount <= 0 || rateBps <= 0 {
		return 0
	}
	return (amount*rateBps + BpsDenominator/2) / BpsDenominator
}

// CapAt limits amount to max when max is positive.
func CapAt(amount, max Cents) Cents {
	if max > 0 && amount > max {
		return max
	}
	return amount
}

// Min returns the smaller of two amounts.
func Min(a, b Cents) Cents {
	if a < b {
		return a
	}
	return b
}
