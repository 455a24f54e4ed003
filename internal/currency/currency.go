package currency

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrFractionalCents = errors.New("fractional_cents")
	ErrOverflow        = errors.New("amount_overflow")
)

// Cents is a monetary amount in integer cents. Keeping money integral avoids
// the float drift that dollar-denominated arithmetic accumulates; conversion
// to and from dollars happens only at the edges.
type Cents int64

// FromCents wraps a raw cent count.
func FromCents(v int64) Cents {
	return Cents(v)
}

// FromDollars converts a dollar amount, rejecting values that do not land on a
// whole cent (beyond float representation noise).
func FromDollars(d float64) (Cents, error) {
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, ErrOverflow
	}
	scaled := d * 100
	rounded := math.Round(scaled)
	if math.Abs(scaled-rounded) > 1e-6 {
		return 0, fmt.Errorf("%w: %v", ErrFractionalCents, d)
	}
	if rounded > math.MaxInt64 || rounded < math.MinInt64 {
		return 0, ErrOverflow
	}
	return Cents(rounded), nil
}

// Mul scales the amount by a line quantity.
func (c Cents) Mul(qty int) Cents {
	return c * Cents(qty)
}

// Add returns the sum of two amounts.
func (c Cents) Add(other Cents) Cents {
	return c + other
}

// Dollars returns the amount as a float, for display-layer consumers only.
func (c Cents) Dollars() float64 {
	return float64(c) / 100
}

// Format renders the amount as a dollar string, e.g. 1497 -> "$14.97".
// Negative amounts render with a leading sign: -50 -> "-$0.50".
func (c Cents) Format() string {
	v := int64(c)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%d.%02d", sign, v/100, v%100)
}

// String implements fmt.Stringer.
func (c Cents) String() string {
	return c.Format()
}
