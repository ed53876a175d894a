package pricing

import (
	"errors"
	"fmt"
	"math"
)

// Money represents a monetary value in whole Australian dollars.
type Money = int64

// Kind names a Price variant.
type Kind string

const (
	KindFixed Kind = "fixed"
	KindRange Kind = "range"
)

// ErrInvalidPrice is returned when a price is negative or a range is inverted.
var ErrInvalidPrice = errors.New("invalid price")

// Price is either a Fixed amount or a Range. The set of variants is closed;
// only Fixed and Range values implement it.
type Price interface {
	Kind() Kind
	sealed()
}

// Fixed is a single price point.
type Fixed struct {
	Amount Money
}

// Range is a min-max price band with Min <= Max.
type Range struct {
	Min Money
	Max Money
}

func (Fixed) Kind() Kind { return KindFixed }
func (Range) Kind() Kind { return KindRange }
func (Fixed) sealed()    {}
func (Range) sealed()    {}

// NewFixed validates and constructs a Fixed price.
func NewFixed(amount Money) (Fixed, error) {
	if amount < 0 {
		return Fixed{}, fmt.Errorf("%w: amount %d is negative", ErrInvalidPrice, amount)
	}
	return Fixed{Amount: amount}, nil
}

// NewRange validates and constructs a Range price.
func NewRange(min, max Money) (Range, error) {
	if min < 0 || max < 0 {
		return Range{}, fmt.Errorf("%w: range %d-%d is negative", ErrInvalidPrice, min, max)
	}
	if min > max {
		return Range{}, fmt.Errorf("%w: range min %d exceeds max %d", ErrInvalidPrice, min, max)
	}
	return Range{Min: min, Max: max}, nil
}

// DiscountOutcome holds the price after a discount has been applied.
type DiscountOutcome struct {
	Adjusted Price
}

// ApplyDiscount subtracts discount from every component of price, clamping at
// zero. Non-positive discounts leave the price unchanged. The adjusted price
// always has the same kind as the input.
func ApplyDiscount(price Price, discount Money) DiscountOutcome {
	if discount < 0 {
		discount = 0
	}
	switch p := price.(type) {
	case Fixed:
		return DiscountOutcome{Adjusted: Fixed{Amount: subtractClamped(p.Amount, discount)}}
	case Range:
		return DiscountOutcome{Adjusted: Range{
			Min: subtractClamped(p.Min, discount),
			Max: subtractClamped(p.Max, discount),
		}}
	default:
		panic(fmt.Sprintf("pricing: unknown price variant %T", price))
	}
}

// ApplyDiscountFloat is ApplyDiscount for untrusted numeric input. NaN,
// infinities and non-positive values are treated as no discount; fractional
// values are truncated.
func ApplyDiscountFloat(price Price, discount float64) DiscountOutcome {
	return ApplyDiscount(price, sanitizeDiscount(discount))
}

func sanitizeDiscount(d float64) Money {
	if math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return 0
	}
	if d >= math.MaxInt64 {
		return math.MaxInt64
	}
	return Money(d)
}

func subtractClamped(amount, discount Money) Money {
	if discount >= amount {
		return 0
	}
	return amount - discount
}
