package pricing

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Value is the wire form of a Price used in catalog files and API payloads.
type Value struct {
	Kind   Kind   `json:"kind" yaml:"kind"`
	Amount *Money `json:"amount,omitempty" yaml:"amount,omitempty"`
	Min    *Money `json:"min,omitempty" yaml:"min,omitempty"`
	Max    *Money `json:"max,omitempty" yaml:"max,omitempty"`
}

// ValueOf converts a Price into its wire form.
func ValueOf(p Price) Value {
	switch v := p.(type) {
	case Fixed:
		amount := v.Amount
		return Value{Kind: KindFixed, Amount: &amount}
	case Range:
		min, max := v.Min, v.Max
		return Value{Kind: KindRange, Min: &min, Max: &max}
	default:
		panic(fmt.Sprintf("pricing: unknown price variant %T", p))
	}
}

// Price validates the wire form and returns the typed Price.
func (v Value) Price() (Price, error) {
	switch Kind(strings.ToLower(string(v.Kind))) {
	case KindFixed:
		if v.Amount == nil {
			return nil, fmt.Errorf("%w: fixed price requires amount", ErrInvalidPrice)
		}
		return NewFixed(*v.Amount)
	case KindRange:
		if v.Min == nil || v.Max == nil {
			return nil, fmt.Errorf("%w: range price requires min and max", ErrInvalidPrice)
		}
		return NewRange(*v.Min, *v.Max)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidPrice, v.Kind)
	}
}

var displayLocale = language.MustParse("en-AU")

// FormatCurrency renders a whole-dollar amount as e.g. "$1,234 AUD".
func FormatCurrency(amount Money) string {
	p := message.NewPrinter(displayLocale)
	return p.Sprintf("$%d AUD", amount)
}

// FormatPrice renders a fixed price as a single amount and a range as
// "min - max".
func FormatPrice(price Price) string {
	switch p := price.(type) {
	case Fixed:
		return FormatCurrency(p.Amount)
	case Range:
		return FormatCurrency(p.Min) + " - " + FormatCurrency(p.Max)
	default:
		panic(fmt.Sprintf("pricing: unknown price variant %T", price))
	}
}
