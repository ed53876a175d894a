// Package offer parses seasonal promotional codes such as SEASONSGREETINGS40
// into a discount amount.
package offer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	validator "github.com/go-playground/validator/v10"
)

// Scheme describes what counts as a valid offer code and the messages shown
// to visitors.
type Scheme struct {
	Prefix         string `json:"prefix" validate:"required"`
	MinDiscount    int64  `json:"minDiscount" validate:"gte=0"`
	MaxDiscount    int64  `json:"maxDiscount" validate:"gtefield=MinDiscount"`
	SuccessMessage string `json:"successMessage"`
	NeutralMessage string `json:"neutralMessage"`
	InvalidMessage string `json:"invalidMessage"`
	ExampleCode    string `json:"exampleCode"`
}

// DefaultScheme returns the seasonal greetings scheme printed on the cards.
func DefaultScheme() Scheme {
	return Scheme{
		Prefix:         "SEASONSGREETINGS",
		MinDiscount:    1,
		MaxDiscount:    500,
		SuccessMessage: "Seasonal savings unlocked.",
		NeutralMessage: "Enter the code from your printed card to check your savings.",
		InvalidMessage: "That code is not recognised. Double-check the card and try again.",
		ExampleCode:    "SEASONSGREETINGS25",
	}
}

var validate = validator.New()

// Validate checks the scheme is usable: a prefix, 0 <= min <= max, and an
// example code (when set) that parses under the scheme.
func (s Scheme) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("offer scheme: %w", err)
	}
	if s.ExampleCode != "" {
		if _, ok := Parse(s.ExampleCode, s); !ok {
			return fmt.Errorf("offer scheme: example code %q is outside the scheme", s.ExampleCode)
		}
	}
	return nil
}

const exampleDiscount = 25

// SuggestExample builds an example code from the prefix and a discount of
// 25 clamped into the scheme bounds.
func (s Scheme) SuggestExample() string {
	d := int64(exampleDiscount)
	if d < s.MinDiscount {
		d = s.MinDiscount
	}
	if d > s.MaxDiscount {
		d = s.MaxDiscount
	}
	return strings.ToUpper(s.Prefix) + strconv.FormatInt(d, 10)
}

func (s Scheme) pattern() (*regexp.Regexp, error) {
	return regexp.Compile(`(?i)^` + regexp.QuoteMeta(strings.ToUpper(s.Prefix)) + `(\d+)$`)
}

// ParsedCode is a successfully parsed offer code.
type ParsedCode struct {
	Code     string `json:"code"`
	Discount int64  `json:"discount"`
}

// Normalize upper-cases the input and removes all whitespace, including the
// byte order mark some form inputs carry.
func Normalize(raw string) string {
	return strings.Join(strings.FieldsFunc(strings.ToUpper(raw), isSpace), "")
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// Parse decodes raw under scheme. It reports false when the input is empty,
// does not match prefix+digits, or the discount is outside the scheme bounds.
func Parse(raw string, scheme Scheme) (ParsedCode, bool) {
	normalized := Normalize(raw)
	if normalized == "" {
		return ParsedCode{}, false
	}
	re, err := scheme.pattern()
	if err != nil {
		return ParsedCode{}, false
	}
	match := re.FindStringSubmatch(normalized)
	if len(match) != 2 {
		return ParsedCode{}, false
	}
	amount, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return ParsedCode{}, false
	}
	if amount < scheme.MinDiscount || amount > scheme.MaxDiscount {
		return ParsedCode{}, false
	}
	return ParsedCode{Code: normalized, Discount: amount}, true
}
