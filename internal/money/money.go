// Package money parses and formats decimal currency amounts. Amounts are
// carried internally as int64 cents; the wire format is a decimal string with
// at most two fraction digits.
package money

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidAmount indicates an amount that is not a positive decimal with at
// most two fraction digits.
var ErrInvalidAmount = errors.New("amount must be a positive number with up to 2 decimal places")

var amountPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// Parse converts a decimal amount string into cents. Zero and negative
// amounts are rejected.
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if !amountPattern.MatchString(s) {
		return 0, ErrInvalidAmount
	}

	whole, frac, _ := strings.Cut(s, ".")
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}

	cents := int64(0)
	if frac != "" {
		for len(frac) < 2 {
			frac += "0"
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, ErrInvalidAmount
		}
	}

	total := units*100 + cents
	if total <= 0 || total/100 != units {
		return 0, ErrInvalidAmount
	}
	return total, nil
}

// Format renders cents as a decimal string with two fraction digits.
func Format(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
