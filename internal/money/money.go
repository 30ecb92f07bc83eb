// Package money holds the currency arithmetic shared by the calculator and the
// RPC layer. Amounts are carried as unrounded cents and only rounded when they
// leave the process (display, persistence, payment gateway).
package money

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Currency is the single currency the service charges in.
const Currency = "aud"

// Cents is an amount in the smallest currency subunit. It may carry a
// fractional part while a calculation is in progress.
type Cents float64

// FromDollars converts a major-unit amount to cents.
func FromDollars(dollars float64) Cents {
	return Sanitize(Cents(dollars * 100))
}

// FromInt converts whole cents, as stored, to Cents.
func FromInt(cents int64) Cents {
	return Cents(cents)
}

// Sanitize maps NaN and infinities to zero.
func Sanitize(c Cents) Cents {
	f := float64(c)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return c
}

// Round rounds to the nearest whole cent, half away from zero.
func (c Cents) Round() int64 {
	return int64(math.Round(float64(Sanitize(c))))
}

// Dollars returns the amount in major units without rounding.
func (c Cents) Dollars() float64 {
	return float64(c) / 100
}

var printer = message.NewPrinter(language.English)

// Format renders whole cents for display, e.g. 5750 -> "$57.50".
func Format(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + "$" + printer.Sprint(number.Decimal(float64(cents)/100, number.Scale(2)))
}

// String rounds and formats the amount.
func (c Cents) String() string {
	return Format(c.Round())
}
