package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Totals is the result of running the calculator over an item list.
type Totals struct {
	Lines    []decimal.Decimal
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Amount columns are NUMERIC(14,4): at most 4 fractional digits and an
// absolute value below 1e10.
const maxAmountScale = 4

var maxAmount = decimal.New(1, 10)

// minorUnits lists ISO-4217 currencies whose minor unit is not 2 digits.
var minorUnits = map[string]int32{
	"BIF": 0, "CLP": 0, "DJF": 0, "GNF": 0, "ISK": 0, "JPY": 0, "KMF": 0,
	"KRW": 0, "PYG": 0, "RWF": 0, "UGX": 0, "UYI": 0, "VND": 0, "VUV": 0,
	"XAF": 0, "XOF": 0, "XPF": 0,
	"BHD": 3, "IQD": 3, "JOD": 3, "KWD": 3, "LYD": 3, "OMR": 3, "TND": 3,
}

// MinorUnitPlaces returns the number of decimal places used by currency.
func MinorUnitPlaces(currency string) int32 {
	if places, ok := minorUnits[strings.ToUpper(currency)]; ok {
		return places
	}
	return 2
}

// ComputeTotals derives line totals, subtotal and total from items.
// Each line is rounded to the currency's minor unit before summing so the
// stored lines always add up to the stored subtotal.
func ComputeTotals(currency string, items []ItemInput, tax decimal.Decimal) (Totals, error) {
	if tax.IsNegative() {
		return Totals{}, invalidf("tax", "must not be negative")
	}
	if !fitsColumn(tax) {
		return Totals{}, invalidf("tax", "must be below %s with at most %d decimal places", maxAmount, maxAmountScale)
	}

	places := MinorUnitPlaces(currency)
	t := Totals{
		Lines: make([]decimal.Decimal, len(items)),
		Tax:   tax.Round(places),
	}

	for i, item := range items {
		if item.Qty.IsNegative() {
			return Totals{}, invalidf("items", "line %d: qty must not be negative", i+1)
		}
		if item.UnitPrice.IsNegative() {
			return Totals{}, invalidf("items", "line %d: unit_price must not be negative", i+1)
		}
		if !fitsColumn(item.Qty) {
			return Totals{}, invalidf("items", "line %d: qty must be below %s with at most %d decimal places", i+1, maxAmount, maxAmountScale)
		}
		if !fitsColumn(item.UnitPrice) {
			return Totals{}, invalidf("items", "line %d: unit_price must be below %s with at most %d decimal places", i+1, maxAmount, maxAmountScale)
		}
		line := item.Qty.Mul(item.UnitPrice).Round(places)
		if line.Cmp(maxAmount) >= 0 {
			return Totals{}, invalidf("items", "line %d: line total must be below %s", i+1, maxAmount)
		}
		t.Lines[i] = line
		t.Subtotal = t.Subtotal.Add(line)
	}

	t.Total = t.Subtotal.Add(t.Tax)
	if t.Total.Cmp(maxAmount) >= 0 {
		return Totals{}, invalidf("total", "invoice total must be below %s", maxAmount)
	}
	return t, nil
}

// fitsColumn reports whether d can be stored in an amount column unchanged.
func fitsColumn(d decimal.Decimal) bool {
	return d.Abs().Cmp(maxAmount) < 0 && d.Equal(d.Truncate(maxAmountScale))
}

// normalizeItems drops rows without a description and trims the rest.
func normalizeItems(items []ItemInput) []ItemInput {
	out := make([]ItemInput, 0, len(items))
	for _, item := range items {
		desc := strings.TrimSpace(item.Description)
		if desc == "" {
			continue
		}
		item.Description = desc
		out = append(out, item)
	}
	return out
}
