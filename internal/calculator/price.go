package calculator

import "github.com/mmynk/zapsplit/internal/money"

// UnitPrice derives the per-unit price from the stored total when there is one,
// since the total is the authoritative value. Items with zero quantity price at 0.
func UnitPrice(item BillItem) money.Cents {
	quantity := sanitizeQuantity(item.Quantity)
	if quantity == 0 {
		return 0
	}
	total := money.Sanitize(item.TotalPrice)
	if total > 0 {
		return total / money.Cents(quantity)
	}
	return money.Sanitize(item.UnitPrice)
}

// AllocatePrice is the payer's cost for selectedQty units of item, split
// shareDivisor ways. Divisors below 1 count as 1. The result is not rounded.
//
// The caller is expected to have checked selectedQty against RemainingClaimable.
func AllocatePrice(item BillItem, selectedQty float64, shareDivisor int) money.Cents {
	if shareDivisor < 1 {
		shareDivisor = 1
	}
	qty := sanitizeQuantity(selectedQty)
	return UnitPrice(item) * money.Cents(qty) / money.Cents(shareDivisor)
}
