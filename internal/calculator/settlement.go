package calculator

import (
	"math"

	"github.com/mmynk/zapsplit/internal/money"
)

// DefaultTaxRatio splits the residual between the bill total and the item
// subtotal evenly into tax and tip. Bills carry no separate tax or tip figure.
const DefaultTaxRatio = 0.5

// Policy holds the tunable parts of the settlement.
type Policy struct {
	// TaxRatio is the fraction of the implied tax+tip attributed to tax.
	// The rest is tip. Values outside [0, 1] are clamped; NaN uses the default.
	TaxRatio float64
}

// DefaultPolicy uses the 50/50 tax/tip split.
var DefaultPolicy = Policy{TaxRatio: DefaultTaxRatio}

// Allocation is one selected item and the amount attributed to the payer.
type Allocation struct {
	Item      BillItem
	Allocated money.Cents
}

// Settlement is what one participant owes. Amounts are unrounded cents.
type Settlement struct {
	ItemsTotal money.Cents
	TaxShare   money.Cents
	TipShare   money.Cents
	Total      money.Cents
}

// Rounded returns the settlement in whole cents. Total is rounded once from the
// unrounded total rather than summed from rounded parts.
func (s Settlement) Rounded() RoundedSettlement {
	return RoundedSettlement{
		ItemsTotal: s.ItemsTotal.Round(),
		TaxShare:   s.TaxShare.Round(),
		TipShare:   s.TipShare.Round(),
		Total:      s.Total.Round(),
	}
}

// RoundedSettlement is a Settlement ready for display or charging.
type RoundedSettlement struct {
	ItemsTotal int64
	TaxShare   int64
	TipShare   int64
	Total      int64
}

func (p Policy) taxRatio() float64 {
	r := p.TaxRatio
	switch {
	case math.IsNaN(r):
		return DefaultTaxRatio
	case r < 0:
		return 0
	case r > 1:
		return 1
	}
	return r
}

// ImpliedTaxAndTip is the part of the bill total not explained by its items.
// Negative drift clamps to zero.
func ImpliedTaxAndTip(bill Bill) money.Cents {
	implied := money.Sanitize(bill.TotalAmount) - bill.Subtotal()
	if implied < 0 {
		return 0
	}
	return implied
}

// ComputeSettlement applies the payer's share of the bill's tax and tip to the
// selected allocations. A bill with a zero subtotal yields zero tax and tip.
func (p Policy) ComputeSettlement(bill Bill, lines []Allocation) Settlement {
	var itemsTotal money.Cents
	for _, line := range lines {
		itemsTotal += money.Sanitize(line.Allocated)
	}

	subtotal := bill.Subtotal()
	proportion := money.Cents(0)
	if subtotal > 0 {
		proportion = itemsTotal / subtotal
	}

	implied := ImpliedTaxAndTip(bill)
	ratio := money.Cents(p.taxRatio())
	taxShare := implied * ratio * proportion
	tipShare := implied * (1 - ratio) * proportion

	return Settlement{
		ItemsTotal: itemsTotal,
		TaxShare:   taxShare,
		TipShare:   tipShare,
		Total:      itemsTotal + taxShare + tipShare,
	}
}

// ComputeSettlement uses DefaultPolicy.
func ComputeSettlement(bill Bill, lines []Allocation) Settlement {
	return DefaultPolicy.ComputeSettlement(bill, lines)
}
