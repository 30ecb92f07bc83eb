// Package calculator implements claim availability and proportional settlement
// for a shared bill. Every function here is pure: callers pass a snapshot of the
// bill, the recorded claims and the payer's selection, and get a fresh result.
package calculator

import (
	"math"
	"strings"

	"github.com/mmynk/zapsplit/internal/money"
)

// epsilon absorbs float drift from fractional (shared) claim quantities.
const epsilon = 1e-9

// BillItem is one receipt line. Index is its stable position on the bill.
type BillItem struct {
	Index      int
	Name       string
	Quantity   float64
	UnitPrice  money.Cents
	TotalPrice money.Cents
}

// LineTotal prefers the stored total and falls back to unit price times quantity.
func (i BillItem) LineTotal() money.Cents {
	total := money.Sanitize(i.TotalPrice)
	if total > 0 {
		return total
	}
	return money.Sanitize(i.UnitPrice) * money.Cents(sanitizeQuantity(i.Quantity))
}

// Bill is the read-only snapshot a settlement is computed against.
// TotalAmount includes tax and tip.
type Bill struct {
	Items       []BillItem
	TotalAmount money.Cents
}

// Subtotal sums the line totals of every item on the bill.
func (b Bill) Subtotal() money.Cents {
	var subtotal money.Cents
	for _, item := range b.Items {
		subtotal += item.LineTotal()
	}
	return subtotal
}

// Item returns the item at index, if any.
func (b Bill) Item(index int) (BillItem, bool) {
	if index < 0 || index >= len(b.Items) {
		return BillItem{}, false
	}
	item := b.Items[index]
	item.Index = index
	return item, true
}

// Claim records that a participant took some quantity of an item.
// QuantityClaimed is the effective quantity: a unit shared three ways claims 1/3.
type Claim struct {
	ItemIndex       int
	ClaimantName    string
	ClaimantEmail   string
	QuantityClaimed float64
	ShareCount      int
}

// ClaimantID is the explicit identity a claim is matched on.
func (c Claim) ClaimantID() string {
	return NormalizeEmail(c.ClaimantEmail)
}

// NormalizeEmail lower-cases and trims an address so claims compare exactly.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// sanitizeQuantity maps NaN, infinities and negatives to zero.
func sanitizeQuantity(q float64) float64 {
	if math.IsNaN(q) || math.IsInf(q, 0) || q < 0 {
		return 0
	}
	return q
}
