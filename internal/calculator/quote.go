package calculator

import (
	"fmt"

	"github.com/mmynk/zapsplit/internal/money"
)

// ViolationReason says why a selected item was left out of a quote.
type ViolationReason string

const (
	ReasonUnknownItem      ViolationReason = "unknown_item"
	ReasonFullyClaimed     ViolationReason = "fully_claimed"
	ReasonExceedsRemaining ViolationReason = "exceeds_remaining"
	ReasonInvalidQuantity  ViolationReason = "invalid_quantity"
)

// Violation is a selected item the payer cannot take as chosen.
type Violation struct {
	ItemIndex int
	Reason    ViolationReason
	Remaining float64
}

func (v Violation) Error() string {
	return fmt.Sprintf("item %d: %s (remaining %g)", v.ItemIndex, v.Reason, v.Remaining)
}

// QuoteLine is one accepted selection with its price.
type QuoteLine struct {
	Item         BillItem
	Quantity     float64
	ShareCount   int
	EffectiveQty float64
	Allocated    money.Cents
	Availability Availability
}

// Quote is the result of evaluating a selection against a bill snapshot.
type Quote struct {
	Lines      []QuoteLine
	Violations []Violation
	Settlement Settlement
}

// Valid reports whether every selected item could be honoured.
func (q Quote) Valid() bool {
	return len(q.Violations) == 0
}

// Evaluate resolves availability for each selected item, prices the accepted
// ones and settles tax and tip over them. It is recomputed from scratch on
// every call; nothing is cached between selections.
func (p Policy) Evaluate(bill Bill, claims []Claim, sel Selection) Quote {
	aggregates := AggregateClaims(claims)

	var q Quote
	var allocations []Allocation

	for _, index := range sel.Indices() {
		choice, _ := sel.Choice(index)

		item, ok := bill.Item(index)
		if !ok {
			q.Violations = append(q.Violations, Violation{ItemIndex: index, Reason: ReasonUnknownItem})
			continue
		}

		var agg *ClaimAggregate
		if a, ok := aggregates[index]; ok {
			agg = &a
		}
		avail := RemainingClaimable(item, agg)

		shareCount := max(choice.ShareCount, 1)
		qty := sanitizeQuantity(choice.Quantity)
		effective := qty / float64(shareCount)

		switch {
		case avail.FullyClaimed:
			q.Violations = append(q.Violations, Violation{ItemIndex: index, Reason: ReasonFullyClaimed})
			continue
		case qty <= 0:
			q.Violations = append(q.Violations, Violation{ItemIndex: index, Reason: ReasonInvalidQuantity, Remaining: avail.Remaining})
			continue
		case effective > avail.Remaining+epsilon:
			q.Violations = append(q.Violations, Violation{ItemIndex: index, Reason: ReasonExceedsRemaining, Remaining: avail.Remaining})
			continue
		}

		allocated := AllocatePrice(item, qty, shareCount)
		q.Lines = append(q.Lines, QuoteLine{
			Item:         item,
			Quantity:     qty,
			ShareCount:   shareCount,
			EffectiveQty: effective,
			Allocated:    allocated,
			Availability: avail,
		})
		allocations = append(allocations, Allocation{Item: item, Allocated: allocated})
	}

	q.Settlement = p.ComputeSettlement(bill, allocations)
	return q
}

// Evaluate uses DefaultPolicy.
func Evaluate(bill Bill, claims []Claim, sel Selection) Quote {
	return DefaultPolicy.Evaluate(bill, claims, sel)
}

// NewClaims turns the accepted lines into the claims to record once the
// payment has gone through.
func (q Quote) NewClaims(name, email string) []Claim {
	claims := make([]Claim, 0, len(q.Lines))
	for _, line := range q.Lines {
		claims = append(claims, Claim{
			ItemIndex:       line.Item.Index,
			ClaimantName:    name,
			ClaimantEmail:   NormalizeEmail(email),
			QuantityClaimed: line.EffectiveQty,
			ShareCount:      line.ShareCount,
		})
	}
	return claims
}
