package calculator

// ClaimAggregate summarises the recorded claims on one item.
type ClaimAggregate struct {
	ClaimantNames        []string
	TotalQuantityClaimed float64
}

// Availability is what is left of an item for the current payer.
type Availability struct {
	Remaining    float64
	FullyClaimed bool
}

// AggregateClaims groups claims by item index. Claimant names are listed once,
// in the order they were first seen.
func AggregateClaims(claims []Claim) map[int]ClaimAggregate {
	aggregates := make(map[int]ClaimAggregate)
	seen := make(map[int]map[string]bool)

	for _, claim := range claims {
		agg := aggregates[claim.ItemIndex]
		agg.TotalQuantityClaimed += sanitizeQuantity(claim.QuantityClaimed)

		if seen[claim.ItemIndex] == nil {
			seen[claim.ItemIndex] = make(map[string]bool)
		}
		if claim.ClaimantName != "" && !seen[claim.ItemIndex][claim.ClaimantName] {
			seen[claim.ItemIndex][claim.ClaimantName] = true
			agg.ClaimantNames = append(agg.ClaimantNames, claim.ClaimantName)
		}

		aggregates[claim.ItemIndex] = agg
	}

	return aggregates
}

// RemainingClaimable reports how much of item is still unclaimed. It never
// fails: over-claimed items and bad quantities clamp to zero remaining.
func RemainingClaimable(item BillItem, agg *ClaimAggregate) Availability {
	claimed := 0.0
	if agg != nil {
		claimed = sanitizeQuantity(agg.TotalQuantityClaimed)
	}

	remaining := sanitizeQuantity(item.Quantity) - claimed
	if remaining < epsilon {
		remaining = 0
	}

	return Availability{
		Remaining:    remaining,
		FullyClaimed: remaining == 0,
	}
}

// Availabilities resolves every item on the bill against the recorded claims.
func Availabilities(bill Bill, claims []Claim) []Availability {
	aggregates := AggregateClaims(claims)
	result := make([]Availability, len(bill.Items))
	for i, item := range bill.Items {
		var agg *ClaimAggregate
		if a, ok := aggregates[i]; ok {
			agg = &a
		}
		result[i] = RemainingClaimable(item, agg)
	}
	return result
}
