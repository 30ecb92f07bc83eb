package calculator

import (
	"github.com/mmynk/zapsplit/internal/money"
)

// ClaimantTotal is what one claimant has taken on so far.
type ClaimantTotal struct {
	ClaimantID string
	Name       string
	ItemCount  int
	Settlement Settlement
}

// Progress shows how much of a bill has been claimed.
type Progress struct {
	Claimants         []ClaimantTotal
	Covered           money.Cents // Sum of claimant totals
	Outstanding       money.Cents // Bill total not yet covered, never negative
	FullyClaimedItems int
}

// Progress computes per-claimant settlements from recorded claims.
//
// Algorithm:
// - Group claims by claimant identity (normalised email), keeping first-seen order
// - Each claim contributes AllocatePrice(item, quantity claimed) to its claimant
// - Each claimant's tax and tip follow ComputeSettlement over their own lines
// - Outstanding = bill total - covered, clamped at zero
func (p Policy) Progress(bill Bill, claims []Claim) Progress {
	type claimant struct {
		name  string
		lines []Allocation
	}

	byID := make(map[string]*claimant)
	var order []string

	for _, c := range claims {
		item, ok := bill.Item(c.ItemIndex)
		if !ok {
			continue
		}

		id := c.ClaimantID()
		entry, exists := byID[id]
		if !exists {
			entry = &claimant{name: c.ClaimantName}
			byID[id] = entry
			order = append(order, id)
		}

		// QuantityClaimed is already divided by the share count.
		entry.lines = append(entry.lines, Allocation{
			Item:      item,
			Allocated: AllocatePrice(item, c.QuantityClaimed, 1),
		})
	}

	var progress Progress
	for _, id := range order {
		entry := byID[id]
		settlement := p.ComputeSettlement(bill, entry.lines)
		progress.Claimants = append(progress.Claimants, ClaimantTotal{
			ClaimantID: id,
			Name:       entry.name,
			ItemCount:  len(entry.lines),
			Settlement: settlement,
		})
		progress.Covered += settlement.Total
	}

	progress.Outstanding = money.Sanitize(bill.TotalAmount) - progress.Covered
	if progress.Outstanding < 0 {
		progress.Outstanding = 0
	}

	for _, avail := range Availabilities(bill, claims) {
		if avail.FullyClaimed {
			progress.FullyClaimedItems++
		}
	}

	return progress
}
