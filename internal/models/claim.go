package models

// PaymentLink is a shareable code for paying into a split.
type PaymentLink struct {
	ID        string
	SplitID   string
	ShortCode string
	CreatedBy string
	CreatedAt int64
	ExpiresAt int64
	IsActive  bool
}

// Expired reports whether the link is past its expiry at the given Unix time.
func (l *PaymentLink) Expired(now int64) bool {
	return l.ExpiresAt > 0 && now >= l.ExpiresAt
}

// ItemClaim records that a payer took some quantity of a split item.
type ItemClaim struct {
	ID            string
	SplitID       string
	PaymentLinkID string

	// ItemIndex refers to SplitItem.Index.
	ItemIndex int
	ItemName  string

	// AmountCents is what the claimant paid for the item, before tax and tip.
	AmountCents int64

	ClaimantName string

	// ClaimantEmail is the claimant's identity, normalised to lower case.
	ClaimantEmail string

	// QuantityClaimed is the effective quantity: selected quantity / ShareCount.
	QuantityClaimed float64

	// ShareCount is how many people the claimant said were sharing the item.
	ShareCount int

	CreatedAt int64
}
