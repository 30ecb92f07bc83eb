package api

// CreateSplitRequest uploads a receipt.
type CreateSplitRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	TotalAmountCents int64  `json:"total_amount_cents"`
	Items            []Item `json:"items"`
}

// CreateSplitResponse identifies the new split.
type CreateSplitResponse struct {
	SplitID string `json:"split_id"`
	Title   string `json:"title"`
}

// GetSplitProgressRequest asks how much of a split has been paid.
type GetSplitProgressRequest struct {
	SplitID string `json:"split_id"`
}

// GetSplitProgressResponse is the creator's view of a split.
type GetSplitProgressResponse struct {
	SplitID           string             `json:"split_id"`
	Title             string             `json:"title"`
	Status            string             `json:"status"`
	TotalAmountCents  int64              `json:"total_amount_cents"`
	CoveredCents      int64              `json:"covered_cents"`
	OutstandingCents  int64              `json:"outstanding_cents"`
	FullyClaimedItems int                `json:"fully_claimed_items"`
	Items             []ItemAvailability `json:"items"`
	Claimants         []ClaimantSummary  `json:"claimants"`
}

// ListSplitsRequest lists the caller's splits.
type ListSplitsRequest struct{}

// ListSplitsResponse holds the caller's splits, newest first.
type ListSplitsResponse struct {
	Splits []SplitSummary `json:"splits"`
}

// CreatePaymentLinkRequest issues a link for a split.
type CreatePaymentLinkRequest struct {
	SplitID string `json:"split_id"`
}

// CreatePaymentLinkResponse holds the new link.
type CreatePaymentLinkResponse struct {
	Link PaymentLink `json:"link"`

	// PayoutReady is false when the creator's session has no payout account,
	// in which case payers will be turned away until one is connected.
	PayoutReady bool `json:"payout_ready"`
}

// DeactivatePaymentLinkRequest stops a link from taking payments.
type DeactivatePaymentLinkRequest struct {
	Code string `json:"code"`
}

// DeactivatePaymentLinkResponse is empty.
type DeactivatePaymentLinkResponse struct{}
