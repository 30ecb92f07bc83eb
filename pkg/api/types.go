package api

// User is a bill creator's public profile.
type User struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	DisplayName      string `json:"display_name"`
	HasPayoutAccount bool   `json:"has_payout_account"`
	CreatedAt        int64  `json:"created_at"`
}

// Item is a receipt line as uploaded by the creator.
type Item struct {
	Index           int     `json:"index"`
	Name            string  `json:"name"`
	Quantity        float64 `json:"quantity"`
	UnitPriceCents  int64   `json:"unit_price_cents"`
	TotalPriceCents int64   `json:"total_price_cents"`
}

// ItemAvailability is an item with what is left to claim.
type ItemAvailability struct {
	Item
	Remaining    float64  `json:"remaining"`
	FullyClaimed bool     `json:"fully_claimed"`
	ClaimedBy    []string `json:"claimed_by,omitempty"`
}

// ItemSelection is a payer's choice of one item. Quantity and ShareCount
// default to 1 when zero.
type ItemSelection struct {
	Index      int     `json:"index"`
	Quantity   float64 `json:"quantity,omitempty"`
	ShareCount int     `json:"share_count,omitempty"`
}

// QuoteLine is the price of one selected item.
type QuoteLine struct {
	Index              int     `json:"index"`
	Name               string  `json:"name"`
	Quantity           float64 `json:"quantity"`
	ShareCount         int     `json:"share_count"`
	AllocatedCents     int64   `json:"allocated_cents"`
	AllocatedFormatted string  `json:"allocated_formatted"`
}

// Violation explains why a selected item was excluded from a quote.
type Violation struct {
	Index     int     `json:"index"`
	Reason    string  `json:"reason"`
	Remaining float64 `json:"remaining"`
	Message   string  `json:"message"`
}

// SplitSummary is a split in the creator's list.
type SplitSummary struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	TotalAmountCents int64  `json:"total_amount_cents"`
	Status           string `json:"status"`
	ItemCount        int    `json:"item_count"`
	CreatedAt        int64  `json:"created_at"`
}

// ClaimantSummary is what one payer has covered so far.
type ClaimantSummary struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	ItemCount       int    `json:"item_count"`
	ItemsTotalCents int64  `json:"items_total_cents"`
	TaxShareCents   int64  `json:"tax_share_cents"`
	TipShareCents   int64  `json:"tip_share_cents"`
	TotalCents      int64  `json:"total_cents"`
}

// PaymentLink is a shareable link to pay into a split.
type PaymentLink struct {
	ID        string `json:"id"`
	SplitID   string `json:"split_id"`
	ShortCode string `json:"short_code"`
	URL       string `json:"url"`
	ExpiresAt int64  `json:"expires_at"`
	IsActive  bool   `json:"is_active"`
}
