package models

// SplitStatus tracks whether a split is still collecting payments.
type SplitStatus string

const (
	SplitStatusOpen    SplitStatus = "open"
	SplitStatusSettled SplitStatus = "settled"
)

// Split represents a shared receipt divided among participants.
type Split struct {
	// ID is the unique identifier for the split (UUID format).
	ID string

	// Title is the human-readable name for the split (e.g., "Friday dinner").
	Title string

	// Description is optional free text shown on the pay page.
	Description string

	// TotalAmountCents is the grand total including tax and tip.
	TotalAmountCents int64

	// CreatorID is the user who uploaded the receipt and gets paid.
	CreatorID string

	// Status is open until every item is claimed.
	Status SplitStatus

	// Items are the receipt lines, ordered by Index.
	Items []SplitItem

	// CreatedAt is the Unix timestamp when the split was created.
	CreatedAt int64
}

// SplitItem is a single receipt line.
type SplitItem struct {
	ID string

	// Index is the item's position on the receipt. Claims refer to it.
	Index int

	Name            string
	Quantity        float64
	UnitPriceCents  int64
	TotalPriceCents int64

	// ClaimedQuantity is maintained by the store as claims are recorded.
	ClaimedQuantity float64
}

// SplitSummary is the list view of a split.
type SplitSummary struct {
	ID               string
	Title            string
	TotalAmountCents int64
	Status           SplitStatus
	ItemCount        int
	CreatedAt        int64
}
