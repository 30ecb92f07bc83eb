package models

// PaymentStatus is the lifecycle of a payment attempt.
type PaymentStatus string

const (
	// PaymentPending: intent created, waiting for the payer to complete it.
	PaymentPending PaymentStatus = "pending"
	// PaymentSucceeded: gateway captured the funds and claims were recorded.
	PaymentSucceeded PaymentStatus = "succeeded"
	// PaymentFailed: the gateway declined or the payer cancelled.
	PaymentFailed PaymentStatus = "failed"
	// PaymentConflict: funds captured but the items were claimed by someone
	// else in the meantime. Needs manual follow-up.
	PaymentConflict PaymentStatus = "conflict"
)

// Payment is one payer's attempt to settle their share of a split.
type Payment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string

	SplitID       string
	PaymentLinkID string

	PayerName  string
	PayerEmail string

	// AmountCents is the settlement total, excluding the platform fee.
	AmountCents int64

	// PlatformFeeCents is charged on top of AmountCents.
	PlatformFeeCents int64

	Currency string

	// IntentID is the gateway's payment intent identifier.
	IntentID string

	Status PaymentStatus

	// RecipientUserID is the split creator being paid.
	RecipientUserID string

	// Claims are recorded against the split once the payment succeeds.
	Claims []ItemClaim

	CreatedAt int64
	UpdatedAt int64
}

// ChargeCents is the amount the gateway collects from the payer.
func (p *Payment) ChargeCents() int64 {
	return p.AmountCents + p.PlatformFeeCents
}
