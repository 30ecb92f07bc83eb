// Package payment defines the boundary to the hosted payments API that
// collects each payer's share and forwards it to the split's creator.
package payment

import (
	"context"
	"errors"
)

var (
	// ErrDeclined is returned when the gateway refuses the charge itself,
	// as opposed to being unreachable or misconfigured.
	ErrDeclined = errors.New("payment declined")

	// ErrIntentNotFound is returned for unknown intent IDs.
	ErrIntentNotFound = errors.New("payment intent not found")
)

// IntentStatus is the gateway-neutral state of a payment intent.
type IntentStatus string

const (
	// IntentRequiresPayment: waiting for the payer to supply a payment method.
	IntentRequiresPayment IntentStatus = "requires_payment"
	// IntentRequiresAction: the payer must complete an extra step such as 3-D Secure.
	IntentRequiresAction IntentStatus = "requires_action"
	// IntentProcessing: submitted, outcome not yet known.
	IntentProcessing IntentStatus = "processing"
	// IntentSucceeded: funds captured.
	IntentSucceeded IntentStatus = "succeeded"
	// IntentCanceled: cancelled before capture.
	IntentCanceled IntentStatus = "canceled"
	// IntentDeclined: the last attempt was declined. The payer may retry
	// with another payment method on the same intent.
	IntentDeclined IntentStatus = "declined"
)

// Terminal reports whether the status will not change again.
func (s IntentStatus) Terminal() bool {
	switch s {
	case IntentSucceeded, IntentCanceled:
		return true
	}
	return false
}

// IntentRequest describes a charge to create.
type IntentRequest struct {
	// AmountCents is the payer's settlement, excluding the platform fee.
	AmountCents int64

	// PlatformFeeCents is added to the charge and retained by the platform.
	PlatformFeeCents int64

	Currency string

	// Destination is the creator's connected account that receives the
	// charge less the platform fee.
	Destination string

	// IdempotencyKey makes retries of the same payment create one intent.
	IdempotencyKey string

	Metadata map[string]string
}

// ChargeCents is the total collected from the payer.
func (r IntentRequest) ChargeCents() int64 {
	return r.AmountCents + r.PlatformFeeCents
}

// Intent is a gateway payment intent.
type Intent struct {
	ID string

	// ClientSecret lets the payer's browser confirm the intent directly with
	// the gateway. It is never logged.
	ClientSecret string

	Status IntentStatus

	// AmountCents is the full charge including the platform fee.
	AmountCents int64
}

// Gateway creates and inspects payment intents.
type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
}
