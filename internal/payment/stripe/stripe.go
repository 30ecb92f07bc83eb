// Package stripe implements payment.Gateway on Stripe Connect. Charges are
// destination charges: the platform fee is kept as an application fee and the
// rest is transferred to the creator's connected account.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	stripeapi "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"

	"github.com/mmynk/zapsplit/internal/payment"
)

// Ensure Gateway implements payment.Gateway
var _ payment.Gateway = (*Gateway)(nil)

// Gateway talks to the Stripe API.
type Gateway struct {
	api *client.API
}

// New creates a gateway authenticated with the given secret key.
func New(secretKey string) *Gateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Gateway{api: api}
}

// NewWithBackends creates a gateway on custom backends, for pointing the
// client at a mock server.
func NewWithBackends(secretKey string, backends *stripeapi.Backends) *Gateway {
	api := &client.API{}
	api.Init(secretKey, backends)
	return &Gateway{api: api}
}

// CreateIntent creates a PaymentIntent with automatic payment methods
// (card, Apple Pay, Google Pay).
func (g *Gateway) CreateIntent(ctx context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	if req.Destination == "" {
		return nil, errors.New("stripe: destination account is required")
	}

	params := &stripeapi.PaymentIntentParams{
		Amount:   stripeapi.Int64(req.ChargeCents()),
		Currency: stripeapi.String(req.Currency),
		AutomaticPaymentMethods: &stripeapi.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripeapi.Bool(true),
		},
		ApplicationFeeAmount: stripeapi.Int64(req.PlatformFeeCents),
		TransferData: &stripeapi.PaymentIntentTransferDataParams{
			Destination: stripeapi.String(req.Destination),
		},
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, translateError("create payment intent", err)
	}
	return toIntent(pi), nil
}

// GetIntent fetches the current state of a PaymentIntent.
func (g *Gateway) GetIntent(ctx context.Context, id string) (*payment.Intent, error) {
	params := &stripeapi.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, translateError("get payment intent", err)
	}
	return toIntent(pi), nil
}

func toIntent(pi *stripeapi.PaymentIntent) *payment.Intent {
	return &payment.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       statusOf(pi),
		AmountCents:  pi.Amount,
	}
}

// statusOf maps Stripe's intent lifecycle onto payment.IntentStatus.
func statusOf(pi *stripeapi.PaymentIntent) payment.IntentStatus {
	switch pi.Status {
	case stripeapi.PaymentIntentStatusSucceeded:
		return payment.IntentSucceeded
	case stripeapi.PaymentIntentStatusCanceled:
		return payment.IntentCanceled
	case stripeapi.PaymentIntentStatusProcessing, stripeapi.PaymentIntentStatusRequiresCapture:
		return payment.IntentProcessing
	case stripeapi.PaymentIntentStatusRequiresAction:
		return payment.IntentRequiresAction
	case stripeapi.PaymentIntentStatusRequiresPaymentMethod:
		// Stripe moves a declined intent back here with the decline attached.
		if pi.LastPaymentError != nil {
			return payment.IntentDeclined
		}
		return payment.IntentRequiresPayment
	default:
		return payment.IntentRequiresPayment
	}
}

// translateError wraps Stripe API errors with the payment sentinels.
func translateError(op string, err error) error {
	var serr *stripeapi.Error
	if !errors.As(err, &serr) {
		return fmt.Errorf("stripe: %s: %w", op, err)
	}

	switch {
	case serr.Type == stripeapi.ErrorTypeCard:
		return fmt.Errorf("stripe: %s: %w: %s", op, payment.ErrDeclined, serr.Msg)
	case serr.HTTPStatusCode == http.StatusNotFound:
		return fmt.Errorf("stripe: %s: %w", op, payment.ErrIntentNotFound)
	default:
		return fmt.Errorf("stripe: %s: %w", op, err)
	}
}
