package paymenttest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/zapsplit/internal/payment"
)

func TestGatewayIdempotency(t *testing.T) {
	g := New()
	ctx := context.Background()
	req := payment.IntentRequest{AmountCents: 1000, PlatformFeeCents: 50, IdempotencyKey: "pay-1"}

	first, err := g.CreateIntent(ctx, req)
	require.NoError(t, err)
	second, err := g.CreateIntent(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, g.Count())
	assert.Equal(t, int64(1050), first.AmountCents)
}

func TestGatewaySetStatus(t *testing.T) {
	g := New()
	ctx := context.Background()

	intent, err := g.CreateIntent(ctx, payment.IntentRequest{AmountCents: 500})
	require.NoError(t, err)

	g.SetStatus(intent.ID, payment.IntentSucceeded)
	got, err := g.GetIntent(ctx, intent.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.IntentSucceeded, got.Status)

	_, err = g.GetIntent(ctx, "pi_missing")
	assert.True(t, errors.Is(err, payment.ErrIntentNotFound))
}
