// Package paymenttest provides an in-memory payment.Gateway for tests.
package paymenttest

import (
	"context"
	"fmt"
	"sync"

	"github.com/mmynk/zapsplit/internal/payment"
)

// Ensure Gateway implements payment.Gateway
var _ payment.Gateway = (*Gateway)(nil)

// Gateway records created intents and lets tests drive their status.
type Gateway struct {
	mu       sync.Mutex
	seq      int
	intents  map[string]*payment.Intent
	requests map[string]payment.IntentRequest
	byKey    map[string]string

	// CreateErr, when set, is returned by CreateIntent.
	CreateErr error
}

// New returns an empty fake gateway.
func New() *Gateway {
	return &Gateway{
		intents:  make(map[string]*payment.Intent),
		requests: make(map[string]payment.IntentRequest),
		byKey:    make(map[string]string),
	}
}

// CreateIntent stores a new intent awaiting payment. Repeated idempotency
// keys return the original intent.
func (g *Gateway) CreateIntent(_ context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.CreateErr != nil {
		return nil, g.CreateErr
	}
	if id, ok := g.byKey[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		intent := *g.intents[id]
		return &intent, nil
	}

	g.seq++
	id := fmt.Sprintf("pi_test_%d", g.seq)
	intent := &payment.Intent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       payment.IntentRequiresPayment,
		AmountCents:  req.ChargeCents(),
	}
	g.intents[id] = intent
	g.requests[id] = req
	if req.IdempotencyKey != "" {
		g.byKey[req.IdempotencyKey] = id
	}

	out := *intent
	return &out, nil
}

// GetIntent returns a copy of a stored intent.
func (g *Gateway) GetIntent(_ context.Context, id string) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	intent, ok := g.intents[id]
	if !ok {
		return nil, fmt.Errorf("intent %s: %w", id, payment.ErrIntentNotFound)
	}
	out := *intent
	return &out, nil
}

// SetStatus moves an intent to status, as if the payer acted on it.
func (g *Gateway) SetStatus(id string, status payment.IntentStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if intent, ok := g.intents[id]; ok {
		intent.Status = status
	}
}

// Request returns the request an intent was created from.
func (g *Gateway) Request(id string) (payment.IntentRequest, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	req, ok := g.requests[id]
	return req, ok
}

// Count returns how many distinct intents were created.
func (g *Gateway) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.intents)
}
