package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/zapsplit/internal/calculator"
	"github.com/mmynk/zapsplit/internal/models"
	"github.com/mmynk/zapsplit/internal/payment"
	"github.com/mmynk/zapsplit/internal/payment/paymenttest"
	"github.com/mmynk/zapsplit/internal/storage"
	"github.com/mmynk/zapsplit/pkg/api"
)

func TestGetSplit_ShowsAvailability(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice@example.com", true)
	_, code := env.createSplit(t, alice, dinner())

	resp, err := env.pay.GetSplit(context.Background(), connect.NewRequest(&api.GetSplitRequest{Code: code}))
	if err != nil {
		t.Fatalf("GetSplit failed: %v", err)
	}

	if resp.Msg.Title != "Friday dinner" {
		t.Errorf("expected title 'Friday dinner', got %q", resp.Msg.Title)
	}
	if resp.Msg.CreatorName != "Creator alice@example.com" {
		t.Errorf("unexpected creator name %q", resp.Msg.CreatorName)
	}
	if resp.Msg.TotalFormatted != "$110.00" {
		t.Errorf("expected total $110.00, got %s", resp.Msg.TotalFormatted)
	}
	if resp.Msg.PlatformFeeCents != testPlatformFee || resp.Msg.Currency != "aud" {
		t.Errorf("unexpected fee/currency: %d %s", resp.Msg.PlatformFeeCents, resp.Msg.Currency)
	}
	if len(resp.Msg.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(resp.Msg.Items))
	}
	if resp.Msg.Items[1].Remaining != 4 || resp.Msg.Items[1].FullyClaimed {
		t.Errorf("expected 4 beers remaining, got %+v", resp.Msg.Items[1])
	}
}

func TestGetSplit_LinkErrors(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice@example.com", true)
	_, code := env.createSplit(t, alice, dinner())
	ctx := context.Background()

	if _, err := env.split.DeactivatePaymentLink(ctx, authed(alice, &api.DeactivatePaymentLinkRequest{Code: code})); err != nil {
		t.Fatalf("DeactivatePaymentLink failed: %v", err)
	}

	tests := []struct {
		name string
		code string
		want connect.Code
	}{
		{"empty code", "", connect.CodeInvalidArgument},
		{"unknown code", "doesnotexist", connect.CodeNotFound},
		{"inactive link", code, connect.CodeFailedPrecondition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.pay.GetSplit(ctx, connect.NewRequest(&api.GetSplitRequest{Code: tt.code}))
			if connect.CodeOf(err) != tt.want {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestQuote_ProportionalTaxAndTip(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice@example.com", true)
	_, code := env.createSplit(t, alice, dinner())

	resp, err := env.pay.Quote(context.Background(), connect.NewRequest(&api.QuoteRequest{
		Code: code,
		Selections: []api.ItemSelection{
			{Index: 0},
			{Index: 1, Quantity: 2},
		},
	}))
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}

	// $50 of a $100 subtotal: half of the $10 remainder, split 50/50.
	msg := resp.Msg
	if !msg.Valid {
		t.Errorf("expected valid quote, got violations %+v", msg.Violations)
	}
	if msg.ItemsTotalCents != 5000 || msg.TaxShareCents != 250 || msg.TipShareCents != 250 {
		t.Errorf("unexpected breakdown: items=%d tax=%d tip=%d", msg.ItemsTotalCents, msg.TaxShareCents, msg.TipShareCents)
	}
	if msg.TotalCents != 5500 || msg.ChargeCents != 5550 {
		t.Errorf("expected total 5500 and charge 5550, got %d and %d", msg.TotalCents, msg.ChargeCents)
	}
	if msg.TotalFormatted != "$55.00" || msg.ChargeFormatted != "$55.50" {
		t.Errorf("unexpected formatting: %s / %s", msg.TotalFormatted, msg.ChargeFormatted)
	}
	if len(msg.Lines) != 2 || msg.Lines[1].AllocatedCents != 2000 {
		t.Errorf("unexpected lines: %+v", msg.Lines)
	}
}

func TestQuote_SharedItem(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice@example.com", true)
	_, code := env.createSplit(t, alice, dinner())

	resp, err := env.pay.Quote(context.Background(), connect.NewRequest(&api.QuoteRequest{
		Code:       code,
		Selections: []api.ItemSelection{{Index: 2, ShareCount: 3}},
	}))
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}

	if resp.Msg.ItemsTotalCents != 1000 || resp.Msg.TotalCents != 1100 {
		t.Errorf("expected $10.00 of nachos and $11.00 total, got %d and %d",
			resp.Msg.ItemsTotalCents, resp.Msg.TotalCents)
	}
}

func TestQuote_Violations(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice@example.com", true)
	_, code := env.createSplit(t, alice, dinner())

	resp, err := env.pay.Quote(context.Background(), connect.NewRequest(&api.QuoteRequest{
		Code: code,
		Selections: []api.ItemSelection{
			{Index: 0},
			{Index: 1, Quantity: 5},
			{Index: 9},
		},
	}))
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}

	if resp.Msg.Valid {
		t.Error("expected invalid quote")
	}
	if len(resp.Msg.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %+v", resp.Msg.Violations)
	}
	if v := resp.Msg.Violations[0]; v.Index != 1 || v.Reason != "exceeds_remaining" || v.Remaining != 4 {
		t.Errorf("unexpected violation: %+v", v)
	}
	if v := resp.Msg.Violations[1]; v.Index != 9 || v.Reason != "unknown_item" {
		t.Errorf("unexpected violation: %+v", v)
	}
	// Violating selections are excluded; the pizza is still priced.
	if resp.Msg.ItemsTotalCents != 3000 {
		t.Errorf("expected only pizza priced, got %d", resp.Msg.ItemsTotalCents)
	}
}

func TestCreatePayment_Validation(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice@example.com", true)
	_, code := env.createSplit(t, alice, dinner())

	noPayout := env.register(t, "nopayout@example.com", false)
	_, noPayoutCode := env.createSplit(t, noPayout, dinner())

	pizza := []api.ItemSelection{{Index: 0}}
	tests := []struct {
		name string
		req  *api.CreatePaymentRequest
		want connect.Code
	}{
		{"missing name", &api.CreatePaymentRequest{Code: code, PayerEmail: "bob@example.com", Selections: pizza}, connect.CodeInvalidArgument},
		{"bad email", &api.CreatePaymentRequest{Code: code, PayerName: "Bob", PayerEmail: "bob", Selections: pizza}, connect.CodeInvalidArgument},
		{"no selection", &api.CreatePaymentRequest{Code: code, PayerName: "Bob", PayerEmail: "bob@example.com"}, connect.CodeInvalidArgument},
		{"over-claim", &api.CreatePaymentRequest{Code: code, PayerName: "Bob", PayerEmail: "bob@example.com",
			Selections: []api.ItemSelection{{Index: 1, Quantity: 5}}}, connect.CodeFailedPrecondition},
		{"unknown link", &api.CreatePaymentRequest{Code: "nope", PayerName: "Bob", PayerEmail: "bob@example.com", Selections: pizza}, connect.CodeNotFound},
		{"creator without payouts", &api.CreatePaymentRequest{Code: noPayoutCode, PayerName: "Bob", PayerEmail: "bob@example.com", Selections: pizza}, connect.CodeFailedPrecondition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.pay.CreatePayment(context.Background(), connect.NewRequest(tt.req))
			if connect.CodeOf(err) != tt.want {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if env.gateway.Count() != 0 {
		t.Errorf("expected no intents for rejected payments, got %d", env.gateway.Count())
	}
}

func TestPaymentFlow(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice@example.com", true)
	splitID, code := env.createSplit(t, alice, dinner())
	ctx := context.Background()

	created, err := env.pay.CreatePayment(ctx, connect.NewRequest(&api.CreatePaymentRequest{
		Code:       code,
		PayerName:  "Bob",
		PayerEmail: "Bob@Example.com",
		Selections: []api.ItemSelection{{Index: 0}},
	}))
	if err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}

	// Pizza is 30% of the subtotal: $30 + $1.50 tax + $1.50 tip.
	if created.Msg.AmountCents != 3300 || created.Msg.ChargeCents != 3350 {
		t.Errorf("expected 3300 + fee = 3350, got %d / %d", created.Msg.AmountCents, created.Msg.ChargeCents)
	}
	if created.Msg.ClientSecret == "" {
		t.Error("expected client secret")
	}

	p, err := env.store.GetPayment(ctx, created.Msg.PaymentID)
	if err != nil {
		t.Fatalf("GetPayment failed: %v", err)
	}
	intentReq, ok := env.gateway.Request(p.IntentID)
	if !ok {
		t.Fatalf("no intent recorded for %s", p.IntentID)
	}
	if intentReq.PlatformFeeCents != testPlatformFee || intentReq.Destination != "acct_"+alice.user.ID[:8] {
		t.Errorf("unexpected intent request: %+v", intentReq)
	}
	if intentReq.IdempotencyKey != p.ID || intentReq.Metadata["split_id"] != splitID {
		t.Errorf("unexpected intent idempotency/metadata: %+v", intentReq)
	}

	// Not paid yet.
	confirm, err := env.pay.ConfirmPayment(ctx, connect.NewRequest(&api.ConfirmPaymentRequest{PaymentID: p.ID}))
	if err != nil {
		t.Fatalf("ConfirmPayment failed: %v", err)
	}
	if confirm.Msg.Status != string(models.PaymentPending) {
		t.Errorf("expected pending, got %s", confirm.Msg.Status)
	}

	env.succeed(t, p.ID)
	for i := 0; i < 2; i++ {
		confirm, err = env.pay.ConfirmPayment(ctx, connect.NewRequest(&api.ConfirmPaymentRequest{PaymentID: p.ID}))
		if err != nil {
			t.Fatalf("ConfirmPayment #%d failed: %v", i, err)
		}
		if confirm.Msg.Status != string(models.PaymentSucceeded) {
			t.Errorf("expected succeeded, got %s", confirm.Msg.Status)
		}
	}

	claims, err := env.store.ListClaims(ctx, splitID)
	if err != nil {
		t.Fatalf("ListClaims failed: %v", err)
	}
	if len(claims) != 1 || claims[0].ClaimantEmail != "bob@example.com" || claims[0].AmountCents != 3000 {
		t.Errorf("expected one claim for bob, got %+v", claims)
	}

	view, err := env.pay.GetSplit(ctx, connect.NewRequest(&api.GetSplitRequest{Code: code}))
	if err != nil {
		t.Fatalf("GetSplit failed: %v", err)
	}
	pizza := view.Msg.Items[0]
	if !pizza.FullyClaimed || len(pizza.ClaimedBy) != 1 || pizza.ClaimedBy[0] != "Bob" {
		t.Errorf("expected pizza claimed by Bob, got %+v", pizza)
	}
}

func TestConfirmPayment_Conflict(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice@example.com", true)
	_, code := env.createSplit(t, alice, dinner())
	ctx := context.Background()

	// Both payers see the pizza as available and start paying.
	var ids []string
	for _, email := range []string{"bob@example.com", "carol@example.com"} {
		created, err := env.pay.CreatePayment(ctx, connect.NewRequest(&api.CreatePaymentRequest{
			Code: code, PayerName: email, PayerEmail: email,
			Selections: []api.ItemSelection{{Index: 0}},
		}))
		if err != nil {
			t.Fatalf("CreatePayment failed: %v", err)
		}
		env.succeed(t, created.Msg.PaymentID)
		ids = append(ids, created.Msg.PaymentID)
	}

	if _, err := env.pay.ConfirmPayment(ctx, connect.NewRequest(&api.ConfirmPaymentRequest{PaymentID: ids[0]})); err != nil {
		t.Fatalf("first ConfirmPayment failed: %v", err)
	}

	_, err := env.pay.ConfirmPayment(ctx, connect.NewRequest(&api.ConfirmPaymentRequest{PaymentID: ids[1]}))
	if connect.CodeOf(err) != connect.CodeAborted {
		t.Fatalf("expected Aborted for the second payer, got %v", err)
	}

	p, err := env.store.GetPayment(ctx, ids[1])
	if err != nil {
		t.Fatalf("GetPayment failed: %v", err)
	}
	if p.Status != models.PaymentConflict {
		t.Errorf("expected conflict status, got %s", p.Status)
	}
}

func TestConfirmPayment_Canceled(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice@example.com", true)
	splitID, code := env.createSplit(t, alice, dinner())
	ctx := context.Background()

	created, err := env.pay.CreatePayment(ctx, connect.NewRequest(&api.CreatePaymentRequest{
		Code: code, PayerName: "Bob", PayerEmail: "bob@example.com",
		Selections: []api.ItemSelection{{Index: 0}},
	}))
	if err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}
	p, err := env.store.GetPayment(ctx, created.Msg.PaymentID)
	if err != nil {
		t.Fatalf("GetPayment failed: %v", err)
	}
	env.gateway.SetStatus(p.IntentID, payment.IntentCanceled)

	confirm, err := env.pay.ConfirmPayment(ctx, connect.NewRequest(&api.ConfirmPaymentRequest{PaymentID: p.ID}))
	if err != nil {
		t.Fatalf("ConfirmPayment failed: %v", err)
	}
	if confirm.Msg.Status != string(models.PaymentFailed) {
		t.Errorf("expected failed, got %s", confirm.Msg.Status)
	}

	claims, err := env.store.ListClaims(ctx, splitID)
	if err != nil {
		t.Fatalf("ListClaims failed: %v", err)
	}
	if len(claims) != 0 {
		t.Errorf("expected no claims for a cancelled payment, got %d", len(claims))
	}
}

func TestConfirmPayment_RetryAfterDecline(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice@example.com", true)
	splitID, code := env.createSplit(t, alice, dinner())
	ctx := context.Background()

	created, err := env.pay.CreatePayment(ctx, connect.NewRequest(&api.CreatePaymentRequest{
		Code: code, PayerName: "Bob", PayerEmail: "bob@example.com",
		Selections: []api.ItemSelection{{Index: 0}},
	}))
	if err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}
	p, err := env.store.GetPayment(ctx, created.Msg.PaymentID)
	if err != nil {
		t.Fatalf("GetPayment failed: %v", err)
	}

	// First card is declined; the payment must stay open.
	env.gateway.SetStatus(p.IntentID, payment.IntentDeclined)
	confirm, err := env.pay.ConfirmPayment(ctx, connect.NewRequest(&api.ConfirmPaymentRequest{PaymentID: p.ID}))
	if err != nil {
		t.Fatalf("ConfirmPayment after decline failed: %v", err)
	}
	if confirm.Msg.Status != string(models.PaymentPending) {
		t.Fatalf("expected pending after decline, got %s", confirm.Msg.Status)
	}

	// Second card goes through on the same intent.
	env.gateway.SetStatus(p.IntentID, payment.IntentSucceeded)
	confirm, err = env.pay.ConfirmPayment(ctx, connect.NewRequest(&api.ConfirmPaymentRequest{PaymentID: p.ID}))
	if err != nil {
		t.Fatalf("ConfirmPayment after retry failed: %v", err)
	}
	if confirm.Msg.Status != string(models.PaymentSucceeded) {
		t.Errorf("expected succeeded after retry, got %s", confirm.Msg.Status)
	}

	claims, err := env.store.ListClaims(ctx, splitID)
	if err != nil {
		t.Fatalf("ListClaims failed: %v", err)
	}
	if len(claims) != 1 || claims[0].ClaimantEmail != "bob@example.com" {
		t.Errorf("expected bob's claim to be recorded, got %+v", claims)
	}
}

// attachFailStore loses the write that links a payment to its intent.
type attachFailStore struct {
	storage.Store
	paymentID string
}

func (s *attachFailStore) AttachIntent(_ context.Context, paymentID, _ string) error {
	s.paymentID = paymentID
	return errors.New("connection reset")
}

func TestCreatePayment_AttachIntentFailure(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice@example.com", true)
	splitID, code := env.createSplit(t, alice, dinner())
	ctx := context.Background()

	store := &attachFailStore{Store: env.store}
	svc := NewPayService(store, paymenttest.New(), PayConfig{
		Currency:         "aud",
		PlatformFeeCents: testPlatformFee,
		Policy:           calculator.DefaultPolicy,
	}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.CreatePayment(ctx, connect.NewRequest(&api.CreatePaymentRequest{
		Code: code, PayerName: "Bob", PayerEmail: "bob@example.com",
		Selections: []api.ItemSelection{{Index: 0}},
	}))
	if connect.CodeOf(err) != connect.CodeInternal {
		t.Fatalf("expected Internal, got %v", err)
	}
	if store.paymentID == "" {
		t.Fatal("expected AttachIntent to be called")
	}

	p, err := env.store.GetPayment(ctx, store.paymentID)
	if err != nil {
		t.Fatalf("GetPayment failed: %v", err)
	}
	if p.Status != models.PaymentFailed {
		t.Errorf("expected failed status, got %s", p.Status)
	}

	// The abandoned payment does not hold the pizza.
	if _, err := env.payFor(t, code, "Carol", "carol@example.com", api.ItemSelection{Index: 0}); err != nil {
		t.Fatalf("payFor failed: %v", err)
	}
	claims, err := env.store.ListClaims(ctx, splitID)
	if err != nil {
		t.Fatalf("ListClaims failed: %v", err)
	}
	if len(claims) != 1 || claims[0].ClaimantEmail != "carol@example.com" {
		t.Errorf("expected carol's claim only, got %+v", claims)
	}
}

func TestConfirmPayment_UnknownPayment(t *testing.T) {
	env := setupTestServer(t)
	_, err := env.pay.ConfirmPayment(context.Background(), connect.NewRequest(&api.ConfirmPaymentRequest{PaymentID: "missing"}))
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestSharedItem_CoSharersClaimRemainder(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice@example.com", true)
	_, code := env.createSplit(t, alice, dinner())

	nachos := api.ItemSelection{Index: 2, ShareCount: 3}
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		confirm, err := env.payFor(t, code, email, email, nachos)
		if err != nil {
			t.Fatalf("payment for %s failed: %v", email, err)
		}
		if confirm.Status != string(models.PaymentSucceeded) {
			t.Errorf("expected succeeded for %s, got %s", email, confirm.Status)
		}
	}

	_, err := env.payFor(t, code, "Dave", "d@example.com", nachos)
	if connect.CodeOf(err) != connect.CodeFailedPrecondition {
		t.Errorf("expected FailedPrecondition for a fourth sharer, got %v", err)
	}
}
