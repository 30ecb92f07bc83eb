package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/zapsplit/internal/auth"
	"github.com/mmynk/zapsplit/internal/calculator"
	"github.com/mmynk/zapsplit/internal/metrics"
	"github.com/mmynk/zapsplit/internal/middleware"
	"github.com/mmynk/zapsplit/internal/payment"
	"github.com/mmynk/zapsplit/internal/payment/paymenttest"
	"github.com/mmynk/zapsplit/internal/storage/sqlite"
	"github.com/mmynk/zapsplit/internal/storage/sqlstore"
	"github.com/mmynk/zapsplit/pkg/api"
	"github.com/mmynk/zapsplit/pkg/api/apiconnect"
)

const testPlatformFee = 50

// testEnv is a running server backed by a temp SQLite database and a fake
// payment gateway.
type testEnv struct {
	store   *sqlstore.Store
	gateway *paymenttest.Gateway
	metrics *metrics.Metrics

	pay   apiconnect.PayServiceClient
	split apiconnect.SplitServiceClient
	auth  apiconnect.AuthServiceClient
}

// setupTestServer creates a test server with all three services mounted.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := auth.NewSessionManager("service-test-secret-0123456789abcdef", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	gateway := paymenttest.New()
	m := metrics.New()

	policy := calculator.DefaultPolicy
	paySvc := NewPayService(store, gateway, PayConfig{
		Currency:         "aud",
		PlatformFeeCents: testPlatformFee,
		Policy:           policy,
	}, m, logger)
	splitSvc := NewSplitService(store, SplitConfig{
		Policy:    policy,
		LinkTTL:   24 * time.Hour,
		PublicURL: "https://zapsplit.test/",
	}, logger)
	authSvc := NewAuthService(authenticator, sessions, store, logger)

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewPayServiceHandler(paySvc,
		connect.WithInterceptors(middleware.OptionalAuth(sessions))))
	mux.Handle(apiconnect.NewSplitServiceHandler(splitSvc,
		connect.WithInterceptors(middleware.RequireAuth(sessions))))
	mux.Handle(apiconnect.NewAuthServiceHandler(authSvc,
		connect.WithInterceptors(middleware.OptionalAuth(sessions))))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testEnv{
		store:   store,
		gateway: gateway,
		metrics: m,
		pay:     apiconnect.NewPayServiceClient(http.DefaultClient, server.URL),
		split:   apiconnect.NewSplitServiceClient(http.DefaultClient, server.URL),
		auth:    apiconnect.NewAuthServiceClient(http.DefaultClient, server.URL),
	}
}

// creator is a registered user with a session token.
type creator struct {
	user  api.User
	token string
}

// register creates a creator account, optionally with a payout account.
func (e *testEnv) register(t *testing.T, email string, withPayout bool) *creator {
	t.Helper()
	ctx := context.Background()

	resp, err := e.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email:       email,
		DisplayName: "Creator " + email,
		Password:    "password123",
	}))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	c := &creator{user: resp.Msg.User, token: resp.Msg.Token}

	if withPayout {
		resp, err := e.auth.UpdatePayoutAccount(ctx, authed(c, &api.UpdatePayoutAccountRequest{AccountID: "acct_" + c.user.ID[:8]}))
		if err != nil {
			t.Fatalf("UpdatePayoutAccount failed: %v", err)
		}
		c.user, c.token = resp.Msg.User, resp.Msg.Token
	}
	return c
}

// authed wraps msg in a request carrying c's token.
func authed[T any](c *creator, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+c.token)
	return req
}

// createSplit creates a split and a payment link for it, returning the link code.
func (e *testEnv) createSplit(t *testing.T, c *creator, req *api.CreateSplitRequest) (splitID, code string) {
	t.Helper()
	ctx := context.Background()

	resp, err := e.split.CreateSplit(ctx, authed(c, req))
	if err != nil {
		t.Fatalf("CreateSplit failed: %v", err)
	}
	link, err := e.split.CreatePaymentLink(ctx, authed(c, &api.CreatePaymentLinkRequest{SplitID: resp.Msg.SplitID}))
	if err != nil {
		t.Fatalf("CreatePaymentLink failed: %v", err)
	}
	return resp.Msg.SplitID, link.Msg.Link.ShortCode
}

// dinner is a bill with a $10 tax-and-tip remainder on a $100 subtotal.
func dinner() *api.CreateSplitRequest {
	return &api.CreateSplitRequest{
		Title:            "Friday dinner",
		TotalAmountCents: 11000,
		Items: []api.Item{
			{Name: "Pizza", Quantity: 1, TotalPriceCents: 3000},
			{Name: "Beer", Quantity: 4, UnitPriceCents: 1000, TotalPriceCents: 4000},
			{Name: "Nachos", Quantity: 1, TotalPriceCents: 3000},
		},
	}
}

// payFor creates a payment for selections and confirms it after the fake
// gateway reports success.
func (e *testEnv) payFor(t *testing.T, code, name, email string, selections ...api.ItemSelection) (*api.ConfirmPaymentResponse, error) {
	t.Helper()
	ctx := context.Background()

	created, err := e.pay.CreatePayment(ctx, connect.NewRequest(&api.CreatePaymentRequest{
		Code:       code,
		PayerName:  name,
		PayerEmail: email,
		Selections: selections,
	}))
	if err != nil {
		return nil, err
	}

	e.succeed(t, created.Msg.PaymentID)
	resp, err := e.pay.ConfirmPayment(ctx, connect.NewRequest(&api.ConfirmPaymentRequest{PaymentID: created.Msg.PaymentID}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// succeed marks the payment's intent as paid in the fake gateway.
func (e *testEnv) succeed(t *testing.T, paymentID string) {
	t.Helper()
	p, err := e.store.GetPayment(context.Background(), paymentID)
	if err != nil {
		t.Fatalf("GetPayment failed: %v", err)
	}
	e.gateway.SetStatus(p.IntentID, payment.IntentSucceeded)
}
