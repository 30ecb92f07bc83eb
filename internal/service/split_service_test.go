package service

import (
	"context"
	"strings"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/zapsplit/internal/models"
	"github.com/mmynk/zapsplit/pkg/api"
)

func TestCreateSplit(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice@example.com", true)

	resp, err := env.split.CreateSplit(context.Background(), authed(alice, dinner()))
	if err != nil {
		t.Fatalf("CreateSplit failed: %v", err)
	}
	if resp.Msg.SplitID == "" {
		t.Error("expected split ID to be set")
	}
	if resp.Msg.Title != "Friday dinner" {
		t.Errorf("expected title 'Friday dinner', got %q", resp.Msg.Title)
	}

	split, err := env.store.GetSplit(context.Background(), resp.Msg.SplitID)
	if err != nil {
		t.Fatalf("GetSplit failed: %v", err)
	}
	if split.CreatorID != alice.user.ID {
		t.Errorf("expected creator %s, got %s", alice.user.ID, split.CreatorID)
	}
	if len(split.Items) != 3 || split.Items[0].UnitPriceCents != 3000 {
		t.Errorf("unexpected items: %+v", split.Items)
	}
}

func TestCreateSplit_DefaultsTotalAndTitle(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice@example.com", true)

	resp, err := env.split.CreateSplit(context.Background(), authed(alice, &api.CreateSplitRequest{
		Items: []api.Item{
			{Name: "Coffee", Quantity: 2, UnitPriceCents: 450},
			{Name: "Muffin", Quantity: 1, TotalPriceCents: 500},
		},
	}))
	if err != nil {
		t.Fatalf("CreateSplit failed: %v", err)
	}

	split, err := env.store.GetSplit(context.Background(), resp.Msg.SplitID)
	if err != nil {
		t.Fatalf("GetSplit failed: %v", err)
	}
	if split.TotalAmountCents != 1400 {
		t.Errorf("expected total to default to the item sum 1400, got %d", split.TotalAmountCents)
	}
	if split.Items[0].TotalPriceCents != 900 || split.Items[1].UnitPriceCents != 500 {
		t.Errorf("expected derived prices, got %+v", split.Items)
	}
	if !strings.Contains(resp.Msg.Title, "Coffee") {
		t.Errorf("expected generated title to mention Coffee, got %q", resp.Msg.Title)
	}
}

func TestCreateSplit_Validation(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice@example.com", true)

	tests := []struct {
		name string
		req  *api.CreateSplitRequest
	}{
		{"no items", &api.CreateSplitRequest{Title: "Empty"}},
		{"empty item name", &api.CreateSplitRequest{Items: []api.Item{{Name: " ", Quantity: 1, TotalPriceCents: 100}}}},
		{"zero quantity", &api.CreateSplitRequest{Items: []api.Item{{Name: "Tea", TotalPriceCents: 100}}}},
		{"negative price", &api.CreateSplitRequest{Items: []api.Item{{Name: "Tea", Quantity: 1, TotalPriceCents: -100}}}},
		{"negative total", &api.CreateSplitRequest{TotalAmountCents: -1, Items: []api.Item{{Name: "Tea", Quantity: 1, TotalPriceCents: 100}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.split.CreateSplit(context.Background(), authed(alice, tt.req))
			if connect.CodeOf(err) != connect.CodeInvalidArgument {
				t.Errorf("expected InvalidArgument, got %v", err)
			}
		})
	}
}

func TestSplitService_RequiresAuth(t *testing.T) {
	env := setupTestServer(t)

	_, err := env.split.CreateSplit(context.Background(), connect.NewRequest(dinner()))
	if connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Errorf("expected Unauthenticated, got %v", err)
	}

	bad := &creator{token: "not-a-token"}
	_, err = env.split.ListSplits(context.Background(), authed(bad, &api.ListSplitsRequest{}))
	if connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Errorf("expected Unauthenticated for a bad token, got %v", err)
	}
}

func TestListSplits(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice@example.com", true)
	bob := env.register(t, "bob@example.com", true)

	env.createSplit(t, alice, dinner())
	env.createSplit(t, alice, dinner())
	env.createSplit(t, bob, dinner())

	resp, err := env.split.ListSplits(context.Background(), authed(alice, &api.ListSplitsRequest{}))
	if err != nil {
		t.Fatalf("ListSplits failed: %v", err)
	}
	if len(resp.Msg.Splits) != 2 {
		t.Fatalf("expected 2 splits for alice, got %d", len(resp.Msg.Splits))
	}
	for _, s := range resp.Msg.Splits {
		if s.ItemCount != 3 || s.Status != string(models.SplitStatusOpen) {
			t.Errorf("unexpected summary: %+v", s)
		}
	}
}

func TestGetSplitProgress(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice@example.com", true)
	splitID, code := env.createSplit(t, alice, dinner())

	if _, err := env.payFor(t, code, "Bob", "bob@example.com", api.ItemSelection{Index: 0}); err != nil {
		t.Fatalf("Bob's payment failed: %v", err)
	}
	if _, err := env.payFor(t, code, "Carol", "carol@example.com", api.ItemSelection{Index: 1, Quantity: 2}); err != nil {
		t.Fatalf("Carol's payment failed: %v", err)
	}

	resp, err := env.split.GetSplitProgress(context.Background(), authed(alice, &api.GetSplitProgressRequest{SplitID: splitID}))
	if err != nil {
		t.Fatalf("GetSplitProgress failed: %v", err)
	}

	msg := resp.Msg
	if len(msg.Claimants) != 2 {
		t.Fatalf("expected 2 claimants, got %+v", msg.Claimants)
	}
	totals := map[string]int64{}
	for _, c := range msg.Claimants {
		totals[c.Email] = c.TotalCents
	}
	if totals["bob@example.com"] != 3300 || totals["carol@example.com"] != 2200 {
		t.Errorf("unexpected claimant totals: %v", totals)
	}
	if msg.CoveredCents != 5500 || msg.OutstandingCents != 5500 {
		t.Errorf("expected 5500 covered and 5500 outstanding, got %d and %d", msg.CoveredCents, msg.OutstandingCents)
	}
	if msg.FullyClaimedItems != 1 {
		t.Errorf("expected 1 fully claimed item, got %d", msg.FullyClaimedItems)
	}
	if msg.Items[1].Remaining != 2 {
		t.Errorf("expected 2 beers remaining, got %v", msg.Items[1].Remaining)
	}
	if msg.Status != string(models.SplitStatusOpen) {
		t.Errorf("expected open split, got %s", msg.Status)
	}
}

func TestGetSplitProgress_SettledWhenEverythingPaid(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice@example.com", true)
	splitID, code := env.createSplit(t, alice, dinner())

	_, err := env.payFor(t, code, "Bob", "bob@example.com",
		api.ItemSelection{Index: 0},
		api.ItemSelection{Index: 1, Quantity: 4},
		api.ItemSelection{Index: 2},
	)
	if err != nil {
		t.Fatalf("payment failed: %v", err)
	}

	resp, err := env.split.GetSplitProgress(context.Background(), authed(alice, &api.GetSplitProgressRequest{SplitID: splitID}))
	if err != nil {
		t.Fatalf("GetSplitProgress failed: %v", err)
	}
	if resp.Msg.Status != string(models.SplitStatusSettled) {
		t.Errorf("expected settled, got %s", resp.Msg.Status)
	}
	if resp.Msg.CoveredCents != 11000 || resp.Msg.OutstandingCents != 0 {
		t.Errorf("expected the whole bill covered, got %d / %d", resp.Msg.CoveredCents, resp.Msg.OutstandingCents)
	}

	view, err := env.pay.GetSplit(context.Background(), connect.NewRequest(&api.GetSplitRequest{Code: code}))
	if err != nil {
		t.Fatalf("GetSplit failed: %v", err)
	}
	if !view.Msg.Settled {
		t.Error("expected pay view to report the split settled")
	}
}

func TestSplitOwnership(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice@example.com", true)
	mallory := env.register(t, "mallory@example.com", true)
	splitID, code := env.createSplit(t, alice, dinner())
	ctx := context.Background()

	_, err := env.split.GetSplitProgress(ctx, authed(mallory, &api.GetSplitProgressRequest{SplitID: splitID}))
	if connect.CodeOf(err) != connect.CodePermissionDenied {
		t.Errorf("GetSplitProgress: expected PermissionDenied, got %v", err)
	}
	_, err = env.split.CreatePaymentLink(ctx, authed(mallory, &api.CreatePaymentLinkRequest{SplitID: splitID}))
	if connect.CodeOf(err) != connect.CodePermissionDenied {
		t.Errorf("CreatePaymentLink: expected PermissionDenied, got %v", err)
	}
	_, err = env.split.DeactivatePaymentLink(ctx, authed(mallory, &api.DeactivatePaymentLinkRequest{Code: code}))
	if connect.CodeOf(err) != connect.CodePermissionDenied {
		t.Errorf("DeactivatePaymentLink: expected PermissionDenied, got %v", err)
	}
	_, err = env.split.GetSplitProgress(ctx, authed(alice, &api.GetSplitProgressRequest{SplitID: "missing"}))
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Errorf("expected NotFound for unknown split, got %v", err)
	}
}

func TestCreatePaymentLink(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice@example.com", true)
	ctx := context.Background()

	created, err := env.split.CreateSplit(ctx, authed(alice, dinner()))
	if err != nil {
		t.Fatalf("CreateSplit failed: %v", err)
	}

	resp, err := env.split.CreatePaymentLink(ctx, authed(alice, &api.CreatePaymentLinkRequest{SplitID: created.Msg.SplitID}))
	if err != nil {
		t.Fatalf("CreatePaymentLink failed: %v", err)
	}

	link := resp.Msg.Link
	if link.ShortCode == "" || !link.IsActive {
		t.Errorf("expected an active link with a code, got %+v", link)
	}
	if link.URL != "https://zapsplit.test/pay/"+link.ShortCode {
		t.Errorf("unexpected link URL %q", link.URL)
	}
	if link.ExpiresAt == 0 {
		t.Error("expected link expiry to be set")
	}
	if !resp.Msg.PayoutReady {
		t.Error("expected payout ready for a creator with a payout account")
	}

	// A second link for the same split is independent of the first.
	second, err := env.split.CreatePaymentLink(ctx, authed(alice, &api.CreatePaymentLinkRequest{SplitID: created.Msg.SplitID}))
	if err != nil {
		t.Fatalf("second CreatePaymentLink failed: %v", err)
	}
	if second.Msg.Link.ShortCode == link.ShortCode {
		t.Error("expected distinct short codes")
	}
}

func TestCreatePaymentLink_PayoutFollowsSession(t *testing.T) {
	env := setupTestServer(t)
	bob := env.register(t, "bob@example.com", false)
	ctx := context.Background()

	created, err := env.split.CreateSplit(ctx, authed(bob, dinner()))
	if err != nil {
		t.Fatalf("CreateSplit failed: %v", err)
	}
	req := &api.CreatePaymentLinkRequest{SplitID: created.Msg.SplitID}

	resp, err := env.split.CreatePaymentLink(ctx, authed(bob, req))
	if err != nil {
		t.Fatalf("CreatePaymentLink failed: %v", err)
	}
	if resp.Msg.PayoutReady {
		t.Error("expected payout not ready before an account is connected")
	}

	payout, err := env.auth.UpdatePayoutAccount(ctx, authed(bob, &api.UpdatePayoutAccountRequest{AccountID: "acct_bob"}))
	if err != nil {
		t.Fatalf("UpdatePayoutAccount failed: %v", err)
	}
	bob.token = payout.Msg.Token

	resp, err = env.split.CreatePaymentLink(ctx, authed(bob, req))
	if err != nil {
		t.Fatalf("CreatePaymentLink failed: %v", err)
	}
	if !resp.Msg.PayoutReady {
		t.Error("expected payout ready with the reissued session")
	}
}

func TestDeactivatePaymentLink(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice@example.com", true)
	_, code := env.createSplit(t, alice, dinner())
	ctx := context.Background()

	if _, err := env.split.DeactivatePaymentLink(ctx, authed(alice, &api.DeactivatePaymentLinkRequest{Code: code})); err != nil {
		t.Fatalf("DeactivatePaymentLink failed: %v", err)
	}

	_, err := env.payFor(t, code, "Bob", "bob@example.com", api.ItemSelection{Index: 0})
	if connect.CodeOf(err) != connect.CodeFailedPrecondition {
		t.Errorf("expected FailedPrecondition paying through an inactive link, got %v", err)
	}

	_, err = env.split.DeactivatePaymentLink(ctx, authed(alice, &api.DeactivatePaymentLinkRequest{Code: "missing"}))
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Errorf("expected NotFound for unknown code, got %v", err)
	}
}
