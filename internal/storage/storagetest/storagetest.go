// Package storagetest holds a behavioural test suite that every
// storage.Store implementation must pass.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/zapsplit/internal/models"
	"github.com/mmynk/zapsplit/internal/storage"
)

// Run exercises store against the storage.Store contract.
func Run(t *testing.T, store storage.Store) {
	ctx := context.Background()

	t.Run("CreateUser and lookups", func(t *testing.T) {
		user := newUser(t, ctx, store)

		byEmail, err := store.GetUserByEmail(ctx, user.Email)
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if byEmail.ID != user.ID || byEmail.DisplayName != user.DisplayName {
			t.Errorf("GetUserByEmail = %+v, want %+v", byEmail, user)
		}

		byID, err := store.GetUserByID(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetUserByID failed: %v", err)
		}
		if byID.Email != user.Email {
			t.Errorf("Expected email %s, got %s", user.Email, byID.Email)
		}
	})

	t.Run("CreateUser rejects duplicate email", func(t *testing.T) {
		user := newUser(t, ctx, store)
		dup := models.NewUser(user.Email, "Someone Else", "hash")
		if err := store.CreateUser(ctx, dup); err == nil {
			t.Error("Expected duplicate email to fail")
		}
	})

	t.Run("GetUser returns ErrNotFound", func(t *testing.T) {
		if _, err := store.GetUserByID(ctx, uuid.New().String()); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetUserByID error = %v, want ErrNotFound", err)
		}
		if _, err := store.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetUserByEmail error = %v, want ErrNotFound", err)
		}
	})

	t.Run("SetPayoutAccount", func(t *testing.T) {
		user := newUser(t, ctx, store)
		if err := store.SetPayoutAccount(ctx, user.ID, "acct_123"); err != nil {
			t.Fatalf("SetPayoutAccount failed: %v", err)
		}
		got, err := store.GetUserByID(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetUserByID failed: %v", err)
		}
		if got.PayoutAccountID != "acct_123" {
			t.Errorf("Expected payout account acct_123, got %q", got.PayoutAccountID)
		}

		if err := store.SetPayoutAccount(ctx, uuid.New().String(), "acct_x"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("SetPayoutAccount on unknown user error = %v, want ErrNotFound", err)
		}
	})

	t.Run("CreateSplit generates IDs and title", func(t *testing.T) {
		user := newUser(t, ctx, store)
		split := &models.Split{
			TotalAmountCents: 6000,
			CreatorID:        user.ID,
			Items: []models.SplitItem{
				{Name: "Pizza", Quantity: 1, UnitPriceCents: 2000, TotalPriceCents: 2000},
				{Name: "Beer", Quantity: 4, UnitPriceCents: 750, TotalPriceCents: 3000},
			},
		}
		if err := store.CreateSplit(ctx, split); err != nil {
			t.Fatalf("CreateSplit failed: %v", err)
		}

		if split.ID == "" {
			t.Error("Expected split ID to be generated")
		}
		if split.Title != "Pizza, Beer" {
			t.Errorf("Expected generated title %q, got %q", "Pizza, Beer", split.Title)
		}
		if split.Status != models.SplitStatusOpen {
			t.Errorf("Expected status open, got %s", split.Status)
		}
		for i, item := range split.Items {
			if item.ID == "" {
				t.Errorf("Expected item %d ID to be generated", i)
			}
			if item.Index != i {
				t.Errorf("Expected item %d index %d, got %d", i, i, item.Index)
			}
		}
	})

	t.Run("GetSplit retrieves items in order", func(t *testing.T) {
		split := newSplit(t, ctx, store, 1, 2, 3)

		got, err := store.GetSplit(ctx, split.ID)
		if err != nil {
			t.Fatalf("GetSplit failed: %v", err)
		}
		if got.Title != split.Title || got.TotalAmountCents != split.TotalAmountCents {
			t.Errorf("GetSplit = %+v, want %+v", got, split)
		}
		if len(got.Items) != 3 {
			t.Fatalf("Expected 3 items, got %d", len(got.Items))
		}
		for i, item := range got.Items {
			if item.Index != i || item.Quantity != float64(i+1) {
				t.Errorf("Item %d = %+v", i, item)
			}
		}

		if _, err := store.GetSplit(ctx, uuid.New().String()); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetSplit on unknown id error = %v, want ErrNotFound", err)
		}
	})

	t.Run("ListSplitsByCreator returns newest first", func(t *testing.T) {
		user := newUser(t, ctx, store)
		older := &models.Split{Title: "Older", CreatorID: user.ID, CreatedAt: 1000,
			Items: []models.SplitItem{{Name: "A", Quantity: 1, UnitPriceCents: 100, TotalPriceCents: 100}}}
		newer := &models.Split{Title: "Newer", CreatorID: user.ID, CreatedAt: 2000}
		for _, s := range []*models.Split{older, newer} {
			if err := store.CreateSplit(ctx, s); err != nil {
				t.Fatalf("CreateSplit failed: %v", err)
			}
		}

		summaries, err := store.ListSplitsByCreator(ctx, user.ID)
		if err != nil {
			t.Fatalf("ListSplitsByCreator failed: %v", err)
		}
		if len(summaries) != 2 {
			t.Fatalf("Expected 2 splits, got %d", len(summaries))
		}
		if summaries[0].Title != "Newer" || summaries[1].Title != "Older" {
			t.Errorf("Unexpected order: %s, %s", summaries[0].Title, summaries[1].Title)
		}
		if summaries[1].ItemCount != 1 || summaries[0].ItemCount != 0 {
			t.Errorf("Unexpected item counts: %d, %d", summaries[0].ItemCount, summaries[1].ItemCount)
		}
	})

	t.Run("Payment links", func(t *testing.T) {
		split := newSplit(t, ctx, store, 1)

		link := &models.PaymentLink{SplitID: split.ID, CreatedBy: split.CreatorID,
			ExpiresAt: time.Now().Add(time.Hour).Unix()}
		if err := store.CreatePaymentLink(ctx, link); err != nil {
			t.Fatalf("CreatePaymentLink failed: %v", err)
		}
		if link.ShortCode == "" || !link.IsActive {
			t.Fatalf("Expected active link with short code, got %+v", link)
		}

		got, err := store.GetPaymentLinkByCode(ctx, link.ShortCode)
		if err != nil {
			t.Fatalf("GetPaymentLinkByCode failed: %v", err)
		}
		if got.ID != link.ID || got.SplitID != split.ID {
			t.Errorf("GetPaymentLinkByCode = %+v, want %+v", got, link)
		}

		if err := store.DeactivatePaymentLink(ctx, link.ID); err != nil {
			t.Fatalf("DeactivatePaymentLink failed: %v", err)
		}
		if _, err := store.GetPaymentLinkByCode(ctx, link.ShortCode); !errors.Is(err, storage.ErrLinkInactive) {
			t.Errorf("Deactivated link error = %v, want ErrLinkInactive", err)
		}

		expired := &models.PaymentLink{SplitID: split.ID, CreatedBy: split.CreatorID,
			ExpiresAt: time.Now().Add(-time.Minute).Unix()}
		if err := store.CreatePaymentLink(ctx, expired); err != nil {
			t.Fatalf("CreatePaymentLink failed: %v", err)
		}
		if _, err := store.GetPaymentLinkByCode(ctx, expired.ShortCode); !errors.Is(err, storage.ErrLinkInactive) {
			t.Errorf("Expired link error = %v, want ErrLinkInactive", err)
		}

		if _, err := store.GetPaymentLinkByCode(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Unknown code error = %v, want ErrNotFound", err)
		}
		if err := store.DeactivatePaymentLink(ctx, uuid.New().String()); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("DeactivatePaymentLink on unknown link error = %v, want ErrNotFound", err)
		}
	})

	t.Run("RecordClaims accumulates per claimant", func(t *testing.T) {
		split := newSplit(t, ctx, store, 4)

		for i := 0; i < 2; i++ {
			err := store.RecordClaims(ctx, []*models.ItemClaim{
				claim(split, 0, "Alice", "alice@example.com", 1, 1000),
			})
			if err != nil {
				t.Fatalf("RecordClaims #%d failed: %v", i, err)
			}
		}

		claims, err := store.ListClaims(ctx, split.ID)
		if err != nil {
			t.Fatalf("ListClaims failed: %v", err)
		}
		if len(claims) != 1 {
			t.Fatalf("Expected 1 accumulated claim, got %d", len(claims))
		}
		if claims[0].QuantityClaimed != 2 || claims[0].AmountCents != 2000 {
			t.Errorf("Expected quantity 2 and 2000 cents, got %v and %d",
				claims[0].QuantityClaimed, claims[0].AmountCents)
		}

		got, err := store.GetSplit(ctx, split.ID)
		if err != nil {
			t.Fatalf("GetSplit failed: %v", err)
		}
		if got.Items[0].ClaimedQuantity != 2 {
			t.Errorf("Expected claimed quantity 2, got %v", got.Items[0].ClaimedQuantity)
		}
		if got.Status != models.SplitStatusOpen {
			t.Errorf("Expected split to stay open, got %s", got.Status)
		}
	})

	t.Run("RecordClaims is all or nothing", func(t *testing.T) {
		split := newSplit(t, ctx, store, 2, 1)

		err := store.RecordClaims(ctx, []*models.ItemClaim{
			claim(split, 0, "Bob", "bob@example.com", 1, 500),
			claim(split, 1, "Bob", "bob@example.com", 2, 1000),
		})
		if !errors.Is(err, storage.ErrInsufficientQuantity) {
			t.Fatalf("RecordClaims error = %v, want ErrInsufficientQuantity", err)
		}

		claims, err := store.ListClaims(ctx, split.ID)
		if err != nil {
			t.Fatalf("ListClaims failed: %v", err)
		}
		if len(claims) != 0 {
			t.Errorf("Expected no claims after rollback, got %d", len(claims))
		}
		got, err := store.GetSplit(ctx, split.ID)
		if err != nil {
			t.Fatalf("GetSplit failed: %v", err)
		}
		if got.Items[0].ClaimedQuantity != 0 {
			t.Errorf("Expected item 0 untouched, got claimed %v", got.Items[0].ClaimedQuantity)
		}
	})

	t.Run("RecordClaims rejects unknown item", func(t *testing.T) {
		split := newSplit(t, ctx, store, 1)
		err := store.RecordClaims(ctx, []*models.ItemClaim{
			claim(split, 7, "Bob", "bob@example.com", 1, 500),
		})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("RecordClaims error = %v, want ErrNotFound", err)
		}
	})

	t.Run("Shared claims settle the split", func(t *testing.T) {
		split := newSplit(t, ctx, store, 1)

		for i, who := range []string{"a", "b", "c"} {
			c := claim(split, 0, who, who+"@example.com", 1.0/3.0, 667)
			c.ShareCount = 3
			if err := store.RecordClaims(ctx, []*models.ItemClaim{c}); err != nil {
				t.Fatalf("RecordClaims #%d failed: %v", i, err)
			}
		}

		got, err := store.GetSplit(ctx, split.ID)
		if err != nil {
			t.Fatalf("GetSplit failed: %v", err)
		}
		if got.Status != models.SplitStatusSettled {
			t.Errorf("Expected split settled, got %s", got.Status)
		}

		err = store.RecordClaims(ctx, []*models.ItemClaim{
			claim(split, 0, "d", "d@example.com", 0.01, 10),
		})
		if !errors.Is(err, storage.ErrInsufficientQuantity) {
			t.Errorf("Claim on settled item error = %v, want ErrInsufficientQuantity", err)
		}
	})

	t.Run("Concurrent claims on the last unit", func(t *testing.T) {
		split := newSplit(t, ctx, store, 1)

		const payers = 8
		var wg sync.WaitGroup
		errs := make([]error, payers)
		for i := 0; i < payers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				email := fmt.Sprintf("payer%d@example.com", i)
				errs[i] = store.RecordClaims(ctx, []*models.ItemClaim{
					claim(split, 0, "Payer", email, 1, 1000),
				})
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			switch {
			case err == nil:
				succeeded++
			case !errors.Is(err, storage.ErrInsufficientQuantity):
				t.Errorf("Unexpected error: %v", err)
			}
		}
		if succeeded != 1 {
			t.Errorf("Expected exactly 1 successful claim, got %d", succeeded)
		}
	})

	t.Run("Payment lifecycle", func(t *testing.T) {
		split := newSplit(t, ctx, store, 2)
		payment := newPayment(split, "Carol", "carol@example.com", 1)

		if err := store.CreatePayment(ctx, payment); err != nil {
			t.Fatalf("CreatePayment failed: %v", err)
		}
		if payment.ID == "" || payment.Status != models.PaymentPending {
			t.Fatalf("Expected pending payment with ID, got %+v", payment)
		}

		if err := store.AttachIntent(ctx, payment.ID, "pi_123"); err != nil {
			t.Fatalf("AttachIntent failed: %v", err)
		}

		got, err := store.GetPayment(ctx, payment.ID)
		if err != nil {
			t.Fatalf("GetPayment failed: %v", err)
		}
		if got.IntentID != "pi_123" || got.AmountCents != payment.AmountCents {
			t.Errorf("GetPayment = %+v", got)
		}
		if len(got.Claims) != 1 || got.Claims[0].ClaimantEmail != "carol@example.com" {
			t.Fatalf("Expected one claim for carol, got %+v", got.Claims)
		}

		if err := store.CompletePayment(ctx, payment.ID); err != nil {
			t.Fatalf("CompletePayment failed: %v", err)
		}
		// Completing twice must not claim twice.
		if err := store.CompletePayment(ctx, payment.ID); err != nil {
			t.Fatalf("second CompletePayment failed: %v", err)
		}

		got, err = store.GetPayment(ctx, payment.ID)
		if err != nil {
			t.Fatalf("GetPayment failed: %v", err)
		}
		if got.Status != models.PaymentSucceeded {
			t.Errorf("Expected succeeded, got %s", got.Status)
		}

		claims, err := store.ListClaims(ctx, split.ID)
		if err != nil {
			t.Fatalf("ListClaims failed: %v", err)
		}
		if len(claims) != 1 || claims[0].QuantityClaimed != 1 {
			t.Errorf("Expected a single claim of 1, got %+v", claims)
		}
	})

	t.Run("CompletePayment conflict leaves payment pending", func(t *testing.T) {
		split := newSplit(t, ctx, store, 1)
		first := newPayment(split, "Dan", "dan@example.com", 1)
		second := newPayment(split, "Eve", "eve@example.com", 1)
		for _, p := range []*models.Payment{first, second} {
			if err := store.CreatePayment(ctx, p); err != nil {
				t.Fatalf("CreatePayment failed: %v", err)
			}
		}

		if err := store.CompletePayment(ctx, first.ID); err != nil {
			t.Fatalf("CompletePayment failed: %v", err)
		}
		if err := store.CompletePayment(ctx, second.ID); !errors.Is(err, storage.ErrInsufficientQuantity) {
			t.Fatalf("CompletePayment error = %v, want ErrInsufficientQuantity", err)
		}

		got, err := store.GetPayment(ctx, second.ID)
		if err != nil {
			t.Fatalf("GetPayment failed: %v", err)
		}
		if got.Status != models.PaymentPending {
			t.Errorf("Expected second payment still pending, got %s", got.Status)
		}

		if err := store.UpdatePaymentStatus(ctx, second.ID, models.PaymentConflict); err != nil {
			t.Fatalf("UpdatePaymentStatus failed: %v", err)
		}
		got, err = store.GetPayment(ctx, second.ID)
		if err != nil {
			t.Fatalf("GetPayment failed: %v", err)
		}
		if got.Status != models.PaymentConflict {
			t.Errorf("Expected conflict, got %s", got.Status)
		}

		if err := store.CompletePayment(ctx, second.ID); !errors.Is(err, storage.ErrPaymentClosed) {
			t.Errorf("CompletePayment on conflicted payment error = %v, want ErrPaymentClosed", err)
		}
	})

	t.Run("Concurrent CompletePayment records claims once", func(t *testing.T) {
		split := newSplit(t, ctx, store, 4)
		payment := newPayment(split, "Fay", "fay@example.com", 1)
		if err := store.CreatePayment(ctx, payment); err != nil {
			t.Fatalf("CreatePayment failed: %v", err)
		}

		const callers = 8
		var wg sync.WaitGroup
		errs := make([]error, callers)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = store.CompletePayment(ctx, payment.ID)
			}(i)
		}
		wg.Wait()

		for i, err := range errs {
			if err != nil {
				t.Errorf("CompletePayment call %d failed: %v", i, err)
			}
		}

		claims, err := store.ListClaims(ctx, split.ID)
		if err != nil {
			t.Fatalf("ListClaims failed: %v", err)
		}
		if len(claims) != 1 || claims[0].QuantityClaimed != 1 {
			t.Errorf("Expected a single claim of 1, got %+v", claims)
		}

		got, err := store.GetSplit(ctx, split.ID)
		if err != nil {
			t.Fatalf("GetSplit failed: %v", err)
		}
		if got.Items[0].ClaimedQuantity != 1 {
			t.Errorf("Expected claimed quantity 1, got %v", got.Items[0].ClaimedQuantity)
		}
	})

	t.Run("Unknown payment", func(t *testing.T) {
		id := uuid.New().String()
		if _, err := store.GetPayment(ctx, id); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetPayment error = %v, want ErrNotFound", err)
		}
		if err := store.AttachIntent(ctx, id, "pi_x"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("AttachIntent error = %v, want ErrNotFound", err)
		}
		if err := store.CompletePayment(ctx, id); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("CompletePayment error = %v, want ErrNotFound", err)
		}
	})
}

func newUser(t *testing.T, ctx context.Context, store storage.Store) *models.User {
	t.Helper()
	email := fmt.Sprintf("user-%s@example.com", uuid.New().String()[:8])
	user := models.NewUser(email, "Test User", "hash")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

// newSplit creates a split with one $10/unit item per given quantity.
func newSplit(t *testing.T, ctx context.Context, store storage.Store, quantities ...float64) *models.Split {
	t.Helper()
	user := newUser(t, ctx, store)
	split := &models.Split{Title: "Test Split", CreatorID: user.ID}
	for i, qty := range quantities {
		total := int64(qty * 1000)
		split.Items = append(split.Items, models.SplitItem{
			Name:            fmt.Sprintf("Item %d", i),
			Quantity:        qty,
			UnitPriceCents:  1000,
			TotalPriceCents: total,
		})
		split.TotalAmountCents += total
	}
	if err := store.CreateSplit(ctx, split); err != nil {
		t.Fatalf("CreateSplit failed: %v", err)
	}
	return split
}

func claim(split *models.Split, index int, name, email string, qty float64, cents int64) *models.ItemClaim {
	return &models.ItemClaim{
		SplitID:         split.ID,
		ItemIndex:       index,
		ItemName:        fmt.Sprintf("Item %d", index),
		AmountCents:     cents,
		ClaimantName:    name,
		ClaimantEmail:   email,
		QuantityClaimed: qty,
		ShareCount:      1,
	}
}

func newPayment(split *models.Split, name, email string, qty float64) *models.Payment {
	c := claim(split, 0, name, email, qty, int64(qty*1000))
	return &models.Payment{
		SplitID:          split.ID,
		PaymentLinkID:    "link",
		PayerName:        name,
		PayerEmail:       email,
		AmountCents:      c.AmountCents,
		PlatformFeeCents: 50,
		Currency:         "aud",
		RecipientUserID:  split.CreatorID,
		Claims:           []models.ItemClaim{*c},
	}
}
