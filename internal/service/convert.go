package service

import (
	"errors"
	"fmt"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/zapsplit/internal/calculator"
	"github.com/mmynk/zapsplit/internal/models"
	"github.com/mmynk/zapsplit/internal/money"
	"github.com/mmynk/zapsplit/internal/storage"
	"github.com/mmynk/zapsplit/pkg/api"
)

// billFromSplit builds the calculator snapshot of a stored split.
func billFromSplit(split *models.Split) calculator.Bill {
	items := make([]calculator.BillItem, len(split.Items))
	for i, item := range split.Items {
		items[i] = calculator.BillItem{
			Index:      item.Index,
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  money.FromInt(item.UnitPriceCents),
			TotalPrice: money.FromInt(item.TotalPriceCents),
		}
	}
	return calculator.Bill{
		Items:       items,
		TotalAmount: money.FromInt(split.TotalAmountCents),
	}
}

// claimsFromModels converts recorded claims for the calculator.
func claimsFromModels(recorded []*models.ItemClaim) []calculator.Claim {
	claims := make([]calculator.Claim, len(recorded))
	for i, c := range recorded {
		claims[i] = calculator.Claim{
			ItemIndex:       c.ItemIndex,
			ClaimantName:    c.ClaimantName,
			ClaimantEmail:   c.ClaimantEmail,
			QuantityClaimed: c.QuantityClaimed,
			ShareCount:      c.ShareCount,
		}
	}
	return claims
}

// selectionFromAPI builds a Selection. Zero quantities and share counts mean 1;
// a repeated index overrides the earlier entry.
func selectionFromAPI(selections []api.ItemSelection) calculator.Selection {
	sel := calculator.NewSelection()
	for _, s := range selections {
		qty := s.Quantity
		if qty == 0 {
			qty = 1
		}
		sel = sel.WithQuantity(s.Index, qty).WithShareCount(s.Index, s.ShareCount)
	}
	return sel
}

// availabilityToAPI lists every item of a split with what remains of it.
func availabilityToAPI(split *models.Split, claims []calculator.Claim) []api.ItemAvailability {
	bill := billFromSplit(split)
	avail := calculator.Availabilities(bill, claims)
	aggregates := calculator.AggregateClaims(claims)

	items := make([]api.ItemAvailability, len(split.Items))
	for i, item := range split.Items {
		items[i] = api.ItemAvailability{
			Item:         itemToAPI(item),
			Remaining:    avail[i].Remaining,
			FullyClaimed: avail[i].FullyClaimed,
			ClaimedBy:    aggregates[i].ClaimantNames,
		}
	}
	return items
}

func itemToAPI(item models.SplitItem) api.Item {
	return api.Item{
		Index:           item.Index,
		Name:            item.Name,
		Quantity:        item.Quantity,
		UnitPriceCents:  item.UnitPriceCents,
		TotalPriceCents: item.TotalPriceCents,
	}
}

func violationsToAPI(violations []calculator.Violation) []api.Violation {
	if len(violations) == 0 {
		return nil
	}
	out := make([]api.Violation, len(violations))
	for i, v := range violations {
		out[i] = api.Violation{
			Index:     v.ItemIndex,
			Reason:    string(v.Reason),
			Remaining: v.Remaining,
			Message:   violationMessage(v),
		}
	}
	return out
}

func violationMessage(v calculator.Violation) string {
	switch v.Reason {
	case calculator.ReasonUnknownItem:
		return fmt.Sprintf("item %d is not on this bill", v.ItemIndex)
	case calculator.ReasonFullyClaimed:
		return fmt.Sprintf("item %d has already been paid for", v.ItemIndex)
	case calculator.ReasonExceedsRemaining:
		return fmt.Sprintf("only %g of item %d is left", v.Remaining, v.ItemIndex)
	case calculator.ReasonInvalidQuantity:
		return fmt.Sprintf("quantity for item %d must be positive", v.ItemIndex)
	default:
		return v.Error()
	}
}

func userToAPI(user *models.User) api.User {
	return api.User{
		ID:               user.ID,
		Email:            user.Email,
		DisplayName:      user.DisplayName,
		HasPayoutAccount: user.PayoutAccountID != "",
		CreatedAt:        user.CreatedAt,
	}
}

// storeError maps storage sentinels to Connect codes.
func storeError(err error) *connect.Error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrLinkInactive), errors.Is(err, storage.ErrPaymentClosed):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, storage.ErrInsufficientQuantity):
		return connect.NewError(connect.CodeAborted, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// validEmail accepts anything of the form local@domain.
func validEmail(email string) bool {
	local, domain, ok := strings.Cut(strings.TrimSpace(email), "@")
	return ok && local != "" && domain != ""
}
