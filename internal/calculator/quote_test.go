package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/zapsplit/internal/money"
)

func dinnerBill() Bill {
	return Bill{
		Items: []BillItem{
			{Name: "Dumplings", Quantity: 4, TotalPrice: money.FromDollars(40)},
			{Name: "Noodles", Quantity: 1, TotalPrice: money.FromDollars(12)},
			{Name: "Tea", Quantity: 2, TotalPrice: money.FromDollars(8)},
		},
		TotalAmount: money.FromDollars(66),
	}
}

func TestEvaluate_ScenarioA(t *testing.T) {
	q := Evaluate(dinnerBill(), nil, NewSelection().WithQuantity(0, 2))

	require.True(t, q.Valid())
	require.Len(t, q.Lines, 1)
	assert.InDelta(t, 2000, float64(q.Lines[0].Allocated), 1e-9)
}

func TestEvaluate_ScenarioB(t *testing.T) {
	claims := []Claim{{ItemIndex: 0, ClaimantName: "Bob", QuantityClaimed: 3}}

	ok := Evaluate(dinnerBill(), claims, NewSelection().WithQuantity(0, 1))
	require.True(t, ok.Valid())
	assert.InDelta(t, 1, ok.Lines[0].Availability.Remaining, 1e-9)

	tooMany := Evaluate(dinnerBill(), claims, NewSelection().WithQuantity(0, 2))
	require.False(t, tooMany.Valid())
	assert.Equal(t, ReasonExceedsRemaining, tooMany.Violations[0].Reason)
	assert.Empty(t, tooMany.Lines)
	assert.Equal(t, money.Cents(0), tooMany.Settlement.Total)
}

func TestEvaluate_ScenarioC(t *testing.T) {
	q := Evaluate(dinnerBill(), nil, NewSelection().Toggle(1).WithShareCount(1, 3))

	require.True(t, q.Valid())
	assert.InDelta(t, 400, float64(q.Lines[0].Allocated), 1e-9)
	assert.InDelta(t, 1.0/3, q.Lines[0].EffectiveQty, 1e-9)
}

func TestEvaluate_Violations(t *testing.T) {
	claims := []Claim{{ItemIndex: 1, ClaimantName: "Bob", QuantityClaimed: 1}}
	sel := NewSelection().Toggle(1).Toggle(9).WithQuantity(2, 0).Toggle(0)

	q := Evaluate(dinnerBill(), claims, sel)

	reasons := map[int]ViolationReason{}
	for _, v := range q.Violations {
		reasons[v.ItemIndex] = v.Reason
	}
	assert.Equal(t, map[int]ViolationReason{
		1: ReasonFullyClaimed,
		2: ReasonInvalidQuantity,
		9: ReasonUnknownItem,
	}, reasons)

	require.Len(t, q.Lines, 1)
	assert.Equal(t, "Dumplings", q.Lines[0].Item.Name)
}

func TestEvaluate_SharedItemLeavesRoomForCoSharers(t *testing.T) {
	bill := dinnerBill()
	sel := NewSelection().Toggle(1).WithShareCount(1, 2)

	first := Evaluate(bill, nil, sel)
	claims := first.NewClaims("Alice", " Alice@Example.com ")
	require.Len(t, claims, 1)
	assert.Equal(t, "alice@example.com", claims[0].ClaimantEmail)
	assert.InDelta(t, 0.5, claims[0].QuantityClaimed, 1e-9)
	assert.Equal(t, 2, claims[0].ShareCount)

	second := Evaluate(bill, claims, sel)
	require.True(t, second.Valid())
	claims = append(claims, second.NewClaims("Bob", "bob@example.com")...)

	third := Evaluate(bill, claims, sel)
	assert.False(t, third.Valid())
	assert.Equal(t, ReasonFullyClaimed, third.Violations[0].Reason)
}

func TestEvaluate_SettlesTaxAndTip(t *testing.T) {
	// Subtotal $60, total $66: $6 residual, $3 tax and $3 tip.
	q := Evaluate(dinnerBill(), nil, NewSelection().Toggle(1).Toggle(2).WithQuantity(2, 2))

	require.True(t, q.Valid())
	got := q.Settlement.Rounded()
	assert.Equal(t, int64(2000), got.ItemsTotal)
	assert.Equal(t, int64(100), got.TaxShare)
	assert.Equal(t, int64(100), got.TipShare)
	assert.Equal(t, int64(2200), got.Total)
}

func TestEvaluate_EmptySelection(t *testing.T) {
	q := Evaluate(dinnerBill(), nil, NewSelection())
	assert.True(t, q.Valid())
	assert.Empty(t, q.Lines)
	assert.Equal(t, Settlement{}, q.Settlement)
}
