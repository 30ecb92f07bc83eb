package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmynk/zapsplit/internal/money"
)

func TestAllocatePrice(t *testing.T) {
	tests := []struct {
		name    string
		item    BillItem
		qty     float64
		divisor int
		want    money.Cents
	}{
		{
			name:    "two of four units",
			item:    BillItem{Quantity: 4, TotalPrice: money.FromDollars(40.00)},
			qty:     2,
			divisor: 1,
			want:    2000,
		},
		{
			name:    "single item split three ways",
			item:    BillItem{Quantity: 1, TotalPrice: money.FromDollars(12.00)},
			qty:     1,
			divisor: 3,
			want:    400,
		},
		{
			name:    "falls back to unit price without a total",
			item:    BillItem{Quantity: 3, UnitPrice: 250},
			qty:     2,
			divisor: 1,
			want:    500,
		},
		{
			name:    "total wins over drifting unit price",
			item:    BillItem{Quantity: 2, UnitPrice: 999, TotalPrice: 1000},
			qty:     1,
			divisor: 1,
			want:    500,
		},
		{
			name:    "zero quantity item is free",
			item:    BillItem{Quantity: 0, TotalPrice: 1500, UnitPrice: 1500},
			qty:     1,
			divisor: 1,
			want:    0,
		},
		{
			name:    "NaN price is zero",
			item:    BillItem{Quantity: 1, TotalPrice: money.Cents(math.NaN()), UnitPrice: money.Cents(math.NaN())},
			qty:     1,
			divisor: 1,
			want:    0,
		},
		{
			name:    "negative selected quantity is zero",
			item:    BillItem{Quantity: 2, TotalPrice: 1000},
			qty:     -1,
			divisor: 1,
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AllocatePrice(tt.item, tt.qty, tt.divisor)
			assert.InDelta(t, float64(tt.want), float64(got), 1e-9)
		})
	}
}

func TestAllocatePrice_DivisorBelowOneActsAsOne(t *testing.T) {
	item := BillItem{Quantity: 1, TotalPrice: 1200}
	want := AllocatePrice(item, 1, 1)

	for _, divisor := range []int{0, -1, -50} {
		assert.Equal(t, want, AllocatePrice(item, 1, divisor), "divisor=%d", divisor)
	}
}

func TestAllocatePrice_ZeroQuantityNeverDivides(t *testing.T) {
	for _, qty := range []float64{0, 1, 2.5} {
		got := AllocatePrice(BillItem{Quantity: 0, TotalPrice: 100}, qty, 2)
		assert.Equal(t, money.Cents(0), got)
		assert.False(t, math.IsNaN(float64(got)))
	}
}

func TestAllocatePrice_UnroundedUntilDisplay(t *testing.T) {
	// $10.00 split three ways keeps its fraction.
	got := AllocatePrice(BillItem{Quantity: 1, TotalPrice: 1000}, 1, 3)
	assert.InDelta(t, 333.3333333, float64(got), 1e-6)
	assert.Equal(t, int64(333), got.Round())
}
