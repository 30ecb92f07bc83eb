package money

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name string
		in   Cents
		want int64
	}{
		{"whole", 4000, 4000},
		{"third of twelve dollars", 1200.0 / 3, 400},
		{"half rounds up", 0.5, 1},
		{"just below half", 333.49, 333},
		{"NaN is zero", Cents(math.NaN()), 0},
		{"infinity is zero", Cents(math.Inf(1)), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Round())
		})
	}
}

func TestFromDollars(t *testing.T) {
	assert.InDelta(t, 4000, float64(FromDollars(40.00)), 1e-9)
	assert.InDelta(t, 1, float64(FromDollars(0.01)), 1e-9)
	assert.Equal(t, Cents(0), FromDollars(math.NaN()))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$57.50", Format(5750))
	assert.Equal(t, "$0.50", Format(50))
	assert.Equal(t, "$1,234.05", Format(123405))
	assert.Equal(t, "-$3.75", Format(-375))
	assert.Equal(t, "$4.00", Cents(400.2).String())
}
