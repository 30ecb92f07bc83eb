package calculator

import (
	"maps"
	"slices"
)

// maxShareCount is where CycleShare wraps back to unshared.
const maxShareCount = 4

// Choice is the payer's pick for one item.
type Choice struct {
	Quantity   float64
	ShareCount int
}

// Selection is the payer's in-progress pick, keyed by item index. It is a
// value: every update returns a new Selection and leaves the receiver intact.
type Selection struct {
	choices map[int]Choice
}

// NewSelection returns an empty selection.
func NewSelection() Selection {
	return Selection{}
}

func (s Selection) with(index int, c Choice) Selection {
	next := make(map[int]Choice, len(s.choices)+1)
	maps.Copy(next, s.choices)
	next[index] = c
	return Selection{choices: next}
}

func (s Selection) without(index int) Selection {
	next := maps.Clone(s.choices)
	delete(next, index)
	return Selection{choices: next}
}

// Toggle selects the item with quantity 1 and no sharing, or deselects it.
// Deselecting also forgets the share divisor.
func (s Selection) Toggle(index int) Selection {
	if s.IsSelected(index) {
		return s.without(index)
	}
	return s.with(index, Choice{Quantity: 1, ShareCount: 1})
}

// WithQuantity sets the chosen quantity, selecting the item if needed.
func (s Selection) WithQuantity(index int, quantity float64) Selection {
	c := s.choiceOrDefault(index)
	c.Quantity = quantity
	return s.with(index, c)
}

// WithShareCount sets the share divisor, selecting the item if needed.
func (s Selection) WithShareCount(index int, n int) Selection {
	if n < 1 {
		n = 1
	}
	c := s.choiceOrDefault(index)
	c.ShareCount = n
	return s.with(index, c)
}

// CycleShare steps the share divisor 1 -> 2 -> 3 -> 4 -> 1.
func (s Selection) CycleShare(index int) Selection {
	c := s.choiceOrDefault(index)
	if c.ShareCount >= maxShareCount || c.ShareCount < 1 {
		c.ShareCount = 1
	} else {
		c.ShareCount++
	}
	return s.with(index, c)
}

func (s Selection) choiceOrDefault(index int) Choice {
	if c, ok := s.choices[index]; ok {
		return c
	}
	return Choice{Quantity: 1, ShareCount: 1}
}

// IsSelected reports whether the item is part of the selection.
func (s Selection) IsSelected(index int) bool {
	_, ok := s.choices[index]
	return ok
}

// Choice returns the pick for an item.
func (s Selection) Choice(index int) (Choice, bool) {
	c, ok := s.choices[index]
	return c, ok
}

// Indices lists selected item indices in ascending order.
func (s Selection) Indices() []int {
	return slices.Sorted(maps.Keys(s.choices))
}

// Len is the number of selected items.
func (s Selection) Len() int {
	return len(s.choices)
}
