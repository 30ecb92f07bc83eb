package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mmynk/zapsplit/internal/calculator"
	"github.com/mmynk/zapsplit/internal/money"
)

// billFile is the YAML layout of a bill. Prices are in dollars.
//
//	total: 110.00
//	items:
//	  - name: Pizza
//	    quantity: 1
//	    total_price: 30.00
//	claims:
//	  - item: 0
//	    name: Bob
//	    email: bob@example.com
//	    quantity: 1
type billFile struct {
	Total  float64     `yaml:"total"`
	Items  []itemEntry `yaml:"items"`
	Claims []claimLine `yaml:"claims"`
}

type itemEntry struct {
	Name       string  `yaml:"name"`
	Quantity   float64 `yaml:"quantity"`
	UnitPrice  float64 `yaml:"unit_price"`
	TotalPrice float64 `yaml:"total_price"`
}

type claimLine struct {
	Item       int     `yaml:"item"`
	Name       string  `yaml:"name"`
	Email      string  `yaml:"email"`
	Quantity   float64 `yaml:"quantity"`
	ShareCount int     `yaml:"share_count"`
}

// loadBill reads a bill and its recorded claims from path.
func loadBill(path string) (calculator.Bill, []calculator.Claim, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return calculator.Bill{}, nil, fmt.Errorf("failed to read bill: %w", err)
	}

	var f billFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return calculator.Bill{}, nil, fmt.Errorf("failed to parse bill %s: %w", path, err)
	}
	if len(f.Items) == 0 {
		return calculator.Bill{}, nil, errors.New("bill has no items")
	}

	bill := calculator.Bill{TotalAmount: money.FromDollars(f.Total)}
	for i, item := range f.Items {
		bill.Items = append(bill.Items, calculator.BillItem{
			Index:      i,
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  money.FromDollars(item.UnitPrice),
			TotalPrice: money.FromDollars(item.TotalPrice),
		})
	}
	if f.Total == 0 {
		bill.TotalAmount = bill.Subtotal()
	}

	claims := make([]calculator.Claim, len(f.Claims))
	for i, c := range f.Claims {
		share := max(c.ShareCount, 1)
		qty := c.Quantity
		if qty == 0 {
			qty = 1
		}
		claims[i] = calculator.Claim{
			ItemIndex:       c.Item,
			ClaimantName:    c.Name,
			ClaimantEmail:   c.Email,
			QuantityClaimed: qty / float64(share),
			ShareCount:      share,
		}
	}
	return bill, claims, nil
}

// parseSelection builds a selection from index[:quantity[:share]] arguments.
func parseSelection(args []string) (calculator.Selection, error) {
	sel := calculator.NewSelection()
	for _, raw := range args {
		parts := strings.Split(raw, ":")
		if len(parts) > 3 {
			return sel, fmt.Errorf("invalid item %q: want index[:quantity[:share]]", raw)
		}

		index, err := strconv.Atoi(parts[0])
		if err != nil {
			return sel, fmt.Errorf("invalid item index in %q: %w", raw, err)
		}

		qty := 1.0
		if len(parts) > 1 {
			if qty, err = strconv.ParseFloat(parts[1], 64); err != nil {
				return sel, fmt.Errorf("invalid quantity in %q: %w", raw, err)
			}
		}

		share := 1
		if len(parts) > 2 {
			if share, err = strconv.Atoi(parts[2]); err != nil {
				return sel, fmt.Errorf("invalid share count in %q: %w", raw, err)
			}
		}

		sel = sel.WithQuantity(index, qty).WithShareCount(index, share)
	}
	return sel, nil
}
