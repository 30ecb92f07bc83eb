package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmynk/zapsplit/internal/calculator"
	"github.com/mmynk/zapsplit/internal/money"
)

func quoteCmd() *cobra.Command {
	var (
		items    []string
		taxRatio float64
	)

	cmd := &cobra.Command{
		Use:   "quote BILL",
		Short: "Price a selection of items",
		Long: `Show what the selected items cost, with a share of tax and tip in
proportion to their part of the item subtotal.

Select items with --item index[:quantity[:share]], for example:

  splitcalc quote dinner.yaml --item 0 --item 1:2 --item 2:1:3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(items) == 0 {
				return errors.New("select at least one item with --item")
			}

			bill, claims, err := loadBill(args[0])
			if err != nil {
				return err
			}
			sel, err := parseSelection(items)
			if err != nil {
				return err
			}

			quote := calculator.Policy{TaxRatio: taxRatio}.Evaluate(bill, claims, sel)
			return printQuote(cmd, quote)
		},
	}

	cmd.Flags().StringArrayVarP(&items, "item", "i", nil, "item to select as index[:quantity[:share]] (repeatable)")
	cmd.Flags().Float64Var(&taxRatio, "tax-ratio", calculator.DefaultTaxRatio, "share of the tax-and-tip remainder that is tax")
	return cmd
}

func printQuote(cmd *cobra.Command, quote calculator.Quote) error {
	out := cmd.OutOrStdout()

	for _, v := range quote.Violations {
		fmt.Fprintf(out, "skipped: %s\n", v.Error())
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tQTY\tSHARE\tAMOUNT")
	for _, line := range quote.Lines {
		fmt.Fprintf(w, "%s\t%g\t%d\t%s\n", line.Item.Name, line.Quantity, line.ShareCount, money.Format(line.Allocated.Round()))
	}

	rounded := quote.Settlement.Rounded()
	fmt.Fprintln(w, "\t\t\t")
	fmt.Fprintf(w, "Items\t\t\t%s\n", money.Format(rounded.ItemsTotal))
	fmt.Fprintf(w, "Tax\t\t\t%s\n", money.Format(rounded.TaxShare))
	fmt.Fprintf(w, "Tip\t\t\t%s\n", money.Format(rounded.TipShare))
	fmt.Fprintf(w, "Total\t\t\t%s\n", money.Format(rounded.Total))
	return w.Flush()
}

func progressCmd() *cobra.Command {
	var taxRatio float64

	cmd := &cobra.Command{
		Use:   "progress BILL",
		Short: "Show what each claimant has covered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bill, claims, err := loadBill(args[0])
			if err != nil {
				return err
			}

			progress := calculator.Policy{TaxRatio: taxRatio}.Progress(bill, claims)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CLAIMANT\tITEMS\tTOTAL")
			for _, c := range progress.Claimants {
				fmt.Fprintf(w, "%s\t%d\t%s\n", c.Name, c.ItemCount, money.Format(c.Settlement.Rounded().Total))
			}
			fmt.Fprintln(w, "\t\t")
			fmt.Fprintf(w, "Covered\t\t%s\n", money.Format(progress.Covered.Round()))
			fmt.Fprintf(w, "Outstanding\t\t%s\n", money.Format(progress.Outstanding.Round()))
			fmt.Fprintf(w, "Fully claimed\t%d/%d\t\n", progress.FullyClaimedItems, len(bill.Items))
			return w.Flush()
		},
	}

	cmd.Flags().Float64Var(&taxRatio, "tax-ratio", calculator.DefaultTaxRatio, "share of the tax-and-tip remainder that is tax")
	return cmd
}
