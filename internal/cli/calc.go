package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/facturaIA/invoice-ai-service/internal/models"
	"github.com/facturaIA/invoice-ai-service/internal/services"
)

var calcCmd = &cobra.Command{
	Use:   "calc <items.json | ->",
	Short: "Compute invoice totals for a JSON array of line items",
	Long: `Compute subtotal, tax and total for a JSON array of line items, e.g.

  [{"name": "Design", "quantity": 2, "unitPrice": 150, "taxPercent": 18}]

Items are validated the same way the API validates them. Any "total"
given for an item is ignored and recomputed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := readItems(cmd.InOrStdin(), args[0])
		if err != nil {
			return err
		}

		if errs := services.ValidateItems(items); len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintf(cmd.ErrOrStderr(), "  - %s: %s\n", e.Field, e.Message)
			}
			return fmt.Errorf("%d invalid item field(s)", len(errs))
		}

		return printTotals(cmd.OutOrStdout(), services.PriceItems(items), currency())
	},
}

func currency() string {
	if cfg == nil || cfg.Invoice.Currency == "" {
		return ""
	}
	return cfg.Invoice.Currency
}

func readItems(stdin io.Reader, path string) ([]models.LineItem, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open items file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var items []models.LineItem
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to parse items: %w", err)
	}
	return items, nil
}

func printTotals(w io.Writer, items []models.LineItem, currency string) error {
	totals := services.ComputeTotals(items)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "ITEM\tQTY\tUNIT PRICE\tTAX %\tTOTAL\t")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
			item.Name,
			item.Quantity.String(),
			currency+item.UnitPrice.StringFixed(2),
			item.TaxPercent.String(),
			currency+item.Total.StringFixed(2),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nSubtotal: %s%s\n", currency, totals.Subtotal.StringFixed(2))
	fmt.Fprintf(w, "Tax:      %s%s\n", currency, totals.TaxTotal.StringFixed(2))
	fmt.Fprintf(w, "Total:    %s%s\n", currency, totals.Total.StringFixed(2))
	return nil
}
