package services

import (
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/facturaIA/invoice-ai-service/internal/models"
)

// RecentInvoiceCount is how many invoices the dashboard summary lists
const RecentInvoiceCount = 5

// SummarizeInvoices computes paid/unpaid counts, revenue, outstanding amount
// and the most recent invoices.
func SummarizeInvoices(invoices []models.Invoice) models.DashboardStats {
	paid := lo.Filter(invoices, func(inv models.Invoice, _ int) bool {
		return inv.Status == models.StatusPaid
	})
	unpaid := lo.Filter(invoices, func(inv models.Invoice, _ int) bool {
		return inv.Status == models.StatusUnpaid
	})

	sum := func(acc decimal.Decimal, inv models.Invoice, _ int) decimal.Decimal {
		return acc.Add(inv.Total)
	}

	sorted := make([]models.Invoice, len(invoices))
	copy(sorted, invoices)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > RecentInvoiceCount {
		sorted = sorted[:RecentInvoiceCount]
	}

	return models.DashboardStats{
		TotalInvoices: len(invoices),
		PaidCount:     len(paid),
		UnpaidCount:   len(unpaid),
		Revenue:       lo.Reduce(paid, sum, decimal.Zero),
		Outstanding:   lo.Reduce(unpaid, sum, decimal.Zero),
		Recent: lo.Map(sorted, func(inv models.Invoice, _ int) models.RecentInvoice {
			return models.RecentInvoice{
				InvoiceNumber: inv.InvoiceNumber,
				Total:         inv.Total,
				Status:        inv.Status,
			}
		}),
	}
}
