package render

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/facturaIA/invoice-ai-service/internal/models"
)

// The core PDF fonts are cp1252; symbols outside it get a text stand-in.
var currencyFallback = map[string]string{
	"₹": "Rs. ",
	"₦": "NGN ",
	"₱": "PHP ",
}

// InvoicePDF renders inv as an A4 document
func InvoicePDF(inv *models.Invoice, currency string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if fb, ok := currencyFallback[currency]; ok {
		currency = fb
	}
	money := func(d decimal.Decimal) string {
		return tr(currency + d.StringFixed(2))
	}

	pdf.SetTitle("Invoice "+inv.InvoiceNumber, true)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 10, "INVOICE", "", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, tr("Invoice #: "+inv.InvoiceNumber), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 6, "Date: "+inv.InvoiceDate.Format("2006-01-02"), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 6, "Due: "+inv.DueDate.Format("2006-01-02"), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 6, "Status: "+string(inv.Status), "", 1, "R", false, 0, "")
	pdf.Ln(6)

	// Parties
	top := pdf.GetY()
	party(pdf, tr, 10, top, "Bill From", inv.BillFrom.BusinessName, inv.BillFrom.Email, inv.BillFrom.Address, inv.BillFrom.Phone)
	party(pdf, tr, 110, top, "Bill To", inv.BillTo.ClientName, inv.BillTo.Email, inv.BillTo.Address, inv.BillTo.Phone)
	pdf.SetXY(10, top+34)

	// Items
	widths := []float64{80, 20, 30, 20, 40}
	headers := []string{"Item", "Qty", "Unit Price", "Tax %", "Total"}
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range headers {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 8, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, item := range inv.Items {
		pdf.CellFormat(widths[0], 7, tr(item.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, item.Quantity.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, money(item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, item.TaxPercent.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 7, money(item.Total), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	// Totals
	labelW := widths[0] + widths[1] + widths[2] + widths[3]
	totalRow := func(label string, amount decimal.Decimal, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.CellFormat(labelW, 7, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 7, money(amount), "", 1, "R", false, 0, "")
	}
	totalRow("Subtotal", inv.Subtotal, false)
	totalRow("Tax", inv.TaxTotal, false)
	totalRow("Total", inv.Total, true)
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 9)
	if inv.PaymentTerms != "" {
		pdf.MultiCell(0, 5, tr("Payment terms: "+inv.PaymentTerms), "", "L", false)
	}
	if inv.Notes != "" {
		pdf.MultiCell(0, 5, tr("Notes: "+inv.Notes), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func party(pdf *gofpdf.Fpdf, tr func(string) string, x, y float64, title string, lines ...string) {
	pdf.SetXY(x, y)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(90, 6, title, "", 2, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	for _, line := range lines {
		if line == "" {
			continue
		}
		pdf.CellFormat(90, 5, tr(line), "", 2, "L", false, 0, "")
	}
}
