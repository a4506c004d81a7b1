package services

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/facturaIA/invoice-ai-service/internal/apperr"
	"github.com/facturaIA/invoice-ai-service/internal/models"
)

// InvoiceInput is the caller-supplied part of an invoice. Totals are not part
// of it: whatever a client sends under subtotal/subTotal/taxTotal/total is
// dropped by the JSON decoder.
type InvoiceInput struct {
	InvoiceNumber string            `json:"invoiceNumber"`
	InvoiceDate   string            `json:"invoiceDate"`
	DueDate       string            `json:"dueDate"`
	BillFrom      *models.BillFrom  `json:"billFrom"`
	BillTo        *models.BillTo    `json:"billTo"`
	Items         []models.LineItem `json:"items"`
	Notes         string            `json:"notes"`
	PaymentTerms  string            `json:"paymentTerms"`
	Status        models.Status     `json:"status"`
}

// InvoiceBuilder validates input and produces invoices with server-side totals
type InvoiceBuilder struct {
	DefaultPaymentTerms string
	Now                 func() time.Time
}

// NewInvoiceBuilder creates a builder with the given default payment terms
func NewInvoiceBuilder(defaultPaymentTerms string) *InvoiceBuilder {
	if defaultPaymentTerms == "" {
		defaultPaymentTerms = "Net 15"
	}
	return &InvoiceBuilder{
		DefaultPaymentTerms: defaultPaymentTerms,
		Now:                 time.Now,
	}
}

// Build creates a new invoice for userID
func (b *InvoiceBuilder) Build(userID uuid.UUID, in InvoiceInput) (*models.Invoice, error) {
	now := b.Now().UTC()
	inv := &models.Invoice{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
	}
	if err := b.apply(inv, in, now); err != nil {
		return nil, err
	}
	return inv, nil
}

// Replace overwrites the mutable fields of existing with in. Identity,
// ownership, creation time and archive path are preserved.
func (b *InvoiceBuilder) Replace(existing *models.Invoice, in InvoiceInput) (*models.Invoice, error) {
	updated := *existing
	if err := b.apply(&updated, in, b.Now().UTC()); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (b *InvoiceBuilder) apply(inv *models.Invoice, in InvoiceInput, now time.Time) error {
	invoiceDate, dueDate, err := b.validate(in)
	if err != nil {
		return err
	}

	items := PriceItems(in.Items)
	totals := ComputeTotals(items)

	status := in.Status
	if status == "" {
		status = models.StatusUnpaid
	}
	terms := strings.TrimSpace(in.PaymentTerms)
	if terms == "" {
		terms = b.DefaultPaymentTerms
	}

	inv.InvoiceNumber = strings.TrimSpace(in.InvoiceNumber)
	inv.InvoiceDate = invoiceDate
	inv.DueDate = dueDate
	inv.BillFrom = *in.BillFrom
	inv.BillTo = *in.BillTo
	inv.Items = items
	inv.Notes = in.Notes
	inv.PaymentTerms = terms
	inv.Status = status
	inv.Subtotal = totals.Subtotal
	inv.TaxTotal = totals.TaxTotal
	inv.Total = totals.Total
	inv.UpdatedAt = now
	return nil
}

func (b *InvoiceBuilder) validate(in InvoiceInput) (time.Time, time.Time, error) {
	var missing []string
	if strings.TrimSpace(in.InvoiceNumber) == "" {
		missing = append(missing, "invoiceNumber")
	}
	if strings.TrimSpace(in.InvoiceDate) == "" {
		missing = append(missing, "invoiceDate")
	}
	if strings.TrimSpace(in.DueDate) == "" {
		missing = append(missing, "dueDate")
	}
	if in.BillFrom == nil {
		missing = append(missing, "billFrom")
	}
	if in.BillTo == nil {
		missing = append(missing, "billTo")
	}
	if len(in.Items) == 0 {
		missing = append(missing, "items")
	}
	if len(missing) > 0 {
		return time.Time{}, time.Time{}, apperr.Validationf("Missing or invalid required fields: %s", strings.Join(missing, ", "))
	}

	var errs ValidationErrors
	invoiceDate := ParseDate(in.InvoiceDate)
	if invoiceDate.IsZero() {
		errs = append(errs, ValidationError{Field: "invoiceDate", Code: "invalid_date", Message: "invoiceDate is not a valid date"})
	}
	dueDate := ParseDate(in.DueDate)
	if dueDate.IsZero() {
		errs = append(errs, ValidationError{Field: "dueDate", Code: "invalid_date", Message: "dueDate is not a valid date"})
	}
	if in.Status != "" && !in.Status.Valid() {
		errs = append(errs, ValidationError{Field: "status", Code: "invalid_status", Message: "status must be Paid or Unpaid"})
	}
	errs = append(errs, ValidateItems(in.Items)...)

	if len(errs) > 0 {
		return time.Time{}, time.Time{}, apperr.Wrap(apperr.Validation, errs.Error(), errs)
	}
	return invoiceDate, dueDate, nil
}

// ParseDate accepts the date layouts clients and models commonly emit.
// It returns the zero time when nothing matches.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	formats := []string{
		"2006-01-02",
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006/01/02",
		"01/02/2006",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
