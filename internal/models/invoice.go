package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// API clients expect JSON numbers for amounts, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Status of an invoice payment
type Status string

const (
	StatusPaid   Status = "Paid"
	StatusUnpaid Status = "Unpaid"
)

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	return s == StatusPaid || s == StatusUnpaid
}

// BillFrom identifies the issuing business
type BillFrom struct {
	BusinessName string `json:"businessName"`
	Email        string `json:"email"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
}

// BillTo identifies the client being invoiced
type BillTo struct {
	ClientName string `json:"clientName"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	Phone      string `json:"phone"`
}

// LineItem is one billable row. Total is derived server-side.
type LineItem struct {
	Name       string          `json:"name"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TaxPercent decimal.Decimal `json:"taxPercent"`
	Total      decimal.Decimal `json:"total"`
}

// Invoice is owned by exactly one user. Subtotal, TaxTotal and Total are
// always recomputed from Items before persisting.
type Invoice struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"userId"`
	InvoiceNumber string     `json:"invoiceNumber"`
	InvoiceDate   time.Time  `json:"invoiceDate"`
	DueDate       time.Time  `json:"dueDate"`
	BillFrom      BillFrom   `json:"billFrom"`
	BillTo        BillTo     `json:"billTo"`
	Items         []LineItem `json:"items"`
	Notes         string     `json:"notes"`
	PaymentTerms  string     `json:"paymentTerms"`
	Status        Status     `json:"status"`

	Subtotal decimal.Decimal `json:"subtotal"`
	TaxTotal decimal.Decimal `json:"taxTotal"`
	Total    decimal.Decimal `json:"total"`

	// Object path of the archived PDF, if any
	PDFPath string `json:"pdfPath,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// InvoiceSeed is AI-extracted data presented to the user for confirmation.
// It is never persisted as-is.
type InvoiceSeed struct {
	ClientName string     `json:"clientName"`
	Email      string     `json:"email,omitempty"`
	Address    string     `json:"address,omitempty"`
	Items      []SeedItem `json:"items"`
}

// SeedItem is a line item candidate without tax or totals
type SeedItem struct {
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// DashboardStats summarizes a user's invoices for the insights prompt
type DashboardStats struct {
	TotalInvoices int             `json:"totalInvoices"`
	PaidCount     int             `json:"paidCount"`
	UnpaidCount   int             `json:"unpaidCount"`
	Revenue       decimal.Decimal `json:"revenue"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	Recent        []RecentInvoice `json:"recent"`
}

// RecentInvoice is a compact view used in the dashboard summary
type RecentInvoice struct {
	InvoiceNumber string          `json:"invoiceNumber"`
	Total         decimal.Decimal `json:"total"`
	Status        Status          `json:"status"`
}
