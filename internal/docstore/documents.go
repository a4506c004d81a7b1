package docstore

import (
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facturaIA/invoice-ai-service/internal/models"
)

// Amounts are stored as strings so that no value passes through float64.

type partyDoc struct {
	Name    string `firestore:"name"`
	Email   string `firestore:"email"`
	Address string `firestore:"address"`
	Phone   string `firestore:"phone"`
}

type itemDoc struct {
	Name       string `firestore:"name"`
	Quantity   string `firestore:"quantity"`
	UnitPrice  string `firestore:"unitPrice"`
	TaxPercent string `firestore:"taxPercent"`
	Total      string `firestore:"total"`
}

type invoiceDoc struct {
	UserID        string    `firestore:"userId"`
	InvoiceNumber string    `firestore:"invoiceNumber"`
	InvoiceDate   time.Time `firestore:"invoiceDate"`
	DueDate       time.Time `firestore:"dueDate"`
	BillFrom      partyDoc  `firestore:"billFrom"`
	BillTo        partyDoc  `firestore:"billTo"`
	Items         []itemDoc `firestore:"items"`
	Notes         string    `firestore:"notes"`
	PaymentTerms  string    `firestore:"paymentTerms"`
	Status        string    `firestore:"status"`
	Subtotal      string    `firestore:"subtotal"`
	TaxTotal      string    `firestore:"taxTotal"`
	Total         string    `firestore:"total"`
	PDFPath       string    `firestore:"pdfPath"`
	CreatedAt     time.Time `firestore:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt"`
}

type userDoc struct {
	Name         string    `firestore:"name"`
	Email        string    `firestore:"email"`
	PasswordHash string    `firestore:"passwordHash"`
	BusinessName string    `firestore:"businessName"`
	Address      string    `firestore:"address"`
	Phone        string    `firestore:"phone"`
	CreatedAt    time.Time `firestore:"createdAt"`
	UpdatedAt    time.Time `firestore:"updatedAt"`
}

// emailDoc reserves an address; its document ID is emailKey of the lower-cased email
type emailDoc struct {
	UserID string `firestore:"userId"`
}

func toInvoiceDoc(inv *models.Invoice) invoiceDoc {
	items := make([]itemDoc, len(inv.Items))
	for i, it := range inv.Items {
		items[i] = itemDoc{
			Name:       it.Name,
			Quantity:   it.Quantity.String(),
			UnitPrice:  it.UnitPrice.String(),
			TaxPercent: it.TaxPercent.String(),
			Total:      it.Total.String(),
		}
	}
	return invoiceDoc{
		UserID:        inv.UserID.String(),
		InvoiceNumber: inv.InvoiceNumber,
		InvoiceDate:   inv.InvoiceDate,
		DueDate:       inv.DueDate,
		BillFrom: partyDoc{
			Name:    inv.BillFrom.BusinessName,
			Email:   inv.BillFrom.Email,
			Address: inv.BillFrom.Address,
			Phone:   inv.BillFrom.Phone,
		},
		BillTo: partyDoc{
			Name:    inv.BillTo.ClientName,
			Email:   inv.BillTo.Email,
			Address: inv.BillTo.Address,
			Phone:   inv.BillTo.Phone,
		},
		Items:        items,
		Notes:        inv.Notes,
		PaymentTerms: inv.PaymentTerms,
		Status:       string(inv.Status),
		Subtotal:     inv.Subtotal.String(),
		TaxTotal:     inv.TaxTotal.String(),
		Total:        inv.Total.String(),
		PDFPath:      inv.PDFPath,
		CreatedAt:    inv.CreatedAt,
		UpdatedAt:    inv.UpdatedAt,
	}
}

func docToInvoice(snap *firestore.DocumentSnapshot) (*models.Invoice, error) {
	var d invoiceDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("decode invoice %s: %w", snap.Ref.ID, err)
	}

	id, err := uuid.Parse(snap.Ref.ID)
	if err != nil {
		return nil, fmt.Errorf("invoice id %q: %w", snap.Ref.ID, err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("invoice %s user id: %w", snap.Ref.ID, err)
	}

	var errs []error
	amount := func(s string) decimal.Decimal {
		if s == "" {
			return decimal.Zero
		}
		v, err := decimal.NewFromString(s)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	items := make([]models.LineItem, len(d.Items))
	for i, it := range d.Items {
		items[i] = models.LineItem{
			Name:       it.Name,
			Quantity:   amount(it.Quantity),
			UnitPrice:  amount(it.UnitPrice),
			TaxPercent: amount(it.TaxPercent),
			Total:      amount(it.Total),
		}
	}

	inv := &models.Invoice{
		ID:            id,
		UserID:        userID,
		InvoiceNumber: d.InvoiceNumber,
		InvoiceDate:   d.InvoiceDate.UTC(),
		DueDate:       d.DueDate.UTC(),
		BillFrom: models.BillFrom{
			BusinessName: d.BillFrom.Name,
			Email:        d.BillFrom.Email,
			Address:      d.BillFrom.Address,
			Phone:        d.BillFrom.Phone,
		},
		BillTo: models.BillTo{
			ClientName: d.BillTo.Name,
			Email:      d.BillTo.Email,
			Address:    d.BillTo.Address,
			Phone:      d.BillTo.Phone,
		},
		Items:        items,
		Notes:        d.Notes,
		PaymentTerms: d.PaymentTerms,
		Status:       models.Status(d.Status),
		Subtotal:     amount(d.Subtotal),
		TaxTotal:     amount(d.TaxTotal),
		Total:        amount(d.Total),
		PDFPath:      d.PDFPath,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invoice %s amounts: %w", snap.Ref.ID, errs[0])
	}
	return inv, nil
}

func toUserDoc(u *models.User) userDoc {
	return userDoc{
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		BusinessName: u.BusinessName,
		Address:      u.Address,
		Phone:        u.Phone,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func docToUser(snap *firestore.DocumentSnapshot) (*models.User, error) {
	var d userDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", snap.Ref.ID, err)
	}
	id, err := uuid.Parse(snap.Ref.ID)
	if err != nil {
		return nil, fmt.Errorf("user id %q: %w", snap.Ref.ID, err)
	}
	return &models.User{
		ID:           id,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		BusinessName: d.BusinessName,
		Address:      d.Address,
		Phone:        d.Phone,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}, nil
}
