package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/facturaIA/invoice-ai-service/internal/models"
)

const invoiceColumns = `id, user_id, invoice_number, invoice_date, due_date,
	bill_from, bill_to, items, notes, payment_terms, status,
	subtotal, tax_total, total, pdf_path, created_at, updated_at`

// invoiceDocs holds the JSONB columns in encoded form
type invoiceDocs struct {
	billFrom []byte
	billTo   []byte
	items    []byte
}

func encodeDocs(inv *models.Invoice) (*invoiceDocs, error) {
	billFrom, err := json.Marshal(inv.BillFrom)
	if err != nil {
		return nil, fmt.Errorf("encode billFrom: %w", err)
	}
	billTo, err := json.Marshal(inv.BillTo)
	if err != nil {
		return nil, fmt.Errorf("encode billTo: %w", err)
	}
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}
	return &invoiceDocs{billFrom: billFrom, billTo: billTo, items: items}, nil
}

func (p *Postgres) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	docs, err := encodeDocs(inv)
	if err != nil {
		return err
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO invoices (`+invoiceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`,
		inv.ID, inv.UserID, inv.InvoiceNumber, inv.InvoiceDate, inv.DueDate,
		docs.billFrom, docs.billTo, docs.items, inv.Notes, inv.PaymentTerms, string(inv.Status),
		inv.Subtotal, inv.TaxTotal, inv.Total, inv.PDFPath, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (p *Postgres) ListInvoices(ctx context.Context, userID uuid.UUID) ([]models.Invoice, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	invoices := []models.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}
	return invoices, nil
}

// GetInvoice retrieves a single invoice owned by userID
func (p *Postgres) GetInvoice(ctx context.Context, userID, id uuid.UUID) (*models.Invoice, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	return scanInvoice(row)
}

func (p *Postgres) UpdateInvoice(ctx context.Context, inv *models.Invoice) error {
	docs, err := encodeDocs(inv)
	if err != nil {
		return err
	}

	tag, err := p.pool.Exec(ctx, `
		UPDATE invoices
		SET invoice_number = $3, invoice_date = $4, due_date = $5,
		    bill_from = $6, bill_to = $7, items = $8, notes = $9,
		    payment_terms = $10, status = $11,
		    subtotal = $12, tax_total = $13, total = $14, updated_at = $15
		WHERE id = $1 AND user_id = $2
	`,
		inv.ID, inv.UserID, inv.InvoiceNumber, inv.InvoiceDate, inv.DueDate,
		docs.billFrom, docs.billTo, docs.items, inv.Notes,
		inv.PaymentTerms, string(inv.Status),
		inv.Subtotal, inv.TaxTotal, inv.Total, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) DeleteInvoice(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM invoices WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) SetInvoicePDF(ctx context.Context, userID, id uuid.UUID, path string) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE invoices SET pdf_path = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, id, userID, path)
	if err != nil {
		return fmt.Errorf("set invoice pdf: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanInvoice(row pgx.Row) (*models.Invoice, error) {
	var inv models.Invoice
	var billFrom, billTo, items []byte
	var status string

	err := row.Scan(
		&inv.ID, &inv.UserID, &inv.InvoiceNumber, &inv.InvoiceDate, &inv.DueDate,
		&billFrom, &billTo, &items, &inv.Notes, &inv.PaymentTerms, &status,
		&inv.Subtotal, &inv.TaxTotal, &inv.Total, &inv.PDFPath, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan invoice: %w", err)
	}

	if err := json.Unmarshal(billFrom, &inv.BillFrom); err != nil {
		return nil, fmt.Errorf("decode billFrom: %w", err)
	}
	if err := json.Unmarshal(billTo, &inv.BillTo); err != nil {
		return nil, fmt.Errorf("decode billTo: %w", err)
	}
	if err := json.Unmarshal(items, &inv.Items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	inv.Status = models.Status(status)
	inv.InvoiceDate = inv.InvoiceDate.UTC()
	inv.DueDate = inv.DueDate.UTC()
	return &inv, nil
}
