package db

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/facturaIA/invoice-ai-service/internal/models"
)

var (
	ErrNoDatabase = errors.New("database not available")
	ErrNotFound   = errors.New("record not found")
	ErrEmailTaken = errors.New("email already in use")
)

// InvoiceRepository persists invoices. Every lookup is scoped to the owner:
// another user's invoice is reported as ErrNotFound.
type InvoiceRepository interface {
	CreateInvoice(ctx context.Context, inv *models.Invoice) error
	// ListInvoices returns the user's invoices, newest first
	ListInvoices(ctx context.Context, userID uuid.UUID) ([]models.Invoice, error)
	GetInvoice(ctx context.Context, userID, id uuid.UUID) (*models.Invoice, error)
	// UpdateInvoice overwrites the stored invoice; last write wins
	UpdateInvoice(ctx context.Context, inv *models.Invoice) error
	DeleteInvoice(ctx context.Context, userID, id uuid.UUID) error
	SetInvoicePDF(ctx context.Context, userID, id uuid.UUID, path string) error
}

// UserRepository persists accounts. Emails are stored lower-cased and unique.
type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
}

// Store is a complete persistence driver
type Store interface {
	InvoiceRepository
	UserRepository
	Driver() string
	Ping(ctx context.Context) error
	Close() error
}
