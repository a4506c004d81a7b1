// Package docstore implements the repositories on Cloud Firestore.
package docstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/facturaIA/invoice-ai-service/internal/db"
	"github.com/facturaIA/invoice-ai-service/internal/models"
)

const (
	invoicesCollection = "invoices"
	usersCollection    = "users"
	emailsCollection   = "user_emails"
)

// Store implements db.Store using Firestore.
type Store struct {
	Client *firestore.Client
}

// Compile-time check: ensure Store satisfies db.Store.
var _ db.Store = (*Store)(nil)

// Open connects to projectID. FIRESTORE_EMULATOR_HOST is honoured by the client.
func Open(ctx context.Context, projectID string) (*Store, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &Store{Client: client}, nil
}

func (s *Store) Driver() string {
	return "firestore"
}

// Ping reads a document that need not exist
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.Client.Collection(usersCollection).Doc("_ping").Get(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return err
	}
	return nil
}

func (s *Store) Close() error {
	return s.Client.Close()
}

func (s *Store) invoices() *firestore.CollectionRef {
	return s.Client.Collection(invoicesCollection)
}

func (s *Store) users() *firestore.CollectionRef {
	return s.Client.Collection(usersCollection)
}

func (s *Store) emails() *firestore.CollectionRef {
	return s.Client.Collection(emailsCollection)
}

// emailKey maps a normalized address to a valid document ID. Addresses may
// contain '/' or other characters Firestore rejects in IDs.
func emailKey(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}

// invoiceUpdateFields are the fields a full invoice update may write.
// pdfPath belongs to SetInvoicePDF; owner and creation time never change.
var invoiceUpdateFields = []firestore.FieldPath{
	{"invoiceNumber"}, {"invoiceDate"}, {"dueDate"},
	{"billFrom"}, {"billTo"}, {"items"}, {"notes"},
	{"paymentTerms"}, {"status"},
	{"subtotal"}, {"taxTotal"}, {"total"},
	{"updatedAt"},
}

// =======================
// Invoices
// =======================

func (s *Store) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	_, err := s.invoices().Doc(inv.ID.String()).Create(ctx, toInvoiceDoc(inv))
	if err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}
	return nil
}

func (s *Store) ListInvoices(ctx context.Context, userID uuid.UUID) ([]models.Invoice, error) {
	it := s.invoices().Where("userId", "==", userID.String()).Documents(ctx)
	defer it.Stop()

	invoices := []models.Invoice{}
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list invoices: %w", err)
		}
		inv, err := docToInvoice(doc)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}

	// sorted here so no composite index is required
	sort.SliceStable(invoices, func(i, j int) bool {
		return invoices[i].CreatedAt.After(invoices[j].CreatedAt)
	})
	return invoices, nil
}

func (s *Store) GetInvoice(ctx context.Context, userID, id uuid.UUID) (*models.Invoice, error) {
	snap, err := s.invoices().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	inv, err := docToInvoice(snap)
	if err != nil {
		return nil, err
	}
	if inv.UserID != userID {
		return nil, db.ErrNotFound
	}
	return inv, nil
}

// ownedInvoice loads ref inside tx and checks the owner
func ownedInvoice(tx *firestore.Transaction, ref *firestore.DocumentRef, userID uuid.UUID) (*models.Invoice, error) {
	snap, err := tx.Get(ref)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, db.ErrNotFound
		}
		return nil, err
	}
	inv, err := docToInvoice(snap)
	if err != nil {
		return nil, err
	}
	if inv.UserID != userID {
		return nil, db.ErrNotFound
	}
	return inv, nil
}

func (s *Store) UpdateInvoice(ctx context.Context, inv *models.Invoice) error {
	ref := s.invoices().Doc(inv.ID.String())
	err := s.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := ownedInvoice(tx, ref, inv.UserID); err != nil {
			return err
		}
		return tx.Set(ref, toInvoiceDoc(inv), firestore.Merge(invoiceUpdateFields...))
	})
	return wrapTx("update invoice", err)
}

func (s *Store) DeleteInvoice(ctx context.Context, userID, id uuid.UUID) error {
	ref := s.invoices().Doc(id.String())
	err := s.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := ownedInvoice(tx, ref, userID); err != nil {
			return err
		}
		return tx.Delete(ref)
	})
	return wrapTx("delete invoice", err)
}

func (s *Store) SetInvoicePDF(ctx context.Context, userID, id uuid.UUID, path string) error {
	ref := s.invoices().Doc(id.String())
	err := s.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := ownedInvoice(tx, ref, userID); err != nil {
			return err
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "pdfPath", Value: path},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
	})
	return wrapTx("set invoice pdf", err)
}

// =======================
// Users
// =======================

// CreateUser reserves the email and writes the user atomically
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	u.Email = normalizeEmail(u.Email)
	userRef := s.users().Doc(u.ID.String())
	emailRef := s.emails().Doc(emailKey(u.Email))

	err := s.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(emailRef, emailDoc{UserID: u.ID.String()}); err != nil {
			return err
		}
		return tx.Create(userRef, toUserDoc(u))
	})
	if status.Code(err) == codes.AlreadyExists {
		return db.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	snap, err := s.users().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return docToUser(snap)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, db.ErrNotFound
	}

	snap, err := s.emails().Doc(emailKey(email)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("get user email: %w", err)
	}
	var ed emailDoc
	if err := snap.DataTo(&ed); err != nil {
		return nil, fmt.Errorf("decode user email: %w", err)
	}
	id, err := uuid.Parse(ed.UserID)
	if err != nil {
		return nil, fmt.Errorf("user email %s: %w", email, err)
	}
	return s.GetUserByID(ctx, id)
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	_, err := s.users().Doc(u.ID.String()).Update(ctx, []firestore.Update{
		{Path: "name", Value: u.Name},
		{Path: "businessName", Value: u.BusinessName},
		{Path: "address", Value: u.Address},
		{Path: "phone", Value: u.Phone},
		{Path: "updatedAt", Value: u.UpdatedAt},
	})
	if status.Code(err) == codes.NotFound {
		return db.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func wrapTx(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, db.ErrNotFound) {
		return db.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
