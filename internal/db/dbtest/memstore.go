// Package dbtest provides an in-memory db.Store for handler tests.
package dbtest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/facturaIA/invoice-ai-service/internal/db"
	"github.com/facturaIA/invoice-ai-service/internal/models"
)

// MemStore keeps users and invoices in maps guarded by a mutex
type MemStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]models.User
	invoices map[uuid.UUID]models.Invoice

	// FailWith, when set, is returned by every call
	FailWith error
}

var _ db.Store = (*MemStore)(nil)

func New() *MemStore {
	return &MemStore{
		users:    make(map[uuid.UUID]models.User),
		invoices: make(map[uuid.UUID]models.Invoice),
	}
}

func (m *MemStore) Driver() string                 { return "memory" }
func (m *MemStore) Ping(ctx context.Context) error { return m.FailWith }
func (m *MemStore) Close() error                   { return nil }

func (m *MemStore) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return db.ErrEmailTaken
		}
	}
	m.users[u.ID] = *u
	return nil
}

func (m *MemStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	u, ok := m.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &u, nil
}

func (m *MemStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *MemStore) UpdateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	existing, ok := m.users[u.ID]
	if !ok {
		return db.ErrNotFound
	}
	existing.Name = u.Name
	existing.BusinessName = u.BusinessName
	existing.Address = u.Address
	existing.Phone = u.Phone
	existing.UpdatedAt = u.UpdatedAt
	m.users[u.ID] = existing
	return nil
}

func (m *MemStore) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.invoices[inv.ID] = cloneInvoice(*inv)
	return nil
}

func (m *MemStore) ListInvoices(ctx context.Context, userID uuid.UUID) ([]models.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	out := []models.Invoice{}
	for _, inv := range m.invoices {
		if inv.UserID == userID {
			out = append(out, cloneInvoice(inv))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemStore) GetInvoice(ctx context.Context, userID, id uuid.UUID) (*models.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	inv, ok := m.invoices[id]
	if !ok || inv.UserID != userID {
		return nil, db.ErrNotFound
	}
	c := cloneInvoice(inv)
	return &c, nil
}

func (m *MemStore) UpdateInvoice(ctx context.Context, inv *models.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	existing, ok := m.invoices[inv.ID]
	if !ok || existing.UserID != inv.UserID {
		return db.ErrNotFound
	}
	updated := cloneInvoice(*inv)
	updated.PDFPath = existing.PDFPath
	updated.CreatedAt = existing.CreatedAt
	m.invoices[inv.ID] = updated
	return nil
}

func (m *MemStore) DeleteInvoice(ctx context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	existing, ok := m.invoices[id]
	if !ok || existing.UserID != userID {
		return db.ErrNotFound
	}
	delete(m.invoices, id)
	return nil
}

func (m *MemStore) SetInvoicePDF(ctx context.Context, userID, id uuid.UUID, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	existing, ok := m.invoices[id]
	if !ok || existing.UserID != userID {
		return db.ErrNotFound
	}
	existing.PDFPath = path
	m.invoices[id] = existing
	return nil
}

// InvoiceCount returns how many invoices are stored for all users
func (m *MemStore) InvoiceCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.invoices)
}

func cloneInvoice(inv models.Invoice) models.Invoice {
	inv.Items = append([]models.LineItem(nil), inv.Items...)
	return inv
}
