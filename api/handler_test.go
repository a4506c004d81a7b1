package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/facturaIA/invoice-ai-service/internal/ai"
	"github.com/facturaIA/invoice-ai-service/internal/auth"
	"github.com/facturaIA/invoice-ai-service/internal/config"
	"github.com/facturaIA/invoice-ai-service/internal/db/dbtest"
	"github.com/facturaIA/invoice-ai-service/internal/models"
)

// scriptedProvider answers with canned replies in order
type scriptedProvider struct {
	mu      sync.Mutex
	replies []string
	prompts []string
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Generate(ctx context.Context, req ai.Request) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, req.Prompt)
	if len(p.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	reply := p.replies[0]
	p.replies = p.replies[1:]
	return reply, nil
}

func (p *scriptedProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.prompts)
}

type fakeArchive struct {
	objects map[string][]byte
	deleted []string
}

func (f *fakeArchive) Upload(ctx context.Context, objectName string, data []byte) (string, error) {
	path := "invoices/" + objectName
	f.objects[path] = data
	return path, nil
}

func (f *fakeArchive) PresignedURL(ctx context.Context, objectPath string) (string, error) {
	return "https://minio.test/" + objectPath + "?X-Amz-Signature=abc", nil
}

func (f *fakeArchive) Delete(ctx context.Context, objectPath string) error {
	f.deleted = append(f.deleted, objectPath)
	delete(f.objects, objectPath)
	return nil
}

// pdfPathFailStore refuses to record archived PDF paths
type pdfPathFailStore struct {
	*dbtest.MemStore
}

func (pdfPathFailStore) SetInvoicePDF(ctx context.Context, userID, id uuid.UUID, path string) error {
	return errors.New("write conflict")
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent []sentMail
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type testServer struct {
	handler  *Handler
	router   *mux.Router
	store    *dbtest.MemStore
	provider *scriptedProvider
	archive  *fakeArchive
	mailer   *fakeMailer
	tokens   *auth.TokenManager
	token    string
	userID   uuid.UUID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := config.Default()
	cfg.Auth.JWTSecret = "test-secret"

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, time.Hour)
	require.NoError(t, err)

	s := &testServer{
		store:    dbtest.New(),
		provider: &scriptedProvider{},
		archive:  &fakeArchive{objects: map[string][]byte{}},
		mailer:   &fakeMailer{},
		tokens:   tokens,
	}

	s.handler = NewHandler(Deps{
		Config:    cfg,
		Store:     s.store,
		Assistant: ai.NewAssistant(s.provider, ai.Options{Timeout: time.Second, Currency: "₹"}, zap.NewNop()),
		Tokens:    tokens,
		Archive:   s.archive,
		Mailer:    s.mailer,
		Logger:    zap.NewNop(),
	})
	s.router = s.handler.SetupRoutes()

	s.userID, s.token = s.addUser(t, "owner@example.com")
	return s
}

func (s *testServer) addUser(t *testing.T, email string) (uuid.UUID, string) {
	t.Helper()
	u := &models.User{ID: uuid.New(), Name: "Owner", Email: email, PasswordHash: "x"}
	require.NoError(t, s.store.CreateUser(context.Background(), u))
	token, err := s.tokens.GenerateToken(u.ID)
	require.NoError(t, err)
	return u.ID, token
}

type envelope struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message"`
	Data         json.RawMessage `json:"data"`
	ReminderText string          `json:"reminderText"`
}

func (s *testServer) request(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) do(t *testing.T, method, path, body string) (int, envelope) {
	t.Helper()
	rec := s.request(t, method, path, s.token, body)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

const invoiceBody = `{
	"invoiceNumber": "INV-001",
	"invoiceDate": "2025-03-01",
	"dueDate": "2025-03-16",
	"billFrom": {"businessName": "Studio", "email": "studio@example.com"},
	"billTo": {"clientName": "Acme Corp", "email": "ap@acme.test"},
	"items": [
		{"name": "Design", "quantity": 2, "unitPrice": 150, "taxPercent": 18, "total": 9999}
	],
	"subTotal": 1,
	"total": 1
}`

func (s *testServer) createInvoice(t *testing.T, body string) models.Invoice {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/invoices", body)
	require.Equal(t, http.StatusCreated, code, env.Message)
	var inv models.Invoice
	require.NoError(t, json.Unmarshal(env.Data, &inv))
	return inv
}

func TestCreateInvoiceRecomputesTotals(t *testing.T) {
	s := newTestServer(t)
	inv := s.createInvoice(t, invoiceBody)

	assert.True(t, decimal.NewFromInt(300).Equal(inv.Subtotal), inv.Subtotal.String())
	assert.True(t, decimal.NewFromInt(54).Equal(inv.TaxTotal), inv.TaxTotal.String())
	assert.True(t, decimal.NewFromInt(354).Equal(inv.Total), inv.Total.String())
	assert.True(t, decimal.NewFromInt(354).Equal(inv.Items[0].Total))
	assert.Equal(t, models.StatusUnpaid, inv.Status)
	assert.Equal(t, "Net 15", inv.PaymentTerms)
	assert.Equal(t, s.userID, inv.UserID)

	stored, err := s.store.GetInvoice(context.Background(), s.userID, inv.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(354).Equal(stored.Total))
}

func TestCreateInvoiceValidation(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/invoices", `{"invoiceNumber": "INV-1"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "Missing or invalid required fields")

	negative := strings.Replace(invoiceBody, `"quantity": 2`, `"quantity": -2`, 1)
	code, env = s.do(t, http.MethodPost, "/api/invoices", negative)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Message, "items[0].quantity")

	code, _ = s.do(t, http.MethodPost, "/api/invoices", `{not json`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 0, s.store.InvoiceCount())
}

func TestInvoiceRejectsOversizedAmounts(t *testing.T) {
	s := newTestServer(t)
	inv := s.createInvoice(t, invoiceBody)

	bodies := map[string]string{
		"items[0].quantity":   strings.Replace(invoiceBody, `"quantity": 2, "unitPrice": 150`, `"quantity": "1e2000000000", "unitPrice": "1e2000000000"`, 1),
		"items[0].unitPrice":  strings.Replace(invoiceBody, `"unitPrice": 150`, `"unitPrice": "1e30000000"`, 1),
		"items[0].taxPercent": strings.Replace(invoiceBody, `"taxPercent": 18`, `"taxPercent": "1e-2000000000"`, 1),
	}
	for field, body := range bodies {
		code, env := s.do(t, http.MethodPost, "/api/invoices", body)
		assert.Equal(t, http.StatusBadRequest, code, field)
		assert.False(t, env.Success)
		assert.Contains(t, env.Message, field)

		code, env = s.do(t, http.MethodPut, "/api/invoices/"+inv.ID.String(), body)
		assert.Equal(t, http.StatusBadRequest, code, field)
		assert.Contains(t, env.Message, field)
	}
	assert.Equal(t, 1, s.store.InvoiceCount())
}

func TestInvoiceLifecycle(t *testing.T) {
	s := newTestServer(t)
	inv := s.createInvoice(t, invoiceBody)
	path := "/api/invoices/" + inv.ID.String()

	code, env := s.do(t, http.MethodGet, "/api/invoices", "")
	require.Equal(t, http.StatusOK, code)
	var list []models.Invoice
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)

	update := strings.Replace(invoiceBody, `"quantity": 2`, `"quantity": 3`, 1)
	update = strings.Replace(update, `"subTotal": 1`, `"status": "Paid"`, 1)
	code, env = s.do(t, http.MethodPut, path, update)
	require.Equal(t, http.StatusOK, code, env.Message)
	var updated models.Invoice
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.True(t, decimal.NewFromInt(531).Equal(updated.Total), updated.Total.String())
	assert.Equal(t, models.StatusPaid, updated.Status)
	assert.Equal(t, inv.ID, updated.ID)

	code, env = s.do(t, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, code)
	var got models.Invoice
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.True(t, decimal.NewFromInt(531).Equal(got.Total))

	code, _ = s.do(t, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Invoice not found", env.Message)
}

func TestInvoiceIDAndOwnership(t *testing.T) {
	s := newTestServer(t)
	inv := s.createInvoice(t, invoiceBody)

	code, env := s.do(t, http.MethodDelete, "/api/invoices/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid invoice ID", env.Message)

	code, _ = s.do(t, http.MethodDelete, "/api/invoices/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, code)

	_, otherToken := s.addUser(t, "other@example.com")
	rec := s.request(t, http.MethodGet, "/api/invoices/"+inv.ID.String(), otherToken, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.request(t, http.MethodDelete, "/api/invoices/"+inv.ID.String(), otherToken, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1, s.store.InvoiceCount())

	rec = s.request(t, http.MethodGet, "/api/invoices", otherToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var env2 envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env2))
	assert.JSONEq(t, `[]`, string(env2.Data))
}

func TestRequiresBearerToken(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/invoices", "/api/ai/dashboard-summary"} {
		rec := s.request(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
	rec := s.request(t, http.MethodPost, "/api/ai/parse-text", "bogus", `{"text":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, s.provider.calls())
}

func TestParseText(t *testing.T) {
	s := newTestServer(t)
	s.provider.replies = []string{
		`{"clientName": "Acme Corp", "email": "ap@acme.test", "items": [{"name": "design", "quantity": "2", "unitPrice": "$150"}]}`,
		`{"error": "Input text does not contain invoice-related information."}`,
	}

	code, env := s.do(t, http.MethodPost, "/api/ai/parse-text", `{"text": "Invoice for Acme Corp: 2 hours design at $150/hr"}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	var seed models.InvoiceSeed
	require.NoError(t, json.Unmarshal(env.Data, &seed))
	assert.Equal(t, "Acme Corp", seed.ClientName)
	require.Len(t, seed.Items, 1)
	assert.True(t, decimal.NewFromInt(150).Equal(seed.Items[0].UnitPrice))
	assert.Equal(t, 0, s.store.InvoiceCount(), "seeds are not persisted")

	code, env = s.do(t, http.MethodPost, "/api/ai/parse-text", `{"text": "hello, how are you"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, ai.NotInvoiceMessage, env.Message)

	code, _ = s.do(t, http.MethodPost, "/api/ai/parse-text", `{"text": ""}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 2, s.provider.calls())
}

func TestParseTextMalformedOutput(t *testing.T) {
	s := newTestServer(t)
	s.provider.replies = []string{"Sure! Here is the invoice you asked for."}

	code, env := s.do(t, http.MethodPost, "/api/ai/parse-text", `{"text": "Invoice for Acme"}`)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.False(t, env.Success)
	assert.NotContains(t, env.Message, "Sure!")
}

func TestGenerateReminder(t *testing.T) {
	s := newTestServer(t)
	inv := s.createInvoice(t, invoiceBody)
	s.provider.replies = []string{"Subject: Friendly reminder\n\nDear Acme Corp, ..."}

	code, env := s.do(t, http.MethodPost, "/api/ai/generate-reminder", `{"invoiceId": "`+inv.ID.String()+`"}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.True(t, env.Success)
	assert.True(t, strings.HasPrefix(env.ReminderText, "Subject:"))
	require.Len(t, s.provider.prompts, 1)
	assert.Contains(t, s.provider.prompts[0], "₹354.00")
	assert.Contains(t, s.provider.prompts[0], "March 16, 2025")

	code, env = s.do(t, http.MethodPost, "/api/ai/generate-reminder", `{"invoiceId": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Valid invoiceId is required", env.Message)

	code, env = s.do(t, http.MethodPost, "/api/ai/generate-reminder", `{"invoiceId": "`+uuid.NewString()+`"}`)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Invoice not found", env.Message)
}

func TestGenerateReminderIncompleteInvoice(t *testing.T) {
	s := newTestServer(t)
	inv := &models.Invoice{
		ID:            uuid.New(),
		UserID:        s.userID,
		InvoiceNumber: "INV-9",
		BillTo:        models.BillTo{ClientName: "Acme Corp"},
		Total:         decimal.NewFromInt(100),
	}
	require.NoError(t, s.store.CreateInvoice(context.Background(), inv))

	code, env := s.do(t, http.MethodPost, "/api/ai/generate-reminder", `{"invoiceId": "`+inv.ID.String()+`"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invoice data incomplete for generating reminder email.", env.Message)
	assert.Equal(t, 0, s.provider.calls())
}

func TestDashboardSummary(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodGet, "/api/ai/dashboard-summary", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"insights": ["`+ai.NoDataInsight+`"]}`, string(env.Data))
	assert.Equal(t, 0, s.provider.calls())

	s.createInvoice(t, invoiceBody)
	s.provider.replies = []string{`{"insights": ["You have one unpaid invoice.", "Follow up with Acme Corp."]}`}

	code, env = s.do(t, http.MethodGet, "/api/ai/dashboard-summary", "")
	require.Equal(t, http.StatusOK, code, env.Message)
	var data struct {
		Insights []string `json:"insights"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Len(t, data.Insights, 2)

	code, env = s.do(t, http.MethodGet, "/api/invoices/stats", "")
	require.Equal(t, http.StatusOK, code)
	var stats models.DashboardStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 1, stats.TotalInvoices)
	assert.Equal(t, 1, stats.UnpaidCount)
	assert.True(t, decimal.NewFromInt(354).Equal(stats.Outstanding))
}

func TestPDFDownloadAndArchive(t *testing.T) {
	s := newTestServer(t)
	inv := s.createInvoice(t, invoiceBody)
	base := "/api/invoices/" + inv.ID.String()

	rec := s.request(t, http.MethodGet, base+"/pdf", s.token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))

	code, env := s.do(t, http.MethodPost, base+"/pdf/archive", "")
	require.Equal(t, http.StatusOK, code, env.Message)
	var data map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Contains(t, data["url"], "X-Amz-Signature")

	stored, err := s.store.GetInvoice(context.Background(), s.userID, inv.ID)
	require.NoError(t, err)
	require.NotEmpty(t, stored.PDFPath)
	assert.True(t, strings.HasPrefix(stored.PDFPath, "invoices/"+s.userID.String()+"/"))
	assert.Contains(t, s.archive.objects, stored.PDFPath)

	code, _ = s.do(t, http.MethodDelete, base, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{stored.PDFPath}, s.archive.deleted)
}

func TestArchivePDFReplacesPreviousCopy(t *testing.T) {
	s := newTestServer(t)
	inv := s.createInvoice(t, invoiceBody)
	path := "/api/invoices/" + inv.ID.String() + "/pdf/archive"

	code, _ := s.do(t, http.MethodPost, path, "")
	require.Equal(t, http.StatusOK, code)
	first, err := s.store.GetInvoice(context.Background(), s.userID, inv.ID)
	require.NoError(t, err)

	code, _ = s.do(t, http.MethodPost, path, "")
	require.Equal(t, http.StatusOK, code)
	second, err := s.store.GetInvoice(context.Background(), s.userID, inv.ID)
	require.NoError(t, err)

	assert.NotEqual(t, first.PDFPath, second.PDFPath)
	assert.Equal(t, []string{first.PDFPath}, s.archive.deleted)
	assert.Len(t, s.archive.objects, 1)
}

func TestArchivePDFRemovesUnrecordedUpload(t *testing.T) {
	s := newTestServer(t)
	inv := s.createInvoice(t, invoiceBody)
	s.handler.store = pdfPathFailStore{s.store}

	code, env := s.do(t, http.MethodPost, "/api/invoices/"+inv.ID.String()+"/pdf/archive", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.False(t, env.Success)
	assert.Empty(t, s.archive.objects)
	require.Len(t, s.archive.deleted, 1)
}

func TestArchiveAndMailDisabled(t *testing.T) {
	s := newTestServer(t)
	s.handler.archive = nil
	s.handler.mailer = nil
	inv := s.createInvoice(t, invoiceBody)

	code, _ := s.do(t, http.MethodPost, "/api/invoices/"+inv.ID.String()+"/pdf/archive", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	code, _ = s.do(t, http.MethodPost, "/api/invoices/"+inv.ID.String()+"/send-reminder", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestSendReminder(t *testing.T) {
	s := newTestServer(t)
	inv := s.createInvoice(t, invoiceBody)
	path := "/api/invoices/" + inv.ID.String() + "/send-reminder"

	s.provider.replies = []string{"**Subject:** Invoice INV-001 is due\n\nHello Acme Corp,\nPlease pay."}
	code, env := s.do(t, http.MethodPost, path, "")
	require.Equal(t, http.StatusOK, code, env.Message)
	require.Len(t, s.mailer.sent, 1)
	assert.Equal(t, "ap@acme.test", s.mailer.sent[0].to)
	assert.Equal(t, "Invoice INV-001 is due", s.mailer.sent[0].subject)
	assert.Equal(t, "Hello Acme Corp,\nPlease pay.", s.mailer.sent[0].body)

	code, _ = s.do(t, http.MethodPost, path, `{"reminderText": "Please pay soon."}`)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, s.mailer.sent, 2)
	assert.Equal(t, "Payment reminder for invoice INV-001", s.mailer.sent[1].subject)
	assert.Equal(t, 1, s.provider.calls())

	noEmail := strings.Replace(invoiceBody, `"email": "ap@acme.test"`, `"email": ""`, 1)
	other := s.createInvoice(t, noEmail)
	code, _ = s.do(t, http.MethodPost, "/api/invoices/"+other.ID.String()+"/send-reminder", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(t, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "memory", health.Database.Version)
	assert.True(t, health.Storage.Available)
	assert.Equal(t, "scripted", health.AI["provider"])

	s.store.FailWith = errors.New("connection refused")
	rec = s.request(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	h := CORS([]string{"https://app.example.com"})(s.router)

	req := httptest.NewRequest(http.MethodOptions, "/api/invoices", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Less(t, rec.Code, 300)
}

func TestServerLogsEveryRequest(t *testing.T) {
	s := newTestServer(t)
	core, logs := observer.New(zapcore.InfoLevel)
	s.handler.logger = zap.New(core)
	srv := s.handler.Server([]string{"https://app.example.com"})

	preflight := httptest.NewRequest(http.MethodOptions, "/api/invoices", nil)
	preflight.Header.Set("Origin", "https://app.example.com")
	preflight.Header.Set("Access-Control-Request-Method", "POST")

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/nope", nil),
		httptest.NewRequest(http.MethodDelete, "/health", nil),
		preflight,
	} {
		srv.ServeHTTP(httptest.NewRecorder(), req)
	}

	require.Equal(t, 3, logs.Len())
	statuses := map[string]int64{}
	for _, entry := range logs.All() {
		fields := entry.ContextMap()
		statuses[fields["method"].(string)+" "+fields["path"].(string)] = fields["status"].(int64)
	}
	assert.Equal(t, int64(http.StatusNotFound), statuses["GET /nope"])
	assert.Equal(t, int64(http.StatusMethodNotAllowed), statuses["DELETE /health"])
	assert.Less(t, statuses["OPTIONS /api/invoices"], int64(300))
}
