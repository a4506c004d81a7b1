package api

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/facturaIA/invoice-ai-service/internal/ai"
	"github.com/facturaIA/invoice-ai-service/internal/auth"
	"github.com/facturaIA/invoice-ai-service/internal/config"
	"github.com/facturaIA/invoice-ai-service/internal/db"
	"github.com/facturaIA/invoice-ai-service/internal/logging"
	"github.com/facturaIA/invoice-ai-service/internal/mail"
	"github.com/facturaIA/invoice-ai-service/internal/respond"
	"github.com/facturaIA/invoice-ai-service/internal/services"
	"github.com/facturaIA/invoice-ai-service/internal/storage"
)

// Version is reported by /health and the version command
var Version = "dev"

// Deps are the collaborators of the API. Archive and Mailer are optional.
type Deps struct {
	Config    *config.Config
	Store     db.Store
	Assistant *ai.Assistant
	Tokens    *auth.TokenManager
	Archive   storage.PDFArchive
	Mailer    mail.Sender
	Logger    *zap.Logger
}

// Handler handles HTTP requests for invoices and AI assistance
type Handler struct {
	cfg       *config.Config
	store     db.Store
	builder   *services.InvoiceBuilder
	assistant *ai.Assistant
	tokens    *auth.TokenManager
	accounts  *auth.Handler
	archive   storage.PDFArchive
	mailer    mail.Sender
	logger    *zap.Logger
	startTime time.Time
	now       func() time.Time
}

// NewHandler creates a new API handler
func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		cfg:       d.Config,
		store:     d.Store,
		builder:   services.NewInvoiceBuilder(d.Config.Invoice.DefaultPaymentTerms),
		assistant: d.Assistant,
		tokens:    d.Tokens,
		accounts:  auth.NewHandler(d.Store, d.Tokens, logger),
		archive:   d.Archive,
		mailer:    d.Mailer,
		logger:    logger.Named("api"),
		startTime: time.Now(),
		now:       time.Now,
	}
}

// SetupRoutes configures the HTTP routes
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	// Health check
	router.HandleFunc("/health", h.Health).Methods("GET")

	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(auth.JWTMiddleware(h.tokens, h.store, h.logger))

	// Accounts
	h.accounts.RegisterRoutes(router, protected)

	// Invoice CRUD
	protected.HandleFunc("/invoices", h.CreateInvoice).Methods("POST")
	protected.HandleFunc("/invoices", h.ListInvoices).Methods("GET")
	protected.HandleFunc("/invoices/stats", h.GetStats).Methods("GET")
	protected.HandleFunc("/invoices/{id}", h.GetInvoice).Methods("GET")
	protected.HandleFunc("/invoices/{id}", h.UpdateInvoice).Methods("PUT")
	protected.HandleFunc("/invoices/{id}", h.DeleteInvoice).Methods("DELETE")

	// PDF export
	protected.HandleFunc("/invoices/{id}/pdf", h.DownloadPDF).Methods("GET")
	protected.HandleFunc("/invoices/{id}/pdf/archive", h.ArchivePDF).Methods("POST")
	protected.HandleFunc("/invoices/{id}/send-reminder", h.SendReminder).Methods("POST")

	// AI assistance
	protected.HandleFunc("/ai/parse-text", h.ParseText).Methods("POST")
	protected.HandleFunc("/ai/generate-reminder", h.GenerateReminder).Methods("POST")
	protected.HandleFunc("/ai/dashboard-summary", h.DashboardSummary).Methods("GET")

	return router
}

// Server wraps the routes in CORS and the access log. The access log sits
// outermost so unmatched routes and preflights get a line too.
func (h *Handler) Server(origins []string) http.Handler {
	return logging.AccessLog(h.logger)(CORS(origins)(h.SetupRoutes()))
}

// CORS wraps next with the configured origin policy
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         86400,
	})
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Memory    MemoryStats       `json:"memory"`
	Database  ServiceStatus     `json:"database"`
	Storage   ServiceStatus     `json:"storage"`
	Mail      ServiceStatus     `json:"mail"`
	AI        map[string]string `json:"ai"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	Allocated string `json:"allocated"`
	Total     string `json:"total"`
	System    string `json:"system"`
}

// ServiceStatus represents the status of a service dependency
type ServiceStatus struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Health endpoint - enhanced for monitoring
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	databaseStatus := h.checkDatabase(r.Context())

	response := HealthResponse{
		Status:    "healthy",
		Version:   Version,
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(h.startTime).String(),
		Memory: MemoryStats{
			Allocated: fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
			Total:     fmt.Sprintf("%.2f MB", float64(m.TotalAlloc)/1024/1024),
			System:    fmt.Sprintf("%.2f MB", float64(m.Sys)/1024/1024),
		},
		Database: databaseStatus,
		Storage:  optional(h.archive != nil, "MinIO S3", "storage not configured"),
		Mail:     optional(h.mailer != nil, "SendGrid", "mail not configured"),
		AI: map[string]string{
			"provider": h.assistant.ProviderName(),
			"model":    h.modelName(),
		},
	}

	// The database is the only hard dependency
	code := http.StatusOK
	if !databaseStatus.Available {
		response.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	respond.JSON(w, code, response)
}

func (h *Handler) checkDatabase(ctx context.Context) ServiceStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("database ping failed", zap.Error(err))
		return ServiceStatus{Available: false, Version: h.store.Driver(), Error: "database unreachable"}
	}
	return ServiceStatus{Available: true, Version: h.store.Driver()}
}

func optional(enabled bool, version, missing string) ServiceStatus {
	if !enabled {
		return ServiceStatus{Available: false, Error: missing}
	}
	return ServiceStatus{Available: true, Version: version}
}

func (h *Handler) modelName() string {
	switch h.cfg.AI.Provider {
	case config.ProviderOpenAI:
		return h.cfg.AI.OpenAI.Model
	case config.ProviderOllama:
		return h.cfg.AI.Ollama.Model
	default:
		return h.cfg.AI.Gemini.Model
	}
}

// currentUserID returns the authenticated user id or writes a 401
func (h *Handler) currentUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	user, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, false
	}
	return user.ID, true
}

// invoiceID parses the {id} route variable; malformed ids are rejected
// before any lookup.
func invoiceID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respond.Fail(w, http.StatusBadRequest, "Invalid invoice ID")
		return uuid.Nil, false
	}
	return id, true
}
