package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/facturaIA/invoice-ai-service/internal/apperr"
	"github.com/facturaIA/invoice-ai-service/internal/db"
	"github.com/facturaIA/invoice-ai-service/internal/models"
	"github.com/facturaIA/invoice-ai-service/internal/render"
	"github.com/facturaIA/invoice-ai-service/internal/respond"
	"github.com/facturaIA/invoice-ai-service/internal/services"
	"github.com/facturaIA/invoice-ai-service/internal/storage"
)

// MaxBodySize caps JSON request bodies
const MaxBodySize = respond.MaxBodySize

// sendError translates err into the JSON envelope. Store lookups that miss
// become 404 "Invoice not found".
func (h *Handler) sendError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, db.ErrNotFound) {
		err = apperr.Wrap(apperr.NotFound, "Invoice not found", err)
	}
	respond.Error(w, r, h.logger, err)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	return respond.Decode(w, r, v)
}

// loadInvoice resolves {id} for the current user, writing the error response
// when it cannot.
func (h *Handler) loadInvoice(w http.ResponseWriter, r *http.Request) (*models.Invoice, bool) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return nil, false
	}
	id, ok := invoiceID(w, r)
	if !ok {
		return nil, false
	}
	inv, err := h.store.GetInvoice(r.Context(), userID, id)
	if err != nil {
		h.sendError(w, r, err)
		return nil, false
	}
	return inv, true
}

// CreateInvoice handles POST /api/invoices
func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	var in services.InvoiceInput
	if !decodeBody(w, r, &in) {
		return
	}

	inv, err := h.builder.Build(userID, in)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	if err := h.store.CreateInvoice(r.Context(), inv); err != nil {
		h.sendError(w, r, fmt.Errorf("failed to save invoice: %w", err))
		return
	}

	h.logger.Info("invoice created",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("total", inv.Total.StringFixed(2)),
	)
	respond.OK(w, http.StatusCreated, "Invoice created", inv)
}

// ListInvoices handles GET /api/invoices
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	invoices, err := h.store.ListInvoices(r.Context(), userID)
	if err != nil {
		h.sendError(w, r, fmt.Errorf("failed to get invoices: %w", err))
		return
	}
	if invoices == nil {
		invoices = []models.Invoice{}
	}
	respond.OK(w, http.StatusOK, "", invoices)
}

// GetInvoice handles GET /api/invoices/{id}
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadInvoice(w, r)
	if !ok {
		return
	}
	respond.OK(w, http.StatusOK, "", inv)
}

// UpdateInvoice handles PUT /api/invoices/{id}. The body replaces every
// editable field and totals are recomputed.
func (h *Handler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadInvoice(w, r)
	if !ok {
		return
	}

	var in services.InvoiceInput
	if !decodeBody(w, r, &in) {
		return
	}

	updated, err := h.builder.Replace(existing, in)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	if err := h.store.UpdateInvoice(r.Context(), updated); err != nil {
		h.sendError(w, r, fmt.Errorf("failed to update invoice: %w", err))
		return
	}
	respond.OK(w, http.StatusOK, "Invoice updated", updated)
}

// DeleteInvoice handles DELETE /api/invoices/{id}
func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadInvoice(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteInvoice(r.Context(), inv.UserID, inv.ID); err != nil {
		h.sendError(w, r, fmt.Errorf("failed to delete invoice: %w", err))
		return
	}

	// Delete archived PDF (ignore errors)
	if h.archive != nil && inv.PDFPath != "" {
		if err := h.archive.Delete(r.Context(), inv.PDFPath); err != nil {
			h.logger.Warn("failed to delete archived PDF",
				zap.String("invoice_id", inv.ID.String()),
				zap.String("path", inv.PDFPath),
				zap.Error(err),
			)
		}
	}

	respond.OK(w, http.StatusOK, "Invoice deleted", nil)
}

// GetStats handles GET /api/invoices/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, ok := h.dashboardStats(w, r)
	if !ok {
		return
	}
	respond.OK(w, http.StatusOK, "", stats)
}

func (h *Handler) dashboardStats(w http.ResponseWriter, r *http.Request) (models.DashboardStats, bool) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return models.DashboardStats{}, false
	}
	invoices, err := h.store.ListInvoices(r.Context(), userID)
	if err != nil {
		h.sendError(w, r, fmt.Errorf("failed to get invoices: %w", err))
		return models.DashboardStats{}, false
	}
	return services.SummarizeInvoices(invoices), true
}

// DownloadPDF handles GET /api/invoices/{id}/pdf
func (h *Handler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadInvoice(w, r)
	if !ok {
		return
	}

	data, err := render.InvoicePDF(inv, h.cfg.Invoice.Currency)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", inv.InvoiceNumber+".pdf"))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ArchivePDF handles POST /api/invoices/{id}/pdf/archive
func (h *Handler) ArchivePDF(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		respond.Fail(w, http.StatusServiceUnavailable, "PDF storage is not configured")
		return
	}

	inv, ok := h.loadInvoice(w, r)
	if !ok {
		return
	}

	url, err := h.archiveInvoice(r.Context(), inv)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "Invoice archived", map[string]string{"url": url})
}

func (h *Handler) archiveInvoice(ctx context.Context, inv *models.Invoice) (string, error) {
	data, err := render.InvoicePDF(inv, h.cfg.Invoice.Currency)
	if err != nil {
		return "", err
	}

	path, err := h.archive.Upload(ctx, storage.ObjectName(inv.UserID, inv.InvoiceNumber, h.now()), data)
	if err != nil {
		return "", apperr.Wrap(apperr.Unavailable, "PDF storage unavailable", err)
	}

	if err := h.store.SetInvoicePDF(ctx, inv.UserID, inv.ID, path); err != nil {
		if delErr := h.archive.Delete(ctx, path); delErr != nil {
			h.logger.Warn("failed to delete unrecorded PDF",
				zap.String("invoice_id", inv.ID.String()),
				zap.String("path", path),
				zap.Error(delErr),
			)
		}
		return "", fmt.Errorf("failed to record PDF path: %w", err)
	}

	// Replace the previous archive copy
	if inv.PDFPath != "" && inv.PDFPath != path {
		if err := h.archive.Delete(ctx, inv.PDFPath); err != nil {
			h.logger.Warn("failed to delete previous archived PDF",
				zap.String("invoice_id", inv.ID.String()),
				zap.String("path", inv.PDFPath),
				zap.Error(err),
			)
		}
	}

	url, err := h.archive.PresignedURL(ctx, path)
	if err != nil {
		return "", apperr.Wrap(apperr.Unavailable, "PDF storage unavailable", err)
	}

	h.logger.Info("invoice archived",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("path", path),
		zap.Int("bytes", len(data)),
	)
	return url, nil
}

func parseInvoiceID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, apperr.Validationf("Valid invoiceId is required")
	}
	return id, nil
}
