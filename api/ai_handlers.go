package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/facturaIA/invoice-ai-service/internal/ai"
	"github.com/facturaIA/invoice-ai-service/internal/apperr"
	"github.com/facturaIA/invoice-ai-service/internal/respond"
)

// ParseTextRequest is the body of POST /api/ai/parse-text
type ParseTextRequest struct {
	Text string `json:"text"`
}

// ReminderRequest is the body of POST /api/ai/generate-reminder
type ReminderRequest struct {
	InvoiceID string `json:"invoiceId"`
}

// ReminderResponse carries the drafted email next to the envelope fields
type ReminderResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message,omitempty"`
	ReminderText string `json:"reminderText"`
}

// SendReminderRequest is the optional body of POST /api/invoices/{id}/send-reminder
type SendReminderRequest struct {
	ReminderText string `json:"reminderText"`
}

// ParseText handles POST /api/ai/parse-text. The seed is returned for the
// user to review; nothing is persisted.
func (h *Handler) ParseText(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.currentUserID(w, r); !ok {
		return
	}

	var req ParseTextRequest
	if !decodeBody(w, r, &req) {
		return
	}

	seed, err := h.assistant.ExtractInvoice(r.Context(), req.Text)
	if err != nil {
		if apperr.Is(err, apperr.AIContent) {
			h.logger.Info("text rejected as non-invoice", zap.Int("length", len(req.Text)))
		}
		h.sendError(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "", seed)
}

// GenerateReminder handles POST /api/ai/generate-reminder
func (h *Handler) GenerateReminder(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	var req ReminderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	id, err := parseInvoiceID(req.InvoiceID)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	inv, err := h.store.GetInvoice(r.Context(), userID, id)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	text, err := h.assistant.DraftReminder(r.Context(), inv)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, ReminderResponse{
		Success:      true,
		Message:      "Reminder generated",
		ReminderText: text,
	})
}

// DashboardSummary handles GET /api/ai/dashboard-summary
func (h *Handler) DashboardSummary(w http.ResponseWriter, r *http.Request) {
	stats, ok := h.dashboardStats(w, r)
	if !ok {
		return
	}

	insights, err := h.assistant.SummarizeDashboard(r.Context(), stats)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "", map[string][]string{"insights": insights})
}

// SendReminder handles POST /api/invoices/{id}/send-reminder. Without a
// reminderText in the body the email is drafted first.
func (h *Handler) SendReminder(w http.ResponseWriter, r *http.Request) {
	if h.mailer == nil {
		respond.Fail(w, http.StatusServiceUnavailable, "Email delivery is not configured")
		return
	}

	inv, ok := h.loadInvoice(w, r)
	if !ok {
		return
	}

	// The body is optional
	var req SendReminderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodySize)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	to := strings.TrimSpace(inv.BillTo.Email)
	if to == "" {
		respond.Fail(w, http.StatusBadRequest, "Client email is required to send a reminder")
		return
	}

	text := strings.TrimSpace(req.ReminderText)
	if text == "" {
		drafted, err := h.assistant.DraftReminder(r.Context(), inv)
		if err != nil {
			h.sendError(w, r, err)
			return
		}
		text = drafted
	}

	subject, body := ai.SplitSubject(text, fmt.Sprintf("Payment reminder for invoice %s", inv.InvoiceNumber))
	if err := h.mailer.Send(r.Context(), to, subject, body); err != nil {
		h.sendError(w, r, apperr.Wrap(apperr.Unavailable, "Failed to send reminder email", err))
		return
	}

	h.logger.Info("reminder sent",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("to", to),
	)
	respond.JSON(w, http.StatusOK, ReminderResponse{
		Success:      true,
		Message:      "Reminder sent",
		ReminderText: text,
	})
}
