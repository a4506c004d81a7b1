package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/facturaIA/invoice-ai-service/internal/apperr"
	"github.com/facturaIA/invoice-ai-service/internal/models"
)

// DraftReminder writes a polite payment reminder for inv. The reply is free
// text starting with a "Subject:" line.
func (a *Assistant) DraftReminder(ctx context.Context, inv *models.Invoice) (string, error) {
	if inv == nil ||
		strings.TrimSpace(inv.BillTo.ClientName) == "" ||
		inv.DueDate.IsZero() ||
		inv.Total.IsZero() {
		return "", apperr.Validationf("Invoice data incomplete for generating reminder email.")
	}

	return a.generate(ctx, "generate-reminder", Request{
		Prompt: a.buildReminderPrompt(inv),
		Format: FormatText,
	})
}

func (a *Assistant) buildReminderPrompt(inv *models.Invoice) string {
	return fmt.Sprintf(`You are a professional and polite accounting assistant. Write a friendly reminder email to a client about an overdue or upcoming invoice payment.

Use the following details to personalize the email:
- Client name: %s
- Invoice Number: %s
- Amount due: %s%s
- Due date: %s

The tone should be friendly but clear. Keep it concise. Start the email with "Subject:"`,
		inv.BillTo.ClientName,
		inv.InvoiceNumber,
		a.currency, inv.Total.StringFixed(2),
		inv.DueDate.Format("January 2, 2006"),
	)
}

// SplitSubject separates a leading "Subject:" line from the body of a
// drafted email. fallback is used when no subject line is present.
func SplitSubject(email, fallback string) (subject, body string) {
	email = strings.TrimSpace(email)
	first, rest, _ := strings.Cut(email, "\n")
	line := strings.TrimSpace(strings.Trim(strings.TrimSpace(first), "*"))
	if len(line) >= len("subject:") && strings.EqualFold(line[:len("subject:")], "subject:") {
		subject = strings.Trim(line[len("subject:"):], "* ")
		if subject != "" {
			return subject, strings.TrimSpace(rest)
		}
	}
	return fallback, email
}
