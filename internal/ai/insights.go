package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/facturaIA/invoice-ai-service/internal/apperr"
	"github.com/facturaIA/invoice-ai-service/internal/models"
)

// NoDataInsight is returned without calling the model when there are no invoices
const NoDataInsight = "No invoice data available to generate insights."

// SummarizeDashboard asks the model for two or three short insights about
// the user's invoices.
func (a *Assistant) SummarizeDashboard(ctx context.Context, stats models.DashboardStats) ([]string, error) {
	if stats.TotalInvoices == 0 {
		return []string{NoDataInsight}, nil
	}

	response, err := a.generate(ctx, "dashboard-summary", Request{
		Prompt: a.buildInsightsPrompt(stats),
		Format: FormatInsights,
	})
	if err != nil {
		return nil, err
	}

	return ParseInsights(response)
}

func (a *Assistant) buildInsightsPrompt(stats models.DashboardStats) string {
	recent := make([]string, 0, len(stats.Recent))
	for _, inv := range stats.Recent {
		recent = append(recent, fmt.Sprintf("Invoice %s for %s%s with status %s",
			inv.InvoiceNumber, a.currency, inv.Total.StringFixed(2), inv.Status))
	}

	return fmt.Sprintf(`You are a friendly and insightful financial analyst for a small business owner.
Based on the following summary of their invoice data, provide 2-3 concise and actionable insights.
Each insight should be a short string in a JSON array.
The insights should be encouraging and helpful. Do not just repeat the data.
For example, if there is a high outstanding amount, suggest sending reminders. If revenue is high, be encouraging.

Data Summary:
- Total number of invoices: %d
- Total paid invoices: %d
- Total unpaid/pending invoices: %d
- Total revenue from paid invoices: %s
- Total outstanding amount from unpaid/pending invoices: %s
- Recent invoices (last %d): %s

Return your response as a valid JSON object with a single key "insights" which is an array of strings.
Example format: {"insights": ["Your revenue is looking strong this month!", "You have 5 overdue invoices. Consider sending reminders to get paid faster."]}`,
		stats.TotalInvoices,
		stats.PaidCount,
		stats.UnpaidCount,
		stats.Revenue.StringFixed(2),
		stats.Outstanding.StringFixed(2),
		len(stats.Recent),
		strings.Join(recent, ", "),
	)
}

// ParseInsights requires {"insights": [...]} with at least one non-empty string
func ParseInsights(response string) ([]string, error) {
	raw, err := decodeObject(response)
	if err != nil {
		return nil, err
	}

	list, ok := raw["insights"].([]interface{})
	if !ok {
		return nil, apperr.New(apperr.AIMalformed, "AI response did not contain insights")
	}

	insights := make([]string, 0, len(list))
	for _, v := range list {
		if s := stringValue(v); s != "" {
			insights = append(insights, s)
		}
	}
	if len(insights) == 0 {
		return nil, apperr.New(apperr.AIMalformed, "AI response did not contain insights")
	}
	return insights, nil
}
