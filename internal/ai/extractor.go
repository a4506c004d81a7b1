package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/facturaIA/invoice-ai-service/internal/apperr"
	"github.com/facturaIA/invoice-ai-service/internal/models"
	"github.com/facturaIA/invoice-ai-service/internal/services"
)

// MaxTextLength caps the free text accepted for extraction, in characters
const MaxTextLength = 10000

// NotInvoiceMessage is returned when the text does not describe an invoice
const NotInvoiceMessage = "Text is not a valid invoice or lacks sufficient information."

// ExtractInvoice turns free text into an invoice seed. Non-invoice text is
// rejected with an AIContent error; unparseable output is AIMalformed.
func (a *Assistant) ExtractInvoice(ctx context.Context, text string) (*models.InvoiceSeed, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validationf("Valid 'text' is required in request body.")
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return nil, apperr.Validationf("Text must be at most %d characters.", MaxTextLength)
	}

	response, err := a.generate(ctx, "parse-text", Request{
		Prompt: buildExtractionPrompt(text),
		Format: FormatInvoiceSeed,
	})
	if err != nil {
		return nil, err
	}

	return ParseInvoiceSeed(response)
}

func buildExtractionPrompt(text string) string {
	return fmt.Sprintf(`You are an expert invoice data extraction AI.
Analyze the provided text and determine if it contains invoice-related information.
If the text clearly describes an invoice (mentions things like "invoice", "client",
"amount", "item", "hours", "rate", "bill to", etc.), extract the data and return
a valid JSON object with this structure:

{
  "clientName": "string",
  "email": "string (if available)",
  "address": "string (if available)",
  "items": [
    {"name": "string", "quantity": number, "unitPrice": number}
  ]
}

If the text is NOT invoice-related (greetings, random text, jokes or other
irrelevant content), return exactly:

{"error": "Input text does not contain invoice-related information."}

Here is the text to parse:
--- TEXT START ---
%s
--- TEXT END ---
Return only the JSON object.`, text)
}

// ParseInvoiceSeed validates a raw model reply. The object is rejected when it
// carries an error key, has no client name, or has no usable items.
func ParseInvoiceSeed(response string) (*models.InvoiceSeed, error) {
	raw, err := decodeObject(response)
	if err != nil {
		return nil, err
	}

	if e, ok := raw["error"]; ok && e != nil && e != "" {
		return nil, apperr.Wrap(apperr.AIContent, NotInvoiceMessage, fmt.Errorf("model declined: %v", e))
	}

	seed := &models.InvoiceSeed{
		ClientName: stringValue(raw["clientName"]),
		Email:      stringValue(raw["email"]),
		Address:    stringValue(raw["address"]),
	}
	if seed.ClientName == "" {
		return nil, apperr.New(apperr.AIContent, NotInvoiceMessage)
	}

	rawItems, _ := raw["items"].([]interface{})
	for _, ri := range rawItems {
		obj, ok := ri.(map[string]interface{})
		if !ok {
			continue
		}
		item := models.SeedItem{
			Name:      stringValue(obj["name"]),
			Quantity:  parseDecimal(obj["quantity"]),
			UnitPrice: parseDecimal(obj["unitPrice"]),
		}
		if item.Name == "" || item.Quantity.IsNegative() || item.UnitPrice.IsNegative() {
			continue
		}
		if !services.WithinLimits(item.Quantity, services.MaxAmountScale, services.MaxQuantity) ||
			!services.WithinLimits(item.UnitPrice, services.MaxAmountScale, services.MaxUnitPrice) {
			continue
		}
		if item.Quantity.IsZero() {
			item.Quantity = decimal.NewFromInt(1)
		}
		seed.Items = append(seed.Items, item)
	}
	if len(seed.Items) == 0 {
		return nil, apperr.New(apperr.AIContent, NotInvoiceMessage)
	}

	return seed, nil
}

// decodeObject strips markdown fences and decodes a JSON object, keeping
// numbers as json.Number.
func decodeObject(response string) (map[string]interface{}, error) {
	cleaned := cleanJSON(response)
	if cleaned == "" {
		return nil, apperr.New(apperr.AIMalformed, "AI returned an empty response")
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(cleaned)))
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, apperr.Wrap(apperr.AIMalformed, "Failed to parse AI response", err)
	}
	if raw == nil {
		return nil, apperr.New(apperr.AIMalformed, "Failed to parse AI response")
	}
	return raw, nil
}

// cleanJSON removes markdown code fences if present
func cleanJSON(response string) string {
	cleaned := strings.TrimSpace(response)
	backticks := string([]byte{96, 96, 96})
	cleaned = strings.ReplaceAll(cleaned, backticks+"json", "")
	cleaned = strings.ReplaceAll(cleaned, backticks+"JSON", "")
	cleaned = strings.ReplaceAll(cleaned, backticks, "")
	return strings.TrimSpace(cleaned)
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	default:
		return ""
	}
}

// parseDecimal handles flexible number parsing from interface{}
// Supports: numbers, strings, strings with commas or a currency sign (e.g., "₹3,965.34")
func parseDecimal(v interface{}) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}

	switch val := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	case float64:
		return decimal.NewFromFloat(val)
	case string:
		cleaned := strings.TrimSpace(val)
		cleaned = strings.TrimLeft(cleaned, "$₹€£ ")
		cleaned = strings.ReplaceAll(cleaned, ",", "")
		if cleaned == "" {
			return decimal.Zero
		}
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}
