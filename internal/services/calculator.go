package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/facturaIA/invoice-ai-service/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Limits on line item amounts. Exponents are checked before any comparison
// or arithmetic, since rescaling a decimal like 1e30000000 never finishes.
const (
	MaxAmountScale  = 6
	MaxTaxScale     = 4
	maxAmountDigits = 12
)

var (
	MaxQuantity  = decimal.New(1, 9)
	MaxUnitPrice = decimal.New(1, 12)
)

// WithinLimits reports whether d has at most scale decimal places and an
// absolute value no larger than max.
func WithinLimits(d decimal.Decimal, scale int32, max decimal.Decimal) bool {
	if d.IsZero() {
		return true
	}
	if d.Exponent() < -scale || d.Exponent() > maxAmountDigits {
		return false
	}
	return d.Abs().LessThanOrEqual(max)
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// ValidationErrors collects every problem found in one pass
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return strings.Join(parts, "; ")
}

// Totals holds the amounts derived from a list of line items
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	TaxTotal decimal.Decimal `json:"taxTotal"`
	Total    decimal.Decimal `json:"total"`
}

// LineNet returns quantity × unitPrice
func LineNet(item models.LineItem) decimal.Decimal {
	return item.Quantity.Mul(item.UnitPrice)
}

// LineTax returns quantity × unitPrice × taxPercent / 100
func LineTax(item models.LineItem) decimal.Decimal {
	return LineNet(item).Mul(item.TaxPercent).Div(hundred)
}

// LineTotal returns the tax-inclusive amount of one item
func LineTotal(item models.LineItem) decimal.Decimal {
	return LineNet(item).Add(LineTax(item))
}

// ComputeTotals derives subtotal, tax and total from items. Any totals
// carried on the items are ignored.
func ComputeTotals(items []models.LineItem) Totals {
	subtotal := decimal.Zero
	taxTotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(LineNet(item))
		taxTotal = taxTotal.Add(LineTax(item))
	}
	return Totals{
		Subtotal: subtotal,
		TaxTotal: taxTotal,
		Total:    subtotal.Add(taxTotal),
	}
}

// PriceItems returns a copy of items with each Total recomputed
func PriceItems(items []models.LineItem) []models.LineItem {
	priced := make([]models.LineItem, len(items))
	for i, item := range items {
		item.Name = strings.TrimSpace(item.Name)
		item.Total = LineTotal(item)
		priced[i] = item
	}
	return priced
}

// ValidateItems checks quantity > 0, unitPrice >= 0 and 0 <= taxPercent <= 100,
// and keeps every amount within the size limits above.
func ValidateItems(items []models.LineItem) ValidationErrors {
	var errs ValidationErrors

	if len(items) == 0 {
		return append(errs, ValidationError{
			Field:   "items",
			Code:    "items_required",
			Message: "at least one item is required",
		})
	}

	for i, item := range items {
		prefix := fmt.Sprintf("items[%d]", i)

		if strings.TrimSpace(item.Name) == "" {
			errs = append(errs, ValidationError{
				Field:   prefix + ".name",
				Code:    "name_required",
				Message: "name is required",
			})
		}

		switch {
		case !item.Quantity.IsPositive():
			errs = append(errs, ValidationError{
				Field:   prefix + ".quantity",
				Code:    "quantity_not_positive",
				Message: "quantity must be greater than 0",
			})
		case !WithinLimits(item.Quantity, MaxAmountScale, MaxQuantity):
			errs = append(errs, ValidationError{
				Field:   prefix + ".quantity",
				Code:    "quantity_out_of_range",
				Message: fmt.Sprintf("quantity must be at most %s with up to %d decimal places", MaxQuantity, MaxAmountScale),
			})
		}

		switch {
		case item.UnitPrice.IsNegative():
			errs = append(errs, ValidationError{
				Field:   prefix + ".unitPrice",
				Code:    "unit_price_negative",
				Message: "unitPrice must not be negative",
			})
		case !WithinLimits(item.UnitPrice, MaxAmountScale, MaxUnitPrice):
			errs = append(errs, ValidationError{
				Field:   prefix + ".unitPrice",
				Code:    "unit_price_out_of_range",
				Message: fmt.Sprintf("unitPrice must be at most %s with up to %d decimal places", MaxUnitPrice, MaxAmountScale),
			})
		}

		if item.TaxPercent.IsNegative() || !WithinLimits(item.TaxPercent, MaxTaxScale, hundred) {
			errs = append(errs, ValidationError{
				Field:   prefix + ".taxPercent",
				Code:    "tax_percent_out_of_range",
				Message: fmt.Sprintf("taxPercent must be between 0 and 100 with up to %d decimal places", MaxTaxScale),
			})
		}
	}

	return errs
}
