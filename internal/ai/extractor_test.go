package ai

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturaIA/invoice-ai-service/internal/apperr"
)

func newTestAssistant(p Provider) *Assistant {
	return NewAssistant(p, Options{Timeout: 200 * time.Millisecond, Retries: 1}, nil)
}

func TestExtractInvoiceAccepted(t *testing.T) {
	fence := string([]byte{96, 96, 96})
	p := &scriptedProvider{replies: []reply{{
		text: fence + "json\n" + `{"clientName": "Acme Corp", "items": [{"name": "design", "quantity": 2, "unitPrice": 150}]}` + "\n" + fence,
	}}}

	seed, err := newTestAssistant(p).ExtractInvoice(context.Background(), "Invoice for Acme Corp: 2 hours design at $150/hr")
	require.NoError(t, err)

	assert.Equal(t, "Acme Corp", seed.ClientName)
	require.Len(t, seed.Items, 1)
	assert.Equal(t, "design", seed.Items[0].Name)
	assert.True(t, decimal.NewFromInt(2).Equal(seed.Items[0].Quantity))
	assert.True(t, decimal.NewFromInt(150).Equal(seed.Items[0].UnitPrice))

	require.Len(t, p.requests, 1)
	assert.Equal(t, FormatInvoiceSeed, p.requests[0].Format)
	assert.Contains(t, p.requests[0].Prompt, "Invoice for Acme Corp")
}

func TestExtractInvoiceRejectsSmallTalk(t *testing.T) {
	p := &scriptedProvider{replies: []reply{{
		text: `{"error": "Input text does not contain invoice-related information."}`,
	}}}

	_, err := newTestAssistant(p).ExtractInvoice(context.Background(), "hello, how are you")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.AIContent))
	assert.Equal(t, 400, apperr.HTTPStatus(err))
	assert.Equal(t, NotInvoiceMessage, apperr.Message(err))
}

func TestExtractInvoiceInputValidation(t *testing.T) {
	p := &scriptedProvider{}
	a := newTestAssistant(p)

	_, err := a.ExtractInvoice(context.Background(), "   ")
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = a.ExtractInvoice(context.Background(), strings.Repeat("x", MaxTextLength+1))
	assert.True(t, apperr.Is(err, apperr.Validation))

	assert.Zero(t, p.calls())
}

func TestParseInvoiceSeed(t *testing.T) {
	tests := []struct {
		name     string
		response string
		kind     apperr.Kind
		items    int
	}{
		{name: "valid", response: `{"clientName":"Acme","items":[{"name":"a","quantity":1,"unitPrice":5}]}`, items: 1},
		{name: "error key with data", response: `{"error":"nope","clientName":"Acme","items":[{"name":"a","quantity":1,"unitPrice":5}]}`, kind: apperr.AIContent},
		{name: "null error key", response: `{"error":null,"clientName":"Acme","items":[{"name":"a","quantity":1,"unitPrice":5}]}`, items: 1},
		{name: "missing client", response: `{"items":[{"name":"a","quantity":1,"unitPrice":5}]}`, kind: apperr.AIContent},
		{name: "blank client", response: `{"clientName":"  ","items":[{"name":"a","quantity":1,"unitPrice":5}]}`, kind: apperr.AIContent},
		{name: "missing items", response: `{"clientName":"Acme"}`, kind: apperr.AIContent},
		{name: "items not array", response: `{"clientName":"Acme","items":"two hours"}`, kind: apperr.AIContent},
		{name: "empty items", response: `{"clientName":"Acme","items":[]}`, kind: apperr.AIContent},
		{name: "only nameless items", response: `{"clientName":"Acme","items":[{"name":"","quantity":1,"unitPrice":5}]}`, kind: apperr.AIContent},
		{name: "negative items dropped", response: `{"clientName":"Acme","items":[{"name":"a","quantity":-1,"unitPrice":5},{"name":"b","quantity":1,"unitPrice":5}]}`, items: 1},
		{name: "not json", response: `Sure! Here is your invoice.`, kind: apperr.AIMalformed},
		{name: "json array", response: `[{"clientName":"Acme"}]`, kind: apperr.AIMalformed},
		{name: "null", response: `null`, kind: apperr.AIMalformed},
		{name: "empty", response: "  ", kind: apperr.AIMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed, err := ParseInvoiceSeed(tt.response)
			if tt.items > 0 {
				require.NoError(t, err)
				assert.Len(t, seed.Items, tt.items)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestParseInvoiceSeedNormalizesNumbers(t *testing.T) {
	seed, err := ParseInvoiceSeed(`{
		"clientName": " Globex ",
		"email": "ap@globex.test",
		"items": [
			{"name": "Audit", "quantity": "3", "unitPrice": "₹1,200.50"},
			{"name": "Retainer", "unitPrice": 99.99}
		]
	}`)
	require.NoError(t, err)

	assert.Equal(t, "Globex", seed.ClientName)
	assert.Equal(t, "ap@globex.test", seed.Email)
	require.Len(t, seed.Items, 2)
	assert.True(t, decimal.NewFromInt(3).Equal(seed.Items[0].Quantity))
	assert.Equal(t, "1200.5", seed.Items[0].UnitPrice.String())
	assert.True(t, decimal.NewFromInt(1).Equal(seed.Items[1].Quantity), "missing quantity defaults to 1")
	assert.Equal(t, "99.99", seed.Items[1].UnitPrice.String())
}

func TestParseInvoiceSeedDropsOversizedItems(t *testing.T) {
	seed, err := ParseInvoiceSeed(`{
		"clientName": "Globex",
		"items": [
			{"name": "Audit", "quantity": "1e2000000000", "unitPrice": 10},
			{"name": "Retainer", "quantity": 1, "unitPrice": "1e30000000"},
			{"name": "Hosting", "quantity": 2, "unitPrice": "49.99"}
		]
	}`)
	require.NoError(t, err)
	require.Len(t, seed.Items, 1)
	assert.Equal(t, "Hosting", seed.Items[0].Name)

	_, err = ParseInvoiceSeed(`{"clientName": "Globex", "items": [{"name": "Audit", "quantity": 1, "unitPrice": "0.0000001"}]}`)
	require.Error(t, err)
}

func TestCleanJSON(t *testing.T) {
	fence := string([]byte{96, 96, 96})
	assert.Equal(t, `{"a":1}`, cleanJSON(fence+"json\n{\"a\":1}\n"+fence))
	assert.Equal(t, `{"a":1}`, cleanJSON(fence+"\n{\"a\":1}"+fence+"\n"))
	assert.Equal(t, `{"a":1}`, cleanJSON(`  {"a":1}  `))
}
