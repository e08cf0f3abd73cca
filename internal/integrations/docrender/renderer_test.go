package docrender

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledhemtek/BillingService/internal/domain"
)

func TestRender(t *testing.T) {
	r := NewRenderer()
	inv := &domain.Invoice{
		InvoiceNumber: "INV-202507-000001",
		IssueDate:     time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC),
		Status:        domain.InvoicePending,
		Items: []domain.InvoiceItem{
			{Designation: "Nettoyage", Quantity: 2, UnitPrice: 50.0, TaxRate: 20.0},
		},
	}
	inv.CalculateAmounts()

	document, err := r.Render(inv)
	require.NoError(t, err)

	html := string(document)
	assert.Contains(t, html, "INV-202507-000001")
	assert.Contains(t, html, "Nettoyage")
	assert.Contains(t, html, "2025-07-31")
	assert.Contains(t, html, "100.00")
}

func TestRender_NilInvoice(t *testing.T) {
	r := NewRenderer()

	_, err := r.Render(nil)
	assert.ErrorIs(t, err, ErrRenderFailed)
}
