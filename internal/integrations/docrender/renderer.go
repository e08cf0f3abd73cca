package docrender

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"

	"github.com/aledhemtek/BillingService/internal/domain"
)

// ErrRenderFailed возвращается при ошибке генерации документа
var ErrRenderFailed = errors.New("docrender: failed to render invoice document")

// Renderer генерирует HTML-документ счёта для отправки клиенту
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer создает рендерер с встроенным шаблоном счёта
func NewRenderer() *Renderer {
	return &Renderer{
		tmpl: template.Must(template.New("invoice").Parse(invoiceTemplate)),
	}
}

// Render генерирует документ счёта
func (r *Renderer) Render(inv *domain.Invoice) ([]byte, error) {
	if inv == nil {
		return nil, fmt.Errorf("%w: nil invoice", ErrRenderFailed)
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, newTemplateData(inv)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	return buf.Bytes(), nil
}

// templateData данные шаблона счёта
type templateData struct {
	Number        string
	IssueDate     string
	DueDate       string
	Status        string
	Items         []templateItem
	AmountExclTax string
	TaxAmount     string
	TotalAmount   string
}

type templateItem struct {
	Designation string
	Quantity    int
	UnitPrice   string
	Total       string
}

func newTemplateData(inv *domain.Invoice) templateData {
	data := templateData{
		Number:        inv.InvoiceNumber,
		IssueDate:     inv.IssueDate.Format(domain.DateFormat),
		DueDate:       inv.DueDate.Format(domain.DateFormat),
		Status:        string(inv.Status),
		AmountExclTax: formatAmount(inv.AmountExclTax),
		TaxAmount:     formatAmount(inv.TaxAmount),
		TotalAmount:   formatAmount(inv.TotalAmount),
	}

	for i := range inv.Items {
		item := &inv.Items[i]
		data.Items = append(data.Items, templateItem{
			Designation: item.Designation,
			Quantity:    item.Quantity,
			UnitPrice:   formatAmount(item.UnitPrice),
			Total:       formatAmount(item.Total),
		})
	}

	return data
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

const invoiceTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Facture {{.Number}}</title></head>
<body>
<h1>Facture {{.Number}}</h1>
<p>Date d'émission: {{.IssueDate}}<br>Date d'échéance: {{.DueDate}}<br>Statut: {{.Status}}</p>
<table border="1" cellspacing="0" cellpadding="4">
<tr><th>Désignation</th><th>Quantité</th><th>Prix unitaire</th><th>Total</th></tr>
{{range .Items}}<tr><td>{{.Designation}}</td><td>{{.Quantity}}</td><td>{{.UnitPrice}} €</td><td>{{.Total}} €</td></tr>
{{end}}</table>
<p>Montant HT: {{.AmountExclTax}} €<br>TVA: {{.TaxAmount}} €<br><strong>Total TTC: {{.TotalAmount}} €</strong></p>
</body>
</html>
`
