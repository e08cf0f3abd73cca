package models

import (
	"github.com/aledhemtek/BillingService/internal/domain"
)

// Response модели

// InvoiceResponse счёт с позициями и платежами
type InvoiceResponse struct {
	ID              int64                 `json:"id"`
	InvoiceNumber   string                `json:"invoiceNumber"`
	ReservationID   *int64                `json:"reservationId,omitempty"`
	ClientID        int64                 `json:"clientId"`
	IssueDate       string                `json:"issueDate"`
	DueDate         string                `json:"dueDate"`
	Status          string                `json:"status"`
	Items           []InvoiceItemResponse `json:"items"`
	Payments        []PaymentResponse     `json:"payments"`
	AmountExclTax   float64               `json:"amountExclTax"`
	TaxAmount       float64               `json:"taxAmount"`
	TotalAmount     float64               `json:"totalAmount"`
	RemainingAmount float64               `json:"remainingAmount"`
	ReminderCount   int                   `json:"reminderCount"`
	AutoGenerated   bool                  `json:"autoGenerated"`
}

// InvoiceItemResponse позиция счёта
type InvoiceItemResponse struct {
	ID          int64   `json:"id"`
	TaskID      *int64  `json:"taskId,omitempty"`
	Designation string  `json:"designation"`
	Description *string `json:"description,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Total       float64 `json:"total"`
	TaxRate     float64 `json:"taxRate"`
}

// PaymentResponse платёж по счёту
type PaymentResponse struct {
	ID               int64   `json:"id"`
	PaymentReference string  `json:"paymentReference"`
	InvoiceID        int64   `json:"invoiceId"`
	Amount           float64 `json:"amount"`
	Method           string  `json:"method"`
	Status           string  `json:"status"`
	TransactionID    *string `json:"transactionId,omitempty"`
	Notes            *string `json:"notes,omitempty"`
	PaymentDate      string  `json:"paymentDate"`
}

// FromDomainInvoice конвертирует domain счёт в response модель
func FromDomainInvoice(inv *domain.Invoice) *InvoiceResponse {
	items := make([]InvoiceItemResponse, 0, len(inv.Items))
	for i := range inv.Items {
		item := &inv.Items[i]
		items = append(items, InvoiceItemResponse{
			ID:          item.ID,
			TaskID:      item.TaskID,
			Designation: item.Designation,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Total:       item.Total,
			TaxRate:     item.TaxRate,
		})
	}

	payments := make([]PaymentResponse, 0, len(inv.Payments))
	for i := range inv.Payments {
		payments = append(payments, FromDomainPayment(&inv.Payments[i]))
	}

	return &InvoiceResponse{
		ID:              inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		ReservationID:   inv.ReservationID,
		ClientID:        inv.ClientID,
		IssueDate:       inv.IssueDate.Format(domain.DateFormat),
		DueDate:         inv.DueDate.Format(domain.DateFormat),
		Status:          string(inv.Status),
		Items:           items,
		Payments:        payments,
		AmountExclTax:   inv.AmountExclTax,
		TaxAmount:       inv.TaxAmount,
		TotalAmount:     inv.TotalAmount,
		RemainingAmount: inv.RemainingAmount(),
		ReminderCount:   inv.ReminderCount,
		AutoGenerated:   inv.AutoGenerated,
	}
}

// FromDomainPayment конвертирует domain платёж в response модель
func FromDomainPayment(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:               p.ID,
		PaymentReference: p.PaymentReference,
		InvoiceID:        p.InvoiceID,
		Amount:           p.Amount,
		Method:           string(p.Method),
		Status:           string(p.Status),
		TransactionID:    p.TransactionID,
		Notes:            p.Notes,
		PaymentDate:      p.PaymentDate.Format(domain.DateFormat),
	}
}
