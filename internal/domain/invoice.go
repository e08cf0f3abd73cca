package domain

import "time"

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "pending"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// invoiceTransitions допустимые переходы статусов счёта.
// paid и cancelled — терминальные состояния.
var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoicePending:   {InvoiceSent, InvoicePaid, InvoiceOverdue, InvoiceCancelled},
	InvoiceSent:      {InvoicePaid, InvoiceOverdue, InvoiceCancelled},
	InvoiceOverdue:   {InvoicePaid, InvoiceCancelled},
	InvoicePaid:      {},
	InvoiceCancelled: {},
}

// Invoice represents a client invoice with its line items and payments
type Invoice struct {
	ID            int64
	InvoiceNumber string
	ReservationID *int64
	ClientID      int64
	IssueDate     time.Time
	DueDate       time.Time
	Status        InvoiceStatus

	Items    []InvoiceItem
	Payments []Payment

	AmountExclTax float64
	TaxAmount     float64
	TotalAmount   float64

	ReminderCount int
	AutoGenerated bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// InvoiceItem строка счёта; Total всегда пересчитывается из quantity × unitPrice
type InvoiceItem struct {
	ID          int64
	InvoiceID   int64
	TaskID      *int64
	Designation string
	Description *string
	Quantity    int
	UnitPrice   float64
	Total       float64
	TaxRate     float64
}

// CalculateTotal recomputes the line total from quantity and unit price
func (i *InvoiceItem) CalculateTotal() float64 {
	i.Total = float64(i.Quantity) * i.UnitPrice
	return i.Total
}

// AmountExclTax returns the tax-exclusive part of the line total
func (i *InvoiceItem) AmountExclTax() float64 {
	return i.Total / (1 + i.TaxRate/100)
}

// TaxAmount returns the tax part of the line total
func (i *InvoiceItem) TaxAmount() float64 {
	return i.Total - i.AmountExclTax()
}

// CalculateAmounts recomputes all aggregate amounts from the current items.
// The tax-exclusive amount is distributed per item tax rate; the tax amount
// is the remainder, so totalAmount == amountExclTax + taxAmount always holds.
func (inv *Invoice) CalculateAmounts() {
	total := 0.0
	exclTax := 0.0
	for i := range inv.Items {
		inv.Items[i].CalculateTotal()
		total += inv.Items[i].Total
		exclTax += inv.Items[i].AmountExclTax()
	}
	inv.TotalAmount = total
	inv.AmountExclTax = exclTax
	inv.TaxAmount = total - exclTax
}

// TotalValidated returns the sum of validated payment amounts
func (inv *Invoice) TotalValidated() float64 {
	sum := 0.0
	for i := range inv.Payments {
		if inv.Payments[i].Status == PaymentValidated {
			sum += inv.Payments[i].Amount
		}
	}
	return sum
}

// RemainingAmount returns the amount still owed on the invoice
func (inv *Invoice) RemainingAmount() float64 {
	remaining := inv.TotalAmount - inv.TotalValidated()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsPaid returns true once validated payments cover the total amount
func (inv *Invoice) IsPaid() bool {
	return inv.TotalValidated() >= inv.TotalAmount
}

// IsOverdue returns true if the due date has passed and the invoice is still collectible
func (inv *Invoice) IsOverdue(now time.Time) bool {
	return now.After(inv.DueDate) &&
		inv.Status != InvoicePaid &&
		inv.Status != InvoiceCancelled
}

// ShouldSendReminder returns true if an overdue reminder may still be sent
func (inv *Invoice) ShouldSendReminder(now time.Time, ceiling int) bool {
	return inv.IsOverdue(now) && inv.ReminderCount < ceiling
}

// CanTransitionTo returns true if the status change is allowed
func (inv *Invoice) CanTransitionTo(target InvoiceStatus) bool {
	for _, s := range invoiceTransitions[inv.Status] {
		if s == target {
			return true
		}
	}
	return false
}
