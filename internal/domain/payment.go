package domain

import "time"

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodCreditCard   PaymentMethod = "credit_card"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCheck        PaymentMethod = "check"
	MethodPayPal       PaymentMethod = "paypal"
	MethodStripe       PaymentMethod = "stripe"
	MethodOther        PaymentMethod = "other"
)

// PaymentStatus represents the status of a payment attempt
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentValidated  PaymentStatus = "validated"
	PaymentFailed     PaymentStatus = "failed"
	PaymentCancelled  PaymentStatus = "cancelled"
	PaymentRefunded   PaymentStatus = "refunded"
)

// Payment represents a single payment attempt against an invoice.
// После создания меняются только статус и заметки.
type Payment struct {
	ID               int64
	PaymentReference string
	InvoiceID        int64
	Amount           float64
	Method           PaymentMethod
	Status           PaymentStatus
	TransactionID    *string
	Notes            *string
	PaymentDate      time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsValidated returns true if the payment has been confirmed as received
func (p *Payment) IsValidated() bool {
	return p.Status == PaymentValidated
}

// AwaitsValidation returns true if the payment needs manual admin action
func (p *Payment) AwaitsValidation() bool {
	return p.Status == PaymentPending
}

// RequiresManualValidation сообщает, требует ли способ оплаты ручного подтверждения.
// Банковские переводы, чеки и прочие офлайн-способы подтверждает админ.
func (m PaymentMethod) RequiresManualValidation() bool {
	switch m {
	case MethodBankTransfer, MethodCheck, MethodOther:
		return true
	}
	return false
}

// ValidPaymentMethod проверяет, что строка является известным способом оплаты
func ValidPaymentMethod(s string) bool {
	switch PaymentMethod(s) {
	case MethodCash, MethodCreditCard, MethodBankTransfer, MethodCheck,
		MethodPayPal, MethodStripe, MethodOther:
		return true
	}
	return false
}
