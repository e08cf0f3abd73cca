package record_payment

import (
	"context"

	"github.com/aledhemtek/BillingService/internal/domain"
)

type PaymentService interface {
	RecordPayment(ctx context.Context, invoiceID int64, amount float64, method domain.PaymentMethod, notes *string) (*domain.Payment, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
