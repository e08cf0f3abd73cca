package get_pending_payments

import (
	"context"

	paymentRepo "github.com/aledhemtek/BillingService/internal/infra/storage/payment"
)

type PaymentService interface {
	GetPendingPayments(ctx context.Context) ([]*paymentRepo.PendingPayment, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
