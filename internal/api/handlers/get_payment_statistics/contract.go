package get_payment_statistics

import (
	"context"

	paymentSvc "github.com/aledhemtek/BillingService/internal/service/payments"
)

type PaymentService interface {
	GetStatistics(ctx context.Context) (*paymentSvc.Statistics, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
