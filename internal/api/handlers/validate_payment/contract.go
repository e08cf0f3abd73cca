package validate_payment

import (
	"context"

	"github.com/aledhemtek/BillingService/internal/domain"
)

type PaymentService interface {
	Validate(ctx context.Context, paymentID int64, approved bool, notes *string) (*domain.Payment, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
