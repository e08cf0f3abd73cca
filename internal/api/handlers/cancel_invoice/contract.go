package cancel_invoice

import (
	"context"

	"github.com/aledhemtek/BillingService/internal/domain"
)

type InvoiceService interface {
	Cancel(ctx context.Context, id int64) (*domain.Invoice, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
