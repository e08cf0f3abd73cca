package get_invoice

import (
	"context"

	"github.com/aledhemtek/BillingService/internal/domain"
)

type InvoiceService interface {
	GetByID(ctx context.Context, id int64) (*domain.Invoice, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
