package send_invoice

import (
	"context"

	"github.com/aledhemtek/BillingService/internal/domain"
)

type InvoiceService interface {
	MarkSent(ctx context.Context, id int64) (*domain.Invoice, error)
}

// Renderer интерфейс генератора документа счёта
type Renderer interface {
	Render(inv *domain.Invoice) ([]byte, error)
}

// Notifier интерфейс отправки счёта клиенту
type Notifier interface {
	SendInvoice(ctx context.Context, inv *domain.Invoice, document []byte) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
