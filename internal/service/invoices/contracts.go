package invoices

import (
	"context"
	"time"

	"github.com/aledhemtek/BillingService/internal/domain"
)

// InvoiceRepository интерфейс репозитория счетов
type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error)
	GetByID(ctx context.Context, id int64) (*domain.Invoice, error)
	GetByReservationID(ctx context.Context, reservationID int64) (*domain.Invoice, error)
	Update(ctx context.Context, inv *domain.Invoice) error
	AddItem(ctx context.Context, item *domain.InvoiceItem) error
	RemoveItem(ctx context.Context, invoiceID, itemID int64) error
	ListOverdueUnpaid(ctx context.Context, now time.Time) ([]*domain.Invoice, error)
	ListByStatus(ctx context.Context, status domain.InvoiceStatus) ([]*domain.Invoice, error)
}

// NumberGenerator интерфейс генератора номеров счетов
type NumberGenerator interface {
	Next(now time.Time) string
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
