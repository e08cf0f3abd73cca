package generate_invoice

import (
	"context"
	"time"

	"github.com/aledhemtek/BillingService/internal/domain"
)

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
}

// TaskRepository интерфейс репозитория задач каталога
type TaskRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Task, error)
}

// InvoiceService интерфейс сервиса счетов
type InvoiceService interface {
	Create(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error)
	GetByReservation(ctx context.Context, reservationID int64) (*domain.Invoice, error)
}

// PricingResolver интерфейс вычисления действующей цены задачи
type PricingResolver interface {
	ResolveUnitPrice(task *domain.Task, at time.Time) float64
}

// Renderer интерфейс генератора документа счёта
type Renderer interface {
	Render(inv *domain.Invoice) ([]byte, error)
}

// Notifier интерфейс отправки счёта клиенту
type Notifier interface {
	SendInvoice(ctx context.Context, inv *domain.Invoice, document []byte) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics интерфейс счётчиков выставления счетов
type Metrics interface {
	IncInvoiceGenerated(auto bool)
	IncDuplicateSuppressed()
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
