package scheduler

import (
	"context"
	"time"

	"github.com/aledhemtek/BillingService/internal/domain"
	"github.com/aledhemtek/BillingService/internal/usecase/generate_invoice"
)

// InvoiceService интерфейс сервиса счетов для просроченной развёртки
type InvoiceService interface {
	ListOverdueUnpaid(ctx context.Context) ([]*domain.Invoice, error)
	MarkOverdue(ctx context.Context, id int64) (*domain.Invoice, error)
	RegisterReminder(ctx context.Context, id int64) error
}

// ReservationRepository интерфейс репозитория бронирований для
// развёртки автогенерации
type ReservationRepository interface {
	ListCompletedWithoutInvoice(ctx context.Context) ([]*domain.Reservation, error)
}

// BillingTrigger интерфейс запуска выставления счёта
type BillingTrigger interface {
	Execute(ctx context.Context, reservationID int64) (*generate_invoice.Result, error)
}

// Notifier интерфейс отправки напоминаний о просроченных счетах
type Notifier interface {
	SendReminder(ctx context.Context, inv *domain.Invoice) error
}

// Metrics интерфейс счётчиков развёрток
type Metrics interface {
	IncReminderSent()
	IncSweepError(sweep string)
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
