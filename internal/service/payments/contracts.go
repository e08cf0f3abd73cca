package payments

import (
	"context"
	"time"

	"github.com/aledhemtek/BillingService/internal/domain"
	paymentRepo "github.com/aledhemtek/BillingService/internal/infra/storage/payment"
)

// PaymentRepository интерфейс репозитория платежей
type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) (*domain.Payment, error)
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)
	UpdateStatus(ctx context.Context, id int64, status domain.PaymentStatus, notes *string) error
	ListPendingWithInvoice(ctx context.Context) ([]*paymentRepo.PendingPayment, error)
	CountByStatus(ctx context.Context) (map[domain.PaymentStatus]int64, error)
	SumAmountByStatus(ctx context.Context, status domain.PaymentStatus) (float64, error)
}

// InvoiceService интерфейс сервиса счетов: загрузка счёта и пересчёт
// его платёжного статуса
type InvoiceService interface {
	GetByID(ctx context.Context, id int64) (*domain.Invoice, error)
	RefreshPaymentStatus(ctx context.Context, id int64) (*domain.Invoice, error)
}

// Gateway интерфейс платёжного шлюза для онлайн-способов оплаты
type Gateway interface {
	Charge(ctx context.Context, p *domain.Payment) (transactionID string, approved bool)
}

// Notifier интерфейс для уведомления клиента о подтверждённой оплате
type Notifier interface {
	SendPaymentConfirmation(ctx context.Context, inv *domain.Invoice) error
}

// ReferenceGenerator интерфейс генератора референсов платежей
type ReferenceGenerator interface {
	Next(now time.Time) string
}

// Metrics интерфейс счётчиков платежей
type Metrics interface {
	IncPaymentRecorded(method, status string)
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
