package generate_invoice

import "github.com/aledhemtek/BillingService/internal/domain"

// Result итог выставления счёта. Побочные эффекты (документ, уведомление)
// фиксируются отдельными флагами: счёт остаётся действительным, даже если
// клиент не был уведомлён.
type Result struct {
	Invoice *domain.Invoice

	// AlreadyExisted счёт по бронированию уже существовал, новый не создан
	AlreadyExisted bool

	// Rendered документ счёта сгенерирован
	Rendered bool
	// Notified счёт отправлен клиенту
	Notified bool

	// RenderErr и NotifyErr ошибки побочных эффектов, проглоченные use case
	RenderErr error
	NotifyErr error
}
