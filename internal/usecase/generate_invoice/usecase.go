package generate_invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aledhemtek/BillingService/internal/domain"
	reservationRepo "github.com/aledhemtek/BillingService/internal/infra/storage/reservation"
	invoiceSvc "github.com/aledhemtek/BillingService/internal/service/invoices"
)

// UseCase use case автоматического выставления счёта по завершённому
// бронированию. Гарантирует не более одного счёта на бронирование:
// сначала проверка существования, затем уникальный индекс БД, нарушение
// которого трактуется как уже выставленный счёт.
type UseCase struct {
	reservationRepo   ReservationRepository
	taskRepo          TaskRepository
	invoiceSvc        InvoiceService
	pricing           PricingResolver
	renderer          Renderer
	notifier          Notifier
	txManager         TransactionManager
	metrics           Metrics
	timeProvider      TimeProvider
	logger            Logger
	serviceFeePercent float64
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	taskRepo TaskRepository,
	invoiceSvc InvoiceService,
	pricing PricingResolver,
	renderer Renderer,
	notifier Notifier,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
	serviceFeePercent float64,
) *UseCase {
	if serviceFeePercent <= 0 {
		serviceFeePercent = domain.DefaultServiceFeeRate * 100
	}
	return &UseCase{
		reservationRepo:   reservationRepo,
		taskRepo:          taskRepo,
		invoiceSvc:        invoiceSvc,
		pricing:           pricing,
		renderer:          renderer,
		notifier:          notifier,
		txManager:         txManager,
		metrics:           metrics,
		timeProvider:      &RealTimeProvider{},
		logger:            logger,
		serviceFeePercent: serviceFeePercent,
	}
}

// Execute выставляет счёт по завершённому бронированию.
// Создание счёта идёт в собственной транзакции; генерация документа и
// уведомление клиента выполняются после фиксации и её не откатывают.
func (uc *UseCase) Execute(ctx context.Context, reservationID int64) (*Result, error) {
	uc.logger.Info("GenerateInvoice: reservation=%d", reservationID)

	// 1. Загружаем бронирование
	reservation, err := uc.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			uc.logger.Warn("GenerateInvoice: reservation=%d not found", reservationID)
			return nil, ErrReservationNotFound
		}
		uc.logger.Error("GenerateInvoice: failed to load reservation=%d: %v", reservationID, err)
		return nil, fmt.Errorf("%w: failed to load reservation: %v", ErrInternal, err)
	}

	// 2. Счёт выставляется только по завершённому бронированию
	if reservation.Status != domain.ReservationCompleted {
		uc.logger.Warn("GenerateInvoice: reservation=%d has status %s", reservationID, reservation.Status)
		return nil, fmt.Errorf("%w: status is %s", ErrReservationNotCompleted, reservation.Status)
	}

	// 3. Проверка существования: повторный триггер по тому же
	// бронированию — штатная ситуация, а не ошибка
	existing, err := uc.invoiceSvc.GetByReservation(ctx, reservationID)
	if err == nil {
		uc.logger.Info("GenerateInvoice: invoice %s already exists for reservation=%d", existing.InvoiceNumber, reservationID)
		uc.metrics.IncDuplicateSuppressed()
		return &Result{Invoice: existing, AlreadyExisted: true}, nil
	}
	if !errors.Is(err, invoiceSvc.ErrInvoiceNotFound) {
		uc.logger.Error("GenerateInvoice: failed to check existing invoice for reservation=%d: %v", reservationID, err)
		return nil, fmt.Errorf("%w: failed to check existing invoice: %v", ErrInternal, err)
	}

	// 4. Строим позиции счёта из задач бронирования
	now := uc.timeProvider.Now()
	items := uc.buildItems(ctx, reservation, now)

	// 5. Сервисный сбор от суммы позиций
	subtotal := 0.0
	for i := range items {
		subtotal += float64(items[i].Quantity) * items[i].UnitPrice
	}
	if subtotal > 0 {
		items = append(items, domain.InvoiceItem{
			Designation: domain.ServiceFeeDesignation,
			Quantity:    1,
			UnitPrice:   subtotal * uc.serviceFeePercent / 100,
		})
	}

	// 6. Создаём счёт в собственной транзакции
	var created *domain.Invoice
	err = uc.txManager.Do(ctx, func(txCtx context.Context) error {
		created, err = uc.invoiceSvc.Create(txCtx, &domain.Invoice{
			ReservationID: &reservation.ID,
			ClientID:      reservation.ClientID,
			Items:         items,
			AutoGenerated: true,
		})
		return err
	})
	if err != nil {
		// Гонка с параллельным триггером: счёт уже создан кем-то другим
		if errors.Is(err, invoiceSvc.ErrDuplicateInvoice) {
			uc.logger.Info("GenerateInvoice: duplicate suppressed for reservation=%d", reservationID)
			uc.metrics.IncDuplicateSuppressed()
			existing, getErr := uc.invoiceSvc.GetByReservation(ctx, reservationID)
			if getErr != nil {
				return nil, fmt.Errorf("%w: failed to load existing invoice: %v", ErrInternal, getErr)
			}
			return &Result{Invoice: existing, AlreadyExisted: true}, nil
		}
		uc.logger.Error("GenerateInvoice: failed to create invoice for reservation=%d: %v", reservationID, err)
		return nil, fmt.Errorf("%w: failed to create invoice: %v", ErrInternal, err)
	}

	uc.metrics.IncInvoiceGenerated(true)
	uc.logger.Info("GenerateInvoice: invoice %s created for reservation=%d, total=%.2f",
		created.InvoiceNumber, reservationID, created.TotalAmount)

	// 7. Документ и уведомление: сбой не отменяет созданный счёт
	result := &Result{Invoice: created}
	document, err := uc.renderer.Render(created)
	if err != nil {
		uc.logger.Warn("GenerateInvoice: failed to render invoice %s: %v", created.InvoiceNumber, err)
		result.RenderErr = err
		return result, nil
	}
	result.Rendered = true

	if err := uc.notifier.SendInvoice(ctx, created, document); err != nil {
		uc.logger.Warn("GenerateInvoice: failed to send invoice %s: %v", created.InvoiceNumber, err)
		result.NotifyErr = err
		return result, nil
	}
	result.Notified = true

	return result, nil
}

// buildItems строит позиции счёта по задачам бронирования.
// Цена позиции: зафиксированная цена за единицу, иначе зафиксированный
// итог строки, иначе действующий тариф каталога. Если всё бронирование
// осталось без цен, выставляется одна строка на его общую сумму.
func (uc *UseCase) buildItems(ctx context.Context, reservation *domain.Reservation, at time.Time) []domain.InvoiceItem {
	items := make([]domain.InvoiceItem, 0, len(reservation.Tasks))
	for i := range reservation.Tasks {
		assoc := &reservation.Tasks[i]
		quantity := assoc.Quantity
		if quantity <= 0 {
			quantity = 1
		}

		unitPrice := 0.0
		switch {
		case assoc.UnitPrice != nil && *assoc.UnitPrice > 0:
			unitPrice = *assoc.UnitPrice
		case assoc.TotalPrice != nil && *assoc.TotalPrice > 0:
			unitPrice = *assoc.TotalPrice / float64(quantity)
		default:
			unitPrice = uc.resolveCatalogPrice(ctx, assoc.TaskID, at)
		}

		items = append(items, domain.InvoiceItem{
			TaskID:      &assoc.TaskID,
			Designation: assoc.TaskName,
			Quantity:    quantity,
			UnitPrice:   unitPrice,
		})
	}

	// Последний рубеж: у бронирования есть цена, а у его задач — нет
	subtotal := 0.0
	for i := range items {
		subtotal += float64(items[i].Quantity) * items[i].UnitPrice
	}
	if subtotal == 0 && reservation.TotalPrice > 0 {
		designation := reservation.Title
		if designation == "" {
			designation = "Prestation"
		}
		items = []domain.InvoiceItem{{
			Designation: designation,
			Quantity:    1,
			UnitPrice:   reservation.TotalPrice,
		}}
	}

	return items
}

// resolveCatalogPrice возвращает действующий тариф задачи каталога,
// 0 — если задача или тариф не найдены
func (uc *UseCase) resolveCatalogPrice(ctx context.Context, taskID int64, at time.Time) float64 {
	task, err := uc.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		uc.logger.Warn("GenerateInvoice: failed to load task=%d for pricing: %v", taskID, err)
		return 0
	}
	return uc.pricing.ResolveUnitPrice(task, at)
}
