package invoices

import (
	"context"
	"errors"
	"fmt"

	"github.com/aledhemtek/BillingService/internal/domain"
	invoiceRepo "github.com/aledhemtek/BillingService/internal/infra/storage/invoice"
)

// createRetries число повторных попыток вставки при коллизии номера счёта
const createRetries = 3

// Service сервис жизненного цикла счетов: создание, позиции, смена
// статусов и пересчёт сумм
type Service struct {
	invoiceRepo      InvoiceRepository
	numbers          NumberGenerator
	logger           Logger
	timeProvider     TimeProvider
	dueDateGraceDays int
	defaultTaxRate   float64
}

// NewService создает новый экземпляр сервиса счетов
func NewService(
	invoiceRepo InvoiceRepository,
	numbers NumberGenerator,
	logger Logger,
	dueDateGraceDays int,
	defaultTaxRate float64,
) *Service {
	if dueDateGraceDays <= 0 {
		dueDateGraceDays = domain.DefaultDueDateGraceDays
	}
	if defaultTaxRate <= 0 {
		defaultTaxRate = domain.DefaultTaxRate
	}
	return &Service{
		invoiceRepo:      invoiceRepo,
		numbers:          numbers,
		logger:           logger,
		timeProvider:     &RealTimeProvider{},
		dueDateGraceDays: dueDateGraceDays,
		defaultTaxRate:   defaultTaxRate,
	}
}

// Create создает счёт, заполняя номер, даты и статус значениями по умолчанию.
// Коллизия номера на уникальном индексе разрешается повторной генерацией;
// второй счёт по тому же бронированию не создается.
func (s *Service) Create(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error) {
	if inv.ClientID <= 0 {
		return nil, fmt.Errorf("%w: client id is required", ErrInvalidInput)
	}

	now := s.timeProvider.Now()
	if inv.IssueDate.IsZero() {
		inv.IssueDate = now
	}
	if inv.DueDate.IsZero() {
		inv.DueDate = inv.IssueDate.AddDate(0, 0, s.dueDateGraceDays)
	}
	if inv.Status == "" {
		inv.Status = domain.InvoicePending
	}
	for i := range inv.Items {
		if inv.Items[i].TaxRate == 0 {
			inv.Items[i].TaxRate = s.defaultTaxRate
		}
	}
	inv.CalculateAmounts()

	generated := inv.InvoiceNumber == ""
	for attempt := 0; attempt < createRetries; attempt++ {
		if generated {
			inv.InvoiceNumber = s.numbers.Next(now)
		}

		created, err := s.invoiceRepo.Create(ctx, inv)
		if err == nil {
			s.logger.Info("Create: invoice %s created, id=%d, total=%.2f", created.InvoiceNumber, created.ID, created.TotalAmount)
			return created, nil
		}
		if errors.Is(err, invoiceRepo.ErrDuplicateReservation) {
			s.logger.Warn("Create: invoice already exists for reservation=%v", inv.ReservationID)
			return nil, fmt.Errorf("%w: reservation=%v", ErrDuplicateInvoice, inv.ReservationID)
		}
		if errors.Is(err, invoiceRepo.ErrDuplicateNumber) && generated {
			s.logger.Warn("Create: invoice number %s collided, retrying", inv.InvoiceNumber)
			continue
		}
		s.logger.Error("Create: repository error: %v", err)
		return nil, fmt.Errorf("%w: Create - repository error: %v", ErrInternal, err)
	}

	return nil, fmt.Errorf("%w: Create - invoice number collision not resolved after %d attempts", ErrInternal, createRetries)
}

// GetByID получает счёт по ID вместе с позициями и платежами
func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, invoiceRepo.ErrInvoiceNotFound) {
			return nil, ErrInvoiceNotFound
		}
		s.logger.Error("GetByID: repository error for invoice id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}
	return inv, nil
}

// GetByReservation получает счёт, выставленный по бронированию
func (s *Service) GetByReservation(ctx context.Context, reservationID int64) (*domain.Invoice, error) {
	inv, err := s.invoiceRepo.GetByReservationID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, invoiceRepo.ErrInvoiceNotFound) {
			return nil, ErrInvoiceNotFound
		}
		s.logger.Error("GetByReservation: repository error for reservation=%d: %v", reservationID, err)
		return nil, fmt.Errorf("%w: GetByReservation - repository error: %v", ErrInternal, err)
	}
	return inv, nil
}

// AddItem добавляет позицию к счёту и пересчитывает суммы.
// Позиции оплаченного или отменённого счёта не изменяются.
func (s *Service) AddItem(ctx context.Context, invoiceID int64, item domain.InvoiceItem) (*domain.Invoice, error) {
	inv, err := s.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status == domain.InvoicePaid || inv.Status == domain.InvoiceCancelled {
		return nil, fmt.Errorf("%w: cannot modify items of %s invoice", ErrInvalidTransition, inv.Status)
	}
	if item.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	if item.Designation == "" {
		return nil, fmt.Errorf("%w: designation is required", ErrInvalidInput)
	}

	item.InvoiceID = invoiceID
	if item.TaxRate == 0 {
		item.TaxRate = s.defaultTaxRate
	}
	item.CalculateTotal()

	if err := s.invoiceRepo.AddItem(ctx, &item); err != nil {
		s.logger.Error("AddItem: repository error for invoice id=%d: %v", invoiceID, err)
		return nil, fmt.Errorf("%w: AddItem - repository error: %v", ErrInternal, err)
	}

	return s.recalculate(ctx, invoiceID)
}

// RemoveItem удаляет позицию счёта и пересчитывает суммы
func (s *Service) RemoveItem(ctx context.Context, invoiceID, itemID int64) (*domain.Invoice, error) {
	inv, err := s.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status == domain.InvoicePaid || inv.Status == domain.InvoiceCancelled {
		return nil, fmt.Errorf("%w: cannot modify items of %s invoice", ErrInvalidTransition, inv.Status)
	}

	if err := s.invoiceRepo.RemoveItem(ctx, invoiceID, itemID); err != nil {
		if errors.Is(err, invoiceRepo.ErrItemNotFound) {
			return nil, ErrItemNotFound
		}
		s.logger.Error("RemoveItem: repository error for invoice id=%d item id=%d: %v", invoiceID, itemID, err)
		return nil, fmt.Errorf("%w: RemoveItem - repository error: %v", ErrInternal, err)
	}

	return s.recalculate(ctx, invoiceID)
}

// MarkSent переводит счёт в статус sent
func (s *Service) MarkSent(ctx context.Context, id int64) (*domain.Invoice, error) {
	return s.transition(ctx, id, domain.InvoiceSent)
}

// MarkPaid переводит счёт в статус paid
func (s *Service) MarkPaid(ctx context.Context, id int64) (*domain.Invoice, error) {
	return s.transition(ctx, id, domain.InvoicePaid)
}

// MarkOverdue переводит счёт в статус overdue
func (s *Service) MarkOverdue(ctx context.Context, id int64) (*domain.Invoice, error) {
	return s.transition(ctx, id, domain.InvoiceOverdue)
}

// Cancel отменяет счёт
func (s *Service) Cancel(ctx context.Context, id int64) (*domain.Invoice, error) {
	return s.transition(ctx, id, domain.InvoiceCancelled)
}

// RefreshPaymentStatus переводит счёт в paid, когда сумма подтверждённых
// платежей покрывает итог. Вызывается после записи или подтверждения платежа.
func (s *Service) RefreshPaymentStatus(ctx context.Context, id int64) (*domain.Invoice, error) {
	inv, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !inv.IsPaid() || inv.Status == domain.InvoicePaid {
		return inv, nil
	}
	if !inv.CanTransitionTo(domain.InvoicePaid) {
		s.logger.Warn("RefreshPaymentStatus: invoice id=%d covered by payments but status=%s is terminal", id, inv.Status)
		return inv, nil
	}

	inv.Status = domain.InvoicePaid
	if err := s.invoiceRepo.Update(ctx, inv); err != nil {
		s.logger.Error("RefreshPaymentStatus: repository error for invoice id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: RefreshPaymentStatus - repository error: %v", ErrInternal, err)
	}
	s.logger.Info("RefreshPaymentStatus: invoice id=%d fully paid, total=%.2f", id, inv.TotalAmount)
	return inv, nil
}

// ListOverdueUnpaid возвращает счета с истёкшим сроком оплаты,
// ещё не оплаченные и не отменённые
func (s *Service) ListOverdueUnpaid(ctx context.Context) ([]*domain.Invoice, error) {
	list, err := s.invoiceRepo.ListOverdueUnpaid(ctx, s.timeProvider.Now())
	if err != nil {
		s.logger.Error("ListOverdueUnpaid: repository error: %v", err)
		return nil, fmt.Errorf("%w: ListOverdueUnpaid - repository error: %v", ErrInternal, err)
	}
	return list, nil
}

// RegisterReminder увеличивает счётчик отправленных напоминаний
func (s *Service) RegisterReminder(ctx context.Context, id int64) error {
	inv, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	inv.ReminderCount++
	if err := s.invoiceRepo.Update(ctx, inv); err != nil {
		s.logger.Error("RegisterReminder: repository error for invoice id=%d: %v", id, err)
		return fmt.Errorf("%w: RegisterReminder - repository error: %v", ErrInternal, err)
	}
	return nil
}

// transition выполняет проверенную смену статуса счёта
func (s *Service) transition(ctx context.Context, id int64, target domain.InvoiceStatus) (*domain.Invoice, error) {
	inv, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !inv.CanTransitionTo(target) {
		s.logger.Warn("transition: invoice id=%d cannot go from %s to %s", id, inv.Status, target)
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, inv.Status, target)
	}

	inv.Status = target
	if err := s.invoiceRepo.Update(ctx, inv); err != nil {
		s.logger.Error("transition: repository error for invoice id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: transition - repository error: %v", ErrInternal, err)
	}
	s.logger.Info("transition: invoice id=%d moved to %s", id, target)
	return inv, nil
}

// recalculate перечитывает счёт и сохраняет пересчитанные суммы
func (s *Service) recalculate(ctx context.Context, id int64) (*domain.Invoice, error) {
	inv, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.CalculateAmounts()
	if err := s.invoiceRepo.Update(ctx, inv); err != nil {
		s.logger.Error("recalculate: repository error for invoice id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: recalculate - repository error: %v", ErrInternal, err)
	}
	return inv, nil
}
