package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/aledhemtek/BillingService/internal/domain"
	paymentRepo "github.com/aledhemtek/BillingService/internal/infra/storage/payment"
)

// createRetries число повторных попыток вставки при коллизии референса платежа
const createRetries = 3

// Statistics сводка по платежам для админской панели
type Statistics struct {
	CountByStatus  map[domain.PaymentStatus]int64
	TotalValidated float64
	TotalPending   float64
}

// Service сервис обработки платежей: запись, симуляция шлюза,
// ручное подтверждение и статистика
type Service struct {
	paymentRepo  PaymentRepository
	invoiceSvc   InvoiceService
	gateway      Gateway
	notifier     Notifier
	references   ReferenceGenerator
	metrics      Metrics
	logger       Logger
	timeProvider TimeProvider
}

// NewService создает новый экземпляр сервиса платежей
func NewService(
	paymentRepo PaymentRepository,
	invoiceSvc InvoiceService,
	gateway Gateway,
	notifier Notifier,
	references ReferenceGenerator,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		paymentRepo:  paymentRepo,
		invoiceSvc:   invoiceSvc,
		gateway:      gateway,
		notifier:     notifier,
		references:   references,
		metrics:      metrics,
		logger:       logger,
		timeProvider: &RealTimeProvider{},
	}
}

// RecordPayment записывает платёж по счёту. Начальный статус зависит от
// способа оплаты: наличные подтверждаются сразу, карты и PayPal проходят
// через шлюз, офлайн-способы ждут ручного подтверждения.
func (s *Service) RecordPayment(ctx context.Context, invoiceID int64, amount float64, method domain.PaymentMethod, notes *string) (*domain.Payment, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if !domain.ValidPaymentMethod(string(method)) {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrInvalidInput, method)
	}

	inv, err := s.invoiceSvc.GetByID(ctx, invoiceID)
	if err != nil {
		s.logger.Warn("RecordPayment: invoice id=%d not found: %v", invoiceID, err)
		return nil, ErrInvoiceNotFound
	}
	if inv.Status == domain.InvoicePaid || inv.Status == domain.InvoiceCancelled {
		s.logger.Warn("RecordPayment: invoice id=%d is %s, payment rejected", invoiceID, inv.Status)
		return nil, fmt.Errorf("%w: invoice status is %s", ErrInvoiceNotPayable, inv.Status)
	}

	now := s.timeProvider.Now()
	p := &domain.Payment{
		InvoiceID:   invoiceID,
		Amount:      amount,
		Method:      method,
		Notes:       notes,
		PaymentDate: now,
	}
	s.resolveInitialStatus(ctx, p)

	var created *domain.Payment
	for attempt := 0; attempt < createRetries; attempt++ {
		p.PaymentReference = s.references.Next(now)
		created, err = s.paymentRepo.Create(ctx, p)
		if err == nil {
			break
		}
		if errors.Is(err, paymentRepo.ErrDuplicateReference) {
			s.logger.Warn("RecordPayment: payment reference %s collided, retrying", p.PaymentReference)
			continue
		}
		s.logger.Error("RecordPayment: repository error for invoice id=%d: %v", invoiceID, err)
		return nil, fmt.Errorf("%w: RecordPayment - repository error: %v", ErrInternal, err)
	}
	if created == nil {
		return nil, fmt.Errorf("%w: RecordPayment - payment reference collision not resolved after %d attempts", ErrInternal, createRetries)
	}

	s.metrics.IncPaymentRecorded(string(created.Method), string(created.Status))
	s.logger.Info("RecordPayment: payment %s recorded for invoice id=%d, amount=%.2f, status=%s",
		created.PaymentReference, invoiceID, created.Amount, created.Status)

	if created.IsValidated() {
		s.settleInvoice(ctx, invoiceID)
	}
	return created, nil
}

// Validate подтверждает или отклоняет платёж, ожидающий ручной проверки
func (s *Service) Validate(ctx context.Context, paymentID int64, approved bool, notes *string) (*domain.Payment, error) {
	p, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, paymentRepo.ErrPaymentNotFound) {
			return nil, ErrPaymentNotFound
		}
		s.logger.Error("Validate: repository error for payment id=%d: %v", paymentID, err)
		return nil, fmt.Errorf("%w: Validate - repository error: %v", ErrInternal, err)
	}
	if !p.AwaitsValidation() {
		s.logger.Warn("Validate: payment id=%d has status %s, cannot validate", paymentID, p.Status)
		return nil, fmt.Errorf("%w: status is %s", ErrNotAwaitingValidation, p.Status)
	}

	status := domain.PaymentValidated
	if !approved {
		status = domain.PaymentFailed
	}
	if err := s.paymentRepo.UpdateStatus(ctx, paymentID, status, notes); err != nil {
		s.logger.Error("Validate: repository error for payment id=%d: %v", paymentID, err)
		return nil, fmt.Errorf("%w: Validate - repository error: %v", ErrInternal, err)
	}
	p.Status = status
	if notes != nil {
		p.Notes = notes
	}

	s.logger.Info("Validate: payment id=%d (%s) moved to %s", paymentID, p.PaymentReference, status)
	if approved {
		s.settleInvoice(ctx, p.InvoiceID)
	}
	return p, nil
}

// GetPendingPayments возвращает платежи, ожидающие ручного подтверждения
func (s *Service) GetPendingPayments(ctx context.Context) ([]*paymentRepo.PendingPayment, error) {
	list, err := s.paymentRepo.ListPendingWithInvoice(ctx)
	if err != nil {
		s.logger.Error("GetPendingPayments: repository error: %v", err)
		return nil, fmt.Errorf("%w: GetPendingPayments - repository error: %v", ErrInternal, err)
	}
	return list, nil
}

// GetStatistics возвращает сводку по платежам
func (s *Service) GetStatistics(ctx context.Context) (*Statistics, error) {
	counts, err := s.paymentRepo.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("GetStatistics: repository error: %v", err)
		return nil, fmt.Errorf("%w: GetStatistics - repository error: %v", ErrInternal, err)
	}
	validated, err := s.paymentRepo.SumAmountByStatus(ctx, domain.PaymentValidated)
	if err != nil {
		s.logger.Error("GetStatistics: repository error: %v", err)
		return nil, fmt.Errorf("%w: GetStatistics - repository error: %v", ErrInternal, err)
	}
	pending, err := s.paymentRepo.SumAmountByStatus(ctx, domain.PaymentPending)
	if err != nil {
		s.logger.Error("GetStatistics: repository error: %v", err)
		return nil, fmt.Errorf("%w: GetStatistics - repository error: %v", ErrInternal, err)
	}

	return &Statistics{
		CountByStatus:  counts,
		TotalValidated: validated,
		TotalPending:   pending,
	}, nil
}

// resolveInitialStatus проставляет начальный статус платежа по способу оплаты
func (s *Service) resolveInitialStatus(ctx context.Context, p *domain.Payment) {
	switch {
	case p.Method == domain.MethodCash:
		p.Status = domain.PaymentValidated
	case p.Method.RequiresManualValidation():
		p.Status = domain.PaymentPending
	default:
		// Онлайн-способы проходят через шлюз
		txID, approved := s.gateway.Charge(ctx, p)
		p.TransactionID = &txID
		if approved {
			p.Status = domain.PaymentValidated
		} else {
			p.Status = domain.PaymentFailed
		}
	}
}

// settleInvoice пересчитывает платёжный статус счёта и уведомляет клиента
// о полной оплате. Ошибки здесь не отменяют уже записанный платёж.
func (s *Service) settleInvoice(ctx context.Context, invoiceID int64) {
	inv, err := s.invoiceSvc.RefreshPaymentStatus(ctx, invoiceID)
	if err != nil {
		s.logger.Error("settleInvoice: failed to refresh invoice id=%d: %v", invoiceID, err)
		return
	}
	if inv.Status != domain.InvoicePaid || s.notifier == nil {
		return
	}
	if err := s.notifier.SendPaymentConfirmation(ctx, inv); err != nil {
		s.logger.Warn("settleInvoice: payment confirmation for invoice id=%d not delivered: %v", invoiceID, err)
	}
}
