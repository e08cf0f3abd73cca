package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/aledhemtek/BillingService/internal/domain"
)

// Scheduler фоновые развёртки биллинга: просроченные счета и страховочная
// автогенерация по завершённым бронированиям без счёта. Каждая развёртка
// живёт на своём тикере; ошибка по одному элементу логируется и не
// прерывает остаток пакета.
type Scheduler struct {
	invoiceSvc      InvoiceService
	reservationRepo ReservationRepository
	billing         BillingTrigger
	notifier        Notifier
	metrics         Metrics
	logger          Logger
	timeProvider    TimeProvider

	reminderCeiling int
	overdueEvery    time.Duration
	autoGenEvery    time.Duration

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New создает планировщик биллинговых развёрток
func New(
	invoiceSvc InvoiceService,
	reservationRepo ReservationRepository,
	billing BillingTrigger,
	notifier Notifier,
	metrics Metrics,
	logger Logger,
	reminderCeiling int,
	overdueEvery time.Duration,
	autoGenEvery time.Duration,
) *Scheduler {
	if reminderCeiling <= 0 {
		reminderCeiling = domain.DefaultReminderCeiling
	}
	if overdueEvery <= 0 {
		overdueEvery = 24 * time.Hour
	}
	if autoGenEvery <= 0 {
		autoGenEvery = time.Hour
	}
	return &Scheduler{
		invoiceSvc:      invoiceSvc,
		reservationRepo: reservationRepo,
		billing:         billing,
		notifier:        notifier,
		metrics:         metrics,
		logger:          logger,
		timeProvider:    &RealTimeProvider{},
		reminderCeiling: reminderCeiling,
		overdueEvery:    overdueEvery,
		autoGenEvery:    autoGenEvery,
		stopCh:          make(chan struct{}),
	}
}

// Start запускает обе развёртки в фоне
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("scheduler: starting, overdue sweep every %s, auto-generation sweep every %s",
		s.overdueEvery, s.autoGenEvery)

	s.wg.Add(2)
	go s.loop(ctx, s.overdueEvery, s.RunOverdueSweep)
	go s.loop(ctx, s.autoGenEvery, s.RunAutoGenerateSweep)
}

// Stop останавливает развёртки и дожидается их завершения
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("scheduler: stopped")
}

func (s *Scheduler) loop(ctx context.Context, every time.Duration, sweep func(context.Context)) {
	defer s.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sweep(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// RunOverdueSweep обходит неоплаченные счета с истёкшим сроком:
// рассылает напоминания до потолка и принудительно переводит счета
// в статус overdue
func (s *Scheduler) RunOverdueSweep(ctx context.Context) {
	now := s.timeProvider.Now()

	invoices, err := s.invoiceSvc.ListOverdueUnpaid(ctx)
	if err != nil {
		s.logger.Error("scheduler: overdue sweep failed to list invoices: %v", err)
		s.metrics.IncSweepError("overdue")
		return
	}
	if len(invoices) == 0 {
		return
	}
	s.logger.Info("scheduler: overdue sweep found %d invoices", len(invoices))

	for _, inv := range invoices {
		if inv.ShouldSendReminder(now, s.reminderCeiling) {
			if err := s.notifier.SendReminder(ctx, inv); err != nil {
				s.logger.Warn("scheduler: reminder for invoice %s not delivered: %v", inv.InvoiceNumber, err)
				s.metrics.IncSweepError("overdue")
			} else if err := s.invoiceSvc.RegisterReminder(ctx, inv.ID); err != nil {
				s.logger.Error("scheduler: failed to register reminder for invoice id=%d: %v", inv.ID, err)
				s.metrics.IncSweepError("overdue")
			} else {
				s.metrics.IncReminderSent()
			}
		}

		if inv.Status != domain.InvoiceOverdue && inv.CanTransitionTo(domain.InvoiceOverdue) {
			if _, err := s.invoiceSvc.MarkOverdue(ctx, inv.ID); err != nil {
				s.logger.Error("scheduler: failed to mark invoice id=%d overdue: %v", inv.ID, err)
				s.metrics.IncSweepError("overdue")
			}
		}
	}
}

// RunAutoGenerateSweep выставляет счета по завершённым бронированиям,
// оставшимся без счёта; страховка на случай пропущенного триггера
func (s *Scheduler) RunAutoGenerateSweep(ctx context.Context) {
	reservations, err := s.reservationRepo.ListCompletedWithoutInvoice(ctx)
	if err != nil {
		s.logger.Error("scheduler: auto-generation sweep failed to list reservations: %v", err)
		s.metrics.IncSweepError("autogen")
		return
	}
	if len(reservations) == 0 {
		return
	}
	s.logger.Info("scheduler: auto-generation sweep found %d reservations without invoice", len(reservations))

	for _, r := range reservations {
		if _, err := s.billing.Execute(ctx, r.ID); err != nil {
			s.logger.Error("scheduler: failed to generate invoice for reservation=%d: %v", r.ID, err)
			s.metrics.IncSweepError("autogen")
		}
	}
}
