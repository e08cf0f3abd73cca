package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aledhemtek/BillingService/internal/domain"
	"github.com/aledhemtek/BillingService/internal/usecase/generate_invoice"
)

var testNow = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type recordingMetrics struct {
	reminders int
	errors    map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{errors: map[string]int{}}
}

func (m *recordingMetrics) IncReminderSent()           { m.reminders++ }
func (m *recordingMetrics) IncSweepError(sweep string) { m.errors[sweep]++ }

type fakeInvoiceSvc struct {
	invoices  map[int64]*domain.Invoice
	reminders map[int64]int
	marked    []int64
}

func newFakeInvoiceSvc(invoices ...*domain.Invoice) *fakeInvoiceSvc {
	f := &fakeInvoiceSvc{invoices: map[int64]*domain.Invoice{}, reminders: map[int64]int{}}
	for _, inv := range invoices {
		f.invoices[inv.ID] = inv
	}
	return f
}

func (f *fakeInvoiceSvc) ListOverdueUnpaid(context.Context) ([]*domain.Invoice, error) {
	var out []*domain.Invoice
	for _, inv := range f.invoices {
		if inv.IsOverdue(testNow) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeInvoiceSvc) MarkOverdue(_ context.Context, id int64) (*domain.Invoice, error) {
	inv := f.invoices[id]
	inv.Status = domain.InvoiceOverdue
	f.marked = append(f.marked, id)
	return inv, nil
}

func (f *fakeInvoiceSvc) RegisterReminder(_ context.Context, id int64) error {
	f.reminders[id]++
	f.invoices[id].ReminderCount++
	return nil
}

type fakeReservations struct {
	pending []*domain.Reservation
}

func (f *fakeReservations) ListCompletedWithoutInvoice(context.Context) ([]*domain.Reservation, error) {
	return f.pending, nil
}

type fakeBilling struct {
	calls   []int64
	failFor map[int64]error
}

func (f *fakeBilling) Execute(_ context.Context, reservationID int64) (*generate_invoice.Result, error) {
	f.calls = append(f.calls, reservationID)
	if err, ok := f.failFor[reservationID]; ok {
		return nil, err
	}
	return &generate_invoice.Result{}, nil
}

type fakeNotifier struct {
	reminders []int64
	err       error
}

func (n *fakeNotifier) SendReminder(_ context.Context, inv *domain.Invoice) error {
	if n.err != nil {
		return n.err
	}
	n.reminders = append(n.reminders, inv.ID)
	return nil
}

func newScheduler(invSvc *fakeInvoiceSvc, reservations *fakeReservations, billing *fakeBilling, notifier *fakeNotifier, metrics *recordingMetrics) *Scheduler {
	s := New(invSvc, reservations, billing, notifier, metrics, nopLogger{}, 3, time.Hour, time.Hour)
	s.timeProvider = fixedTime{testNow}
	return s
}

func overdueInvoice(id int64, status domain.InvoiceStatus, reminders int) *domain.Invoice {
	return &domain.Invoice{
		ID:            id,
		InvoiceNumber: "INV-202506-000001",
		Status:        status,
		DueDate:       testNow.AddDate(0, 0, -10),
		ReminderCount: reminders,
	}
}

func TestOverdueSweep_SendsReminderAndMarksOverdue(t *testing.T) {
	invSvc := newFakeInvoiceSvc(overdueInvoice(1, domain.InvoiceSent, 0))
	notifier := &fakeNotifier{}
	metrics := newRecordingMetrics()
	s := newScheduler(invSvc, &fakeReservations{}, &fakeBilling{}, notifier, metrics)

	s.RunOverdueSweep(context.Background())

	assert.Equal(t, []int64{1}, notifier.reminders)
	assert.Equal(t, 1, invSvc.reminders[1])
	assert.Equal(t, []int64{1}, invSvc.marked)
	assert.Equal(t, domain.InvoiceOverdue, invSvc.invoices[1].Status)
	assert.Equal(t, 1, metrics.reminders)
}

func TestOverdueSweep_ReminderCeiling(t *testing.T) {
	invSvc := newFakeInvoiceSvc(overdueInvoice(1, domain.InvoiceOverdue, 3))
	notifier := &fakeNotifier{}
	s := newScheduler(invSvc, &fakeReservations{}, &fakeBilling{}, notifier, newRecordingMetrics())

	s.RunOverdueSweep(context.Background())

	// Потолок напоминаний достигнут, статус уже overdue
	assert.Empty(t, notifier.reminders)
	assert.Empty(t, invSvc.marked)
}

func TestOverdueSweep_NotifierFailureDoesNotIncrementCounter(t *testing.T) {
	invSvc := newFakeInvoiceSvc(overdueInvoice(1, domain.InvoiceSent, 0))
	notifier := &fakeNotifier{err: errors.New("smtp down")}
	metrics := newRecordingMetrics()
	s := newScheduler(invSvc, &fakeReservations{}, &fakeBilling{}, notifier, metrics)

	s.RunOverdueSweep(context.Background())

	// Неудачное напоминание не расходует потолок
	assert.Equal(t, 0, invSvc.reminders[1])
	assert.Equal(t, 0, metrics.reminders)
	assert.Equal(t, 1, metrics.errors["overdue"])
	// Перевод в overdue от сбоя уведомления не зависит
	assert.Equal(t, []int64{1}, invSvc.marked)
}

func TestOverdueSweep_RepeatedRunsRespectCeiling(t *testing.T) {
	invSvc := newFakeInvoiceSvc(overdueInvoice(1, domain.InvoiceSent, 0))
	notifier := &fakeNotifier{}
	s := newScheduler(invSvc, &fakeReservations{}, &fakeBilling{}, notifier, newRecordingMetrics())

	for i := 0; i < 5; i++ {
		s.RunOverdueSweep(context.Background())
	}

	assert.Len(t, notifier.reminders, 3)
	assert.Equal(t, 3, invSvc.invoices[1].ReminderCount)
}

func TestAutoGenerateSweep_TriggersPerReservation(t *testing.T) {
	reservations := &fakeReservations{pending: []*domain.Reservation{
		{ID: 1, Status: domain.ReservationCompleted},
		{ID: 2, Status: domain.ReservationCompleted},
	}}
	billing := &fakeBilling{}
	s := newScheduler(newFakeInvoiceSvc(), reservations, billing, &fakeNotifier{}, newRecordingMetrics())

	s.RunAutoGenerateSweep(context.Background())

	assert.Equal(t, []int64{1, 2}, billing.calls)
}

func TestAutoGenerateSweep_FailureIsolatedPerItem(t *testing.T) {
	reservations := &fakeReservations{pending: []*domain.Reservation{
		{ID: 1}, {ID: 2}, {ID: 3},
	}}
	billing := &fakeBilling{failFor: map[int64]error{2: errors.New("billing exploded")}}
	metrics := newRecordingMetrics()
	s := newScheduler(newFakeInvoiceSvc(), reservations, billing, &fakeNotifier{}, metrics)

	s.RunAutoGenerateSweep(context.Background())

	// Сбой по одному бронированию не прерывает остальные
	assert.Equal(t, []int64{1, 2, 3}, billing.calls)
	assert.Equal(t, 1, metrics.errors["autogen"])
}

func TestSchedulerStartStop(t *testing.T) {
	s := newScheduler(newFakeInvoiceSvc(), &fakeReservations{}, &fakeBilling{}, &fakeNotifier{}, newRecordingMetrics())

	s.Start(context.Background())
	s.Stop()
}
