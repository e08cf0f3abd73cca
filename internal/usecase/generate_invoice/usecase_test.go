package generate_invoice

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledhemtek/BillingService/internal/domain"
	reservationRepo "github.com/aledhemtek/BillingService/internal/infra/storage/reservation"
	taskRepo "github.com/aledhemtek/BillingService/internal/infra/storage/task"
	invoiceSvc "github.com/aledhemtek/BillingService/internal/service/invoices"
	"github.com/aledhemtek/BillingService/internal/service/pricing"
	"github.com/aledhemtek/BillingService/pkg/ptr"
)

var testNow = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type passthroughTx struct{}

func (passthroughTx) Do(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) }
func (passthroughTx) DoSerializable(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}
func (passthroughTx) DoReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type recordingMetrics struct {
	generated  int
	duplicates int
}

func (m *recordingMetrics) IncInvoiceGenerated(bool) { m.generated++ }
func (m *recordingMetrics) IncDuplicateSuppressed()  { m.duplicates++ }

type fakeReservations struct {
	reservations map[int64]*domain.Reservation
}

func (f *fakeReservations) GetByID(_ context.Context, id int64) (*domain.Reservation, error) {
	r, ok := f.reservations[id]
	if !ok {
		return nil, reservationRepo.ErrReservationNotFound
	}
	return r, nil
}

type fakeTasks struct {
	tasks map[int64]*domain.Task
}

func (f *fakeTasks) GetByID(_ context.Context, id int64) (*domain.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, taskRepo.ErrTaskNotFound
	}
	return t, nil
}

// fakeInvoices имитирует сервис счетов: хранит один счёт на бронирование
// и повторяет поведение уникального индекса. createRace откладывает
// видимость существующего счёта до вставки, моделируя гонку триггеров.
type fakeInvoices struct {
	byReservation map[int64]*domain.Invoice
	nextID        int64
	created       int
	createRace    map[int64]*domain.Invoice
}

func newFakeInvoices() *fakeInvoices {
	return &fakeInvoices{byReservation: map[int64]*domain.Invoice{}, nextID: 1}
}

func (f *fakeInvoices) Create(_ context.Context, inv *domain.Invoice) (*domain.Invoice, error) {
	resID := inv.ReservationID
	if resID != nil {
		if racing, ok := f.createRace[*resID]; ok {
			f.byReservation[*resID] = racing
			delete(f.createRace, *resID)
		}
		if _, ok := f.byReservation[*resID]; ok {
			return nil, invoiceSvc.ErrDuplicateInvoice
		}
	}

	stored := *inv
	stored.ID = f.nextID
	f.nextID++
	stored.InvoiceNumber = fmt.Sprintf("INV-202507-%06d", stored.ID)
	stored.Status = domain.InvoicePending
	stored.IssueDate = testNow
	stored.DueDate = testNow.AddDate(0, 0, 30)
	for i := range stored.Items {
		if stored.Items[i].TaxRate == 0 {
			stored.Items[i].TaxRate = domain.DefaultTaxRate
		}
	}
	stored.CalculateAmounts()
	if resID != nil {
		f.byReservation[*resID] = &stored
	}
	f.created++
	return &stored, nil
}

func (f *fakeInvoices) GetByReservation(_ context.Context, reservationID int64) (*domain.Invoice, error) {
	inv, ok := f.byReservation[reservationID]
	if !ok {
		return nil, invoiceSvc.ErrInvoiceNotFound
	}
	return inv, nil
}

type stubRenderer struct {
	err      error
	rendered int
}

func (r *stubRenderer) Render(*domain.Invoice) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.rendered++
	return []byte("<html>facture</html>"), nil
}

type stubNotifier struct {
	err  error
	sent int
}

func (n *stubNotifier) SendInvoice(context.Context, *domain.Invoice, []byte) error {
	if n.err != nil {
		return n.err
	}
	n.sent++
	return nil
}

type fixture struct {
	uc       *UseCase
	invoices *fakeInvoices
	renderer *stubRenderer
	notifier *stubNotifier
	metrics  *recordingMetrics
}

func newFixture(reservations map[int64]*domain.Reservation, tasks map[int64]*domain.Task) *fixture {
	f := &fixture{
		invoices: newFakeInvoices(),
		renderer: &stubRenderer{},
		notifier: &stubNotifier{},
		metrics:  &recordingMetrics{},
	}
	f.uc = NewUseCase(
		&fakeReservations{reservations: reservations},
		&fakeTasks{tasks: tasks},
		f.invoices,
		pricing.NewResolver(),
		f.renderer,
		f.notifier,
		passthroughTx{},
		f.metrics,
		nopLogger{},
		5.0,
	)
	f.uc.timeProvider = fixedTime{testNow}
	return f
}

// completedReservation: задача A qty 2 по 50.0, задача B qty 1 по 30.0
func completedReservation() map[int64]*domain.Reservation {
	return map[int64]*domain.Reservation{
		1: {
			ID:       1,
			ClientID: 7,
			Status:   domain.ReservationCompleted,
			Tasks: []domain.TaskAssociation{
				{TaskID: 10, TaskName: "Nettoyage", Quantity: 2, UnitPrice: ptr.Ptr(50.0)},
				{TaskID: 11, TaskName: "Jardinage", Quantity: 1, UnitPrice: ptr.Ptr(30.0)},
			},
		},
	}
}

func TestExecute_GeneratesInvoiceWithServiceFee(t *testing.T) {
	f := newFixture(completedReservation(), nil)

	result, err := f.uc.Execute(context.Background(), 1)
	require.NoError(t, err)

	require.NotNil(t, result.Invoice)
	assert.False(t, result.AlreadyExisted)
	assert.True(t, result.Rendered)
	assert.True(t, result.Notified)

	inv := result.Invoice
	assert.Equal(t, domain.InvoicePending, inv.Status)
	assert.True(t, inv.AutoGenerated)
	require.Len(t, inv.Items, 3)
	assert.Equal(t, domain.ServiceFeeDesignation, inv.Items[2].Designation)
	assert.InDelta(t, 6.5, inv.Items[2].UnitPrice, 0.0001)
	assert.InDelta(t, 136.5, inv.TotalAmount, 0.0001)

	assert.Equal(t, 1, f.metrics.generated)
	assert.Equal(t, 1, f.notifier.sent)
}

func TestExecute_SecondCallIsNoOp(t *testing.T) {
	f := newFixture(completedReservation(), nil)

	first, err := f.uc.Execute(context.Background(), 1)
	require.NoError(t, err)

	second, err := f.uc.Execute(context.Background(), 1)
	require.NoError(t, err)

	assert.True(t, second.AlreadyExisted)
	assert.Equal(t, first.Invoice.ID, second.Invoice.ID)
	assert.Equal(t, 1, f.invoices.created)
	assert.Equal(t, 1, f.metrics.duplicates)
	// Повторный триггер не дергает рендер и уведомления
	assert.Equal(t, 1, f.renderer.rendered)
	assert.Equal(t, 1, f.notifier.sent)
}

func TestExecute_ConcurrentDuplicateSuppressed(t *testing.T) {
	f := newFixture(completedReservation(), nil)
	racing := &domain.Invoice{ID: 99, InvoiceNumber: "INV-202507-000099"}
	f.invoices.createRace = map[int64]*domain.Invoice{1: racing}

	result, err := f.uc.Execute(context.Background(), 1)
	require.NoError(t, err)

	assert.True(t, result.AlreadyExisted)
	assert.Equal(t, int64(99), result.Invoice.ID)
	assert.Equal(t, 0, f.invoices.created)
	assert.Equal(t, 1, f.metrics.duplicates)
}

func TestExecute_ReservationNotFound(t *testing.T) {
	f := newFixture(map[int64]*domain.Reservation{}, nil)

	_, err := f.uc.Execute(context.Background(), 404)
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestExecute_ReservationNotCompleted(t *testing.T) {
	reservations := completedReservation()
	reservations[1].Status = domain.ReservationInProgress
	f := newFixture(reservations, nil)

	_, err := f.uc.Execute(context.Background(), 1)
	assert.ErrorIs(t, err, ErrReservationNotCompleted)
	assert.Equal(t, 0, f.invoices.created)
}

func TestExecute_UnitPriceFallbacks(t *testing.T) {
	reservations := map[int64]*domain.Reservation{
		1: {
			ID:       1,
			ClientID: 7,
			Status:   domain.ReservationCompleted,
			Tasks: []domain.TaskAssociation{
				// Зафиксирован только итог строки
				{TaskID: 10, TaskName: "Nettoyage", Quantity: 4, TotalPrice: ptr.Ptr(100.0)},
				// Цен нет, берётся действующий тариф каталога
				{TaskID: 11, TaskName: "Jardinage", Quantity: 2},
			},
		},
	}
	tasks := map[int64]*domain.Task{
		11: {ID: 11, Rates: []domain.Rate{{Price: 20.0}, {Price: 35.0}}},
	}
	f := newFixture(reservations, tasks)

	result, err := f.uc.Execute(context.Background(), 1)
	require.NoError(t, err)

	items := result.Invoice.Items
	require.Len(t, items, 3)
	assert.Equal(t, 25.0, items[0].UnitPrice)
	assert.Equal(t, 20.0, items[1].UnitPrice)
	// 100 + 40 = 140, сбор 5% = 7
	assert.InDelta(t, 7.0, items[2].UnitPrice, 0.0001)
}

func TestExecute_ReservationLevelFallback(t *testing.T) {
	reservations := map[int64]*domain.Reservation{
		1: {
			ID:         1,
			ClientID:   7,
			Title:      "Entretien maison",
			Status:     domain.ReservationCompleted,
			TotalPrice: 80.0,
			Tasks: []domain.TaskAssociation{
				{TaskID: 10, TaskName: "Nettoyage", Quantity: 1},
			},
		},
	}
	f := newFixture(reservations, nil)

	result, err := f.uc.Execute(context.Background(), 1)
	require.NoError(t, err)

	items := result.Invoice.Items
	require.Len(t, items, 2)
	assert.Equal(t, "Entretien maison", items[0].Designation)
	assert.Equal(t, 80.0, items[0].UnitPrice)
	assert.InDelta(t, 4.0, items[1].UnitPrice, 0.0001)
}

func TestExecute_NoTasksNoFee(t *testing.T) {
	reservations := map[int64]*domain.Reservation{
		1: {ID: 1, ClientID: 7, Status: domain.ReservationCompleted},
	}
	f := newFixture(reservations, nil)

	result, err := f.uc.Execute(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, result.Invoice.Items)
	assert.Equal(t, 0.0, result.Invoice.TotalAmount)
}

func TestExecute_RenderFailureKeepsInvoice(t *testing.T) {
	f := newFixture(completedReservation(), nil)
	f.renderer.err = errors.New("template exploded")

	result, err := f.uc.Execute(context.Background(), 1)
	require.NoError(t, err)

	assert.NotNil(t, result.Invoice)
	assert.False(t, result.Rendered)
	assert.False(t, result.Notified)
	assert.Error(t, result.RenderErr)
	assert.Equal(t, 1, f.invoices.created)
	assert.Equal(t, 0, f.notifier.sent)
}

func TestExecute_NotifyFailureKeepsInvoice(t *testing.T) {
	f := newFixture(completedReservation(), nil)
	f.notifier.err = errors.New("smtp down")

	result, err := f.uc.Execute(context.Background(), 1)
	require.NoError(t, err)

	assert.True(t, result.Rendered)
	assert.False(t, result.Notified)
	assert.Error(t, result.NotifyErr)
	assert.Equal(t, 1, f.invoices.created)
}
