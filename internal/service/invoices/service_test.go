package invoices

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledhemtek/BillingService/internal/domain"
	invoiceRepo "github.com/aledhemtek/BillingService/internal/infra/storage/invoice"
)

var testNow = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// fakeInvoiceRepo хранит счета в памяти и имитирует уникальные индексы БД
type fakeInvoiceRepo struct {
	invoices       map[int64]*domain.Invoice
	nextID         int64
	nextItemID     int64
	numberCollides int
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{invoices: map[int64]*domain.Invoice{}, nextID: 1, nextItemID: 1}
}

func (f *fakeInvoiceRepo) Create(_ context.Context, inv *domain.Invoice) (*domain.Invoice, error) {
	if f.numberCollides > 0 {
		f.numberCollides--
		return nil, invoiceRepo.ErrDuplicateNumber
	}
	for _, existing := range f.invoices {
		if inv.ReservationID != nil && existing.ReservationID != nil &&
			*inv.ReservationID == *existing.ReservationID {
			return nil, invoiceRepo.ErrDuplicateReservation
		}
		if existing.InvoiceNumber == inv.InvoiceNumber {
			return nil, invoiceRepo.ErrDuplicateNumber
		}
	}
	stored := *inv
	stored.ID = f.nextID
	f.nextID++
	for i := range stored.Items {
		stored.Items[i].ID = f.nextItemID
		stored.Items[i].InvoiceID = stored.ID
		f.nextItemID++
	}
	f.invoices[stored.ID] = &stored
	return &stored, nil
}

func (f *fakeInvoiceRepo) GetByID(_ context.Context, id int64) (*domain.Invoice, error) {
	inv, ok := f.invoices[id]
	if !ok {
		return nil, invoiceRepo.ErrInvoiceNotFound
	}
	cp := *inv
	cp.Items = append([]domain.InvoiceItem(nil), inv.Items...)
	cp.Payments = append([]domain.Payment(nil), inv.Payments...)
	return &cp, nil
}

func (f *fakeInvoiceRepo) GetByReservationID(_ context.Context, reservationID int64) (*domain.Invoice, error) {
	for id, inv := range f.invoices {
		if inv.ReservationID != nil && *inv.ReservationID == reservationID {
			return f.GetByID(context.Background(), id)
		}
	}
	return nil, invoiceRepo.ErrInvoiceNotFound
}

func (f *fakeInvoiceRepo) Update(_ context.Context, inv *domain.Invoice) error {
	stored, ok := f.invoices[inv.ID]
	if !ok {
		return invoiceRepo.ErrInvoiceNotFound
	}
	stored.Status = inv.Status
	stored.AmountExclTax = inv.AmountExclTax
	stored.TaxAmount = inv.TaxAmount
	stored.TotalAmount = inv.TotalAmount
	stored.ReminderCount = inv.ReminderCount
	return nil
}

func (f *fakeInvoiceRepo) AddItem(_ context.Context, item *domain.InvoiceItem) error {
	inv, ok := f.invoices[item.InvoiceID]
	if !ok {
		return invoiceRepo.ErrInvoiceNotFound
	}
	item.ID = f.nextItemID
	f.nextItemID++
	inv.Items = append(inv.Items, *item)
	return nil
}

func (f *fakeInvoiceRepo) RemoveItem(_ context.Context, invoiceID, itemID int64) error {
	inv, ok := f.invoices[invoiceID]
	if !ok {
		return invoiceRepo.ErrInvoiceNotFound
	}
	for i := range inv.Items {
		if inv.Items[i].ID == itemID {
			inv.Items = append(inv.Items[:i], inv.Items[i+1:]...)
			return nil
		}
	}
	return invoiceRepo.ErrItemNotFound
}

func (f *fakeInvoiceRepo) ListOverdueUnpaid(_ context.Context, now time.Time) ([]*domain.Invoice, error) {
	var out []*domain.Invoice
	for id, inv := range f.invoices {
		if inv.IsOverdue(now) {
			cp, _ := f.GetByID(context.Background(), id)
			out = append(out, cp)
		}
	}
	return out, nil
}

func (f *fakeInvoiceRepo) ListByStatus(_ context.Context, status domain.InvoiceStatus) ([]*domain.Invoice, error) {
	var out []*domain.Invoice
	for id, inv := range f.invoices {
		if inv.Status == status {
			cp, _ := f.GetByID(context.Background(), id)
			out = append(out, cp)
		}
	}
	return out, nil
}

type seqNumbers struct{ n int }

func (s *seqNumbers) Next(now time.Time) string {
	s.n++
	return fmt.Sprintf("INV-%s-%06d", now.Format("200601"), s.n)
}

func newTestService(repo *fakeInvoiceRepo) *Service {
	svc := NewService(repo, &seqNumbers{}, nopLogger{}, 30, 20.0)
	svc.timeProvider = fixedTime{testNow}
	return svc
}

func TestService_Create_Defaults(t *testing.T) {
	repo := newFakeInvoiceRepo()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), &domain.Invoice{
		ClientID: 7,
		Items: []domain.InvoiceItem{
			{Designation: "Nettoyage", Quantity: 2, UnitPrice: 50.0},
		},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.InvoiceNumber)
	assert.Equal(t, domain.InvoicePending, created.Status)
	assert.Equal(t, testNow, created.IssueDate)
	assert.Equal(t, testNow.AddDate(0, 0, 30), created.DueDate)
	assert.Equal(t, 100.0, created.TotalAmount)
	// Непроставленная ставка налога получает значение по умолчанию
	assert.Equal(t, 20.0, created.Items[0].TaxRate)
}

func TestService_Create_MissingClient(t *testing.T) {
	svc := newTestService(newFakeInvoiceRepo())

	_, err := svc.Create(context.Background(), &domain.Invoice{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_Create_DuplicateReservation(t *testing.T) {
	repo := newFakeInvoiceRepo()
	svc := newTestService(repo)
	resID := int64(11)

	_, err := svc.Create(context.Background(), &domain.Invoice{ClientID: 7, ReservationID: &resID})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), &domain.Invoice{ClientID: 7, ReservationID: &resID})
	assert.ErrorIs(t, err, ErrDuplicateInvoice)
}

func TestService_Create_NumberCollisionRetried(t *testing.T) {
	repo := newFakeInvoiceRepo()
	repo.numberCollides = 2
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), &domain.Invoice{ClientID: 7})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
}

func TestService_Create_ExplicitNumberCollisionNotRetried(t *testing.T) {
	repo := newFakeInvoiceRepo()
	repo.numberCollides = 1
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), &domain.Invoice{ClientID: 7, InvoiceNumber: "INV-202507-000001"})
	assert.ErrorIs(t, err, ErrInternal)
}

func TestService_AddItem_Recalculates(t *testing.T) {
	repo := newFakeInvoiceRepo()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), &domain.Invoice{ClientID: 7})
	require.NoError(t, err)

	updated, err := svc.AddItem(context.Background(), created.ID, domain.InvoiceItem{
		Designation: "Jardinage", Quantity: 3, UnitPrice: 25.0,
	})
	require.NoError(t, err)
	assert.Equal(t, 75.0, updated.TotalAmount)
	assert.InDelta(t, 62.5, updated.AmountExclTax, 0.0001)
}

func TestService_AddItem_Validation(t *testing.T) {
	repo := newFakeInvoiceRepo()
	svc := newTestService(repo)
	created, err := svc.Create(context.Background(), &domain.Invoice{ClientID: 7})
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), created.ID, domain.InvoiceItem{Designation: "X", Quantity: 0, UnitPrice: 5})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.AddItem(context.Background(), created.ID, domain.InvoiceItem{Quantity: 1, UnitPrice: 5})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_AddItem_PaidInvoiceRejected(t *testing.T) {
	repo := newFakeInvoiceRepo()
	svc := newTestService(repo)
	created, err := svc.Create(context.Background(), &domain.Invoice{ClientID: 7})
	require.NoError(t, err)
	_, err = svc.MarkPaid(context.Background(), created.ID)
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), created.ID, domain.InvoiceItem{Designation: "X", Quantity: 1, UnitPrice: 5})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestService_RemoveItem(t *testing.T) {
	repo := newFakeInvoiceRepo()
	svc := newTestService(repo)
	created, err := svc.Create(context.Background(), &domain.Invoice{
		ClientID: 7,
		Items: []domain.InvoiceItem{
			{Designation: "Nettoyage", Quantity: 2, UnitPrice: 50.0},
			{Designation: "Frais de service", Quantity: 1, UnitPrice: 5.0},
		},
	})
	require.NoError(t, err)

	updated, err := svc.RemoveItem(context.Background(), created.ID, created.Items[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, updated.TotalAmount)

	_, err = svc.RemoveItem(context.Background(), created.ID, 999)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestService_Transitions(t *testing.T) {
	repo := newFakeInvoiceRepo()
	svc := newTestService(repo)
	created, err := svc.Create(context.Background(), &domain.Invoice{ClientID: 7})
	require.NoError(t, err)

	sent, err := svc.MarkSent(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceSent, sent.Status)

	paid, err := svc.MarkPaid(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoicePaid, paid.Status)

	// Оплаченный счёт терминален
	_, err = svc.Cancel(context.Background(), created.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = svc.MarkSent(context.Background(), created.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestService_Transition_NotFound(t *testing.T) {
	svc := newTestService(newFakeInvoiceRepo())

	_, err := svc.MarkSent(context.Background(), 404)
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestService_RefreshPaymentStatus(t *testing.T) {
	repo := newFakeInvoiceRepo()
	svc := newTestService(repo)
	created, err := svc.Create(context.Background(), &domain.Invoice{
		ClientID: 7,
		Items:    []domain.InvoiceItem{{Designation: "Nettoyage", Quantity: 1, UnitPrice: 100.0}},
	})
	require.NoError(t, err)

	// Частичная оплата статус не меняет
	repo.invoices[created.ID].Payments = []domain.Payment{
		{Amount: 40.0, Status: domain.PaymentValidated},
	}
	inv, err := svc.RefreshPaymentStatus(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoicePending, inv.Status)

	// Полное покрытие подтверждёнными платежами переводит счёт в paid
	repo.invoices[created.ID].Payments = append(repo.invoices[created.ID].Payments,
		domain.Payment{Amount: 60.0, Status: domain.PaymentValidated},
		domain.Payment{Amount: 500.0, Status: domain.PaymentPending}, // не учитывается
	)
	inv, err = svc.RefreshPaymentStatus(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoicePaid, inv.Status)
}

func TestService_RegisterReminder(t *testing.T) {
	repo := newFakeInvoiceRepo()
	svc := newTestService(repo)
	created, err := svc.Create(context.Background(), &domain.Invoice{ClientID: 7})
	require.NoError(t, err)

	require.NoError(t, svc.RegisterReminder(context.Background(), created.ID))
	require.NoError(t, svc.RegisterReminder(context.Background(), created.ID))

	inv, err := svc.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, inv.ReminderCount)
}

func TestService_ListOverdueUnpaid(t *testing.T) {
	repo := newFakeInvoiceRepo()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), &domain.Invoice{
		ClientID: 7,
		DueDate:  testNow.AddDate(0, 0, -1),
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), &domain.Invoice{ClientID: 7})
	require.NoError(t, err)

	overdue, err := svc.ListOverdueUnpaid(context.Background())
	require.NoError(t, err)
	assert.Len(t, overdue, 1)
}
