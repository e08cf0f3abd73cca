package payments

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledhemtek/BillingService/internal/domain"
	paymentRepo "github.com/aledhemtek/BillingService/internal/infra/storage/payment"
)

var testNow = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type nopMetrics struct{}

func (nopMetrics) IncPaymentRecorded(string, string) {}

type seqRefs struct{ n int }

func (s *seqRefs) Next(now time.Time) string {
	s.n++
	return fmt.Sprintf("PAY-%s-%06d", now.Format("200601"), s.n)
}

// stubGateway всегда возвращает заранее заданный исход
type stubGateway struct {
	approved bool
	charges  int
}

func (g *stubGateway) Charge(_ context.Context, _ *domain.Payment) (string, bool) {
	g.charges++
	return fmt.Sprintf("TXN-%d", g.charges), g.approved
}

type fakePaymentRepo struct {
	payments    map[int64]*domain.Payment
	nextID      int64
	refCollides int
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: map[int64]*domain.Payment{}, nextID: 1}
}

func (f *fakePaymentRepo) Create(_ context.Context, p *domain.Payment) (*domain.Payment, error) {
	if f.refCollides > 0 {
		f.refCollides--
		return nil, paymentRepo.ErrDuplicateReference
	}
	stored := *p
	stored.ID = f.nextID
	f.nextID++
	f.payments[stored.ID] = &stored
	return &stored, nil
}

func (f *fakePaymentRepo) GetByID(_ context.Context, id int64) (*domain.Payment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, paymentRepo.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePaymentRepo) UpdateStatus(_ context.Context, id int64, status domain.PaymentStatus, notes *string) error {
	p, ok := f.payments[id]
	if !ok {
		return paymentRepo.ErrPaymentNotFound
	}
	p.Status = status
	if notes != nil {
		p.Notes = notes
	}
	return nil
}

func (f *fakePaymentRepo) ListPendingWithInvoice(_ context.Context) ([]*paymentRepo.PendingPayment, error) {
	var out []*paymentRepo.PendingPayment
	for _, p := range f.payments {
		if p.Status == domain.PaymentPending {
			out = append(out, &paymentRepo.PendingPayment{Payment: *p})
		}
	}
	return out, nil
}

func (f *fakePaymentRepo) CountByStatus(_ context.Context) (map[domain.PaymentStatus]int64, error) {
	counts := map[domain.PaymentStatus]int64{}
	for _, p := range f.payments {
		counts[p.Status]++
	}
	return counts, nil
}

func (f *fakePaymentRepo) SumAmountByStatus(_ context.Context, status domain.PaymentStatus) (float64, error) {
	sum := 0.0
	for _, p := range f.payments {
		if p.Status == status {
			sum += p.Amount
		}
	}
	return sum, nil
}

// fakeInvoiceSvc отдает один счёт и считает вызовы пересчёта
type fakeInvoiceSvc struct {
	invoice   *domain.Invoice
	refreshed int
	paidAfter bool
}

func (f *fakeInvoiceSvc) GetByID(_ context.Context, id int64) (*domain.Invoice, error) {
	if f.invoice == nil || f.invoice.ID != id {
		return nil, fmt.Errorf("invoice not found")
	}
	return f.invoice, nil
}

func (f *fakeInvoiceSvc) RefreshPaymentStatus(_ context.Context, id int64) (*domain.Invoice, error) {
	f.refreshed++
	if f.paidAfter {
		f.invoice.Status = domain.InvoicePaid
	}
	return f.invoice, nil
}

type recordingNotifier struct{ confirmations int }

func (n *recordingNotifier) SendPaymentConfirmation(context.Context, *domain.Invoice) error {
	n.confirmations++
	return nil
}

func newTestService(repo *fakePaymentRepo, invSvc *fakeInvoiceSvc, gw Gateway, n Notifier) *Service {
	svc := NewService(repo, invSvc, gw, n, &seqRefs{}, nopMetrics{}, nopLogger{})
	svc.timeProvider = fixedTime{testNow}
	return svc
}

func pendingInvoice() *fakeInvoiceSvc {
	return &fakeInvoiceSvc{invoice: &domain.Invoice{ID: 1, ClientID: 7, Status: domain.InvoicePending, TotalAmount: 100.0}}
}

func TestRecordPayment_CashValidatedImmediately(t *testing.T) {
	repo := newFakePaymentRepo()
	invSvc := pendingInvoice()
	invSvc.paidAfter = true
	notifier := &recordingNotifier{}
	svc := newTestService(repo, invSvc, &stubGateway{}, notifier)

	p, err := svc.RecordPayment(context.Background(), 1, 100.0, domain.MethodCash, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentValidated, p.Status)
	assert.True(t, strings.HasPrefix(p.PaymentReference, "PAY-202507-"))
	assert.Equal(t, testNow, p.PaymentDate)
	assert.Nil(t, p.TransactionID)
	assert.Equal(t, 1, invSvc.refreshed)
	assert.Equal(t, 1, notifier.confirmations)
}

func TestRecordPayment_BankTransferAwaitsValidation(t *testing.T) {
	repo := newFakePaymentRepo()
	invSvc := pendingInvoice()
	svc := newTestService(repo, invSvc, &stubGateway{}, &recordingNotifier{})

	p, err := svc.RecordPayment(context.Background(), 1, 50.0, domain.MethodBankTransfer, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentPending, p.Status)
	assert.Equal(t, 0, invSvc.refreshed)
}

func TestRecordPayment_CardThroughGateway(t *testing.T) {
	t.Run("approved", func(t *testing.T) {
		repo := newFakePaymentRepo()
		invSvc := pendingInvoice()
		svc := newTestService(repo, invSvc, &stubGateway{approved: true}, &recordingNotifier{})

		p, err := svc.RecordPayment(context.Background(), 1, 100.0, domain.MethodCreditCard, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentValidated, p.Status)
		require.NotNil(t, p.TransactionID)
		assert.Equal(t, 1, invSvc.refreshed)
	})

	t.Run("declined", func(t *testing.T) {
		repo := newFakePaymentRepo()
		invSvc := pendingInvoice()
		svc := newTestService(repo, invSvc, &stubGateway{approved: false}, &recordingNotifier{})

		p, err := svc.RecordPayment(context.Background(), 1, 100.0, domain.MethodPayPal, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentFailed, p.Status)
		require.NotNil(t, p.TransactionID)
		assert.Equal(t, 0, invSvc.refreshed)
	})
}

func TestRecordPayment_Validation(t *testing.T) {
	svc := newTestService(newFakePaymentRepo(), pendingInvoice(), &stubGateway{}, nil)

	_, err := svc.RecordPayment(context.Background(), 1, 0, domain.MethodCash, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.RecordPayment(context.Background(), 1, 10.0, "bitcoin", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRecordPayment_InvoiceNotPayable(t *testing.T) {
	for _, status := range []domain.InvoiceStatus{domain.InvoicePaid, domain.InvoiceCancelled} {
		invSvc := pendingInvoice()
		invSvc.invoice.Status = status
		svc := newTestService(newFakePaymentRepo(), invSvc, &stubGateway{}, nil)

		_, err := svc.RecordPayment(context.Background(), 1, 10.0, domain.MethodCash, nil)
		assert.ErrorIs(t, err, ErrInvoiceNotPayable, "status %s", status)
	}
}

func TestRecordPayment_InvoiceNotFound(t *testing.T) {
	svc := newTestService(newFakePaymentRepo(), pendingInvoice(), &stubGateway{}, nil)

	_, err := svc.RecordPayment(context.Background(), 404, 10.0, domain.MethodCash, nil)
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestRecordPayment_ReferenceCollisionRetried(t *testing.T) {
	repo := newFakePaymentRepo()
	repo.refCollides = 2
	svc := newTestService(repo, pendingInvoice(), &stubGateway{}, nil)

	p, err := svc.RecordPayment(context.Background(), 1, 10.0, domain.MethodCheck, nil)
	require.NoError(t, err)
	assert.Equal(t, "PAY-202507-000003", p.PaymentReference)
}

func TestValidate_Approve(t *testing.T) {
	repo := newFakePaymentRepo()
	invSvc := pendingInvoice()
	invSvc.paidAfter = true
	notifier := &recordingNotifier{}
	svc := newTestService(repo, invSvc, &stubGateway{}, notifier)

	created, err := svc.RecordPayment(context.Background(), 1, 100.0, domain.MethodCheck, nil)
	require.NoError(t, err)

	notes := "reçu vérifié"
	p, err := svc.Validate(context.Background(), created.ID, true, &notes)
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentValidated, p.Status)
	require.NotNil(t, p.Notes)
	assert.Equal(t, notes, *p.Notes)
	assert.Equal(t, 1, invSvc.refreshed)
	assert.Equal(t, 1, notifier.confirmations)
}

func TestValidate_Reject(t *testing.T) {
	repo := newFakePaymentRepo()
	invSvc := pendingInvoice()
	svc := newTestService(repo, invSvc, &stubGateway{}, nil)

	created, err := svc.RecordPayment(context.Background(), 1, 100.0, domain.MethodBankTransfer, nil)
	require.NoError(t, err)

	p, err := svc.Validate(context.Background(), created.ID, false, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentFailed, p.Status)
	assert.Equal(t, 0, invSvc.refreshed)
}

func TestValidate_OnlyPendingPayments(t *testing.T) {
	repo := newFakePaymentRepo()
	svc := newTestService(repo, pendingInvoice(), &stubGateway{}, nil)

	created, err := svc.RecordPayment(context.Background(), 1, 100.0, domain.MethodCash, nil)
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), created.ID, true, nil)
	assert.ErrorIs(t, err, ErrNotAwaitingValidation)

	_, err = svc.Validate(context.Background(), 404, true, nil)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestGetPendingPayments(t *testing.T) {
	repo := newFakePaymentRepo()
	svc := newTestService(repo, pendingInvoice(), &stubGateway{}, nil)

	_, err := svc.RecordPayment(context.Background(), 1, 10.0, domain.MethodCash, nil)
	require.NoError(t, err)
	_, err = svc.RecordPayment(context.Background(), 1, 20.0, domain.MethodCheck, nil)
	require.NoError(t, err)

	pending, err := svc.GetPendingPayments(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 20.0, pending[0].Payment.Amount)
}

func TestGetStatistics(t *testing.T) {
	repo := newFakePaymentRepo()
	svc := newTestService(repo, pendingInvoice(), &stubGateway{}, nil)

	_, err := svc.RecordPayment(context.Background(), 1, 30.0, domain.MethodCash, nil)
	require.NoError(t, err)
	_, err = svc.RecordPayment(context.Background(), 1, 20.0, domain.MethodCash, nil)
	require.NoError(t, err)
	_, err = svc.RecordPayment(context.Background(), 1, 40.0, domain.MethodBankTransfer, nil)
	require.NoError(t, err)

	stats, err := svc.GetStatistics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.CountByStatus[domain.PaymentValidated])
	assert.Equal(t, int64(1), stats.CountByStatus[domain.PaymentPending])
	assert.Equal(t, 50.0, stats.TotalValidated)
	assert.Equal(t, 40.0, stats.TotalPending)
}

func TestSimulatedGateway_AlwaysApprovesAtFullRate(t *testing.T) {
	gw := NewSimulatedGateway(1.0, 42)

	for i := 0; i < 20; i++ {
		txID, approved := gw.Charge(context.Background(), &domain.Payment{})
		assert.True(t, approved)
		assert.True(t, strings.HasPrefix(txID, "TXN-"))
	}
}
