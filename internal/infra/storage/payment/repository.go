package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/aledhemtek/BillingService/internal/domain"
	"github.com/aledhemtek/BillingService/pkg/dbmetrics"
	"github.com/aledhemtek/BillingService/pkg/psqlbuilder"
)

// DBExecutor интерфейс для выполнения запросов
type DBExecutor = dbmetrics.DBExecutor

const uniqueViolation = "23505"

// PendingPayment платёж, ожидающий подтверждения, обогащённый данными
// счёта для отображения админу
type PendingPayment struct {
	Payment       domain.Payment
	InvoiceNumber string
	InvoiceTotal  float64
	ClientID      int64
}

// Repository репозиторий для работы с платежами
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория платежей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новый платёж
func (r *Repository) Create(ctx context.Context, p *domain.Payment) (*domain.Payment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("payments").
		Columns(
			"payment_reference",
			"invoice_id",
			"amount",
			"payment_method",
			"status",
			"transaction_id",
			"notes",
			"payment_date",
		).
		Values(
			p.PaymentReference,
			p.InvoiceID,
			p.Amount,
			p.Method,
			p.Status,
			p.TransactionID,
			p.Notes,
			p.PaymentDate,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&p.ID,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return nil, ErrDuplicateReference
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time

	return p, nil
}

// GetByID получает платёж по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := selectPaymentColumns().
		From("payments").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var p domain.Payment
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&p.ID,
		&p.PaymentReference,
		&p.InvoiceID,
		&p.Amount,
		&p.Method,
		&p.Status,
		&p.TransactionID,
		&p.Notes,
		&p.PaymentDate,
		&createdAt,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan payment: %v", ErrScanRow, err)
	}

	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time

	return &p, nil
}

// UpdateStatus обновляет статус и заметки платежа.
// Статус — единственное изменяемое поле платежа после создания (плюс заметки).
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.PaymentStatus, notes *string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Update("payments").
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id})

	if notes != nil {
		builder = builder.Set("notes", *notes)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrPaymentNotFound
	}

	return nil
}

// ListPendingWithInvoice возвращает платежи, ожидающие ручного подтверждения,
// вместе с данными счёта для отображения в админке
func (r *Repository) ListPendingWithInvoice(ctx context.Context) ([]*PendingPayment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"p.id",
		"p.payment_reference",
		"p.invoice_id",
		"p.amount",
		"p.payment_method",
		"p.status",
		"p.transaction_id",
		"p.notes",
		"p.payment_date",
		"p.created_at",
		"p.updated_at",
		"i.invoice_number",
		"i.total_amount",
		"i.client_id",
	).
		From("payments p").
		Join("invoices i ON i.id = p.invoice_id").
		Where(squirrel.Eq{"p.status": domain.PaymentPending}).
		OrderBy("p.created_at ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListPendingWithInvoice - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListPendingWithInvoice - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	pending := make([]*PendingPayment, 0)
	for rows.Next() {
		var pp PendingPayment
		var createdAt, updatedAt sql.NullTime

		err := rows.Scan(
			&pp.Payment.ID,
			&pp.Payment.PaymentReference,
			&pp.Payment.InvoiceID,
			&pp.Payment.Amount,
			&pp.Payment.Method,
			&pp.Payment.Status,
			&pp.Payment.TransactionID,
			&pp.Payment.Notes,
			&pp.Payment.PaymentDate,
			&createdAt,
			&updatedAt,
			&pp.InvoiceNumber,
			&pp.InvoiceTotal,
			&pp.ClientID,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: ListPendingWithInvoice - scan row: %v", ErrScanRow, err)
		}

		pp.Payment.CreatedAt = createdAt.Time
		pp.Payment.UpdatedAt = updatedAt.Time

		pending = append(pending, &pp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListPendingWithInvoice - rows error: %v", ErrScanRow, err)
	}

	return pending, nil
}

// CountByStatus возвращает количество платежей в каждом статусе
func (r *Repository) CountByStatus(ctx context.Context) (map[domain.PaymentStatus]int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("status", "COUNT(*)").
		From("payments").
		GroupBy("status").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: CountByStatus - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: CountByStatus - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	counts := make(map[domain.PaymentStatus]int64)
	for rows.Next() {
		var status domain.PaymentStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("%w: CountByStatus - scan row: %v", ErrScanRow, err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: CountByStatus - rows error: %v", ErrScanRow, err)
	}

	return counts, nil
}

// SumAmountByStatus возвращает сумму платежей в указанном статусе
func (r *Repository) SumAmountByStatus(ctx context.Context, status domain.PaymentStatus) (float64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COALESCE(SUM(amount), 0)").
		From("payments").
		Where(squirrel.Eq{"status": status}).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: SumAmountByStatus - build select query: %v", ErrBuildQuery, err)
	}

	var sum float64
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&sum); err != nil {
		return 0, fmt.Errorf("%w: SumAmountByStatus - scan sum: %v", ErrScanRow, err)
	}

	return sum, nil
}

// selectPaymentColumns общий список колонок платежа
func selectPaymentColumns() squirrel.SelectBuilder {
	return psqlbuilder.Select(
		"id",
		"payment_reference",
		"invoice_id",
		"amount",
		"payment_method",
		"status",
		"transaction_id",
		"notes",
		"payment_date",
		"created_at",
		"updated_at",
	)
}
