package invoice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/aledhemtek/BillingService/internal/domain"
	"github.com/aledhemtek/BillingService/pkg/dbmetrics"
	"github.com/aledhemtek/BillingService/pkg/psqlbuilder"
)

// DBExecutor интерфейс для выполнения запросов
type DBExecutor = dbmetrics.DBExecutor

// uniqueViolation код ошибки PostgreSQL для нарушения уникальности
const uniqueViolation = "23505"

// Repository репозиторий для работы со счетами
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория счетов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает счёт вместе с позициями.
// Нарушение уникальности номера или reservation_id транслируется в
// ErrDuplicateNumber / ErrDuplicateReservation — вызывающий код при
// авто-генерации трактует их как признак уже существующего счёта.
func (r *Repository) Create(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("invoices").
		Columns(
			"invoice_number",
			"reservation_id",
			"client_id",
			"issue_date",
			"due_date",
			"status",
			"amount_excl_tax",
			"tax_amount",
			"total_amount",
			"reminder_count",
			"auto_generated",
		).
		Values(
			inv.InvoiceNumber,
			inv.ReservationID,
			inv.ClientID,
			inv.IssueDate,
			inv.DueDate,
			inv.Status,
			inv.AmountExclTax,
			inv.TaxAmount,
			inv.TotalAmount,
			inv.ReminderCount,
			inv.AutoGenerated,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&inv.ID,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		if dupErr := classifyUniqueViolation(err); dupErr != nil {
			return nil, dupErr
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	inv.CreatedAt = createdAt.Time
	inv.UpdatedAt = updatedAt.Time

	for i := range inv.Items {
		inv.Items[i].InvoiceID = inv.ID
		if err := r.insertItem(ctx, executor, &inv.Items[i]); err != nil {
			return nil, err
		}
	}

	return inv, nil
}

// GetByID получает счёт по ID вместе с позициями и платежами
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByReservationID получает счёт по ID бронирования.
// Используется как проверка идемпотентности перед авто-генерацией.
func (r *Repository) GetByReservationID(ctx context.Context, reservationID int64) (*domain.Invoice, error) {
	return r.getOne(ctx, squirrel.Eq{"reservation_id": reservationID})
}

// Update сохраняет изменяемые поля счёта (статус, суммы, счётчик напоминаний)
func (r *Repository) Update(ctx context.Context, inv *domain.Invoice) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("invoices").
		Set("status", inv.Status).
		Set("amount_excl_tax", inv.AmountExclTax).
		Set("tax_amount", inv.TaxAmount).
		Set("total_amount", inv.TotalAmount).
		Set("reminder_count", inv.ReminderCount).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": inv.ID}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Update - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Update - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrInvoiceNotFound
	}

	return nil
}

// AddItem добавляет позицию к счёту
func (r *Repository) AddItem(ctx context.Context, item *domain.InvoiceItem) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)
	return r.insertItem(ctx, executor, item)
}

// RemoveItem удаляет позицию счёта
func (r *Repository) RemoveItem(ctx context.Context, invoiceID, itemID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("invoice_items").
		Where(squirrel.Eq{"id": itemID, "invoice_id": invoiceID}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: RemoveItem - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: RemoveItem - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: RemoveItem - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrItemNotFound
	}

	return nil
}

// ListOverdueUnpaid возвращает счета с истёкшим сроком оплаты,
// которые ещё можно взыскать (не оплачены и не отменены)
func (r *Repository) ListOverdueUnpaid(ctx context.Context, now time.Time) ([]*domain.Invoice, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := selectInvoiceColumns().
		From("invoices").
		Where(squirrel.Lt{"due_date": now}).
		Where(squirrel.NotEq{"status": []string{
			string(domain.InvoicePaid),
			string(domain.InvoiceCancelled),
		}}).
		OrderBy("due_date ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListOverdueUnpaid - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListOverdueUnpaid - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanInvoices(rows)
}

// ListByStatus возвращает счета в указанном статусе
func (r *Repository) ListByStatus(ctx context.Context, status domain.InvoiceStatus) ([]*domain.Invoice, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := selectInvoiceColumns().
		From("invoices").
		Where(squirrel.Eq{"status": status}).
		OrderBy("issue_date DESC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListByStatus - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByStatus - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanInvoices(rows)
}

// getOne получает один счёт по условию, подгружая позиции и платежи
func (r *Repository) getOne(ctx context.Context, where squirrel.Eq) (*domain.Invoice, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := selectInvoiceColumns().
		From("invoices").
		Where(where).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: getOne - build select query: %v", ErrBuildQuery, err)
	}

	var inv domain.Invoice
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&inv.ID,
		&inv.InvoiceNumber,
		&inv.ReservationID,
		&inv.ClientID,
		&inv.IssueDate,
		&inv.DueDate,
		&inv.Status,
		&inv.AmountExclTax,
		&inv.TaxAmount,
		&inv.TotalAmount,
		&inv.ReminderCount,
		&inv.AutoGenerated,
		&createdAt,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: getOne - scan invoice: %v", ErrScanRow, err)
	}

	inv.CreatedAt = createdAt.Time
	inv.UpdatedAt = updatedAt.Time

	items, err := r.getItems(ctx, executor, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Items = items

	payments, err := r.getPayments(ctx, executor, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Payments = payments

	return &inv, nil
}

// insertItem вставляет позицию счёта
func (r *Repository) insertItem(ctx context.Context, executor DBExecutor, item *domain.InvoiceItem) error {
	query, args, err := psqlbuilder.Insert("invoice_items").
		Columns(
			"invoice_id",
			"task_id",
			"designation",
			"description",
			"quantity",
			"unit_price",
			"total",
			"tax_rate",
		).
		Values(
			item.InvoiceID,
			item.TaskID,
			item.Designation,
			item.Description,
			item.Quantity,
			item.UnitPrice,
			item.Total,
			item.TaxRate,
		).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: insertItem - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&item.ID); err != nil {
		return fmt.Errorf("%w: insertItem - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// getItems загружает позиции счёта
func (r *Repository) getItems(ctx context.Context, executor DBExecutor, invoiceID int64) ([]domain.InvoiceItem, error) {
	query, args, err := psqlbuilder.Select(
		"id",
		"invoice_id",
		"task_id",
		"designation",
		"description",
		"quantity",
		"unit_price",
		"total",
		"tax_rate",
	).
		From("invoice_items").
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: getItems - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: getItems - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	items := make([]domain.InvoiceItem, 0)
	for rows.Next() {
		var item domain.InvoiceItem
		err := rows.Scan(
			&item.ID,
			&item.InvoiceID,
			&item.TaskID,
			&item.Designation,
			&item.Description,
			&item.Quantity,
			&item.UnitPrice,
			&item.Total,
			&item.TaxRate,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: getItems - scan row: %v", ErrScanRow, err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: getItems - rows error: %v", ErrScanRow, err)
	}

	return items, nil
}

// getPayments загружает платежи счёта
func (r *Repository) getPayments(ctx context.Context, executor DBExecutor, invoiceID int64) ([]domain.Payment, error) {
	query, args, err := psqlbuilder.Select(
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
	).
		From("payments").
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: getPayments - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: getPayments - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		var p domain.Payment
		var createdAt, updatedAt sql.NullTime
		err := rows.Scan(
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
		if err != nil {
			return nil, fmt.Errorf("%w: getPayments - scan row: %v", ErrScanRow, err)
		}
		p.CreatedAt = createdAt.Time
		p.UpdatedAt = updatedAt.Time
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: getPayments - rows error: %v", ErrScanRow, err)
	}

	return payments, nil
}

// scanInvoices сканирует результаты запроса в слайс счетов (без позиций и платежей)
func (r *Repository) scanInvoices(rows *sql.Rows) ([]*domain.Invoice, error) {
	invoices := make([]*domain.Invoice, 0)

	for rows.Next() {
		var inv domain.Invoice
		var createdAt, updatedAt sql.NullTime

		err := rows.Scan(
			&inv.ID,
			&inv.InvoiceNumber,
			&inv.ReservationID,
			&inv.ClientID,
			&inv.IssueDate,
			&inv.DueDate,
			&inv.Status,
			&inv.AmountExclTax,
			&inv.TaxAmount,
			&inv.TotalAmount,
			&inv.ReminderCount,
			&inv.AutoGenerated,
			&createdAt,
			&updatedAt,
		)

		if err != nil {
			return nil, fmt.Errorf("%w: scanInvoices - scan row: %v", ErrScanRow, err)
		}

		inv.CreatedAt = createdAt.Time
		inv.UpdatedAt = updatedAt.Time

		invoices = append(invoices, &inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanInvoices - rows error: %v", ErrScanRow, err)
	}

	return invoices, nil
}

// selectInvoiceColumns общий список колонок счёта
func selectInvoiceColumns() squirrel.SelectBuilder {
	return psqlbuilder.Select(
		"id",
		"invoice_number",
		"reservation_id",
		"client_id",
		"issue_date",
		"due_date",
		"status",
		"amount_excl_tax",
		"tax_amount",
		"total_amount",
		"reminder_count",
		"auto_generated",
		"created_at",
		"updated_at",
	)
}

// classifyUniqueViolation распознаёт нарушение уникальности от PostgreSQL
// и переводит его в доменную ошибку по имени ограничения
func classifyUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != uniqueViolation {
		return nil
	}

	switch {
	case strings.Contains(pqErr.Constraint, "reservation_id"):
		return ErrDuplicateReservation
	case strings.Contains(pqErr.Constraint, "invoice_number"):
		return ErrDuplicateNumber
	default:
		return ErrDuplicateNumber
	}
}
