package reservation

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/aledhemtek/BillingService/internal/domain"
	"github.com/aledhemtek/BillingService/pkg/dbmetrics"
	"github.com/aledhemtek/BillingService/pkg/psqlbuilder"
)

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает бронирование по ID вместе со связанными задачами
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"client_id",
		"consultant_id",
		"title",
		"start_date",
		"end_date",
		"status",
		"total_price",
		"created_at",
		"updated_at",
	).
		From("reservations").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var res domain.Reservation
	var title sql.NullString
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&res.ID,
		&res.ClientID,
		&res.ConsultantID,
		&title,
		&res.StartDate,
		&res.EndDate,
		&res.Status,
		&res.TotalPrice,
		&createdAt,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan reservation: %v", ErrScanRow, err)
	}

	res.Title = title.String
	res.CreatedAt = createdAt.Time
	res.UpdatedAt = updatedAt.Time

	tasks, err := r.getTaskAssociations(ctx, executor, id)
	if err != nil {
		return nil, err
	}
	res.Tasks = tasks

	return &res, nil
}

// UpdateStatus обновляет статус бронирования
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.ReservationStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("reservations").
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

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
		return ErrReservationNotFound
	}

	return nil
}

// ListCompletedWithoutInvoice возвращает завершённые бронирования без счёта.
// Используется фоновой задачей как страховка на случай пропущенного
// событийного триггера авто-генерации.
func (r *Repository) ListCompletedWithoutInvoice(ctx context.Context) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"r.id",
		"r.client_id",
		"r.consultant_id",
		"r.title",
		"r.start_date",
		"r.end_date",
		"r.status",
		"r.total_price",
		"r.created_at",
		"r.updated_at",
	).
		From("reservations r").
		LeftJoin("invoices i ON i.reservation_id = r.id").
		Where(squirrel.Eq{"r.status": domain.ReservationCompleted}).
		Where("i.id IS NULL").
		OrderBy("r.id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListCompletedWithoutInvoice - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListCompletedWithoutInvoice - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	reservations, err := r.scanReservations(rows)
	if err != nil {
		return nil, err
	}

	for _, res := range reservations {
		tasks, err := r.getTaskAssociations(ctx, executor, res.ID)
		if err != nil {
			return nil, err
		}
		res.Tasks = tasks
	}

	return reservations, nil
}

// ListByClient получает бронирования клиента
func (r *Repository) ListByClient(ctx context.Context, clientID int64) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"client_id",
		"consultant_id",
		"title",
		"start_date",
		"end_date",
		"status",
		"total_price",
		"created_at",
		"updated_at",
	).
		From("reservations").
		Where(squirrel.Eq{"client_id": clientID}).
		OrderBy("start_date DESC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListByClient - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByClient - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanReservations(rows)
}

// getTaskAssociations загружает связи бронирования с задачами
func (r *Repository) getTaskAssociations(ctx context.Context, executor DBExecutor, reservationID int64) ([]domain.TaskAssociation, error) {
	query, args, err := psqlbuilder.Select(
		"id",
		"task_id",
		"task_name",
		"quantity",
		"unit_price",
		"total_price",
	).
		From("reservation_tasks").
		Where(squirrel.Eq{"reservation_id": reservationID}).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: getTaskAssociations - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: getTaskAssociations - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	associations := make([]domain.TaskAssociation, 0)
	for rows.Next() {
		var a domain.TaskAssociation
		if err := rows.Scan(&a.ID, &a.TaskID, &a.TaskName, &a.Quantity, &a.UnitPrice, &a.TotalPrice); err != nil {
			return nil, fmt.Errorf("%w: getTaskAssociations - scan row: %v", ErrScanRow, err)
		}
		associations = append(associations, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: getTaskAssociations - rows error: %v", ErrScanRow, err)
	}

	return associations, nil
}

// scanReservations сканирует результаты запроса в слайс бронирований
func (r *Repository) scanReservations(rows *sql.Rows) ([]*domain.Reservation, error) {
	reservations := make([]*domain.Reservation, 0)

	for rows.Next() {
		var res domain.Reservation
		var title sql.NullString
		var createdAt, updatedAt sql.NullTime

		err := rows.Scan(
			&res.ID,
			&res.ClientID,
			&res.ConsultantID,
			&title,
			&res.StartDate,
			&res.EndDate,
			&res.Status,
			&res.TotalPrice,
			&createdAt,
			&updatedAt,
		)

		if err != nil {
			return nil, fmt.Errorf("%w: scanReservations - scan row: %v", ErrScanRow, err)
		}

		res.Title = title.String
		res.CreatedAt = createdAt.Time
		res.UpdatedAt = updatedAt.Time

		reservations = append(reservations, &res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanReservations - rows error: %v", ErrScanRow, err)
	}

	return reservations, nil
}
