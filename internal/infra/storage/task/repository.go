package task

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/aledhemtek/BillingService/internal/domain"
	"github.com/aledhemtek/BillingService/pkg/dbmetrics"
	"github.com/aledhemtek/BillingService/pkg/psqlbuilder"
)

// DBExecutor интерфейс для выполнения запросов
type DBExecutor = dbmetrics.DBExecutor

// Repository репозиторий каталога задач и их тарифов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория задач
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает задачу по ID вместе с тарифами
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"name",
		"description",
		"duration_minutes",
		"created_at",
		"updated_at",
	).
		From("tasks").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var t domain.Task
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&t.ID,
		&t.Name,
		&t.Description,
		&t.DurationMinutes,
		&createdAt,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan task: %v", ErrScanRow, err)
	}

	t.CreatedAt = createdAt.Time
	t.UpdatedAt = updatedAt.Time

	rates, err := r.getRates(ctx, executor, id)
	if err != nil {
		return nil, err
	}
	t.Rates = rates

	return &t, nil
}

// getRates загружает тарифы задачи в порядке создания
func (r *Repository) getRates(ctx context.Context, executor DBExecutor, taskID int64) ([]domain.Rate, error) {
	query, args, err := psqlbuilder.Select(
		"id",
		"task_id",
		"price",
		"start_date",
		"end_date",
	).
		From("rates").
		Where(squirrel.Eq{"task_id": taskID}).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: getRates - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: getRates - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	rates := make([]domain.Rate, 0)
	for rows.Next() {
		var rate domain.Rate
		if err := rows.Scan(&rate.ID, &rate.TaskID, &rate.Price, &rate.StartDate, &rate.EndDate); err != nil {
			return nil, fmt.Errorf("%w: getRates - scan row: %v", ErrScanRow, err)
		}
		rates = append(rates, rate)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: getRates - rows error: %v", ErrScanRow, err)
	}

	return rates, nil
}
