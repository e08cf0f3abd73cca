package domain

import "time"

// Task represents a catalog task that can be booked and billed
type Task struct {
	ID              int64
	Name            string
	Description     *string
	DurationMinutes int

	// Ordered rate records; several may be valid at the same instant
	Rates []Rate

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Rate цена задачи, действующая в необязательном окне дат.
// Нулевые границы означают отсутствие ограничения с этой стороны.
type Rate struct {
	ID        int64
	TaskID    int64
	Price     float64
	StartDate *time.Time
	EndDate   *time.Time
}

// IsValidAt returns true if the rate applies at the given instant:
// (start is nil or t >= start) and (end is nil or t <= end). A rate with no
// window at all is always valid.
func (r *Rate) IsValidAt(t time.Time) bool {
	if r.StartDate != nil && t.Before(*r.StartDate) {
		return false
	}
	if r.EndDate != nil && t.After(*r.EndDate) {
		return false
	}
	return true
}
