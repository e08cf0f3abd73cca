package domain

import "time"

// ReservationStatus represents the status of a reservation
type ReservationStatus string

const (
	ReservationPending    ReservationStatus = "pending"
	ReservationAssigned   ReservationStatus = "assigned"
	ReservationInProgress ReservationStatus = "in_progress"
	ReservationCompleted  ReservationStatus = "completed"
	ReservationCancelled  ReservationStatus = "cancelled"
)

// reservationTransitions допустимые переходы статусов бронирования
var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationPending:    {ReservationAssigned, ReservationCancelled},
	ReservationAssigned:   {ReservationInProgress, ReservationCancelled},
	ReservationInProgress: {ReservationCompleted, ReservationCancelled},
	ReservationCompleted:  {},
	ReservationCancelled:  {},
}

// Reservation represents a client's booking of one or more catalog tasks
type Reservation struct {
	ID           int64
	ClientID     int64
	ConsultantID *int64
	Title        string
	StartDate    time.Time
	EndDate      time.Time
	Status       ReservationStatus

	// Task associations with captured quantities and prices
	Tasks []TaskAssociation

	// Cached sum of task-association line totals
	TotalPrice float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TaskAssociation связь бронирования с задачей каталога.
// Хранит количество и зафиксированную на момент бронирования цену.
type TaskAssociation struct {
	ID         int64
	TaskID     int64
	TaskName   string
	Quantity   int
	UnitPrice  *float64
	TotalPrice *float64
}

// LineTotal returns the captured line total, deriving it from the unit price
// when it was not stored explicitly.
func (a *TaskAssociation) LineTotal() float64 {
	if a.TotalPrice != nil {
		return *a.TotalPrice
	}
	if a.UnitPrice != nil {
		return *a.UnitPrice * float64(a.Quantity)
	}
	return 0
}

// IsCompleted returns true if the reservation reached its terminal completed state
func (r *Reservation) IsCompleted() bool {
	return r.Status == ReservationCompleted
}

// IsActive returns true if the reservation has not been cancelled
func (r *Reservation) IsActive() bool {
	return r.Status != ReservationCancelled
}

// CanTransitionTo returns true if the status change is allowed.
// Completed and cancelled are terminal: completed reservations are invoiced
// and must not be un-completed.
func (r *Reservation) CanTransitionTo(target ReservationStatus) bool {
	for _, s := range reservationTransitions[r.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// CalculateTotalPrice recomputes the cached total from task-association line totals
func (r *Reservation) CalculateTotalPrice() float64 {
	total := 0.0
	for i := range r.Tasks {
		total += r.Tasks[i].LineTotal()
	}
	r.TotalPrice = total
	return total
}

// ValidReservationStatus проверяет, что строка является известным статусом
func ValidReservationStatus(s string) bool {
	switch ReservationStatus(s) {
	case ReservationPending, ReservationAssigned, ReservationInProgress,
		ReservationCompleted, ReservationCancelled:
		return true
	}
	return false
}
