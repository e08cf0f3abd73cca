package update_reservation_status

import (
	"context"

	"github.com/aledhemtek/BillingService/internal/domain"
)

type ReservationStatusUseCase interface {
	Execute(ctx context.Context, reservationID int64, newStatus string) (*domain.Reservation, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
