package update_reservation_status

import (
	"context"
	"errors"
	"fmt"

	"github.com/aledhemtek/BillingService/internal/domain"
	reservationRepo "github.com/aledhemtek/BillingService/internal/infra/storage/reservation"
)

// UseCase use case смены статуса бронирования. Смена статуса и выставление
// счёта разведены: статус фиксируется своей транзакцией, биллинг
// запускается после неё, и его сбой статус не откатывает.
type UseCase struct {
	reservationRepo ReservationRepository
	billing         BillingTrigger
	txManager       TransactionManager
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	billing BillingTrigger,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		reservationRepo: reservationRepo,
		billing:         billing,
		txManager:       txManager,
		logger:          logger,
	}
}

// Execute меняет статус бронирования; переход в completed запускает
// выставление счёта
func (uc *UseCase) Execute(ctx context.Context, reservationID int64, newStatus string) (*domain.Reservation, error) {
	uc.logger.Info("UpdateReservationStatus: reservation=%d, status=%s", reservationID, newStatus)

	if !domain.ValidReservationStatus(newStatus) {
		uc.logger.Warn("UpdateReservationStatus: unknown status %q", newStatus)
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}
	target := domain.ReservationStatus(newStatus)

	var reservation *domain.Reservation
	var previous domain.ReservationStatus
	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		reservation, err = uc.reservationRepo.GetByID(txCtx, reservationID)
		if err != nil {
			if errors.Is(err, reservationRepo.ErrReservationNotFound) {
				return ErrReservationNotFound
			}
			return fmt.Errorf("%w: failed to load reservation: %v", ErrInternal, err)
		}
		previous = reservation.Status

		if reservation.Status == target {
			return nil
		}
		if !reservation.CanTransitionTo(target) {
			uc.logger.Warn("UpdateReservationStatus: reservation=%d cannot go from %s to %s",
				reservationID, reservation.Status, target)
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, reservation.Status, target)
		}

		if err := uc.reservationRepo.UpdateStatus(txCtx, reservationID, target); err != nil {
			return fmt.Errorf("%w: failed to update status: %v", ErrInternal, err)
		}
		reservation.Status = target
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrReservationNotFound) && !errors.Is(err, ErrInvalidTransition) {
			uc.logger.Error("UpdateReservationStatus: reservation=%d: %v", reservationID, err)
		}
		return nil, err
	}

	// Статус зафиксирован; биллинг запускается отдельно, его сбой
	// логируется и проглатывается
	if target == domain.ReservationCompleted && previous != domain.ReservationCompleted {
		if _, err := uc.billing.Execute(ctx, reservationID); err != nil {
			uc.logger.Error("UpdateReservationStatus: billing failed for reservation=%d: %v", reservationID, err)
		}
	}

	return reservation, nil
}
