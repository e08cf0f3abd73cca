package generate_invoice

import "errors"

var (
	// ErrReservationNotFound возвращается, когда бронирование не найдено
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrReservationNotCompleted возвращается, когда бронирование
	// ещё не завершено и счёт по нему выставлять рано
	ErrReservationNotCompleted = errors.New("reservation is not completed")

	// ErrInternal возвращается при внутренних ошибках use case
	ErrInternal = errors.New("usecase: internal error")
)
