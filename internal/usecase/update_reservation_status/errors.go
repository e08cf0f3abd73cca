package update_reservation_status

import "errors"

var (
	// ErrReservationNotFound возвращается, когда бронирование не найдено
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrInvalidStatus возвращается при неизвестном статусе бронирования
	ErrInvalidStatus = errors.New("invalid reservation status")

	// ErrInvalidTransition возвращается при недопустимой смене статуса
	ErrInvalidTransition = errors.New("invalid reservation status transition")

	// ErrInternal возвращается при внутренних ошибках use case
	ErrInternal = errors.New("usecase: internal error")
)
