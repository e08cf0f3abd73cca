package invoices

import "errors"

var (
	// ErrInvoiceNotFound возвращается, когда счёт не найден
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrItemNotFound возвращается, когда позиция счёта не найдена
	ErrItemNotFound = errors.New("invoice item not found")

	// ErrDuplicateInvoice возвращается при попытке создать второй счёт
	// по тому же бронированию
	ErrDuplicateInvoice = errors.New("invoice already exists for reservation")

	// ErrInvalidTransition возвращается при недопустимой смене статуса счёта
	ErrInvalidTransition = errors.New("invalid invoice status transition")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
