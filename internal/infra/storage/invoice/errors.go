package invoice

import "errors"

var (
	// ErrInvoiceNotFound возвращается, когда счёт не найден
	ErrInvoiceNotFound = errors.New("invoice.repository: invoice not found")

	// ErrItemNotFound возвращается, когда позиция счёта не найдена
	ErrItemNotFound = errors.New("invoice.repository: invoice item not found")

	// ErrDuplicateNumber возвращается при нарушении уникальности номера счёта
	ErrDuplicateNumber = errors.New("invoice.repository: duplicate invoice number")

	// ErrDuplicateReservation возвращается при попытке создать второй счёт
	// по тому же бронированию
	ErrDuplicateReservation = errors.New("invoice.repository: invoice already exists for reservation")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("invoice.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("invoice.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("invoice.repository: failed to scan row")
)
