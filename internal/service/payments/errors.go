package payments

import "errors"

var (
	// ErrPaymentNotFound возвращается, когда платёж не найден
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrInvoiceNotFound возвращается, когда счёт не найден
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrInvoiceNotPayable возвращается при попытке оплатить
	// оплаченный или отменённый счёт
	ErrInvoiceNotPayable = errors.New("invoice is not payable")

	// ErrNotAwaitingValidation возвращается, когда подтверждаемый платёж
	// не находится в статусе pending
	ErrNotAwaitingValidation = errors.New("payment is not awaiting validation")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
