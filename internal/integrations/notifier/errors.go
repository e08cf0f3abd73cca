package notifier

import "errors"

var (
	// ErrSendFailed возвращается, когда сервис уведомлений отклонил запрос
	ErrSendFailed = errors.New("notifier: failed to send notification")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("notifier: internal error")
)
