package notifier

// invoiceNotification тело запроса на отправку счёта клиенту
type invoiceNotification struct {
	ClientID      int64   `json:"clientId"`
	InvoiceNumber string  `json:"invoiceNumber"`
	TotalAmount   float64 `json:"totalAmount"`
	DueDate       string  `json:"dueDate"`
	Document      []byte  `json:"document,omitempty"` // base64 при сериализации
}

// reminderNotification тело запроса на напоминание о просроченном счёте
type reminderNotification struct {
	ClientID        int64   `json:"clientId"`
	InvoiceNumber   string  `json:"invoiceNumber"`
	RemainingAmount float64 `json:"remainingAmount"`
	DueDate         string  `json:"dueDate"`
	ReminderNumber  int     `json:"reminderNumber"`
}

// paymentConfirmation тело запроса на подтверждение оплаты
type paymentConfirmation struct {
	ClientID      int64   `json:"clientId"`
	InvoiceNumber string  `json:"invoiceNumber"`
	PaidAmount    float64 `json:"paidAmount"`
	FullyPaid     bool    `json:"fullyPaid"`
}
