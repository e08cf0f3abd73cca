package domain

// Default billing values
const (
	DefaultTaxRate          = 20.0 // VAT, %
	DefaultDueDateGraceDays = 30
	DefaultServiceFeeRate   = 0.05 // 5% of the item subtotal
	DefaultReminderCeiling  = 3
)

// Reference number prefixes: INV-YYYYMM-nnnnnn / PAY-YYYYMM-nnnnnn
const (
	InvoiceNumberPrefix    = "INV"
	PaymentReferencePrefix = "PAY"
)

// Time format constants
const (
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// ServiceFeeDesignation название позиции сервисного сбора в счёте
const ServiceFeeDesignation = "Frais de service"
