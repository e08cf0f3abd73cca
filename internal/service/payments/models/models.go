package models

import (
	"github.com/aledhemtek/BillingService/internal/domain"
	paymentRepo "github.com/aledhemtek/BillingService/internal/infra/storage/payment"
	invoiceModels "github.com/aledhemtek/BillingService/internal/service/invoices/models"
	"github.com/aledhemtek/BillingService/internal/service/payments"
)

// Request модели

// RecordPaymentRequest запрос на запись платежа по счёту
type RecordPaymentRequest struct {
	Amount float64 `json:"amount"`
	Method string  `json:"method"`
	Notes  *string `json:"notes,omitempty"`
}

// ValidatePaymentRequest запрос на подтверждение или отклонение платежа
type ValidatePaymentRequest struct {
	Approved bool    `json:"approved"`
	Notes    *string `json:"notes,omitempty"`
}

// Response модели

// PendingPaymentResponse платёж, ожидающий подтверждения, со сводкой счёта
type PendingPaymentResponse struct {
	Payment       invoiceModels.PaymentResponse `json:"payment"`
	InvoiceNumber string                        `json:"invoiceNumber"`
	InvoiceTotal  float64                       `json:"invoiceTotal"`
	ClientID      int64                         `json:"clientId"`
}

// StatisticsResponse сводка по платежам для дашборда
type StatisticsResponse struct {
	CountByStatus  map[string]int64 `json:"countByStatus"`
	TotalValidated float64          `json:"totalValidated"`
	TotalPending   float64          `json:"totalPending"`
	SuccessRate    float64          `json:"successRate"`
}

// FromPendingPayments конвертирует список ожидающих платежей в response модели
func FromPendingPayments(list []*paymentRepo.PendingPayment) []PendingPaymentResponse {
	out := make([]PendingPaymentResponse, 0, len(list))
	for _, p := range list {
		out = append(out, PendingPaymentResponse{
			Payment:       invoiceModels.FromDomainPayment(&p.Payment),
			InvoiceNumber: p.InvoiceNumber,
			InvoiceTotal:  p.InvoiceTotal,
			ClientID:      p.ClientID,
		})
	}
	return out
}

// FromStatistics конвертирует сводку сервиса в response модель.
// Доля успешных платежей считается от завершённых попыток.
func FromStatistics(stats *payments.Statistics) *StatisticsResponse {
	counts := make(map[string]int64, len(stats.CountByStatus))
	for status, n := range stats.CountByStatus {
		counts[string(status)] = n
	}

	validated := stats.CountByStatus[domain.PaymentValidated]
	failed := stats.CountByStatus[domain.PaymentFailed]
	successRate := 0.0
	if validated+failed > 0 {
		successRate = float64(validated) / float64(validated+failed)
	}

	return &StatisticsResponse{
		CountByStatus:  counts,
		TotalValidated: stats.TotalValidated,
		TotalPending:   stats.TotalPending,
		SuccessRate:    successRate,
	}
}
