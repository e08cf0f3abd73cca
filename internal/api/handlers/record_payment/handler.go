package record_payment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/aledhemtek/BillingService/internal/api/handlers"
	"github.com/aledhemtek/BillingService/internal/api/middleware"
	"github.com/aledhemtek/BillingService/internal/domain"
	invoiceModels "github.com/aledhemtek/BillingService/internal/service/invoices/models"
	paymentSvc "github.com/aledhemtek/BillingService/internal/service/payments"
	"github.com/aledhemtek/BillingService/internal/service/payments/models"
)

const (
	msgInvalidInvoiceID  = "некорректный ID счёта"
	msgInvalidBody       = "некорректное тело запроса"
	msgInvalidPayment    = "некорректные данные платежа"
	msgInvoiceNotFound   = "счёт не найден"
	msgInvoiceNotPayable = "счёт нельзя оплатить"
	msgMissingUserID     = "отсутствует ID пользователя"
)

type Handler struct {
	service PaymentService
	logger  Logger
}

func NewHandler(service PaymentService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/invoices/{invoiceId}/payments
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	invoiceID, err := strconv.ParseInt(vars["invoiceId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /invoices/{id}/payments - Invalid invoice ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidInvoiceID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /invoices/{id}/payments - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req models.RecordPaymentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /invoices/{id}/payments - Invalid body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBody)
		return
	}

	payment, err := h.service.RecordPayment(r.Context(), invoiceID, req.Amount, domain.PaymentMethod(req.Method), req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, paymentSvc.ErrInvalidInput):
			h.logger.Warn("POST /invoices/{id}/payments - Invalid payment: invoice_id=%d, error=%v", invoiceID, err)
			handlers.RespondBadRequest(w, msgInvalidPayment)

		case errors.Is(err, paymentSvc.ErrInvoiceNotFound):
			h.logger.Warn("POST /invoices/{id}/payments - Invoice not found: invoice_id=%d", invoiceID)
			handlers.RespondNotFound(w, msgInvoiceNotFound)

		case errors.Is(err, paymentSvc.ErrInvoiceNotPayable):
			h.logger.Warn("POST /invoices/{id}/payments - Invoice not payable: invoice_id=%d", invoiceID)
			handlers.RespondError(w, http.StatusConflict, msgInvoiceNotPayable)

		default:
			h.logger.Error("POST /invoices/{id}/payments - Failed: invoice_id=%d, error=%v", invoiceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /invoices/{id}/payments - Payment recorded: invoice_id=%d, payment=%s, status=%s, user_id=%d",
		invoiceID, payment.PaymentReference, payment.Status, userID)
	handlers.RespondJSON(w, http.StatusCreated, invoiceModels.FromDomainPayment(payment))
}
