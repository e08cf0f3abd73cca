package validate_payment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/aledhemtek/BillingService/internal/api/handlers"
	"github.com/aledhemtek/BillingService/internal/api/middleware"
	invoiceModels "github.com/aledhemtek/BillingService/internal/service/invoices/models"
	paymentSvc "github.com/aledhemtek/BillingService/internal/service/payments"
	"github.com/aledhemtek/BillingService/internal/service/payments/models"
)

const (
	msgInvalidPaymentID = "некорректный ID платежа"
	msgInvalidBody      = "некорректное тело запроса"
	msgNotFound         = "платёж не найден"
	msgNotPending       = "платёж не ожидает подтверждения"
	msgMissingUserID    = "отсутствует ID пользователя"
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

// Handle PATCH /api/v1/payments/{paymentId}/validate
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	paymentID, err := strconv.ParseInt(vars["paymentId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /payments/{id}/validate - Invalid payment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidPaymentID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("PATCH /payments/{id}/validate - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req models.ValidatePaymentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /payments/{id}/validate - Invalid body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBody)
		return
	}

	payment, err := h.service.Validate(r.Context(), paymentID, req.Approved, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, paymentSvc.ErrPaymentNotFound):
			h.logger.Warn("PATCH /payments/{id}/validate - Payment not found: payment_id=%d", paymentID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, paymentSvc.ErrNotAwaitingValidation):
			h.logger.Warn("PATCH /payments/{id}/validate - Payment not pending: payment_id=%d", paymentID)
			handlers.RespondError(w, http.StatusConflict, msgNotPending)

		default:
			h.logger.Error("PATCH /payments/{id}/validate - Failed: payment_id=%d, error=%v", paymentID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /payments/{id}/validate - Payment %s: payment_id=%d, admin_id=%d",
		payment.Status, paymentID, userID)
	handlers.RespondJSON(w, http.StatusOK, invoiceModels.FromDomainPayment(payment))
}
