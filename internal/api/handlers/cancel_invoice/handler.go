package cancel_invoice

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/aledhemtek/BillingService/internal/api/handlers"
	"github.com/aledhemtek/BillingService/internal/api/middleware"
	invoiceSvc "github.com/aledhemtek/BillingService/internal/service/invoices"
	"github.com/aledhemtek/BillingService/internal/service/invoices/models"
)

const (
	msgInvalidInvoiceID  = "некорректный ID счёта"
	msgNotFound          = "счёт не найден"
	msgInvalidTransition = "счёт нельзя отменить из текущего статуса"
	msgMissingUserID     = "отсутствует ID пользователя"
)

type Handler struct {
	service InvoiceService
	logger  Logger
}

func NewHandler(service InvoiceService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/invoices/{invoiceId}/cancel
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	invoiceID, err := strconv.ParseInt(vars["invoiceId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /invoices/{id}/cancel - Invalid invoice ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidInvoiceID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("PATCH /invoices/{id}/cancel - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	invoice, err := h.service.Cancel(r.Context(), invoiceID)
	if err != nil {
		switch {
		case errors.Is(err, invoiceSvc.ErrInvoiceNotFound):
			h.logger.Warn("PATCH /invoices/{id}/cancel - Invoice not found: invoice_id=%d", invoiceID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, invoiceSvc.ErrInvalidTransition):
			h.logger.Warn("PATCH /invoices/{id}/cancel - Invalid transition: invoice_id=%d", invoiceID)
			handlers.RespondError(w, http.StatusConflict, msgInvalidTransition)

		default:
			h.logger.Error("PATCH /invoices/{id}/cancel - Failed: invoice_id=%d, error=%v", invoiceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /invoices/{id}/cancel - Invoice cancelled: invoice_id=%d, user_id=%d", invoiceID, userID)
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainInvoice(invoice))
}
