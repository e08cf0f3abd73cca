package get_invoice

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
	msgInvalidInvoiceID = "некорректный ID счёта"
	msgNotFound         = "счёт не найден"
	msgMissingUserID    = "отсутствует ID пользователя"
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

// Handle GET /api/v1/invoices/{invoiceId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	invoiceID, err := strconv.ParseInt(vars["invoiceId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /invoices/{id} - Invalid invoice ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidInvoiceID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("GET /invoices/{id} - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	invoice, err := h.service.GetByID(r.Context(), invoiceID)
	if err != nil {
		switch {
		case errors.Is(err, invoiceSvc.ErrInvoiceNotFound):
			h.logger.Warn("GET /invoices/{id} - Invoice not found: invoice_id=%d", invoiceID)
			handlers.RespondNotFound(w, msgNotFound)

		default:
			h.logger.Error("GET /invoices/{id} - Failed to get invoice: invoice_id=%d, error=%v", invoiceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /invoices/{id} - Invoice retrieved: invoice_id=%d, user_id=%d", invoiceID, userID)
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainInvoice(invoice))
}
