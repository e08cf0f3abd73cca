package send_invoice

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
	msgInvalidTransition = "счёт нельзя отправить из текущего статуса"
	msgMissingUserID     = "отсутствует ID пользователя"
)

type Handler struct {
	service  InvoiceService
	renderer Renderer
	notifier Notifier
	logger   Logger
}

func NewHandler(service InvoiceService, renderer Renderer, notifier Notifier, logger Logger) *Handler {
	return &Handler{
		service:  service,
		renderer: renderer,
		notifier: notifier,
		logger:   logger,
	}
}

// Handle POST /api/v1/invoices/{invoiceId}/send
// Статус фиксируется сразу; сбой генерации документа или доставки
// логируется и на ответ не влияет
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	invoiceID, err := strconv.ParseInt(vars["invoiceId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /invoices/{id}/send - Invalid invoice ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidInvoiceID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /invoices/{id}/send - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	invoice, err := h.service.MarkSent(r.Context(), invoiceID)
	if err != nil {
		switch {
		case errors.Is(err, invoiceSvc.ErrInvoiceNotFound):
			h.logger.Warn("POST /invoices/{id}/send - Invoice not found: invoice_id=%d", invoiceID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, invoiceSvc.ErrInvalidTransition):
			h.logger.Warn("POST /invoices/{id}/send - Invalid transition: invoice_id=%d", invoiceID)
			handlers.RespondError(w, http.StatusConflict, msgInvalidTransition)

		default:
			h.logger.Error("POST /invoices/{id}/send - Failed: invoice_id=%d, error=%v", invoiceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	if document, err := h.renderer.Render(invoice); err != nil {
		h.logger.Warn("POST /invoices/{id}/send - Failed to render invoice %s: %v", invoice.InvoiceNumber, err)
	} else if err := h.notifier.SendInvoice(r.Context(), invoice, document); err != nil {
		h.logger.Warn("POST /invoices/{id}/send - Failed to deliver invoice %s: %v", invoice.InvoiceNumber, err)
	}

	h.logger.Info("POST /invoices/{id}/send - Invoice sent: invoice_id=%d, user_id=%d", invoiceID, userID)
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainInvoice(invoice))
}
