package get_pending_payments

import (
	"net/http"

	"github.com/aledhemtek/BillingService/internal/api/handlers"
	"github.com/aledhemtek/BillingService/internal/api/middleware"
	"github.com/aledhemtek/BillingService/internal/service/payments/models"
)

const msgMissingUserID = "отсутствует ID пользователя"

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

// Handle GET /api/v1/payments/pending
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("GET /payments/pending - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	pending, err := h.service.GetPendingPayments(r.Context())
	if err != nil {
		h.logger.Error("GET /payments/pending - Failed: error=%v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /payments/pending - Retrieved %d pending payments, admin_id=%d", len(pending), userID)
	handlers.RespondJSON(w, http.StatusOK, models.FromPendingPayments(pending))
}
