package get_payment_statistics

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

// Handle GET /api/v1/payments/statistics
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("GET /payments/statistics - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	stats, err := h.service.GetStatistics(r.Context())
	if err != nil {
		h.logger.Error("GET /payments/statistics - Failed: error=%v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /payments/statistics - Statistics retrieved, admin_id=%d", userID)
	handlers.RespondJSON(w, http.StatusOK, models.FromStatistics(stats))
}
