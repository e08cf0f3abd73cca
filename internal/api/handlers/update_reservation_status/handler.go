package update_reservation_status

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/aledhemtek/BillingService/internal/api/handlers"
	"github.com/aledhemtek/BillingService/internal/api/middleware"
	updateStatusUC "github.com/aledhemtek/BillingService/internal/usecase/update_reservation_status"
)

const (
	msgInvalidReservationID = "некорректный ID бронирования"
	msgInvalidBody          = "некорректное тело запроса"
	msgInvalidStatus        = "некорректный статус бронирования"
	msgInvalidTransition    = "недопустимая смена статуса"
	msgNotFound             = "бронирование не найдено"
	msgMissingUserID        = "отсутствует ID пользователя"
)

type Handler struct {
	usecase ReservationStatusUseCase
	logger  Logger
}

func NewHandler(usecase ReservationStatusUseCase, logger Logger) *Handler {
	return &Handler{
		usecase: usecase,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/reservations/{reservationId}/status
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	reservationID, err := strconv.ParseInt(vars["reservationId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /reservations/{id}/status - Invalid reservation ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidReservationID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("PATCH /reservations/{id}/status - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req UpdateStatusRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /reservations/{id}/status - Invalid body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBody)
		return
	}

	reservation, err := h.usecase.Execute(r.Context(), reservationID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, updateStatusUC.ErrReservationNotFound):
			h.logger.Warn("PATCH /reservations/{id}/status - Reservation not found: reservation_id=%d", reservationID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, updateStatusUC.ErrInvalidStatus):
			h.logger.Warn("PATCH /reservations/{id}/status - Invalid status %q: reservation_id=%d", req.Status, reservationID)
			handlers.RespondBadRequest(w, msgInvalidStatus)

		case errors.Is(err, updateStatusUC.ErrInvalidTransition):
			h.logger.Warn("PATCH /reservations/{id}/status - Invalid transition to %q: reservation_id=%d", req.Status, reservationID)
			handlers.RespondError(w, http.StatusConflict, msgInvalidTransition)

		default:
			h.logger.Error("PATCH /reservations/{id}/status - Failed: reservation_id=%d, error=%v", reservationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /reservations/{id}/status - Status updated: reservation_id=%d, status=%s, user_id=%d",
		reservationID, reservation.Status, userID)
	handlers.RespondJSON(w, http.StatusOK, FromDomainReservation(reservation))
}
