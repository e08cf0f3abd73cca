package update_reservation_status

import "github.com/aledhemtek/BillingService/internal/domain"

// UpdateStatusRequest запрос на смену статуса бронирования
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// ReservationResponse бронирование после смены статуса
type ReservationResponse struct {
	ID         int64   `json:"id"`
	ClientID   int64   `json:"clientId"`
	Title      string  `json:"title,omitempty"`
	Status     string  `json:"status"`
	TotalPrice float64 `json:"totalPrice"`
}

// FromDomainReservation конвертирует domain бронирование в response модель
func FromDomainReservation(r *domain.Reservation) *ReservationResponse {
	return &ReservationResponse{
		ID:         r.ID,
		ClientID:   r.ClientID,
		Title:      r.Title,
		Status:     string(r.Status),
		TotalPrice: r.TotalPrice,
	}
}
