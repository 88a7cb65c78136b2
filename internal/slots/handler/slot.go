package handler

import (
	"encoding/json"
	"net/http"
	"time"

	bookingservice "reserva/internal/booking/service"
	"reserva/internal/slots/service"
	"reserva/internal/slots/validator"
	apperrors "reserva/pkg/errors"
	httputil "reserva/pkg/http"
	"reserva/pkg/logger"
	"reserva/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type SlotHandler struct {
	coordinator service.ReservationCoordinator
	confirmer   bookingservice.BookingConfirmer
	validator   *validator.SlotValidator
	log         *logger.Logger
}

func NewSlotHandler(
	coordinator service.ReservationCoordinator,
	confirmer bookingservice.BookingConfirmer,
	v *validator.SlotValidator,
	log *logger.Logger,
) *SlotHandler {
	return &SlotHandler{
		coordinator: coordinator,
		confirmer:   confirmer,
		validator:   v,
		log:         log,
	}
}

// decode unmarshals and validates a request body. A false return means the
// error response has already been written.
func (h *SlotHandler) decode(w http.ResponseWriter, r *http.Request, name string, request any) bool {
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", name, "operation", "WriteJSON", "error", writeErr)
		}
		return false
	}

	if err := h.validator.Validate(request); err != nil {
		h.log.Warn("Request validation failed", "handler", name, "error", err)
		validationErr := apperrors.Validation("Invalid request", map[string]any{"error": err.Error()})
		if writeErr := httputil.WriteError(w, validationErr); writeErr != nil {
			h.log.Error("failed to write error response", "handler", name, "operation", "WriteError", "error", writeErr)
		}
		return false
	}

	return true
}

func (h *SlotHandler) writeError(w http.ResponseWriter, name string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", name, "operation", "WriteError", "error", writeErr)
	}
}

func (h *SlotHandler) Reserve(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var request model.ReserveRequest
	if !h.decode(w, r, "Reserve", &request) {
		return
	}

	ttl := time.Duration(request.TTLSeconds) * time.Second
	handle, err := h.coordinator.Reserve(r.Context(), request.ResourceID, request.Date, request.RequesterToken, ttl)
	if err != nil {
		h.writeError(w, "Reserve", err)
		return
	}

	if err := httputil.WriteCreated(w, handle); err != nil {
		h.log.Error("failed to write created response", "handler", "Reserve", "operation", "WriteCreated", "error", err)
	}
}

func (h *SlotHandler) Confirm(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var request model.ConfirmRequest
	if !h.decode(w, r, "Confirm", &request) {
		return
	}

	if err := h.coordinator.Confirm(r.Context(), request.ResourceID, request.Date, request.LockToken, request.BookingRef); err != nil {
		h.writeError(w, "Confirm", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *SlotHandler) Release(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var request model.ReleaseRequest
	if !h.decode(w, r, "Release", &request) {
		return
	}

	if err := h.coordinator.Release(r.Context(), request.ResourceID, request.Date, request.LockToken); err != nil {
		h.writeError(w, "Release", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *SlotHandler) TryBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var request model.TryBookRequest
	if !h.decode(w, r, "TryBook", &request) {
		return
	}

	ttl := time.Duration(request.TTLSeconds) * time.Second
	record, err := h.confirmer.TryBook(r.Context(), request.ResourceID, request.Date, request.BookingRef, ttl, nil)
	if err != nil {
		h.writeError(w, "TryBook", err)
		return
	}

	if err := httputil.WriteCreated(w, record); err != nil {
		h.log.Error("failed to write created response", "handler", "TryBook", "operation", "WriteCreated", "error", err)
	}
}

func (h *SlotHandler) CancelBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var request model.CancelRequest
	if !h.decode(w, r, "CancelBooking", &request) {
		return
	}

	if err := h.confirmer.Cancel(r.Context(), request.ResourceID, request.Date, request.BookingRef); err != nil {
		h.writeError(w, "CancelBooking", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *SlotHandler) Provision(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var request model.ProvisionRequest
	if !h.decode(w, r, "Provision", &request) {
		return
	}

	created, err := h.coordinator.Provision(r.Context(), request.ResourceID, request.Dates)
	if err != nil {
		h.writeError(w, "Provision", err)
		return
	}

	if err := httputil.WriteCreated(w, map[string]any{
		"resource_id": request.ResourceID,
		"requested":   len(request.Dates),
		"created":     created,
	}); err != nil {
		h.log.Error("failed to write created response", "handler", "Provision", "operation", "WriteCreated", "error", err)
	}
}

func (h *SlotHandler) Block(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var request model.BlockRequest
	if !h.decode(w, r, "Block", &request) {
		return
	}

	if err := h.coordinator.Block(r.Context(), request.ResourceID, request.Date, request.Status); err != nil {
		h.writeError(w, "Block", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *SlotHandler) Unblock(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var request model.UnblockRequest
	if !h.decode(w, r, "Unblock", &request) {
		return
	}

	if err := h.coordinator.Unblock(r.Context(), request.ResourceID, request.Date); err != nil {
		h.writeError(w, "Unblock", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *SlotHandler) GetSlot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	resourceID := ps.ByName("resource")
	date := ps.ByName("date")

	record, err := h.coordinator.Get(r.Context(), resourceID, date)
	if err != nil {
		h.writeError(w, "GetSlot", err)
		return
	}

	// The token proves claim ownership; reads never expose it.
	record.LockToken = ""

	if err := httputil.WriteSuccess(w, record); err != nil {
		h.log.Error("failed to write success response", "handler", "GetSlot", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SlotHandler) GetCalendar(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	resourceID := ps.ByName("resource")

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetCalendar", err)
		return
	}

	records, total, err := h.coordinator.ListCalendar(r.Context(), resourceID, limit, offset)
	if err != nil {
		h.writeError(w, "GetCalendar", err)
		return
	}

	for _, record := range records {
		record.LockToken = ""
	}

	if err := httputil.WritePaginated(w, records, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetCalendar", "operation", "WritePaginated", "error", err)
	}
}

func (h *SlotHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/slots", h.Provision)
	router.POST("/api/v1/slots/reserve", h.Reserve)
	router.POST("/api/v1/slots/confirm", h.Confirm)
	router.POST("/api/v1/slots/release", h.Release)
	router.POST("/api/v1/slots/block", h.Block)
	router.POST("/api/v1/slots/unblock", h.Unblock)
	router.GET("/api/v1/slots/calendar/:resource", h.GetCalendar)
	router.GET("/api/v1/slots/calendar/:resource/:date", h.GetSlot)

	router.POST("/api/v1/bookings", h.TryBook)
	router.POST("/api/v1/bookings/cancel", h.CancelBooking)
}
