package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"slotbook/internal/slots/service"
	httputil "slotbook/pkg/http"
	"slotbook/pkg/logger"
	"slotbook/pkg/model"
)

type availabilityRequest struct {
	ParticipantID string `json:"participant_id"`
	Role          string `json:"role"`
}

type bookingRequest struct {
	StudentID    string `json:"student_id"`
	AircraftID   string `json:"aircraft_id"`
	InstructorID string `json:"instructor_id"`
	BookingID    string `json:"booking_id,omitempty"`
}

type bookingResponse struct {
	BookingID string `json:"booking_id"`
}

type SlotHandler struct {
	service service.SlotService
	log     *logger.Logger
}

func NewSlotHandler(service service.SlotService, log *logger.Logger) *SlotHandler {
	return &SlotHandler{
		service: service,
		log:     log,
	}
}

func (h *SlotHandler) MarkAvailable(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	slotID := ps.ByName("slotId")

	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "MarkAvailable", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.MarkAvailable(r.Context(), slotID, req.ParticipantID, model.Role(req.Role)); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "MarkAvailable", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *SlotHandler) UnmarkAvailable(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	slotID := ps.ByName("slotId")

	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "UnmarkAvailable", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.UnmarkAvailable(r.Context(), slotID, req.ParticipantID, model.Role(req.Role)); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "UnmarkAvailable", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *SlotHandler) Book(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	slotID := ps.ByName("slotId")

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Book", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	bookingID, err := h.service.Book(r.Context(), slotID, req.StudentID, req.AircraftID, req.InstructorID, req.BookingID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Book", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, bookingResponse{BookingID: bookingID}); err != nil {
		h.log.Error("failed to write created response", "handler", "Book", "operation", "WriteCreated", "error", err)
	}
}

func (h *SlotHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	slotID := ps.ByName("slotId")
	bookingID := ps.ByName("bookingId")

	if err := h.service.Cancel(r.Context(), slotID, bookingID); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Cancel", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *SlotHandler) GetSlot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	slotID := ps.ByName("slotId")

	slot, err := h.service.GetSlot(r.Context(), slotID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetSlot", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, slot); err != nil {
		h.log.Error("failed to write success response", "handler", "GetSlot", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SlotHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/slots/:slotId/available", h.MarkAvailable)
	router.DELETE("/api/v1/slots/:slotId/available", h.UnmarkAvailable)
	router.POST("/api/v1/slots/:slotId/bookings", h.Book)
	router.DELETE("/api/v1/slots/:slotId/bookings/:bookingId", h.Cancel)
	router.GET("/api/v1/slots/:slotId", h.GetSlot)
}
