package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"slotbook/internal/readmodel/service"
	httputil "slotbook/pkg/http"
	"slotbook/pkg/logger"
	"slotbook/pkg/model"
)

type slotListResponse struct {
	Slots []model.SlotRow `json:"slots"`
}

type QueryHandler struct {
	service service.QueryService
	log     *logger.Logger
}

func NewQueryHandler(service service.QueryService, log *logger.Logger) *QueryHandler {
	return &QueryHandler{
		service: service,
		log:     log,
	}
}

func (h *QueryHandler) SlotsByParticipant(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	participantID := ps.ByName("participantId")

	status, err := httputil.ExtractStatus(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "SlotsByParticipant", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	rows, err := h.service.SlotsByParticipantAndStatus(r.Context(), participantID, status)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "SlotsByParticipant", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, slotListResponse{Slots: rows}); err != nil {
		h.log.Error("failed to write success response", "handler", "SlotsByParticipant", "operation", "WriteSuccess", "error", err)
	}
}

func (h *QueryHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/participants/:participantId/slots", h.SlotsByParticipant)
}
