package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"slotbook/internal/ledgers/service"
	httputil "slotbook/pkg/http"
	"slotbook/pkg/logger"
)

type LedgerHandler struct {
	service service.LedgerService
	log     *logger.Logger
}

func NewLedgerHandler(service service.LedgerService, log *logger.Logger) *LedgerHandler {
	return &LedgerHandler{
		service: service,
		log:     log,
	}
}

func (h *LedgerHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	slotID := ps.ByName("slotId")
	participantID := ps.ByName("participantId")

	state, err := h.service.Get(r.Context(), slotID, participantID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Get", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, state); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteSuccess", "error", err)
	}
}

func (h *LedgerHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/ledgers/:slotId/:participantId", h.Get)
}
