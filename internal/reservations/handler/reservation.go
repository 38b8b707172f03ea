package handler

import (
	"encoding/json"
	"net/http"

	"expertconnect/internal/reservations/service"
	httputil "expertconnect/pkg/http"
	"expertconnect/pkg/logger"
	"expertconnect/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ReservationHandler struct {
	service service.ReservationService
	log     *logger.Logger
}

type SlotBatchResponse struct {
	ExpertID string `json:"expert_id"`
	Created  int    `json:"created"`
}

func NewReservationHandler(service service.ReservationService, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log,
	}
}

func (h *ReservationHandler) Reserve(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadBody(w, "Reserve")
		return
	}

	booking, err := h.service.Reserve(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Reserve", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Reserve", "operation", "WriteCreated", "error", err)
	}
}

func (h *ReservationHandler) SetStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	var update model.StatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeBadBody(w, "SetStatus")
		return
	}

	booking, err := h.service.SetStatus(r.Context(), id, update.Status)
	if err != nil {
		h.writeError(w, "SetStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "SetStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) FindByEmail(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	email := r.URL.Query().Get("email")
	if email == "" {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "The 'email' query parameter is required",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "FindByEmail", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	bookings, err := h.service.FindByEmail(r.Context(), email)
	if err != nil {
		h.writeError(w, "FindByEmail", err)
		return
	}

	if err := httputil.WriteSuccess(w, bookings); err != nil {
		h.log.Error("failed to write success response", "handler", "FindByEmail", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	bookings, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *ReservationHandler) ListSlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	slots, err := h.service.ListSlots(r.Context(), ps.ByName("id"), r.URL.Query().Get("date"))
	if err != nil {
		h.writeError(w, "ListSlots", err)
		return
	}

	if err := httputil.WriteSuccess(w, slots); err != nil {
		h.log.Error("failed to write success response", "handler", "ListSlots", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) CreateSlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	expertID := ps.ByName("id")

	var batch model.SlotBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		h.writeBadBody(w, "CreateSlots")
		return
	}

	created, err := h.service.CreateSlots(r.Context(), expertID, &batch)
	if err != nil {
		h.writeError(w, "CreateSlots", err)
		return
	}

	if err := httputil.WriteCreated(w, SlotBatchResponse{ExpertID: expertID, Created: created}); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateSlots", "operation", "WriteCreated", "error", err)
	}
}

func (h *ReservationHandler) writeBadBody(w http.ResponseWriter, handler string) {
	if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
		Error: "Invalid request body",
	}); writeErr != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", writeErr)
	}
}

func (h *ReservationHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Reserve)
	router.GET("/api/v1/bookings", h.FindByEmail)
	router.GET("/api/v1/bookings/all", h.GetAll)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.PATCH("/api/v1/bookings/id/:id/status", h.SetStatus)
	router.GET("/api/v1/experts/:id/slots", h.ListSlots)
	router.POST("/api/v1/experts/:id/slots", h.CreateSlots)
}
