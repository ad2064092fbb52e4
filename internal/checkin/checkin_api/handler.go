package checkin_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ms-companion/internal/auth"
	checkin "ms-companion/internal/checkin/service"
	"ms-companion/internal/logger"
	"ms-companion/internal/utils"
)

type CheckInService interface {
	RecordCheckIn(ctx context.Context, userID, eventID string) (checkin.Result, error)
}

type PayloadParser interface {
	ParsePayload(s string) (string, bool)
}

type Handler struct {
	Service CheckInService
	QR      PayloadParser
	Logger  *logger.Logger
}

func NewHandler(service CheckInService, qrParser PayloadParser, log *logger.Logger) *Handler {
	return &Handler{Service: service, QR: qrParser, Logger: log}
}

// RegisterStaffRoutes mounts check-in recording. The router must already be
// behind the staff middleware.
func (h *Handler) RegisterStaffRoutes(r chi.Router) {
	r.Post("/check-ins", h.RecordCheckIn)
}

// Either user_id or qr_data identifies the participant; qr_data wins when both are set.
type checkInRequest struct {
	UserID  string `json:"user_id"`
	QRData  string `json:"qr_data"`
	EventID string `json:"event_id"`
}

func (h *Handler) RecordCheckIn(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.NewUserError(utils.ErrInvalidInput, "Invalid request body", err))
		return
	}

	userID := req.UserID
	if strings.TrimSpace(req.QRData) != "" {
		id, ok := h.QR.ParsePayload(req.QRData)
		if !ok {
			utils.WriteError(w, http.StatusBadRequest, utils.NewUserError(utils.ErrInvalidInput, "Unrecognized QR code", nil))
			return
		}
		userID = id
	}

	res, err := h.Service.RecordCheckIn(r.Context(), userID, req.EventID)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidInput) {
			utils.WriteError(w, http.StatusBadRequest, err)
			return
		}
		h.Logger.Error("CHECKIN", fmt.Sprintf("staff=%s: %v", auth.StaffID(r.Context()), err))
		utils.WriteError(w, http.StatusInternalServerError, err)
		return
	}

	if !res.Success {
		resp := utils.ErrorResponse(res.Message, "")
		resp.Data = res
		utils.WriteJSON(w, http.StatusOK, resp)
		return
	}
	h.Logger.LogCheckIn("STAFF", userID, req.EventID, fmt.Sprintf("recorded by %s", auth.StaffID(r.Context())))
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Check-in recorded", res))
}
