package raffle_api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-companion/internal/identity/identity_api"
	"ms-companion/internal/logger"
	"ms-companion/internal/models"
	"ms-companion/internal/utils"
)

type RaffleService interface {
	ListTickets(ctx context.Context, userID string) ([]models.RaffleTicketView, error)
	ListCheckIns(ctx context.Context, userID string) ([]models.CheckInView, error)
	Stats(ctx context.Context) (*models.RaffleStats, error)
}

// Handler handles raffle HTTP endpoints
type Handler struct {
	Service RaffleService
	Logger  *logger.Logger
}

// NewHandler creates a new raffle handler
func NewHandler(service RaffleService, logger *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: logger}
}

// RegisterSessionRoutes registers the participant's own raffle routes
func (h *Handler) RegisterSessionRoutes(r chi.Router) {
	r.Get("/me/raffle-tickets", h.GetMyTickets)
	r.Get("/me/check-ins", h.GetMyCheckIns)
}

// RegisterStaffRoutes registers the staff-only statistics
func (h *Handler) RegisterStaffRoutes(r chi.Router) {
	r.Get("/raffle/stats", h.GetStats)
}

func (h *Handler) GetMyTickets(w http.ResponseWriter, r *http.Request) {
	session := identity_api.SessionFromContext(r.Context())

	tickets, err := h.Service.ListTickets(r.Context(), session.User.ID)
	if err != nil {
		h.Logger.Error("RAFFLE", fmt.Sprintf("Failed to list tickets for %s: %v", session.User.ID, err))
		utils.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("", tickets))
}

func (h *Handler) GetMyCheckIns(w http.ResponseWriter, r *http.Request) {
	session := identity_api.SessionFromContext(r.Context())

	checkIns, err := h.Service.ListCheckIns(r.Context(), session.User.ID)
	if err != nil {
		h.Logger.Error("RAFFLE", fmt.Sprintf("Failed to list check-ins for %s: %v", session.User.ID, err))
		utils.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("", checkIns))
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		h.Logger.Error("RAFFLE", fmt.Sprintf("Failed to load raffle stats: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("", stats))
}
