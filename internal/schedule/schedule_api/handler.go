package schedule_api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-companion/internal/identity/identity_api"
	"ms-companion/internal/logger"
	"ms-companion/internal/models"
	"ms-companion/internal/utils"
)

type ScheduleService interface {
	ListEvents(ctx context.Context, session *models.Session) ([]models.EventView, error)
	ListBookmarkedEvents(ctx context.Context, session *models.Session) ([]models.EventView, error)
	ToggleBookmark(ctx context.Context, userID, eventID string) (bool, error)
}

type Handler struct {
	Service ScheduleService
	Logger  *logger.Logger
}

func NewHandler(service ScheduleService, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// RegisterPublicRoutes mounts the event listing; a session only adds bookmark flags.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/events", h.ListEvents)
}

func (h *Handler) RegisterSessionRoutes(r chi.Router) {
	r.Get("/bookmarks", h.ListBookmarks)
	r.Post("/events/{eventId}/bookmark", h.ToggleBookmark)
}

// RegisterStaffRoutes mounts the event picker used by check-in staff.
func (h *Handler) RegisterStaffRoutes(r chi.Router) {
	r.Get("/events", h.ListEventsForStaff)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, utils.ErrInvalidInput) {
		utils.WriteError(w, http.StatusBadRequest, err)
		return
	}
	h.Logger.Error("SCHEDULE", err.Error())
	utils.WriteError(w, http.StatusInternalServerError, err)
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Service.ListEvents(r.Context(), identity_api.SessionFromContext(r.Context()))
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("", events))
}

func (h *Handler) ListEventsForStaff(w http.ResponseWriter, r *http.Request) {
	events, err := h.Service.ListEvents(r.Context(), nil)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("", events))
}

func (h *Handler) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	events, err := h.Service.ListBookmarkedEvents(r.Context(), identity_api.SessionFromContext(r.Context()))
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("", events))
}

func (h *Handler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	session := identity_api.SessionFromContext(r.Context())
	eventID := chi.URLParam(r, "eventId")

	on, err := h.Service.ToggleBookmark(r.Context(), session.User.ID, eventID)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("", map[string]bool{"isBookmarked": on}))
}
