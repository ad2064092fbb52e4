package identity_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"ms-companion/internal/auth"
	"ms-companion/internal/config"
	identity "ms-companion/internal/identity/service"
	"ms-companion/internal/logger"
	"ms-companion/internal/models"
	"ms-companion/internal/qr"
	"ms-companion/internal/utils"
)

type IdentityService interface {
	ResolveByPhone(ctx context.Context, phone string) (string, error)
	RequestCode(ctx context.Context, phone string) error
	VerifyCode(ctx context.Context, phone, code, userID string) (string, error)
	Logout(ctx context.Context, token string) error
	UpdateProfile(ctx context.Context, session *models.Session, name string) error
}

type Handler struct {
	Service IdentityService
	QR      *qr.Generator
	Auth    config.AuthConfig
	Logger  *logger.Logger
}

func NewHandler(service IdentityService, qrGen *qr.Generator, cfg config.AuthConfig, log *logger.Logger) *Handler {
	return &Handler{Service: service, QR: qrGen, Auth: cfg, Logger: log}
}

// RegisterPublicRoutes mounts the login flow and session lookup.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/phone", h.ResolvePhone)
		r.Post("/otp/request", h.RequestCode)
		r.Post("/otp/verify", h.VerifyCode)
		r.Post("/logout", h.Logout)
	})
	r.Get("/session", h.GetSession)
}

// RegisterSessionRoutes mounts routes that need RequireSession in front of them.
func (h *Handler) RegisterSessionRoutes(r chi.Router) {
	r.Put("/profile", h.UpdateProfile)
	r.Get("/me/qr", h.GetQRReference)
	r.Get("/me/qr.png", h.GetQRImage)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, utils.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, utils.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, identity.ErrNotRegistered):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrSendThrottled):
		return http.StatusTooManyRequests
	case errors.Is(err, identity.ErrProvider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return utils.NewUserError(utils.ErrInvalidInput, "Invalid request body", err)
	}
	return nil
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error("IDENTITY", err.Error())
	}
	utils.WriteError(w, status, err)
}

type phoneRequest struct {
	Phone string `json:"phone"`
}

type verifyRequest struct {
	Phone  string `json:"phone"`
	Code   string `json:"code"`
	UserID string `json:"user_id"`
}

type profileRequest struct {
	Name string `json:"name"`
}

func (h *Handler) ResolvePhone(w http.ResponseWriter, r *http.Request) {
	var req phoneRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, err)
		return
	}

	userID, err := h.Service.ResolveByPhone(r.Context(), req.Phone)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("", map[string]string{"user_id": userID}))
}

func (h *Handler) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req phoneRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, err)
		return
	}

	if err := h.Service.RequestCode(r.Context(), req.Phone); err != nil {
		h.fail(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Verification code sent", nil))
}

func (h *Handler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, err)
		return
	}

	token, err := h.Service.VerifyCode(r.Context(), req.Phone, req.Code, req.UserID)
	if err != nil {
		h.fail(w, err)
		return
	}

	http.SetCookie(w, h.sessionCookie(token, h.Auth.SessionTTL))
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Signed in", nil))
}

// Logout clears the cookie even when revocation fails.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.sessionCookie("", -1))

	if token, err := auth.ExtractTokenFromRequest(r, h.Auth.CookieName); err == nil {
		if err := h.Service.Logout(r.Context(), token); err != nil {
			h.fail(w, fmt.Errorf("sign out: %w", err))
			return
		}
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Signed out", nil))
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	if session == nil {
		utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("No active session", nil))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("", session))
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, err)
		return
	}

	if err := h.Service.UpdateProfile(r.Context(), SessionFromContext(r.Context()), req.Name); err != nil {
		h.fail(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Profile updated", nil))
}

func (h *Handler) GetQRReference(w http.ResponseWriter, r *http.Request) {
	userID := SessionFromContext(r.Context()).User.ID
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("", map[string]string{
		"url":     h.QR.Reference(userID),
		"payload": h.QR.Payload(userID),
	}))
}

func (h *Handler) GetQRImage(w http.ResponseWriter, r *http.Request) {
	size := 256
	if s := r.URL.Query().Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 64 || n > 1024 {
			h.fail(w, utils.NewUserError(utils.ErrInvalidInput, "size must be between 64 and 1024", err))
			return
		}
		size = n
	}

	img, err := h.QR.PNG(SessionFromContext(r.Context()).User.ID, size)
	if err != nil {
		h.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(img)
}

// sessionCookie builds the session cookie; a negative maxAge clears it.
func (h *Handler) sessionCookie(token string, maxAge time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     h.Auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.Auth.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge < 0 {
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
	} else {
		c.MaxAge = int(maxAge.Seconds())
	}
	return c
}
