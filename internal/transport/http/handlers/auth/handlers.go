package authhandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"timepay/internal/domain/auth"
	"timepay/internal/transport/http/api"
	"timepay/internal/transport/http/middleware"
	"timepay/internal/transport/http/shared"
)

type LoginService interface {
	Login(ctx context.Context, email, password string) (auth.Token, error)
}

type Handler struct {
	Service LoginService
}

func NewHandler(service LoginService) *Handler {
	return &Handler{Service: service}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	v := shared.NewValidator()
	v.Required("email", payload.Email, "is required")
	v.Required("password", payload.Password, "is required")
	if v.Reject(w, reqID) {
		return
	}

	token, err := h.Service.Login(r.Context(), strings.TrimSpace(payload.Email), payload.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", reqID)
		return
	}
	if err != nil {
		slog.Error("login failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "login_failed", "login failed", reqID)
		return
	}
	api.Success(w, token, reqID)
}
