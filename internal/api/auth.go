package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/biotrack/internal/auth"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	Server    *Server
	JWTSecret string
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the payload of a successful login.
type LoginResponse struct {
	Token string `json:"token"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "username and password required")
		return
	}

	role, ok := h.Server.authenticate(req.Username, req.Password)
	if !ok {
		slog.Warn("login failed", "username", req.Username, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, req.Username, role, 0)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("user logged in", "user", req.Username, "role", role)
	jsonResponse(w, http.StatusOK, LoginResponse{Token: token})
}
