package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"randomradio/core/auth"
	"randomradio/logger"
)

// LoginRequest represents the login request body.
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginHandler exchanges the admin password for a session token. Returns
// 404 when no admin password is configured, because the control surface is
// then open and there is nothing to log into.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if h.cfg.AdminPassword == "" {
		http.Error(w, "Admin auth is not configured", http.StatusNotFound)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// ADMIN_PASSWORD may hold either a bcrypt hash or the plain password.
	var ok bool
	if strings.HasPrefix(h.cfg.AdminPassword, "$2") {
		ok = auth.CheckPasswordHash(req.Password, h.cfg.AdminPassword)
	} else {
		ok = subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.cfg.AdminPassword)) == 1
	}
	if !ok {
		logger.Warn("Admin login failed")
		http.Error(w, "Invalid password", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateToken(h.cfg.JWTSecret)
	if err != nil {
		logger.Error("Failed to generate token", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	logger.Info("Admin login succeeded")
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// AdminMiddleware guards mutating control endpoints. When no admin password
// is configured the station is treated as a trusted single-user setup and
// requests pass through.
func (h *APIHandler) AdminMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.cfg.AdminPassword == "" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		if _, err := auth.ParseToken(parts[1], h.cfg.JWTSecret); err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	}
}
