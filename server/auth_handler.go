package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"smpctl/core/auth"
	"smpctl/logger"
)

type contextKey string

const subjectKey contextKey = "subject"

// adminSubject is the token subject of the single operator account.
const adminSubject = "admin"

// TokenRequest represents the token request body
type TokenRequest struct {
	Password string `json:"password"`
}

// TokenHandler exchanges the admin password for a JWT.
func (h *APIHandler) TokenHandler(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.AuthEnabled() {
		writeError(w, http.StatusNotFound, "authentication is disabled")
		return
	}

	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "password is required")
		return
	}

	if !auth.CheckPasswordHash(req.Password, h.cfg.AdminPasswordHash) {
		logger.Warn("[Auth] 密码验证失败", logger.String("remote", r.RemoteAddr))
		writeError(w, http.StatusUnauthorized, "invalid password")
		return
	}

	token, expires, err := h.tokens.GenerateToken(adminSubject)
	if err != nil {
		logger.Error("[Auth] 生成Token失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info("[Auth] token issued", logger.String("remote", r.RemoteAddr))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":     token,
		"expiresAt": expires,
	})
}

// AuthMiddleware is a middleware function that checks for a valid JWT token.
// It lets every request through when no admin password is configured.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.cfg.AuthEnabled() {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := h.tokens.ParseToken(parts[1])
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), subjectKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// checkQueryToken validates the token query parameter used by websocket
// clients, which cannot set headers from a browser.
func (h *APIHandler) checkQueryToken(r *http.Request) bool {
	if !h.cfg.AuthEnabled() {
		return true
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		return false
	}
	_, err := h.tokens.ParseToken(token)
	return err == nil
}

// SubjectFromContext returns the authenticated subject, if any.
func SubjectFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(subjectKey).(string)
	return s, ok
}
