package streaminghttp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// checkAuthentication enforces bearer auth when the handler was constructed
// with WithBearerAuth. Tokens must be HS256-signed JWTs with valid standard
// claims. Returns true when the request may proceed; otherwise the 401 has
// already been written.
func (h *Handler) checkAuthentication(ctx context.Context, r *http.Request, w http.ResponseWriter) bool {
	if len(h.authSecret) == 0 {
		return true
	}

	authz := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(authz, "Bearer ")
	if !ok || token == "" {
		h.writeUnauthorized(ctx, w, "missing bearer token")
		return false
	}

	_, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return h.authSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		h.log.InfoContext(ctx, "auth.token.invalid", slog.String("err", err.Error()))
		h.writeUnauthorized(ctx, w, "invalid bearer token")
		return false
	}
	return true
}

func (h *Handler) writeUnauthorized(ctx context.Context, w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	writeJSONError(w, http.StatusUnauthorized, msg)
	h.log.InfoContext(ctx, "auth.reject")
}
