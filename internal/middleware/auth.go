package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"worldgen-server/internal/auth"
	"worldgen-server/internal/shared/errors"
	"worldgen-server/internal/shared/response"
)

type contextKey string

const ClientContextKey contextKey = "client"

const APIKeyHeader = "X-API-Key"

// Authenticator admits requests carrying the configured API key or a valid
// bearer service token. With neither configured every request passes.
type Authenticator struct {
	apiKey string
	tokens *auth.TokenIssuer
}

func NewAuthenticator(apiKey string, tokens *auth.TokenIssuer) *Authenticator {
	return &Authenticator{apiKey: apiKey, tokens: tokens}
}

func (a *Authenticator) Enabled() bool {
	return a.apiKey != "" || a.tokens != nil
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		// response.Error adds the request fields
		logger := slog.With("middleware", "auth")

		if key := r.Header.Get(APIKeyHeader); key != "" && a.apiKey != "" {
			if subtle.ConstantTimeCompare([]byte(key), []byte(a.apiKey)) == 1 {
				logger.Debug("API key accepted")
				ctx := context.WithValue(r.Context(), ClientContextKey, "api_key")
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			response.Error(w, r, logger, errors.Unauthorized("invalid API key"))
			return
		}

		if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && a.tokens != nil {
			claims, err := a.tokens.ValidateToken(strings.TrimSpace(bearer))
			if err != nil {
				response.Error(w, r, logger, errors.Unauthorized("invalid token"))
				return
			}
			logger.Debug("Service token accepted", "client", claims.Client)
			ctx := context.WithValue(r.Context(), ClientContextKey, claims.Client)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		response.Error(w, r, logger, errors.Unauthorized("authentication required"))
	})
}

// ClientFromContext returns the authenticated client name, if any.
func ClientFromContext(r *http.Request) string {
	if client, ok := r.Context().Value(ClientContextKey).(string); ok {
		return client
	}
	return ""
}
