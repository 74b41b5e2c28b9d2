/*
middleware.go - Authentication and request logging middleware

PURPOSE:
  Bearer-token authentication resolving the acting user, and structured
  request logging. The authenticated actor travels in the request context;
  handlers read it with actorFrom().

AUTH FLOW:
  1. Extract "Authorization: Bearer <token>"
  2. Verify signature and expiry (auth.TokenIssuer)
  3. Resolve the subject email against the users table
  4. Reject inactive or deleted users
  5. Store domain.Actor in the request context

SEE ALSO:
  - auth/token.go: token issue/verify
  - handlers.go: actorFrom usage
*/
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/mspbs/medgas/domain"
)

type contextKey string

const actorKey contextKey = "actor"

// Authenticate verifies the bearer token and loads the acting user into the
// request context.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Missing bearer token", nil)
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		claims, err := h.Tokens.Verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token", nil)
			return
		}

		user, err := h.Store.GetUserByEmail(r.Context(), claims.Subject)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to resolve user", err)
			return
		}
		if user == nil || !user.Active {
			writeError(w, http.StatusUnauthorized, "Account is disabled", nil)
			return
		}

		ctx := context.WithValue(r.Context(), actorKey, user.Actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// actorFrom returns the authenticated actor stored by Authenticate. The
// zero Actor is never stored, so the second return tells the two apart.
func actorFrom(r *http.Request) (domain.Actor, bool) {
	actor, ok := r.Context().Value(actorKey).(domain.Actor)
	return actor, ok
}

// RequestLogger logs one structured line per request.
func RequestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("remote", r.RemoteAddr).
				Msg("request")
		})
	}
}

// clientIP extracts the originating address for audit events, preferring
// the X-Forwarded-For header set by the reverse proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return host
}
