package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"grievance/pkg/domain"
	"grievance/pkg/requestcontext"
)

// ActorValidator turns a bearer token into an actor identity. The lifecycle
// engine never sees tokens; it receives the resolved actor explicitly.
type ActorValidator interface {
	ValidateToken(tokenString string) (domain.Actor, error)
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireActor validates the Authorization header and injects the resolved
// actor into the request context. Requests with a missing or invalid token
// never reach the handlers.
func RequireActor(validator ActorValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok || token == "" {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
				return
			}

			actor, err := validator.ValidateToken(token)
			if err != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			ctx := requestcontext.WithActor(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireKind rejects actors of the wrong kind before the handler runs. Scope
// checks inside the service still apply; this only keeps citizen tokens off
// the staff and admin routes.
func RequireKind(kind domain.ActorKind, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := requestcontext.Actor(r.Context())
			if actor.Kind != kind {
				logger.WarnContext(r.Context(), "actor kind not permitted on route",
					"request_id", GetRequestID(r.Context()),
					"kind", string(actor.Kind),
				)
				writeJSONError(w, http.StatusForbidden, "forbidden", "Not permitted for this actor kind")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
