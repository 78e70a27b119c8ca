package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Dosada05/beach-tennis-live/services"
)

// Authenticate пропускает только запросы с действующим токеном организатора.
func Authenticate(auth services.AuthService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "authorization token is required")
				return
			}
			admin, err := auth.ParseToken(token)
			if err != nil {
				logger.DebugContext(r.Context(), "admin token rejected", slog.Any("error", err))
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), adminContextKey, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RefereeOnly checks the court binding token on every request. A token
// whose court PIN has changed is refused with 403.
func RefereeOnly(access services.AccessService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "court token is required")
				return
			}
			binding, court, err := access.Verify(r.Context(), token)
			switch {
			case err == nil:
			case errors.Is(err, services.ErrBindingRevoked):
				writeError(w, http.StatusForbidden, err.Error())
				return
			case errors.Is(err, services.ErrAuthenticationFailed):
				writeError(w, http.StatusUnauthorized, "invalid court token")
				return
			default:
				logger.ErrorContext(r.Context(), "court binding check failed", slog.Any("error", err))
				writeError(w, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
				return
			}

			ctx := context.WithValue(r.Context(), bindingContextKey, binding)
			ctx = context.WithValue(ctx, courtContextKey, court)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
