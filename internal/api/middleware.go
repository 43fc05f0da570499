package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"

	"github.com/erazemk/orodjarna/internal/auth"
	"github.com/erazemk/orodjarna/internal/store"
)

type contextKey string

const deviceKey contextKey = "device"

// AuthMiddleware accepts either the shared secret as the whole Authorization
// header, or "Bearer <device token>". Device claims are added to the context.
func AuthMiddleware(secret *auth.SharedSecret, tokenKey string, db *sqlx.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")

			if token, ok := strings.CutPrefix(header, "Bearer "); ok {
				claims, err := auth.ParseDeviceToken(tokenKey, token)
				if err != nil {
					jsonError(w, http.StatusUnauthorized, "invalid token")
					return
				}

				revoked, err := store.IsTokenRevoked(r.Context(), db, claims.ID)
				if err != nil {
					slog.Error("checking token revocation", "error", err)
					jsonError(w, http.StatusInternalServerError, "internal error")
					return
				}
				if revoked {
					jsonError(w, http.StatusUnauthorized, "token revoked")
					return
				}

				ctx := context.WithValue(r.Context(), deviceKey, claims)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if !secret.Matches(header) {
				slog.Warn("rejected request", "path", r.URL.Path, "remote", r.RemoteAddr)
				jsonError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetDevice returns the device claims of a token-authenticated request, or
// nil if the request used the shared secret.
func GetDevice(ctx context.Context) *auth.DeviceClaims {
	claims, _ := ctx.Value(deviceKey).(*auth.DeviceClaims)
	return claims
}

// LoggingMiddleware logs HTTP requests with method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"status", status,
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
