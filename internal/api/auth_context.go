package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/listenupapp/bookclub-server/internal/auth"
	domainerrors "github.com/listenupapp/bookclub-server/internal/errors"
	"github.com/listenupapp/bookclub-server/internal/http/response"
)

// GetUserID returns the authenticated user ID from context.
// Returns an UNAUTHENTICATED error if the request is anonymous.
func GetUserID(ctx context.Context) (string, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		return "", domainerrors.Unauthenticated("Sign in to do that.")
	}
	return userID, nil
}

// viewerID returns the user ID, or "" for anonymous reads.
func viewerID(ctx context.Context) string {
	return auth.UserIDFromContext(ctx)
}

// authMiddleware resolves Bearer tokens and stores the user ID in context.
// Requests without a valid token continue anonymously; handlers that need
// a user reject them.
func authMiddleware(resolver *auth.Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := resolver.Resolve(r.Header.Get("Authorization"))
			if err != nil {
				if !errors.Is(err, auth.ErrNoCredentials) {
					logger.Debug("rejected access token", "path", r.URL.Path, "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}

// requireUser guards plain chi routes that huma does not see.
func requireUser(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.IsAuthenticated(r.Context()) {
				response.Unauthenticated(w, logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
