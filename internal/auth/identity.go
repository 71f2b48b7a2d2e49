package auth

import (
	"context"
	"errors"
	"strings"
)

type ctxKey struct{}

// ErrNoCredentials is returned by Resolve when the request carries no bearer token.
var ErrNoCredentials = errors.New("no credentials")

// WithUserID returns a context carrying the authenticated user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserIDFromContext returns the authenticated user ID, or "" for anonymous requests.
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(ctxKey{}).(string)
	return userID
}

// IsAuthenticated reports whether ctx carries a user.
func IsAuthenticated(ctx context.Context) bool {
	return UserIDFromContext(ctx) != ""
}

// Resolver turns an Authorization header into a user ID.
type Resolver struct {
	tokens *TokenService
}

// NewResolver creates a resolver backed by tokens.
func NewResolver(tokens *TokenService) *Resolver {
	return &Resolver{tokens: tokens}
}

// Resolve returns the user named by a "Bearer <token>" header.
func (r *Resolver) Resolve(header string) (string, error) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", ErrNoCredentials
	}
	claims, err := r.tokens.VerifyAccessToken(strings.TrimSpace(token))
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
