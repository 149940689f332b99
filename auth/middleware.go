package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
)

type contextKey struct{}

var errMissingToken = errors.New("missing token")

// Middleware validates the bearer token and stores its claims in the
// request context.
func Middleware(issuer *Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := extractAndValidateToken(r, w, issuer)
			if err != nil {
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRoom rejects requests whose token was issued for a different room
// than the one roomID extracts from the request.
func RequireRoom(roomID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFrom(r.Context())
			if !ok || claims.RoomID != roomID(r) {
				http.Error(w, "Forbidden: token is not valid for this room", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(contextKey{}).(*Claims)
	return c, ok
}

// extractTokenFromRequest extracts token from Authorization header or query parameter
func extractTokenFromRequest(r *http.Request, w http.ResponseWriter) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		return authHeader, nil
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Unauthorized: Missing token", http.StatusUnauthorized)
		return "", errMissingToken
	}
	return "Bearer " + token, nil
}

// extractAndValidateToken extracts token from request and validates it
// Returns nil claims and error if validation fails (error already sent to client)
func extractAndValidateToken(r *http.Request, w http.ResponseWriter, issuer *Issuer) (*Claims, error) {
	authHeader, err := extractTokenFromRequest(r, w)
	if err != nil {
		return nil, err
	}

	tokenString, err := ExtractTokenFromHeader(authHeader)
	if err != nil {
		http.Error(w, "Unauthorized: Invalid token format", http.StatusUnauthorized)
		return nil, err
	}

	claims, err := issuer.Validate(tokenString)
	if err != nil {
		log.Printf("Token validation error: %v", err)
		http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
		return nil, err
	}

	return claims, nil
}
