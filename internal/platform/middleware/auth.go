package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"verigate/pkg/platform/httputil"

	dErrors "verigate/pkg/domain-errors"
)

type contextKeyUserID struct{}

// JWTValidator validates a bearer token and returns the subject user id.
type JWTValidator interface {
	Validate(token string) (string, error)
}

// HSValidator validates HS256 tokens issued by the app backend session layer.
type HSValidator struct {
	SigningKey []byte
}

func (v HSValidator) Validate(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.SigningKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return sub, nil
}

// RequireAuth enforces a valid bearer token and places the user id in context.
// The webhook route must not use this; the provider authenticates with a
// payload digest instead.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}
			userID, err := validator.Validate(token)
			if err != nil {
				logger.WarnContext(r.Context(), "rejected bearer token",
					"request_id", GetRequestID(r.Context()),
					"error", err.Error(),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid bearer token"))
				return
			}
			ctx := context.WithValue(r.Context(), contextKeyUserID{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID retrieves the authenticated user id from the context.
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyUserID{}).(string); ok {
		return id
	}
	return ""
}

// WithUserID injects a user id into a context. Useful for handler unit tests
// that don't run the full middleware chain.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKeyUserID{}, userID)
}
