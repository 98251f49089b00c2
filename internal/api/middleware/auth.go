package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/phrazzld/latewatch/internal/api/shared"
	"github.com/phrazzld/latewatch/internal/platform/logger"
	"github.com/phrazzld/latewatch/internal/redact"
)

// Token validation errors.
var (
	// ErrInvalidToken indicates that the token is malformed, has a bad
	// signature, or uses an unexpected signing method.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken indicates that the token's exp claim is in the past.
	ErrExpiredToken = errors.New("token expired")
)

// DefaultClockSkew is the leeway applied to time-based claims.
const DefaultClockSkew = 30 * time.Second

// AuthMiddleware guards routes with HS256 bearer tokens signed by the
// platform's identity service. Only the registered claims are checked; the
// subject is stored in the request context.
type AuthMiddleware struct {
	secret    []byte
	clockSkew time.Duration
	now       func() time.Time
}

// NewAuthMiddleware creates an AuthMiddleware for the given shared secret.
func NewAuthMiddleware(secret string) (*AuthMiddleware, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters")
	}
	return &AuthMiddleware{
		secret:    []byte(secret),
		clockSkew: DefaultClockSkew,
		now:       time.Now,
	}, nil
}

// ValidateToken parses tokenString and returns its registered claims.
func (m *AuthMiddleware) ValidateToken(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(m.clockSkew),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrExpiredToken, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate validates the Authorization header and rejects the request
// with 401 when no valid token is present.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		claims, err := m.ValidateToken(parts[1])
		if err != nil {
			logger.FromContextOrDefault(r.Context(), slog.Default()).
				Debug("rejected bearer token", slog.String("error", redact.Error(err)))
			if errors.Is(err, ErrExpiredToken) {
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
				return
			}
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), shared.SubjectContextKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
