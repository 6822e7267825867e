package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"codinground/internal/models"
	"codinground/internal/utils"
)

const claimsKey contextKey = "claims"

var (
	ErrMissingToken = errors.New("authorization token missing")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims identifies the candidate behind a request.
type Claims struct {
	SessionID string `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}

// ExtractToken reads a bearer token from the Authorization header, falling
// back to the token query parameter used by WebSocket clients.
func ExtractToken(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		if !strings.HasPrefix(header, "Bearer ") {
			return "", ErrMissingToken
		}
		return strings.TrimPrefix(header, "Bearer "), nil
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	return "", ErrMissingToken
}

func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return token.Claims.(*Claims), nil
}

// Auth rejects requests without a valid HS256 token. An empty secret disables
// the check.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		key := []byte(secret)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := ExtractToken(r)
			if err != nil {
				utils.JSON(w, http.StatusUnauthorized, models.ErrorResponse{Code: "unauthorized", Message: err.Error()})
				return
			}
			claims, err := ParseToken(raw, key)
			if err != nil {
				utils.JSON(w, http.StatusUnauthorized, models.ErrorResponse{Code: "unauthorized", Message: err.Error()})
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFrom returns the claims stored by Auth, if any.
func ClaimsFrom(r *http.Request) (*Claims, bool) {
	claims, ok := r.Context().Value(claimsKey).(*Claims)
	return claims, ok
}
