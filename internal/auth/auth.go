package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const ClientContextKey ContextKey = "client"

// DefaultTokenTTL is used by GenerateJWT when ttl is zero.
const DefaultTokenTTL = 24 * time.Hour

// Caller identifies the holder of a validated token.
type Caller struct {
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Claims struct {
	jwt.RegisteredClaims
}

var (
	authConfig *AuthConfig
)

type AuthConfig struct {
	JwtSecret []byte
	Enabled   bool
}

// InitializeAuth sets up the auth configuration
func InitializeAuth(jwtSecret string, enabled bool) {
	authConfig = &AuthConfig{
		JwtSecret: []byte(jwtSecret),
		Enabled:   enabled,
	}
}

// IsAuthEnabled returns whether authentication is enabled
func IsAuthEnabled() bool {
	if authConfig == nil {
		return false
	}
	return authConfig.Enabled
}

// GenerateJWT creates a signed HS256 token for subject valid for ttl.
func GenerateJWT(subject string, ttl time.Duration) (string, error) {
	if authConfig == nil {
		return "", errors.New("auth not initialized")
	}
	if len(authConfig.JwtSecret) == 0 {
		return "", errors.New("jwt secret is empty")
	}
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("subject is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(authConfig.JwtSecret)
}

// ValidateJWT validates and parses a JWT token
func ValidateJWT(tokenString string) (*Caller, error) {
	if authConfig == nil {
		return nil, errors.New("auth not initialized")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return authConfig.JwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		caller := &Caller{Subject: claims.Subject}
		if claims.ExpiresAt != nil {
			caller.ExpiresAt = claims.ExpiresAt.Time
		}
		return caller, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// OptionalAuthMiddleware validates the bearer token when auth is enabled.
// If auth is disabled, it allows all requests through
func OptionalAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAuthEnabled() {
			next.ServeHTTP(w, r)
			return
		}

		var tokenString string
		authHeader := r.Header.Get("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		}

		if tokenString == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="websearch"`)
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		caller, err := ValidateJWT(tokenString)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="websearch", error="invalid_token"`)
			http.Error(w, "Invalid authentication token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ClientContextKey, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetCallerFromContext returns the caller stored by OptionalAuthMiddleware.
func GetCallerFromContext(ctx context.Context) *Caller {
	if caller, ok := ctx.Value(ClientContextKey).(*Caller); ok {
		return caller
	}
	return nil
}
