/**
 * @description
 * Custom middleware for the HTTP router. Requests on the protected routes carry
 * a bearer token issued by this service; the middleware validates it and places
 * the user's UUID in the request context for handlers to pick up.
 *
 * @dependencies
 * - github.com/golang-jwt/jwt/v5: HS256 token signing and validation.
 */

package api

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pollcraft/survey-service/internal/app"
)

// UserIDContextKey is a custom type for the context key to avoid collisions.
type UserIDContextKey string

const authUserIDKey UserIDContextKey = "authUserID"

// NewTokenSigner returns a signer producing HS256 bearer tokens with the user
// id in the subject claim.
func NewTokenSigner(secret []byte) app.TokenSigner {
	return func(userID uuid.UUID, email string, ttl time.Duration) (string, error) {
		now := time.Now()
		claims := jwt.MapClaims{
			"sub":   userID.String(),
			"email": email,
			"iat":   now.Unix(),
			"exp":   now.Add(ttl).Unix(),
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		return token.SignedString(secret)
	}
}

// AuthMiddleware creates a middleware that validates bearer tokens signed with
// the shared HS256 secret.
func AuthMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, kindUnauthorized, "Authorization header required")
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				writeError(w, http.StatusUnauthorized, kindUnauthorized, "Invalid Authorization header format")
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				writeError(w, http.StatusUnauthorized, kindUnauthorized, "Invalid token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				writeError(w, http.StatusUnauthorized, kindUnauthorized, "Invalid token claims")
				return
			}

			subject, ok := claims["sub"].(string)
			if !ok {
				writeError(w, http.StatusUnauthorized, kindUnauthorized, "User ID not found in token")
				return
			}
			userID, err := uuid.Parse(subject)
			if err != nil {
				writeError(w, http.StatusUnauthorized, kindUnauthorized, "Invalid user ID in token")
				return
			}

			ctx := context.WithValue(r.Context(), authUserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID retrieves the authenticated user's ID from the request context.
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(authUserIDKey).(uuid.UUID)
	return userID, ok
}

// APIKeyMiddleware guards the response-collector routes with a static key
// carried in the X-API-Key header. An empty configured key disables the routes.
func APIKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				writeError(w, http.StatusServiceUnavailable, kindUnauthorized, "Response collection is not enabled")
				return
			}
			provided := r.Header.Get("X-API-Key")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				writeError(w, http.StatusUnauthorized, kindUnauthorized, "Invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitMiddleware throttles a route per authenticated user (falling back
// to the remote address before authentication) using a fixed one-minute
// window. A nil limiter or a non-positive limit disables throttling; Redis
// failures fail open so an outage never blocks traffic.
func RateLimitMiddleware(limiter app.RateLimiter, scope string, limitPerMinute int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || limitPerMinute <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			subject := r.RemoteAddr
			if host, _, found := strings.Cut(r.RemoteAddr, ":"); found {
				subject = host
			}
			if userID, ok := GetUserID(r.Context()); ok {
				subject = userID.String()
			}

			count, retryAfter, err := limiter.ConsumeRateLimit(r.Context(), scope, subject, limitPerMinute, time.Minute)
			if err != nil {
				log.Printf("level=warn component=api msg=\"rate limit check failed, allowing request\" scope=%s err=%v", scope, err)
				next.ServeHTTP(w, r)
				return
			}
			if count > limitPerMinute {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeError(w, http.StatusTooManyRequests, kindRateLimited, "Too many requests, slow down")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
