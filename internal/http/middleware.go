package http

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/lwei/shoplite/internal/auth"
	rl "github.com/lwei/shoplite/internal/http/rate_limiter"
)

type contextKey string

const (
	userIDKey   = contextKey("user_id")
	usernameKey = contextKey("username")
	isAdminKey  = contextKey("is_admin")
)

func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization := r.Header.Get("Authorization")
		if !strings.HasPrefix(authorization, "Bearer ") {
			http.Error(w, "missing or invalid token", http.StatusUnauthorized)
			return
		}

		token, claims, err := auth.TokenClaims(authorization)
		if err != nil || !token.Valid {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		userID, _ := claims["sub"].(float64)
		username, _ := claims["username"].(string)
		isAdmin, _ := claims["admin"].(bool)

		ctx := context.WithValue(r.Context(), userIDKey, int(userID))
		ctx = context.WithValue(ctx, usernameKey, username)
		ctx = context.WithValue(ctx, isAdminKey, isAdmin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminMiddleware gates mutating catalog/user routes; it must run after
// AuthMiddleware.
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r) {
			http.Error(w, "admin privileges required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimitMiddleware applies the per-IP limiter; used on the anonymous auth
// endpoints.
func RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter := rl.GetVisitor(ClientIP(r))
		if !limiter.Allow() {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetUserID(r *http.Request) int {
	if val, ok := r.Context().Value(userIDKey).(int); ok {
		return val
	}
	return 0
}

func GetUsername(r *http.Request) string {
	if val, ok := r.Context().Value(usernameKey).(string); ok {
		return val
	}
	return ""
}

func IsAdmin(r *http.Request) bool {
	if val, ok := r.Context().Value(isAdminKey).(bool); ok {
		return val
	}
	return false
}

// ClientIP strips the port from RemoteAddr.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
