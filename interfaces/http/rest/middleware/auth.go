package middleware

import (
	"errors"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"schemagraph/pkg/auth"
	apperrors "schemagraph/pkg/errors"

	"go.uber.org/zap"
)

// RateLimits configures per-minute request budgets for authenticated routes
type RateLimits struct {
	PerIP   int
	PerUser int
}

// DefaultRateLimits are applied when none are configured
var DefaultRateLimits = RateLimits{PerIP: 100, PerUser: 200}

// Authenticate validates the bearer token, applies rate limits and puts the
// caller identity into the request context
func Authenticate(validator *auth.JWTValidator, limits RateLimits, errHandler *apperrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	if limits.PerIP <= 0 {
		limits.PerIP = DefaultRateLimits.PerIP
	}
	if limits.PerUser <= 0 {
		limits.PerUser = DefaultRateLimits.PerUser
	}
	ipLimiter := auth.NewIPRateLimiter(limits.PerIP)
	userLimiter := auth.NewUserRateLimiter(limits.PerUser)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)

			if allowed, _ := ipLimiter.Allow(r.Context(), clientIP); !allowed {
				setRetryAfter(w, ipLimiter.RetryAfter(clientIP))
				errHandler.Handle(w, r, apperrors.NewRateLimitError(limits.PerIP, "minute"))
				return
			}

			token := extractToken(r)
			if token == "" {
				errHandler.Handle(w, r, apperrors.NewUnauthorizedError("No token provided"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Warn("Invalid token",
					zap.Error(err),
					zap.String("ip", clientIP),
					zap.String("path", r.URL.Path),
				)
				switch {
				case errors.Is(err, auth.ErrExpiredToken):
					errHandler.Handle(w, r, apperrors.NewUnauthorizedError("Token has expired"))
				default:
					errHandler.Handle(w, r, apperrors.NewUnauthorizedError("Invalid token"))
				}
				return
			}

			if allowed, _ := userLimiter.Allow(r.Context(), claims.UserID); !allowed {
				setRetryAfter(w, userLimiter.RetryAfter(claims.UserID))
				errHandler.Handle(w, r, apperrors.NewRateLimitError(limits.PerUser, "minute"))
				return
			}

			ctx := auth.SetUserInContext(r.Context(), &auth.UserContext{
				UserID:   claims.UserID,
				Username: claims.Username,
			})

			logger.Debug("Request authenticated",
				zap.String("user_id", claims.UserID),
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken reads a bearer token from the Authorization header or the
// auth_token cookie
func extractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return strings.TrimSpace(authHeader)
	}

	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return ""
}

// getClientIP uses RemoteAddr, which chi's RealIP middleware has already
// rewritten from X-Forwarded-For / X-Real-IP
func getClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func setRetryAfter(w http.ResponseWriter, d time.Duration) {
	seconds := int(math.Ceil(d.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
}
