package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/SAP-F-2025/exam-paper-service/internal/auth"
	"github.com/SAP-F-2025/exam-paper-service/internal/services"
	"github.com/SAP-F-2025/exam-paper-service/internal/utils"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Authenticate resolves the bearer token into a principal and stores it on the context.
func Authenticate(authenticator auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			abortWithServiceError(c, fmt.Errorf("%w: %w", services.ErrUnauthorized, auth.ErrMissingToken))
			return
		}

		principal, err := authenticator.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			if !errors.Is(err, auth.ErrMissingToken) {
				err = auth.ErrInvalidToken
			}
			abortWithServiceError(c, fmt.Errorf("%w: %w", services.ErrUnauthorized, err))
			return
		}

		c.Set(principalKey, principal)
		c.Set(userIDKey, principal.ID)
		c.Next()
	}
}

// RequireAction rejects callers whose role does not grant action.
func RequireAction(authorizer auth.Authorizer, action auth.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		var principal *auth.Principal
		if p, exists := c.Get(principalKey); exists {
			principal, _ = p.(*auth.Principal)
		}
		if principal == nil {
			abortWithServiceError(c, services.ErrUnauthorized)
			return
		}
		if !authorizer.Allows(action, principal) {
			reason := fmt.Sprintf("role %s does not grant %s", principal.Role, action)
			abortWithServiceError(c, services.NewPermissionError(principal.ID, 0, c.FullPath(), string(action), reason))
			return
		}
		c.Next()
	}
}

// RequestContext copies the request id into the request context for service logs.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.GetHeader(utils.RequestIDHeader); id != "" {
			c.Request = c.Request.WithContext(services.WithRequestID(c.Request.Context(), id))
		}
		c.Next()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter allows maxRequests per window for each caller, keyed by user id
// when authenticated and by client IP otherwise. Idle entries are swept until ctx ends.
func RateLimiter(ctx context.Context, maxRequests int, window time.Duration) gin.HandlerFunc {
	store := make(map[string]*visitor)
	var mu sync.Mutex

	go func() {
		expiry := window * 3
		if expiry < time.Minute {
			expiry = time.Minute
		}
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				mu.Lock()
				for key, v := range store {
					if time.Since(v.lastSeen) > expiry {
						delete(store, key)
					}
				}
				mu.Unlock()
			}
		}
	}()

	r := rate.Every(window / time.Duration(maxRequests))

	return func(c *gin.Context) {
		key := c.GetString(userIDKey)
		if key == "" {
			key = c.ClientIP()
		}

		mu.Lock()
		v, exists := store[key]
		if !exists {
			v = &visitor{limiter: rate.NewLimiter(r, maxRequests)}
			store[key] = v
		}
		v.lastSeen = time.Now()
		mu.Unlock()

		if !v.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Message: "Too many requests",
				Code:    "rate_limited",
			})
			return
		}

		c.Next()
	}
}
