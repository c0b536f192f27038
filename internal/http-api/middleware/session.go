package middleware

import (
	"log/slog"
	"net/http"

	"pixelboard/internal/http-api/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// scopeKey is where the request scope lives in the gin context.
const scopeKey = "scope"

// Scope is the per-request credential context: the resolved identity (nil
// for anonymous requests) and a context-bound data handle. One scope per
// request, acquired here, released unconditionally when the request ends.
// It must never be cached or shared across requests.
type Scope struct {
	Identity *service.Identity
	DB       *gorm.DB
}

// Release drops the scope's references. Called on every exit path so
// credentials never outlive their request.
func (s *Scope) Release() {
	s.Identity = nil
	s.DB = nil
}

// SessionScope resolves the auth-token cookie into a request scope. A
// missing or unknown token yields an anonymous scope, not an error; a
// failing session store yields anonymous too (logged), since identity
// cannot be trusted without it.
func SessionScope(sessions service.SessionService, db *gorm.DB, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := &Scope{}
		if db != nil {
			scope.DB = db.WithContext(c.Request.Context())
		}
		defer scope.Release()

		if token, err := c.Cookie(service.AuthTokenCookie); err == nil && token != "" {
			identity, err := sessions.Resolve(c.Request.Context(), token)
			if err != nil {
				logger.Error("session resolution failed", "error", err)
			} else {
				scope.Identity = identity
			}
		}

		SetScope(c, scope)
		c.Next()
	}
}

// SetScope installs a request scope directly. SessionScope uses it; handler
// tests use it to fake an authenticated request.
func SetScope(c *gin.Context, scope *Scope) {
	c.Set(scopeKey, scope)
}

// RequireAuth aborts anonymous requests with 401. Must run after SessionScope.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := GetScope(c)
		if !ok || scope.Identity == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetScope returns the request scope set by SessionScope.
func GetScope(c *gin.Context) (*Scope, bool) {
	value, exists := c.Get(scopeKey)
	if !exists {
		return nil, false
	}
	scope, ok := value.(*Scope)
	return scope, ok
}

// CurrentUserID returns the authenticated user's ID, or "" for anonymous.
func CurrentUserID(c *gin.Context) string {
	scope, ok := GetScope(c)
	if !ok || scope.Identity == nil {
		return ""
	}
	return scope.Identity.UserID
}
