package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"laundry-service/internal/redisclient"
	"laundry-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

const (
	ctxUserIDKey = "userID"
	ctxRoleKey   = "userRole"
)

// Claims are the JWT claims issued by the auth collaborator.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

// AuthMiddleware validates bearer tokens and enforces role access.
type AuthMiddleware struct {
	redis  *redisclient.Client
	secret string
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(redis *redisclient.Client, secret string) *AuthMiddleware {
	return &AuthMiddleware{redis: redis, secret: secret}
}

// RequireRole authenticates the request and rejects callers whose role is not
// in the allowed set. The authenticated user id and role are stored on the
// gin context.
func (am *AuthMiddleware) RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.GetHeader("Authorization")
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing authorization header"})
			return
		}
		tokenStr = strings.TrimPrefix(tokenStr, "Bearer ")

		if am.redis != nil {
			blacklisted, err := am.redis.IsTokenBlacklisted(c.Request.Context(), tokenStr)
			if err != nil {
				util.GetLogger().Warn("Token blacklist check failed")
			} else if blacklisted {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token revoked"})
				return
			}
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(am.secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		if len(allowedRoles) > 0 && !contains(allowedRoles, claims.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}

		c.Set(ctxUserIDKey, userID)
		c.Set(ctxRoleKey, claims.Role)
		c.Next()
	}
}

func contains(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// currentUserID returns the authenticated user id set by RequireRole.
func currentUserID(c *gin.Context) uuid.UUID {
	v, _ := c.Get(ctxUserIDKey)
	id, _ := v.(uuid.UUID)
	return id
}

// currentRole returns the authenticated role set by RequireRole.
func currentRole(c *gin.Context) string {
	v, _ := c.Get(ctxRoleKey)
	role, _ := v.(string)
	return role
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
