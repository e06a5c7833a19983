package middleware

import (
	"net/http"
	"strings"

	"reviewhub/internal/http-api/permissions"
	"reviewhub/internal/http-api/service"

	"github.com/gin-gonic/gin"
)

const callerKey = "caller"

// AuthMiddleware is a Gin middleware for JWT authentication of API requests.
// It checks for the presence and validity of a JWT token in the Authorization header.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		// Extract token (format: "Bearer <token>")
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set("claims", claims)
		c.Set("userID", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("role", claims.Role)
		c.Set(callerKey, permissions.Caller{
			ID:            claims.UserID,
			Role:          claims.Role,
			Authenticated: true,
		})

		c.Next()
	}
}

// OptionalAuth decodes a bearer token when one is present but lets
// anonymous requests through. Read endpoints use it so public GETs and
// authenticated GETs share one route.
func OptionalAuth(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.Next()
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			c.Next()
			return
		}

		c.Set("claims", claims)
		c.Set("userID", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("role", claims.Role)
		c.Set(callerKey, permissions.Caller{
			ID:            claims.UserID,
			Role:          claims.Role,
			Authenticated: true,
		})

		c.Next()
	}
}

// CallerFromContext returns the authenticated caller, or the anonymous
// zero Caller when AuthMiddleware did not run or the request carried no
// valid token.
func CallerFromContext(c *gin.Context) permissions.Caller {
	v, exists := c.Get(callerKey)
	if !exists {
		return permissions.Caller{}
	}
	caller, ok := v.(permissions.Caller)
	if !ok {
		return permissions.Caller{}
	}
	return caller
}

// RequirePermission gates a route on the policy table before any
// resource is loaded. Ownership checks on loaded resources happen in
// the services; this middleware settles the role-level half.
func RequirePermission(policy permissions.Policy, verb permissions.Verb, res permissions.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := CallerFromContext(c)
		if d := policy.Decide(caller, verb, res, ""); !d.Allowed {
			status := http.StatusForbidden
			if !caller.Authenticated {
				status = http.StatusUnauthorized
			}
			c.JSON(status, gin.H{"error": d.Reason})
			c.Abort()
			return
		}
		c.Next()
	}
}
