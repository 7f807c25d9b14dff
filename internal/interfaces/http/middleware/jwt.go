package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/astralisone/platform/internal/infrastructure/auth"
	"github.com/astralisone/platform/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	JWTUserIDKey  = "jwt_user_id"
	JWTOrgIDKey   = "jwt_org_id"
	JWTEmailKey   = "jwt_email"
	JWTRoleKey    = "jwt_role"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// JWTConfig holds configuration for the auth middleware
type JWTConfig struct {
	JWTService *auth.JWTService
	// TokenBlacklist is optional and checked for revoked tokens when set
	TokenBlacklist auth.TokenBlacklist
	// SkipPaths are exact paths that bypass authentication
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that bypass authentication
	SkipPathPrefixes []string
	Logger           *zap.Logger
}

// JWTAuth creates JWT authentication middleware
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		for _, skip := range cfg.SkipPaths {
			if path == skip {
				c.Next()
				return
			}
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			abortUnauthorized(c, "TOKEN_INVALID", "Missing authorization header")
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			abortUnauthorized(c, "TOKEN_INVALID", "Invalid authorization header format")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)

		claims, err := cfg.JWTService.ValidateAccessToken(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				abortUnauthorized(c, "TOKEN_EXPIRED", "Token has expired")
				return
			}
			abortUnauthorized(c, "TOKEN_INVALID", "Token validation failed")
			return
		}

		if cfg.TokenBlacklist != nil {
			ctx := c.Request.Context()

			if claims.ID != "" {
				blacklisted, err := cfg.TokenBlacklist.IsBlacklisted(ctx, claims.ID)
				if err != nil {
					// fail open so an unreachable blacklist does not take
					// the whole API down
					if cfg.Logger != nil {
						cfg.Logger.Error("Failed to check token blacklist",
							zap.String("jti", claims.ID), zap.Error(err))
					}
				} else if blacklisted {
					abortUnauthorized(c, "TOKEN_INVALID", "Token has been revoked")
					return
				}
			}

			if claims.UserID != "" {
				issuedAt := time.Time{}
				if claims.IssuedAt != nil {
					issuedAt = claims.IssuedAt.Time
				}
				invalidated, err := cfg.TokenBlacklist.IsUserTokenInvalidated(ctx, claims.UserID, issuedAt)
				if err != nil {
					if cfg.Logger != nil {
						cfg.Logger.Error("Failed to check user token invalidation",
							zap.String("user_id", claims.UserID), zap.Error(err))
					}
				} else if invalidated {
					abortUnauthorized(c, "TOKEN_INVALID", "User session has been invalidated")
					return
				}
			}
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, claims.UserID)
		c.Set(JWTOrgIDKey, claims.OrgID)
		c.Set(JWTEmailKey, claims.Email)
		c.Set(JWTRoleKey, claims.Role)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, code, message string) {
	requestID := c.GetString("request_id")
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// GetJWTUserID returns the authenticated user ID or an empty string
func GetJWTUserID(c *gin.Context) string {
	return c.GetString(JWTUserIDKey)
}

// GetJWTOrgID returns the authenticated organization ID or an empty string
func GetJWTOrgID(c *gin.Context) string {
	return c.GetString(JWTOrgIDKey)
}

// GetJWTRole returns the authenticated user's role or an empty string
func GetJWTRole(c *gin.Context) string {
	return c.GetString(JWTRoleKey)
}

// RequireRole returns a middleware that rejects users without one of the
// given roles. It must run after JWTAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetJWTRole(c)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		requestID := c.GetString("request_id")
		c.AbortWithStatusJSON(http.StatusForbidden,
			dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, "Insufficient role for this operation", requestID))
	}
}
