package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/bitemebuddy/bitemebuddy-backend/internal/errors"
	"github.com/bitemebuddy/bitemebuddy-backend/pkg/redis"
	"github.com/bitemebuddy/bitemebuddy-backend/pkg/util"
	"github.com/gin-gonic/gin"
)

// Context keys for user information
const (
	UserIDKey      = "user_id"
	UserPhoneKey   = "user_phone"
	AccessTokenKey = "access_token"
	TokenClaimsKey = "token_claims"
)

// RevocationChecker reports whether a token was revoked by logout.
type RevocationChecker func(ctx context.Context, token string) (bool, error)

type AuthMiddleware struct {
	jwtSecret string
	isRevoked RevocationChecker
}

func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
		isRevoked: redis.IsTokenBlacklisted,
	}
}

// WithRevocationChecker replaces the blacklist lookup.
func (m *AuthMiddleware) WithRevocationChecker(check RevocationChecker) *AuthMiddleware {
	m.isRevoked = check
	return m
}

// extractToken reads "Bearer <token>" from the Authorization header, or the
// token query parameter used by websocket clients.
func extractToken(c *gin.Context) (token string, malformed bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return c.Query("token"), false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", true
	}
	return parts[1], false
}

// Authenticate validates the access token and rejects the request with 401
// when it is missing, invalid, expired or revoked.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token, malformed := extractToken(c)
		if malformed {
			log.Warn("Invalid authorization header format", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Invalid authorization header format")
			c.Abort()
			return
		}
		if token == "" {
			log.Warn("Missing authorization header", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			apperrors.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		claims, err := util.ValidateToken(token, m.jwtSecret)
		if err != nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			if errors.Is(err, util.ErrExpiredToken) {
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenExpired, "Token has expired")
			} else {
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Invalid token")
			}
			c.Abort()
			return
		}

		if claims.TokenType != util.TokenTypeAccess {
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Invalid token")
			c.Abort()
			return
		}

		if m.isRevoked != nil {
			revoked, err := m.isRevoked(c.Request.Context(), token)
			if err != nil {
				// Blacklist store is down; the token itself is valid.
				log.Error("Failed to check token blacklist", err)
			} else if revoked {
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenRevoked, "Token has been revoked")
				c.Abort()
				return
			}
		}

		setUser(c, token, claims)

		log.Debug("User authenticated successfully", map[string]interface{}{
			"user_id": claims.UserID,
		})

		c.Next()
	}
}

// OptionalAuthenticate sets user info when a valid token is present and
// otherwise continues as a guest.
func (m *AuthMiddleware) OptionalAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, malformed := extractToken(c)
		if malformed || token == "" {
			c.Next()
			return
		}

		claims, err := util.ValidateToken(token, m.jwtSecret)
		if err != nil || claims.TokenType != util.TokenTypeAccess {
			GetLoggerFromContext(c).Debug("Token rejected - continuing as guest", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			c.Next()
			return
		}

		setUser(c, token, claims)
		c.Next()
	}
}

func setUser(c *gin.Context, token string, claims *util.Claims) {
	c.Set(UserIDKey, claims.UserID)
	c.Set(UserPhoneKey, claims.Phone)
	c.Set(AccessTokenKey, token)
	c.Set(TokenClaimsKey, claims)
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// GetUserPhone extracts the phone claim from context
func GetUserPhone(c *gin.Context) (string, bool) {
	phone, exists := c.Get(UserPhoneKey)
	if !exists {
		return "", false
	}
	s, ok := phone.(string)
	return s, ok
}

// GetTokenClaims returns the raw token and its claims for logout.
func GetTokenClaims(c *gin.Context) (string, *util.Claims, bool) {
	token := c.GetString(AccessTokenKey)
	raw, exists := c.Get(TokenClaimsKey)
	if !exists || token == "" {
		return "", nil, false
	}
	claims, ok := raw.(*util.Claims)
	return token, claims, ok
}
