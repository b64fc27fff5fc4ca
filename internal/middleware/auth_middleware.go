package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/storeup/storeup-backend/internal/app/service"
	"github.com/storeup/storeup-backend/internal/authz"
	apperrors "github.com/storeup/storeup-backend/internal/errors"
	"github.com/storeup/storeup-backend/pkg/util"
)

// Context keys for the authenticated caller
const (
	UserIDKey    = "user_id"
	ClaimsKey    = "claims"
	PrincipalKey = "principal"
)

// RevocationChecker reports whether a token id was revoked at logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type AuthMiddleware struct {
	jwtSecret  string
	revoked    RevocationChecker
	principals service.PrincipalLoader
}

// NewAuthMiddleware builds the bearer-token middleware. revoked may be nil
// when no blacklist is configured.
func NewAuthMiddleware(jwtSecret string, revoked RevocationChecker, principals service.PrincipalLoader) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret:  jwtSecret,
		revoked:    revoked,
		principals: principals,
	}
}

var errNoCredentials = apperrors.Unauthenticated(apperrors.AuthUnauthorized, "Authentication credentials were not provided.")

// authenticate resolves the bearer token into claims and a principal.
// It returns errNoCredentials when the request carries no Authorization header.
func (m *AuthMiddleware) authenticate(c *gin.Context) (*util.Claims, *authz.Principal, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, nil, errNoCredentials
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return nil, nil, apperrors.Unauthenticated(apperrors.AuthTokenInvalid, "Invalid authorization header format")
	}

	claims, err := util.ValidateToken(strings.TrimSpace(token), m.jwtSecret)
	if err != nil {
		if errors.Is(err, util.ErrExpiredToken) {
			return nil, nil, apperrors.Unauthenticated(apperrors.AuthTokenExpired, "Token has expired")
		}
		return nil, nil, apperrors.Unauthenticated(apperrors.AuthTokenInvalid, "Invalid token")
	}
	if claims.TokenType != "" && claims.TokenType != util.TokenTypeAccess {
		return nil, nil, apperrors.Unauthenticated(apperrors.AuthTokenInvalid, "Refresh tokens cannot be used for API access")
	}

	if m.revoked != nil && claims.ID != "" {
		revoked, err := m.revoked.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			GetLoggerFromContext(c).Error("Token blacklist lookup failed", err, map[string]interface{}{
				"user_id": claims.UserID,
			})
		} else if revoked {
			return nil, nil, apperrors.Unauthenticated(apperrors.AuthTokenRevoked, "Token has been revoked")
		}
	}

	principal, err := m.principals.Load(c.Request.Context(), claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	return claims, principal, nil
}

func setCaller(c *gin.Context, claims *util.Claims, principal *authz.Principal) {
	c.Set(UserIDKey, claims.UserID)
	c.Set(ClaimsKey, claims)
	c.Set(PrincipalKey, principal)
}

// Authenticate requires a valid access token.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		claims, principal, err := m.authenticate(c)
		if err != nil {
			log.Warn("Authentication failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			apperrors.Respond(c, err)
			c.Abort()
			return
		}

		setCaller(c, claims, principal)
		log.Debug("User authenticated successfully", map[string]interface{}{
			"user_id": claims.UserID,
			"admin":   principal.Admin,
		})
		c.Next()
	}
}

// OptionalAuthenticate lets anonymous requests through. A token that is
// present but invalid is still rejected.
func (m *AuthMiddleware) OptionalAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		claims, principal, err := m.authenticate(c)
		if err == errNoCredentials {
			log.Debug("No authorization header - continuing as guest", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			c.Next()
			return
		}
		if err != nil {
			log.Warn("Authentication failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			apperrors.Respond(c, err)
			c.Abort()
			return
		}

		setCaller(c, claims, principal)
		c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	return userID.(uint), true
}

func GetClaims(c *gin.Context) (*util.Claims, bool) {
	claims, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	return claims.(*util.Claims), true
}

// GetPrincipal returns the caller, or nil for anonymous requests.
func GetPrincipal(c *gin.Context) *authz.Principal {
	p, exists := c.Get(PrincipalKey)
	if !exists {
		return nil
	}
	return p.(*authz.Principal)
}
