package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"loan-portal/internal/auth"
	"loan-portal/internal/domain"
	"loan-portal/internal/observability"
)

const identityKey = "identity"

// TokenVerifier validates a raw session token.
type TokenVerifier interface {
	Verify(raw string) (*auth.Claims, error)
}

// AccountLookup loads the account behind a verified token.
type AccountLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// Authenticate verifies the bearer token, checks revocation and reloads the account.
// Missing or malformed headers get 401, unusable tokens 403.
func Authenticate(tokens TokenVerifier, denylist auth.Denylist, accounts AccountLookup, logger *logrus.Logger, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			metrics.AuthFailure("missing_token")
			abortWithError(c, http.StatusUnauthorized, msgMissingAuthorization)
			return
		}

		claims, err := tokens.Verify(raw)
		if err != nil {
			logger.WithError(err).WithField("client_ip", c.ClientIP()).Warn("token rejected")
			metrics.AuthFailure("invalid_token")
			abortWithError(c, http.StatusForbidden, msgInvalidToken)
			return
		}
		identity := auth.IdentityFromClaims(claims)
		ctx := c.Request.Context()

		if denylist != nil && identity.TokenID != "" {
			revoked, err := denylist.IsRevoked(ctx, identity.TokenID)
			if err != nil {
				logger.WithError(err).Error("check token revocation")
				abortWithError(c, http.StatusInternalServerError, msgInternal)
				return
			}
			if revoked {
				logger.WithError(auth.ErrTokenRevoked).WithField("account_id", identity.AccountID).Warn("token rejected")
				metrics.AuthFailure("revoked_token")
				abortWithError(c, http.StatusForbidden, msgInvalidToken)
				return
			}
		}

		user, err := accounts.GetByID(ctx, identity.AccountID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				metrics.AuthFailure("unknown_account")
				abortWithError(c, http.StatusNotFound, msgUserNotFound)
				return
			}
			logger.WithError(err).WithField("account_id", identity.AccountID).Error("load authenticated account")
			abortWithError(c, http.StatusInternalServerError, msgInternal)
			return
		}
		// the stored role wins so demotions apply before the token expires
		identity.Role = user.Role

		c.Set(identityKey, identity)
		c.Request = c.Request.WithContext(auth.WithIdentity(ctx, identity))
		c.Next()
	}
}

// RequireRoles lets the request through only when the authenticated role is one of roles.
func RequireRoles(metrics *observability.Metrics, roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := identityFrom(c)
		if !ok {
			metrics.AuthFailure("missing_identity")
			abortWithError(c, http.StatusUnauthorized, msgMissingAuthorization)
			return
		}
		if !identity.HasRole(roles...) {
			metrics.AuthFailure("forbidden_role")
			abortWithError(c, http.StatusForbidden, msgInsufficientRole)
			return
		}
		c.Next()
	}
}

func identityFrom(c *gin.Context) (auth.Identity, bool) {
	if v, ok := c.Get(identityKey); ok {
		if identity, ok := v.(auth.Identity); ok {
			return identity, true
		}
	}
	return auth.IdentityFromContext(c.Request.Context())
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		entry := logger.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"route":     route,
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		})
		if identity, ok := identityFrom(c); ok {
			entry = entry.WithField("account_id", identity.AccountID)
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request completed")
			return
		}
		entry.Debug("request completed")
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
