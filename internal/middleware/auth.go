package middleware // middleware provides shared request processing for handlers

import (
	"net/http"
	"strings"

	"github.com/juju/errors"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storefront/internal/config"
	"github.com/iliyamo/storefront/internal/model"
	"github.com/iliyamo/storefront/internal/utils"
)

// Context keys set by TokenAuth.
const (
	ctxSubject = "sub"
	ctxRole    = "role"
)

// credentialsError is the single body returned for every authentication or
// authorization failure, so callers cannot tell which check failed.
var credentialsError = echo.Map{"detail": "Could not validate credentials"}

// TokenAuth returns an Echo middleware that validates a Bearer access token
// and stores the token's subject and role in the request context.  Missing,
// malformed, expired or wrongly signed tokens are rejected with 403.
func TokenAuth(tokens config.TokenConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := bearerClaims(c, tokens)
			if err != nil {
				logger.Debugf("rejected token from %s: %v", c.RealIP(), err)
				return c.JSON(http.StatusForbidden, credentialsError)
			}
			c.Set(ctxSubject, claims.Subject)
			c.Set(ctxRole, claims.Role)
			return next(c)
		}
	}
}

// bearerClaims verifies the Bearer token of the request.
func bearerClaims(c echo.Context, tokens config.TokenConfig) (*utils.Claims, error) {
	scheme, raw, ok := strings.Cut(c.Request().Header.Get(echo.HeaderAuthorization), " ")
	raw = strings.TrimSpace(raw)
	if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
		return nil, errors.Unauthorizedf("missing bearer token")
	}
	return utils.ParseAccessToken(tokens.Secret, tokens.Algorithm, raw)
}

// RequireRole enforces that the authenticated caller has one of roles.  It
// must run after TokenAuth.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allowed[Role(c)] {
				return c.JSON(http.StatusForbidden, credentialsError)
			}
			return next(c)
		}
	}
}

// AdminRequired is TokenAuth followed by RequireRole("admin").
func AdminRequired(tokens config.TokenConfig) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{TokenAuth(tokens), RequireRole(model.RoleAdmin)}
}

// Subject returns the token subject (the caller's email), or "" when the
// request was not authenticated.
func Subject(c echo.Context) string {
	s, _ := c.Get(ctxSubject).(string)
	return s
}

// Role returns the caller's role, or "" when the request was not
// authenticated.
func Role(c echo.Context) string {
	r, _ := c.Get(ctxRole).(string)
	return r
}
