package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/calendar-booking/internal/domain/identity"
	"github.com/BruksfildServices01/calendar-booking/internal/httperr"
	ucIdentity "github.com/BruksfildServices01/calendar-booking/internal/usecase/identity"
)

const ContextIdentity = "identity"

// AuthMiddleware resolves the bearer session token into an Identity.
func AuthMiddleware(sessions *ucIdentity.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httperr.Unauthorized(c, "missing_authorization_header", "Authorization header is required.")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			httperr.Unauthorized(c, "invalid_authorization_header", "Expected a bearer token.")
			c.Abort()
			return
		}

		id, err := sessions.Verify(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			if errors.Is(err, identity.ErrUnauthorized) {
				httperr.Unauthorized(c, "invalid_token", "Invalid or expired token.")
			} else {
				httperr.Internal(c, "internal_error", "Could not verify session.")
			}
			c.Abort()
			return
		}

		c.Set(ContextIdentity, *id)
		c.Next()
	}
}

// RequireRoles re-reads the caller's role from the user store on every
// request. It must run after AuthMiddleware.
func RequireRoles(authorize *ucIdentity.Authorize, roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := CurrentIdentity(c)
		if !ok {
			httperr.Unauthorized(c, "unauthorized", "Authentication required.")
			c.Abort()
			return
		}

		switch err := authorize.Execute(c.Request.Context(), id, roles...); {
		case err == nil:
			c.Next()
		case errors.Is(err, identity.ErrForbidden):
			httperr.Forbidden(c, "forbidden", "Access denied.")
			c.Abort()
		case errors.Is(err, identity.ErrUnauthorized):
			httperr.Unauthorized(c, "unauthorized", "Authentication required.")
			c.Abort()
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, httperr.HTTPError{
				Code:    "internal_error",
				Message: "Could not verify role.",
			})
		}
	}
}

func CurrentIdentity(c *gin.Context) (identity.Identity, bool) {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return identity.Identity{}, false
	}
	id, ok := v.(identity.Identity)
	return id, ok
}
