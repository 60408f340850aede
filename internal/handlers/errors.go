package handlers

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/calendar-booking/internal/domain/calendar"
	"github.com/BruksfildServices01/calendar-booking/internal/domain/identity"
	"github.com/BruksfildServices01/calendar-booking/internal/httperr"
	"github.com/BruksfildServices01/calendar-booking/internal/logging"
)

// writeCommonError covers the errors every handler can see. Handlers map
// their own business codes first and fall through to this.
func writeCommonError(c *gin.Context, logger *slog.Logger, err error) {
	if ve, ok := httperr.AsValidation(err); ok {
		httperr.Validation(c, ve)
		return
	}

	var upstream *calendar.UpstreamError
	switch {
	case errors.Is(err, identity.ErrUnauthorized):
		httperr.Unauthorized(c, "unauthorized", "Authentication required.")
	case errors.Is(err, identity.ErrForbidden):
		httperr.Forbidden(c, "forbidden", "Access denied.")
	case errors.Is(err, calendar.ErrDelegatedAccessRequired):
		httperr.Forbidden(c, "delegated_access_required", "Grant calendar access first.")
	case errors.As(err, &upstream):
		logger.Warn("calendar provider failed",
			slog.String("provider_op", upstream.Op),
			slog.Int("provider_status", upstream.Status),
			logging.Err(err),
		)
		httperr.BadGateway(c, "upstream_provider_error", "Calendar provider request failed.")
	default:
		logger.Error("unexpected error", slog.String("route", c.FullPath()), logging.Err(err))
		httperr.Internal(c, "internal_error", "Something went wrong.")
	}
}

// bindJSON reports malformed bodies. Field rules live in the use cases so
// every missing field is reported at once.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		httperr.BadRequest(c, "invalid_request", "Malformed JSON body.")
		return false
	}
	return true
}
