package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/calendar-booking/internal/domain/calendar"
	"github.com/BruksfildServices01/calendar-booking/internal/domain/identity"
	"github.com/BruksfildServices01/calendar-booking/internal/httperr"
	"github.com/BruksfildServices01/calendar-booking/internal/httpresp"
	"github.com/BruksfildServices01/calendar-booking/internal/logging"
	"github.com/BruksfildServices01/calendar-booking/internal/middleware"
	ucCalendar "github.com/BruksfildServices01/calendar-booking/internal/usecase/calendar"
)

type OAuthHandler struct {
	authURL  *ucCalendar.AuthorizationURL
	exchange *ucCalendar.ExchangeCode
	logger   *slog.Logger
}

func NewOAuthHandler(
	authURL *ucCalendar.AuthorizationURL,
	exchange *ucCalendar.ExchangeCode,
	logger *slog.Logger,
) *OAuthHandler {
	return &OAuthHandler{
		authURL:  authURL,
		exchange: exchange,
		logger:   logging.Default(logger),
	}
}

func (h *OAuthHandler) ProvideAccess(c *gin.Context) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		httperr.Unauthorized(c, "unauthorized", "Authentication required.")
		return
	}

	url, err := h.authURL.Execute(id.Email)
	if err != nil {
		writeCommonError(c, h.logger, err)
		return
	}

	httpresp.OK(c, gin.H{"authUrl": url})
}

// Callback is hit by the provider redirect, so it answers in plain text.
func (h *OAuthHandler) Callback(c *gin.Context) {
	if e := c.Query("error"); e != "" {
		httperr.BadRequest(c, "access_denied", "Calendar access was not granted.")
		return
	}

	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		httperr.BadRequest(c, "missing_params", "code and state are required.")
		return
	}

	if _, err := h.exchange.Execute(c.Request.Context(), code, state); err != nil {
		h.mapOAuthErrors(c, err)
		return
	}

	c.String(http.StatusOK, "OAuth callback successful! You can now create a calendar.")
}

func (h *OAuthHandler) mapOAuthErrors(c *gin.Context, err error) {
	switch {
	case errors.Is(err, calendar.ErrInvalidState):
		httperr.BadRequest(c, "invalid_state", "Invalid or expired state.")
	case errors.Is(err, identity.ErrUserNotFound):
		httperr.BadRequest(c, "user_not_found", "User not found.")
	default:
		writeCommonError(c, h.logger, err)
	}
}
