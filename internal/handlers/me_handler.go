package handlers

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/calendar-booking/internal/domain/identity"
	"github.com/BruksfildServices01/calendar-booking/internal/httperr"
	"github.com/BruksfildServices01/calendar-booking/internal/httpresp"
	"github.com/BruksfildServices01/calendar-booking/internal/logging"
	"github.com/BruksfildServices01/calendar-booking/internal/middleware"
)

type MeHandler struct {
	users  identity.UserRepository
	logger *slog.Logger
}

func NewMeHandler(users identity.UserRepository, logger *slog.Logger) *MeHandler {
	return &MeHandler{users: users, logger: logging.Default(logger)}
}

func (h *MeHandler) GetMe(c *gin.Context) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		httperr.Unauthorized(c, "user_not_in_context", "Authentication required.")
		return
	}

	user, err := h.users.FindByID(c.Request.Context(), id.UserID)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			httperr.NotFound(c, "user_not_found", "User not found.")
			return
		}
		writeCommonError(c, h.logger, err)
		return
	}

	httpresp.OK(c, gin.H{
		"user":                     user,
		"delegated_access_granted": user.HasDelegatedAccess(),
	})
}
