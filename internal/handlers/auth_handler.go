package handlers

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/calendar-booking/internal/domain/identity"
	"github.com/BruksfildServices01/calendar-booking/internal/httperr"
	"github.com/BruksfildServices01/calendar-booking/internal/httpresp"
	"github.com/BruksfildServices01/calendar-booking/internal/logging"
	ucIdentity "github.com/BruksfildServices01/calendar-booking/internal/usecase/identity"
)

type AuthHandler struct {
	register     *ucIdentity.Register
	authenticate *ucIdentity.Authenticate
	logger       *slog.Logger
}

func NewAuthHandler(
	register *ucIdentity.Register,
	authenticate *ucIdentity.Authenticate,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		register:     register,
		authenticate: authenticate,
		logger:       logging.Default(logger),
	}
}

// --------- Requests ---------

type SignupRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	ContactNo string `json:"contactNo"`
	Role      string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// --------- Handlers ---------

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.register.Execute(c.Request.Context(), ucIdentity.RegisterInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		ContactNo: req.ContactNo,
		Role:      req.Role,
	})
	if err != nil {
		h.mapAuthErrors(c, err)
		return
	}

	httpresp.Created(c, httpresp.Message("User registered successfully", gin.H{"user": user}))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	token, user, err := h.authenticate.Execute(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.mapAuthErrors(c, err)
		return
	}

	httpresp.OK(c, httpresp.Message("Login successful", gin.H{
		"token": token,
		"user":  user,
	}))
}

func (h *AuthHandler) mapAuthErrors(c *gin.Context, err error) {
	switch {
	case errors.Is(err, identity.ErrUserExists):
		httperr.BadRequest(c, "user_already_exists", "User already exists.")
	case errors.Is(err, identity.ErrInvalidCredentials):
		httperr.BadRequest(c, "invalid_credentials", "Invalid email or password.")
	default:
		writeCommonError(c, h.logger, err)
	}
}
