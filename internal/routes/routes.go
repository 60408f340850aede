package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/calendar-booking/internal/audit"
	"github.com/BruksfildServices01/calendar-booking/internal/config"
	domainBooking "github.com/BruksfildServices01/calendar-booking/internal/domain/booking"
	domainCalendar "github.com/BruksfildServices01/calendar-booking/internal/domain/calendar"
	"github.com/BruksfildServices01/calendar-booking/internal/domain/identity"
	"github.com/BruksfildServices01/calendar-booking/internal/handlers"
	infraRepo "github.com/BruksfildServices01/calendar-booking/internal/infra/repository"
	"github.com/BruksfildServices01/calendar-booking/internal/metrics"
	"github.com/BruksfildServices01/calendar-booking/internal/middleware"
	"github.com/BruksfildServices01/calendar-booking/internal/tokencodec"
	ucBooking "github.com/BruksfildServices01/calendar-booking/internal/usecase/booking"
	ucCalendar "github.com/BruksfildServices01/calendar-booking/internal/usecase/calendar"
	ucIdentity "github.com/BruksfildServices01/calendar-booking/internal/usecase/identity"
)

const oauthStateTTL = 15 * time.Minute

// Deps are the singletons built once at startup.
type Deps struct {
	DB       *gorm.DB
	Config   *config.Config
	Provider domainCalendar.Provider
	Codec    *tokencodec.Codec
	Audit    *audit.Dispatcher
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger

	// Idempotency is nil when no Redis is configured.
	Idempotency domainBooking.IdempotencyStore
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	cfg := d.Config
	tz := cfg.CalendarTimezone

	// ======================================================
	// GLOBAL MIDDLEWARE
	// ======================================================
	r.Use(middleware.Observe(d.Logger, d.Metrics))
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	// ======================================================
	// INFRA
	// ======================================================
	userRepo := infraRepo.NewUserGormRepository(d.DB)
	calendarRepo := infraRepo.NewCalendarGormRepository(d.DB)
	bookingRepo := infraRepo.NewBookingGormRepository(d.DB)

	// ======================================================
	// USE CASES — IDENTITY
	// ======================================================
	sessions := ucIdentity.NewSessions(userRepo, cfg.JWTSecret, cfg.SessionTTL)
	registerUC := ucIdentity.NewRegister(userRepo, d.Audit, d.Logger)
	authenticateUC := ucIdentity.NewAuthenticate(userRepo, sessions)
	authorizeUC := ucIdentity.NewAuthorize(userRepo)

	// ======================================================
	// USE CASES — CALENDAR
	// ======================================================
	state := ucCalendar.NewStateSigner(cfg.JWTSecret, oauthStateTTL)
	creds := ucCalendar.NewCredentials(userRepo, d.Codec, d.Logger)

	ensureCalendarUC := ucCalendar.NewEnsureCalendar(
		userRepo,
		calendarRepo,
		d.Provider,
		creds,
		tz,
		d.Audit,
		d.Logger,
	)

	authURLUC := ucCalendar.NewAuthorizationURL(d.Provider, state)

	exchangeUC := ucCalendar.NewExchangeCode(
		userRepo,
		d.Provider,
		state,
		creds,
		ensureCalendarUC,
		d.Audit,
		d.Logger,
	)

	createCalendarUC := ucCalendar.NewCreateCalendar(
		userRepo,
		calendarRepo,
		d.Provider,
		creds,
		tz,
		d.Audit,
	)

	assignCalendarUC := ucCalendar.NewAssignCalendar(userRepo, calendarRepo, d.Audit)
	listCalendarsUC := ucCalendar.NewListCalendars(userRepo, calendarRepo)

	createUnitUC := ucCalendar.NewCreateBookableUnit(
		userRepo,
		calendarRepo,
		bookingRepo,
		d.Provider,
		creds,
		ensureCalendarUC,
		tz,
		d.Audit,
		d.Logger,
	)

	// ======================================================
	// USE CASES — BOOKING
	// ======================================================
	claimUC := ucBooking.NewClaimUnit(
		bookingRepo,
		d.Idempotency,
		d.Audit,
		d.Metrics,
		d.Logger,
	)
	listUnitsUC := ucBooking.NewListUnits(bookingRepo)

	// ======================================================
	// HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(registerUC, authenticateUC, d.Logger)
	meHandler := handlers.NewMeHandler(userRepo, d.Logger)
	oauthHandler := handlers.NewOAuthHandler(authURLUC, exchangeUC, d.Logger)

	calendarHandler := handlers.NewCalendarHandler(
		createCalendarUC,
		assignCalendarUC,
		listCalendarsUC,
		createUnitUC,
		d.Logger,
	)

	publicHandler := handlers.NewPublicHandler(claimUC, listUnitsUC, d.Logger)
	auditLogsHandler := handlers.NewAuditLogsHandler(d.DB, d.Logger)

	// ======================================================
	// OPERATIONS
	// ======================================================
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	// ------------------------------
	// PUBLIC
	// ------------------------------
	r.POST("/signup", authHandler.Signup)
	r.POST("/login", authHandler.Login)
	r.GET("/oauth2callback", oauthHandler.Callback)

	r.POST("/bookSlot", publicHandler.BookSlot)
	r.POST("/bookevent", publicHandler.BookEvent)
	r.GET("/findSlots", publicHandler.FindSlots)

	// ------------------------------
	// AUTHENTICATED
	// ------------------------------
	secured := r.Group("/")
	secured.Use(middleware.AuthMiddleware(sessions))
	{
		secured.GET("/me", meHandler.GetMe)
		secured.GET("/audit-logs", auditLogsHandler.List)

		secured.GET("/provide-access", oauthHandler.ProvideAccess)
		secured.POST("/createNewCalendar", calendarHandler.CreateCalendar)
		secured.POST("/create-event", calendarHandler.CreateEvent)

		secured.POST("/assign-calendar",
			middleware.RequireRoles(authorizeUC, identity.RoleAdmin),
			calendarHandler.AssignCalendar,
		)
		secured.GET("/calendars",
			middleware.RequireRoles(authorizeUC, identity.RoleAdmin, identity.RoleEmployee),
			calendarHandler.ListCalendars,
		)
	}
}
