package handlers

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/calendar-booking/internal/domain/identity"
	"github.com/BruksfildServices01/calendar-booking/internal/httperr"
	"github.com/BruksfildServices01/calendar-booking/internal/httpresp"
	"github.com/BruksfildServices01/calendar-booking/internal/logging"
	"github.com/BruksfildServices01/calendar-booking/internal/middleware"
	"github.com/BruksfildServices01/calendar-booking/internal/models"
	"github.com/BruksfildServices01/calendar-booking/internal/timezone"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

type AuditLogsHandler struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewAuditLogsHandler(db *gorm.DB, logger *slog.Logger) *AuditLogsHandler {
	return &AuditLogsHandler{db: db, logger: logging.Default(logger)}
}

// auditFilter is the parsed query string of GET /audit-logs. Unparseable
// values fall back to no filter.
type auditFilter struct {
	page, limit    int
	action, entity string
	from, until    *time.Time
}

func parseAuditFilter(c *gin.Context) auditFilter {
	f := auditFilter{
		page:   positiveInt(c.Query("page"), 1),
		limit:  positiveInt(c.Query("limit"), defaultAuditLimit),
		action: c.Query("action"),
		entity: c.Query("entity"),
	}
	if f.limit > maxAuditLimit {
		f.limit = defaultAuditLimit
	}

	if day, err := time.Parse(timezone.DateLayout, c.Query("from")); err == nil {
		f.from = &day
	}
	if day, err := time.Parse(timezone.DateLayout, c.Query("to")); err == nil {
		end := day.AddDate(0, 0, 1)
		f.until = &end
	}
	return f
}

// apply narrows q to what viewer may see and what f asks for. Admins see
// every event, everyone else only the ones they caused.
func (f auditFilter) apply(q *gorm.DB, viewer identity.Identity) *gorm.DB {
	if viewer.Role != identity.RoleAdmin {
		q = q.Where("user_id = ?", viewer.UserID)
	}
	if f.action != "" {
		q = q.Where("action = ?", f.action)
	}
	if f.entity != "" {
		q = q.Where("entity = ?", f.entity)
	}
	if f.from != nil {
		q = q.Where("created_at >= ?", *f.from)
	}
	if f.until != nil {
		q = q.Where("created_at < ?", *f.until)
	}
	return q
}

func (h *AuditLogsHandler) List(c *gin.Context) {
	viewer, ok := middleware.CurrentIdentity(c)
	if !ok {
		httperr.Unauthorized(c, "unauthorized", "Authentication required.")
		return
	}

	f := parseAuditFilter(c)
	q := f.apply(h.db.WithContext(c.Request.Context()).Model(&models.AuditLog{}), viewer)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		h.logger.Error("audit count failed", logging.Err(err))
		httperr.Internal(c, "audit_count_failed", "Could not count audit logs.")
		return
	}

	logs := []models.AuditLog{}
	err := q.Order("created_at DESC").
		Limit(f.limit).
		Offset((f.page - 1) * f.limit).
		Find(&logs).Error
	if err != nil {
		h.logger.Error("audit list failed", logging.Err(err))
		httperr.Internal(c, "audit_list_failed", "Could not list audit logs.")
		return
	}

	httpresp.OK(c, gin.H{
		"page":  f.page,
		"limit": f.limit,
		"total": total,
		"logs":  logs,
	})
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
