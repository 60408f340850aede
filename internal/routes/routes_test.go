package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/calendar-booking/internal/audit"
	"github.com/BruksfildServices01/calendar-booking/internal/config"
	"github.com/BruksfildServices01/calendar-booking/internal/domain/calendar"
	"github.com/BruksfildServices01/calendar-booking/internal/infra/cache"
	"github.com/BruksfildServices01/calendar-booking/internal/metrics"
	"github.com/BruksfildServices01/calendar-booking/internal/testfixtures"
	"github.com/BruksfildServices01/calendar-booking/internal/tokencodec"
)

// ======================================================
// FIXTURES
// ======================================================

type stubProvider struct {
	mu     sync.Mutex
	events int
}

func (p *stubProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/o/oauth2/auth?state=" + url.QueryEscape(state)
}

func (p *stubProvider) Exchange(ctx context.Context, code string) (*calendar.TokenPair, error) {
	if code == "bad" {
		return nil, &calendar.UpstreamError{Op: "oauth.exchange", Status: http.StatusBadRequest}
	}
	return &calendar.TokenPair{
		AccessToken:  "access-" + code,
		RefreshToken: "refresh-" + code,
		Expiry:       time.Now().Add(time.Hour),
	}, nil
}

func (p *stubProvider) CreateCalendar(ctx context.Context, tokens *calendar.TokenPair, name, tz string) (string, error) {
	return "cal-" + strings.ReplaceAll(name, " ", "-"), nil
}

func (p *stubProvider) DeleteCalendar(ctx context.Context, tokens *calendar.TokenPair, calendarID string) error {
	return nil
}

func (p *stubProvider) InsertEvent(ctx context.Context, tokens *calendar.TokenPair, calendarID string, ev calendar.EventSpec) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events++
	return fmt.Sprintf("evt%d", p.events), nil
}

type server struct {
	t     *testing.T
	r     *gin.Engine
	reg   *prometheus.Registry
	audit *audit.Dispatcher
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec, err := tokencodec.New([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	gdb := testfixtures.NewDB(t)
	dispatcher := audit.NewDispatcher(nil, audit.New(gdb))
	t.Cleanup(dispatcher.Close)

	reg := prometheus.NewRegistry()
	r := gin.New()
	RegisterRoutes(r, Deps{
		DB: gdb,
		Config: &config.Config{
			JWTSecret:        "test-secret",
			SessionTTL:       time.Hour,
			CalendarTimezone: "Asia/Kolkata",
		},
		Provider:    &stubProvider{},
		Codec:       codec,
		Audit:       dispatcher,
		Metrics:     metrics.New(reg),
		Gatherer:    reg,
		Idempotency: cache.NewIdempotencyRedisStore(client, time.Hour),
	})

	return &server{t: t, r: r, reg: reg, audit: dispatcher}
}

type call struct {
	method  string
	path    string
	body    any
	token   string
	headers map[string]string
}

func (s *server) do(c call) *httptest.ResponseRecorder {
	s.t.Helper()

	var body bytes.Buffer
	if c.body != nil {
		require.NoError(s.t, json.NewEncoder(&body).Encode(c.body))
	}

	req := httptest.NewRequest(c.method, c.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// signup registers and logs in, returning the session token.
func (s *server) signup(email, role string) string {
	s.t.Helper()

	w := s.do(call{method: http.MethodPost, path: "/signup", body: map[string]string{
		"name":      "Test Person",
		"email":     email,
		"password":  "Passw0rd!",
		"contactNo": "5550100",
		"role":      role,
	}})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(call{method: http.MethodPost, path: "/login", body: map[string]string{
		"email":    email,
		"password": "Passw0rd!",
	}})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return decode(s.t, w)["token"].(string)
}

// grantAccess walks the OAuth round trip for the session owner.
func (s *server) grantAccess(token string) {
	s.t.Helper()

	w := s.do(call{method: http.MethodGet, path: "/provide-access", token: token})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	u, err := url.Parse(decode(s.t, w)["authUrl"].(string))
	require.NoError(s.t, err)
	state := u.Query().Get("state")
	require.NotEmpty(s.t, state)

	w = s.do(call{
		method: http.MethodGet,
		path:   "/oauth2callback?code=abc&state=" + url.QueryEscape(state),
	})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(s.t, w.Body.String(), "OAuth callback successful")
}

func (s *server) createEvent(token string) string {
	s.t.Helper()
	w := s.do(call{method: http.MethodPost, path: "/create-event", token: token, body: map[string]string{
		"date":      "2026-03-10",
		"startTime": "09:00",
		"endTime":   "10:00",
		"summary":   "Consultation",
	}})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode(s.t, w)["eventId"].(string)
}

// ======================================================
// TESTS
// ======================================================

func TestHealth(t *testing.T) {
	s := newServer(t)
	w := s.do(call{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestSignup(t *testing.T) {
	s := newServer(t)
	s.signup("alice@example.com", "")

	t.Run("duplicate wins over validation", func(t *testing.T) {
		w := s.do(call{method: http.MethodPost, path: "/signup", body: map[string]string{
			"name":     "x",
			"email":    "ALICE@example.com",
			"password": "short",
		}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "user_already_exists", decode(t, w)["error_code"])
	})

	t.Run("all validation messages", func(t *testing.T) {
		w := s.do(call{method: http.MethodPost, path: "/signup", body: map[string]string{
			"name":     "x",
			"email":    "nope",
			"password": "short",
		}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.Equal(t, "validation_failed", body["error_code"])
		assert.Len(t, body["errors"], 3)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader("{"))
		w := httptest.NewRecorder()
		s.r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLogin_SameErrorForUnknownAndWrongPassword(t *testing.T) {
	s := newServer(t)
	s.signup("alice@example.com", "")

	for _, body := range []map[string]string{
		{"email": "alice@example.com", "password": "Wr0ngpass!"},
		{"email": "ghost@example.com", "password": "Passw0rd!"},
	} {
		w := s.do(call{method: http.MethodPost, path: "/login", body: body})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_credentials", decode(t, w)["error_code"])
	}
}

func TestAuthRequired(t *testing.T) {
	s := newServer(t)

	for _, tok := range []string{"", "garbage"} {
		w := s.do(call{method: http.MethodGet, path: "/me", token: tok})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	token := s.signup("alice@example.com", "")
	w := s.do(call{method: http.MethodGet, path: "/me", token: token})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["delegated_access_granted"])
}

func TestCreateEvent_WithoutDelegatedAccess(t *testing.T) {
	s := newServer(t)
	token := s.signup("alice@example.com", "")

	w := s.do(call{method: http.MethodPost, path: "/create-event", token: token, body: map[string]string{
		"date":      "2026-03-10",
		"startTime": "09:00",
		"endTime":   "10:00",
		"summary":   "Consultation",
	}})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "delegated_access_required", decode(t, w)["error_code"])
}

func TestOAuthCallback_Rejects(t *testing.T) {
	s := newServer(t)

	w := s.do(call{method: http.MethodGet, path: "/oauth2callback?code=abc&state=forged"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_state", decode(t, w)["error_code"])

	w = s.do(call{method: http.MethodGet, path: "/oauth2callback"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingFlow(t *testing.T) {
	s := newServer(t)
	token := s.signup("alice@example.com", "")
	s.grantAccess(token)
	eventID := s.createEvent(token)

	w := s.do(call{method: http.MethodGet, path: "/findSlots?unbooked=true"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	claim := map[string]string{
		"eventId":   eventID,
		"email":     "guest@example.com",
		"name":      "Guest",
		"contactNo": "5550101",
	}

	w = s.do(call{method: http.MethodPost, path: "/bookevent", body: claim})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Slot booked successfully", decode(t, w)["message"])

	w = s.do(call{method: http.MethodPost, path: "/bookevent", body: claim})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "unit_unavailable", decode(t, w)["error_code"])

	// unknown units look exactly like booked ones
	claim["eventId"] = "does-not-exist"
	w2 := s.do(call{method: http.MethodPost, path: "/bookevent", body: claim})
	assert.Equal(t, w.Code, w2.Code)
	assert.Equal(t, w.Body.String(), w2.Body.String())

	w = s.do(call{method: http.MethodGet, path: "/findSlots?unbooked=true"})
	assert.EqualValues(t, 0, decode(t, w)["total"])
	w = s.do(call{method: http.MethodGet, path: "/findSlots?unbooked=false"})
	assert.EqualValues(t, 1, decode(t, w)["total"])
	w = s.do(call{method: http.MethodGet, path: "/findSlots"})
	assert.EqualValues(t, 1, decode(t, w)["total"])
}

func TestBookSlot_ValidationListsEveryField(t *testing.T) {
	s := newServer(t)

	w := s.do(call{method: http.MethodPost, path: "/bookSlot", body: map[string]string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, decode(t, w)["errors"], 4)
}

func TestBookSlot_IdempotentReplay(t *testing.T) {
	s := newServer(t)
	token := s.signup("alice@example.com", "")
	s.grantAccess(token)
	s.createEvent(token)

	w := s.do(call{method: http.MethodGet, path: "/findSlots?unbooked=true"})
	slots := decode(t, w)["data"].([]any)
	require.Len(t, slots, 1)
	slotID := slots[0].(map[string]any)["id"].(string)

	claim := call{
		method:  http.MethodPost,
		path:    "/bookSlot",
		headers: map[string]string{"Idempotency-Key": "retry-1"},
		body: map[string]string{
			"slotId":    slotID,
			"email":     "guest@example.com",
			"name":      "Guest",
			"contactNo": "5550101",
		},
	}

	first := s.do(claim)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := s.do(claim)
	require.Equal(t, http.StatusOK, second.Code, second.Body.String())
	body := decode(t, second)
	assert.Equal(t, true, body["replayed"])
	assert.Equal(t,
		decode(t, first)["booking"].(map[string]any)["id"],
		body["booking"].(map[string]any)["id"],
	)
}

func TestBookSlot_KeyReuseDoesNotLeakBooking(t *testing.T) {
	s := newServer(t)
	token := s.signup("alice@example.com", "")
	s.grantAccess(token)
	first := s.createEvent(token)
	second := s.createEvent(token)

	book := func(eventID, email string) *httptest.ResponseRecorder {
		return s.do(call{
			method:  http.MethodPost,
			path:    "/bookevent",
			headers: map[string]string{"Idempotency-Key": "shared"},
			body: map[string]string{
				"eventId":   eventID,
				"email":     email,
				"name":      "Guest",
				"contactNo": "5550101",
			},
		})
	}

	w := book(first, "guest@example.com")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = book(second, "other@example.com")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Nil(t, body["replayed"])
	assert.Equal(t, "other@example.com", body["booking"].(map[string]any)["email"])

	w = s.do(call{method: http.MethodGet, path: "/findSlots?unbooked=true"})
	assert.EqualValues(t, 0, decode(t, w)["total"])
}

func TestBookSlot_RejectsOversizedContact(t *testing.T) {
	s := newServer(t)
	token := s.signup("alice@example.com", "")
	s.grantAccess(token)
	eventID := s.createEvent(token)

	w := s.do(call{method: http.MethodPost, path: "/bookevent", body: map[string]string{
		"eventId":   eventID,
		"email":     "guest@example.com",
		"name":      "Guest",
		"contactNo": strings.Repeat("5", 21),
	}})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "contactNo must be at most 20 characters")

	w = s.do(call{method: http.MethodGet, path: "/findSlots?unbooked=true"})
	assert.EqualValues(t, 1, decode(t, w)["total"])
}

func TestCalendarAdministration(t *testing.T) {
	s := newServer(t)
	admin := s.signup("admin@example.com", "admin")
	employee := s.signup("emp@example.com", "employee")
	other := s.signup("other@example.com", "employee")

	assign := map[string]string{
		"employeeEmail": "emp@example.com",
		"calendarId":    "shared-cal",
		"calendarName":  "Front Desk",
	}

	w := s.do(call{method: http.MethodPost, path: "/assign-calendar", token: employee, body: assign})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(call{method: http.MethodPost, path: "/assign-calendar", token: admin, body: assign})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(call{method: http.MethodGet, path: "/calendars?email=emp@example.com", token: employee})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	w = s.do(call{method: http.MethodGet, path: "/calendars?email=emp@example.com", token: other})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(call{method: http.MethodGet, path: "/calendars?email=emp@example.com", token: admin})
	assert.Equal(t, http.StatusOK, w.Code)

	// the employee creates a unit on the admin's calendar with the admin's grant
	s.grantAccess(admin)
	w = s.do(call{method: http.MethodPost, path: "/create-event", token: employee, body: map[string]string{
		"calendarName": "Front Desk",
		"date":         "2026-03-10",
		"startTime":    "11:00",
		"endTime":      "11:30",
		"summary":      "Walk-in",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestCreateNewCalendar(t *testing.T) {
	s := newServer(t)
	token := s.signup("alice@example.com", "")
	s.grantAccess(token)

	w := s.do(call{method: http.MethodPost, path: "/createNewCalendar", token: token, body: map[string]string{
		"calendarName": "Clinic",
		"email":        "mallory@example.com",
	}})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "email_mismatch", decode(t, w)["error_code"])

	w = s.do(call{method: http.MethodPost, path: "/createNewCalendar", token: token, body: map[string]string{
		"calendarName": "Clinic",
		"email":        "alice@example.com",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "cal-Clinic", decode(t, w)["calendarId"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newServer(t)
	s.do(call{method: http.MethodGet, path: "/health"})

	w := s.do(call{method: http.MethodGet, path: "/metrics"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestAuditLogs(t *testing.T) {
	s := newServer(t)
	admin := s.signup("admin@example.com", "admin")
	user := s.signup("alice@example.com", "")

	// flush the async writer
	s.audit.Close()

	w := s.do(call{method: http.MethodGet, path: "/audit-logs?action=user_registered", token: user})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1, decode(t, w)["total"])

	w = s.do(call{method: http.MethodGet, path: "/audit-logs?action=user_registered", token: admin})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["total"])

	w = s.do(call{method: http.MethodGet, path: "/audit-logs?action=user_registered&limit=1&page=2", token: admin})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 1, body["limit"])
	assert.EqualValues(t, 2, body["page"])
	assert.Len(t, body["logs"], 1)

	w = s.do(call{method: http.MethodGet, path: "/audit-logs?limit=999&from=2000-01-01&to=2000-01-02", token: admin})
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.EqualValues(t, 50, body["limit"])
	assert.EqualValues(t, 0, body["total"])
	assert.Empty(t, body["logs"])
}
