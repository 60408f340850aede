package calendar

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/calendar-booking/internal/domain/calendar"
	"github.com/BruksfildServices01/calendar-booking/internal/infra/repository"
	"github.com/BruksfildServices01/calendar-booking/internal/models"
	"github.com/BruksfildServices01/calendar-booking/internal/testfixtures"
	"github.com/BruksfildServices01/calendar-booking/internal/tokencodec"
)

const tz = "Asia/Kolkata"

type insertCall struct {
	calendarID string
	access     string
	ev         domain.EventSpec
}

type fakeProvider struct {
	mu sync.Mutex

	exchanged     *domain.TokenPair
	exchangeErr   error
	calendars     []string
	calendarDelay time.Duration
	inserts       []insertCall
	insertErr     error
	deleted       []string
	deleteErr     error

	// refreshTo replaces the access token on the next call, like an
	// expired token being refreshed.
	refreshTo string
}

func (f *fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (f *fakeProvider) Exchange(ctx context.Context, code string) (*domain.TokenPair, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	cp := *f.exchanged
	return &cp, nil
}

func (f *fakeProvider) CreateCalendar(
	ctx context.Context,
	tokens *domain.TokenPair,
	name string,
	timeZone string,
) (string, error) {
	if f.calendarDelay > 0 {
		time.Sleep(f.calendarDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh(tokens)
	id := fmt.Sprintf("cal-%d", len(f.calendars)+1)
	f.calendars = append(f.calendars, id)
	return id, nil
}

func (f *fakeProvider) InsertEvent(
	ctx context.Context,
	tokens *domain.TokenPair,
	calendarID string,
	ev domain.EventSpec,
) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh(tokens)
	if f.insertErr != nil {
		return "", f.insertErr
	}
	f.inserts = append(f.inserts, insertCall{calendarID: calendarID, access: tokens.AccessToken, ev: ev})
	return fmt.Sprintf("evt%d", len(f.inserts)), nil
}

func (f *fakeProvider) DeleteCalendar(
	ctx context.Context,
	tokens *domain.TokenPair,
	calendarID string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh(tokens)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, calendarID)
	return nil
}

// remaining lists created calendars that were not deleted.
func (f *fakeProvider) remaining() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	for _, id := range f.calendars {
		if !slices.Contains(f.deleted, id) {
			out = append(out, id)
		}
	}
	return out
}

func (f *fakeProvider) refresh(tokens *domain.TokenPair) {
	if f.refreshTo != "" {
		tokens.AccessToken = f.refreshTo
		tokens.Expiry = time.Now().Add(time.Hour)
		f.refreshTo = ""
	}
}

func (f *fakeProvider) calendarCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calendars)
}

type env struct {
	db       *gorm.DB
	users    *repository.UserGormRepository
	assocs   *repository.CalendarGormRepository
	units    *repository.BookingGormRepository
	provider *fakeProvider
	codec    *tokencodec.Codec
	creds    *Credentials
	ensure   *EnsureCalendar
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gdb := testfixtures.NewDB(t)

	codec, err := tokencodec.New([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	e := &env{
		db:       gdb,
		users:    repository.NewUserGormRepository(gdb),
		assocs:   repository.NewCalendarGormRepository(gdb),
		units:    repository.NewBookingGormRepository(gdb),
		provider: &fakeProvider{},
		codec:    codec,
	}
	e.creds = NewCredentials(e.users, codec, nil)
	e.ensure = NewEnsureCalendar(e.users, e.assocs, e.provider, e.creds, tz, nil, nil)
	return e
}

// grant seeds a user holding delegated tokens.
func (e *env) grant(t *testing.T, email, role, access string) *models.User {
	t.Helper()
	u := testfixtures.SeedUser(t, e.db, email, role)
	require.NoError(t, e.creds.Store(context.Background(), u, &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: "refresh-" + access,
		Expiry:       time.Now().Add(time.Hour),
	}))
	return u
}

func (e *env) reload(t *testing.T, id string) *models.User {
	t.Helper()
	u, err := e.users.FindByID(context.Background(), id)
	require.NoError(t, err)
	return u
}
