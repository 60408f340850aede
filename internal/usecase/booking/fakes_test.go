package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/calendar-booking/internal/domain/booking"
	"github.com/BruksfildServices01/calendar-booking/internal/models"
)

// fakeRepo mirrors the conditional-update semantics of the gorm repository.
type fakeRepo struct {
	mu       sync.Mutex
	units    map[string]*models.BookableUnit
	bookings map[string]*models.Booking

	createBookingErr error
	releaseErr       error
	attachErr        error

	releaseCtxErr error // ctx.Err() seen by ReleaseUnit
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		units:    map[string]*models.BookableUnit{},
		bookings: map[string]*models.Booking{},
	}
}

func (r *fakeRepo) addUnit(id, eventID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := &models.BookableUnit{ID: id, Title: "slot"}
	if eventID != "" {
		u.ExternalEventID = &eventID
	}
	r.units[id] = u
}

func (r *fakeRepo) unit(id string) models.BookableUnit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.units[id]
}

func (r *fakeRepo) bookingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bookings)
}

func (r *fakeRepo) CreateUnit(_ context.Context, u *models.BookableUnit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.IsBooked = false
	r.units[u.ID] = u
	return nil
}

func (r *fakeRepo) ListUnits(_ context.Context, f domain.UnitFilter) ([]models.BookableUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.BookableUnit
	for _, u := range r.units {
		if f.Booked == nil || u.IsBooked == *f.Booked {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeRepo) ClaimUnit(_ context.Context, sel domain.Selector) (*models.BookableUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.units {
		match := u.ID == sel.UnitID
		if sel.UnitID == "" {
			match = u.ExternalEventID != nil && *u.ExternalEventID == sel.ExternalEventID
		}
		if match && !u.IsBooked {
			u.IsBooked = true
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUnitUnavailable
}

func (r *fakeRepo) ReleaseUnit(ctx context.Context, unitID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releaseCtxErr = ctx.Err()
	if r.releaseErr != nil {
		return r.releaseErr
	}
	u, ok := r.units[unitID]
	if !ok || !u.IsBooked || u.BookingID != nil {
		return fmt.Errorf("release unit %s: no claimed row", unitID)
	}
	u.IsBooked = false
	return nil
}

func (r *fakeRepo) CreateBooking(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createBookingErr != nil {
		return r.createBookingErr
	}
	for _, existing := range r.bookings {
		if existing.UnitID == b.UnitID {
			return errors.New("UNIQUE constraint failed: bookings.unit_id")
		}
	}
	b.ID = uuid.NewString()
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *fakeRepo) AttachBooking(_ context.Context, unitID, bookingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attachErr != nil {
		return r.attachErr
	}
	r.units[unitID].BookingID = &bookingID
	return nil
}

func (r *fakeRepo) GetBooking(_ context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

type fakeIdem struct {
	mu      sync.Mutex
	entries map[string]string // "" while pending
	err     error
}

func newFakeIdem() *fakeIdem {
	return &fakeIdem{entries: map[string]string{}}
}

func (s *fakeIdem) Reserve(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	id, ok := s.entries[key]
	if !ok {
		s.entries[key] = ""
		return "", nil
	}
	if id == "" {
		return "", domain.ErrClaimInProgress
	}
	return id, nil
}

func (s *fakeIdem) Complete(_ context.Context, key, bookingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = bookingID
	return nil
}

func (s *fakeIdem) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries[key] == "" {
		delete(s.entries, key)
	}
	return nil
}

var (
	_ domain.Repository       = (*fakeRepo)(nil)
	_ domain.IdempotencyStore = (*fakeIdem)(nil)
)
