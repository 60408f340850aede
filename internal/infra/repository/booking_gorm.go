package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/calendar-booking/internal/domain/booking"
	"github.com/BruksfildServices01/calendar-booking/internal/models"
)

type BookingGormRepository struct {
	db *gorm.DB
}

func NewBookingGormRepository(db *gorm.DB) *BookingGormRepository {
	return &BookingGormRepository{db: db}
}

// --------------------------------------------------
// Unit
// --------------------------------------------------

func (r *BookingGormRepository) CreateUnit(
	ctx context.Context,
	unit *models.BookableUnit,
) error {
	unit.IsBooked = false
	unit.BookingID = nil
	return r.db.WithContext(ctx).Create(unit).Error
}

func (r *BookingGormRepository) ListUnits(
	ctx context.Context,
	filter domain.UnitFilter,
) ([]models.BookableUnit, error) {

	q := r.db.WithContext(ctx).Model(&models.BookableUnit{})
	if filter.Booked != nil {
		q = q.Where("is_booked = ?", *filter.Booked)
	}

	var units []models.BookableUnit
	if err := q.Order("starts_at ASC, created_at ASC").Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

// --------------------------------------------------
// Claim
// --------------------------------------------------

// ClaimUnit runs the conditional update and reads the row back in the same
// transaction. The WHERE is_booked = false clause is what serializes
// concurrent claimants.
func (r *BookingGormRepository) ClaimUnit(
	ctx context.Context,
	sel domain.Selector,
) (*models.BookableUnit, error) {

	col, val := sel.Column()

	var unit models.BookableUnit
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.BookableUnit{}).
			Where(col+" = ? AND is_booked = ?", val, false).
			Update("is_booked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return domain.ErrUnitUnavailable
		}

		return tx.Where(col+" = ?", val).First(&unit).Error
	})
	if err != nil {
		return nil, err
	}

	return &unit, nil
}

func (r *BookingGormRepository) ReleaseUnit(
	ctx context.Context,
	unitID string,
) error {

	res := r.db.WithContext(ctx).
		Model(&models.BookableUnit{}).
		Where("id = ? AND is_booked = ? AND booking_id IS NULL", unitID, true).
		Update("is_booked", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("release unit %s: no claimed row without booking", unitID)
	}
	return nil
}

// --------------------------------------------------
// Booking
// --------------------------------------------------

func (r *BookingGormRepository) CreateBooking(
	ctx context.Context,
	b *models.Booking,
) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BookingGormRepository) AttachBooking(
	ctx context.Context,
	unitID string,
	bookingID string,
) error {

	res := r.db.WithContext(ctx).
		Model(&models.BookableUnit{}).
		Where("id = ? AND booking_id IS NULL", unitID).
		Update("booking_id", bookingID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("attach booking to unit %s: unit missing or already linked", unitID)
	}
	return nil
}

func (r *BookingGormRepository) GetBooking(
	ctx context.Context,
	id string,
) (*models.Booking, error) {

	var b models.Booking
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

var _ domain.Repository = (*BookingGormRepository)(nil)
