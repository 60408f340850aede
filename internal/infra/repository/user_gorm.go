package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/calendar-booking/internal/domain/calendar"
	"github.com/BruksfildServices01/calendar-booking/internal/domain/identity"
	"github.com/BruksfildServices01/calendar-booking/internal/models"
)

type UserGormRepository struct {
	db *gorm.DB
}

func NewUserGormRepository(db *gorm.DB) *UserGormRepository {
	return &UserGormRepository{db: db}
}

func (r *UserGormRepository) FindByEmail(
	ctx context.Context,
	email string,
) (*models.User, error) {

	var u models.User
	if err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, identity.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserGormRepository) FindByID(
	ctx context.Context,
	id string,
) (*models.User, error) {

	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, identity.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserGormRepository) Create(
	ctx context.Context,
	user *models.User,
) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserGormRepository) SaveSessionToken(
	ctx context.Context,
	userID string,
	token string,
) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("session_token", token).Error
}

// --------------------------------------------------
// Delegated access
// --------------------------------------------------

func (r *UserGormRepository) SaveDelegatedTokens(
	ctx context.Context,
	userID string,
	accessToken string,
	refreshToken string,
	expiry *time.Time,
) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
			"token_expiry":  expiry,
		}).Error
}

func (r *UserGormRepository) BindCalendarIfEmpty(
	ctx context.Context,
	userID string,
	calendarID string,
) (bool, error) {

	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND (calendar_id IS NULL OR calendar_id = '')", userID).
		Update("calendar_id", calendarID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

var (
	_ identity.UserRepository = (*UserGormRepository)(nil)
	_ calendar.UserRepository = (*UserGormRepository)(nil)
)
