package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/calendar-booking/internal/domain/calendar"
	"github.com/BruksfildServices01/calendar-booking/internal/models"
)

type CalendarGormRepository struct {
	db *gorm.DB
}

func NewCalendarGormRepository(db *gorm.DB) *CalendarGormRepository {
	return &CalendarGormRepository{db: db}
}

// Upsert keeps a single association per calendar id. On conflict the
// owner, name and assigner are overwritten and a is refreshed from the
// stored row.
func (r *CalendarGormRepository) Upsert(
	ctx context.Context,
	a *models.CalendarAssociation,
) error {

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "calendar_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"user_id",
				"calendar_name",
				"assigned_by",
				"updated_at",
			}),
		}).
		Create(a).Error
	if err != nil {
		return err
	}

	stored, err := r.FindByCalendarID(ctx, a.CalendarID)
	if err != nil {
		return err
	}
	*a = *stored
	return nil
}

func (r *CalendarGormRepository) FindByCalendarID(
	ctx context.Context,
	calendarID string,
) (*models.CalendarAssociation, error) {
	return r.findOne(ctx, "calendar_id = ?", calendarID)
}

func (r *CalendarGormRepository) ListByNameForUser(
	ctx context.Context,
	name string,
	userID string,
) ([]models.CalendarAssociation, error) {

	var list []models.CalendarAssociation
	if err := r.db.WithContext(ctx).
		Where("calendar_name = ?", name).
		Where("(user_id = ? OR assigned_by = ?)", userID, userID).
		Order("created_at ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *CalendarGormRepository) ListForUser(
	ctx context.Context,
	userID string,
) ([]models.CalendarAssociation, error) {

	var list []models.CalendarAssociation
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *CalendarGormRepository) findOne(
	ctx context.Context,
	query string,
	arg string,
) (*models.CalendarAssociation, error) {

	var a models.CalendarAssociation
	if err := r.db.WithContext(ctx).
		Where(query, arg).
		Order("created_at ASC").
		First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCalendarNotFound
		}
		return nil, err
	}
	return &a, nil
}

var _ domain.AssociationRepository = (*CalendarGormRepository)(nil)
