package booking

import (
	"context"

	domain "github.com/BruksfildServices01/calendar-booking/internal/domain/booking"
	"github.com/BruksfildServices01/calendar-booking/internal/models"
)

type ListUnits struct {
	repo domain.Repository
}

func NewListUnits(repo domain.Repository) *ListUnits {
	return &ListUnits{repo: repo}
}

func (uc *ListUnits) Execute(
	ctx context.Context,
	filter domain.UnitFilter,
) ([]models.BookableUnit, error) {
	return uc.repo.ListUnits(ctx, filter)
}
