package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/BruksfildServices01/calendar-booking/internal/audit"
	domain "github.com/BruksfildServices01/calendar-booking/internal/domain/booking"
	"github.com/BruksfildServices01/calendar-booking/internal/httperr"
	"github.com/BruksfildServices01/calendar-booking/internal/logging"
	"github.com/BruksfildServices01/calendar-booking/internal/metrics"
	"github.com/BruksfildServices01/calendar-booking/internal/models"
)

// ======================================================
// OUTPUT
// ======================================================

type ClaimResult struct {
	Booking *models.Booking

	// Replayed is true when an idempotency key matched an earlier success.
	Replayed bool
}

// ======================================================
// USE CASE
// ======================================================

type ClaimUnit struct {
	repo    domain.Repository
	idem    domain.IdempotencyStore
	audit   *audit.Dispatcher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewClaimUnit builds the claim use case. idem may be nil, in which case
// idempotency keys are ignored.
func NewClaimUnit(
	repo domain.Repository,
	idem domain.IdempotencyStore,
	audit *audit.Dispatcher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *ClaimUnit {
	return &ClaimUnit{
		repo:    repo,
		idem:    idem,
		audit:   audit,
		metrics: m,
		logger:  logging.WithOperation(logger, "claim_unit"),
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *ClaimUnit) Execute(
	ctx context.Context,
	in domain.ClaimInput,
) (*ClaimResult, error) {

	// --------------------------------------------------
	// 1. Input
	// --------------------------------------------------
	in.Normalize()
	if err := in.Validate(); err != nil {
		uc.metrics.Claim(metrics.ClaimInvalid)
		return nil, err
	}

	if in.IdempotencyKey == "" || uc.idem == nil {
		b, err := uc.claim(ctx, in)
		if err != nil {
			return nil, err
		}
		return &ClaimResult{Booking: b}, nil
	}

	// --------------------------------------------------
	// 2. Idempotency reservation
	// --------------------------------------------------
	key := in.ReplayKey()
	bookingID, err := uc.idem.Reserve(ctx, key)
	switch {
	case errors.Is(err, domain.ErrClaimInProgress):
		return nil, err
	case err != nil:
		// the conditional update still guarantees a single winner
		uc.logger.Warn("idempotency store unavailable, claiming without it", logging.Err(err))
		b, err := uc.claim(ctx, in)
		if err != nil {
			return nil, err
		}
		return &ClaimResult{Booking: b}, nil
	case bookingID != "":
		b, err := uc.repo.GetBooking(ctx, bookingID)
		if err != nil {
			return nil, fmt.Errorf("load replayed booking: %w", err)
		}
		if !in.Matches(b) {
			uc.logger.Warn("idempotency key points at another claim",
				slog.String(logging.KeyBookingID, b.ID),
			)
			uc.metrics.Claim(metrics.ClaimUnavailable)
			return nil, domain.ErrUnitUnavailable
		}
		uc.metrics.Claim(metrics.ClaimReplayed)
		return &ClaimResult{Booking: b, Replayed: true}, nil
	}

	// --------------------------------------------------
	// 3. Claim, then settle the key
	// --------------------------------------------------
	b, err := uc.claim(ctx, in)
	detached := context.WithoutCancel(ctx)
	if err != nil {
		if relErr := uc.idem.Release(detached, key); relErr != nil {
			uc.logger.Warn("failed to release idempotency key", logging.Err(relErr))
		}
		return nil, err
	}

	if err := uc.idem.Complete(detached, key, b.ID); err != nil {
		uc.logger.Warn("failed to complete idempotency key",
			slog.String(logging.KeyBookingID, b.ID),
			logging.Err(err),
		)
	}

	return &ClaimResult{Booking: b}, nil
}

// claim flips the unit, writes the booking and links it back. The
// conditional update inside ClaimUnit is the only serialization point.
func (uc *ClaimUnit) claim(
	ctx context.Context,
	in domain.ClaimInput,
) (*models.Booking, error) {

	unit, err := uc.repo.ClaimUnit(ctx, in.Selector)
	if err != nil {
		if httperr.IsBusiness(err, "unit_unavailable") {
			uc.metrics.Claim(metrics.ClaimUnavailable)
			return nil, domain.ErrUnitUnavailable
		}
		uc.metrics.Claim(metrics.ClaimFailed)
		return nil, fmt.Errorf("claim unit: %w", err)
	}

	log := uc.logger.With(slog.String(logging.KeyUnitID, unit.ID))

	b := &models.Booking{
		UnitID:    unit.ID,
		Email:     in.Email,
		Name:      in.Name,
		ContactNo: in.ContactNo,
	}

	if err := uc.repo.CreateBooking(ctx, b); err != nil {
		uc.metrics.Claim(metrics.ClaimFailed)
		return nil, uc.compensate(ctx, log, unit.ID, err)
	}

	if err := uc.repo.AttachBooking(context.WithoutCancel(ctx), unit.ID, b.ID); err != nil {
		uc.metrics.BackfillFailure()
		log.Warn("booking created but not linked to unit",
			slog.String(logging.KeyBookingID, b.ID),
			logging.Err(err),
		)
	}

	uc.metrics.Claim(metrics.ClaimBooked)
	uc.audit.Dispatch(audit.Event{
		Action:   "unit_claimed",
		Entity:   "booking",
		EntityID: &b.ID,
		Metadata: map[string]string{
			"unit_id":   unit.ID,
			"user_hash": logging.AnonymizeEmail(in.Email),
		},
	})

	log.Info("unit claimed", slog.String(logging.KeyBookingID, b.ID), logging.UserHash(in.Email))
	return b, nil
}

// compensate reverts the flag after a failed booking insert. It runs on a
// context the caller cannot cancel.
func (uc *ClaimUnit) compensate(
	ctx context.Context,
	log *slog.Logger,
	unitID string,
	bookingErr error,
) error {

	relErr := uc.repo.ReleaseUnit(context.WithoutCancel(ctx), unitID)
	if relErr == nil {
		log.Warn("booking insert failed, claim reverted", logging.Err(bookingErr))
		return fmt.Errorf("create booking: %w", bookingErr)
	}

	perr := &domain.PersistenceInconsistencyError{
		UnitID:          unitID,
		BookingErr:      bookingErr,
		CompensationErr: relErr,
	}

	log.Error("unit left booked without a booking",
		slog.String("booking_error", bookingErr.Error()),
		slog.String("compensation_error", relErr.Error()),
	)
	uc.metrics.Inconsistency()
	uc.audit.Dispatch(audit.Event{
		Action:   "booking_inconsistency",
		Entity:   "unit",
		EntityID: &unitID,
		Metadata: map[string]string{
			"booking_error":      bookingErr.Error(),
			"compensation_error": relErr.Error(),
		},
	})

	return perr
}
