package service

import (
	"context"
	"reserva/internal/slots/service"
	"reserva/pkg/config"
	apperrors "reserva/pkg/errors"
	"reserva/pkg/model"
	"time"
)

// SideEffect runs between claiming a slot and committing the booking.
// Typically payment capture or an external PMS write. An error here releases
// the claim and aborts the booking.
type SideEffect func(ctx context.Context, handle *model.LockHandle) error

// BookingConfirmer composes reserve, side effect and confirm into one
// idempotent operation keyed by bookingRef. Retrying a TryBook that already
// landed succeeds without touching the slot again.
type BookingConfirmer interface {
	TryBook(ctx context.Context, resourceID, date, bookingRef string, ttl time.Duration, effect SideEffect) (*model.SlotRecord, error)
	Cancel(ctx context.Context, resourceID, date, bookingRef string) error
}

type bookingConfirmer struct {
	coordinator service.ReservationCoordinator
	cfg         *config.Config
}

func NewBookingConfirmer(coordinator service.ReservationCoordinator, cfg *config.Config) BookingConfirmer {
	return &bookingConfirmer{
		coordinator: coordinator,
		cfg:         cfg,
	}
}

func (s *bookingConfirmer) TryBook(ctx context.Context, resourceID, date, bookingRef string, ttl time.Duration, effect SideEffect) (*model.SlotRecord, error) {
	if resourceID == "" || date == "" || bookingRef == "" {
		return nil, apperrors.InvalidInput("resource_id, date and booking_ref are required")
	}

	// Fast path for retries: if our reference already owns the slot, the
	// previous attempt committed and this call is a duplicate.
	current, err := s.coordinator.Get(ctx, resourceID, date)
	if err != nil {
		return nil, err
	}
	if current.Status == model.StatusBooked {
		if current.BookingRef == bookingRef {
			s.cfg.Log.Info("Booking already committed",
				"resource_id", resourceID,
				"date", date,
				"booking_ref", bookingRef,
			)
			return current, nil
		}
		return nil, apperrors.AlreadyBooked("Slot is booked under a different reference")
	}

	handle, err := s.coordinator.Reserve(ctx, resourceID, date, "", ttl)
	if err != nil {
		return nil, err
	}

	if effect != nil {
		if effectErr := effect(ctx, handle); effectErr != nil {
			s.release(ctx, handle)
			if apperrors.IsAppError(effectErr) {
				return nil, effectErr
			}
			return nil, apperrors.Internal("Booking side effect failed", effectErr)
		}
	}

	if err := s.coordinator.Confirm(ctx, resourceID, date, handle.LockToken, bookingRef); err != nil {
		// Confirm failing with a valid lock means the lock expired mid-flight
		// or the store is down. Either way the claim must not linger.
		s.release(ctx, handle)
		return nil, err
	}

	record, err := s.coordinator.Get(ctx, resourceID, date)
	if err != nil {
		// The booking committed; surfacing a read failure here would make
		// the caller retry a done operation.
		s.cfg.Log.Warn("Booked slot read-back failed",
			"resource_id", resourceID,
			"date", date,
			"booking_ref", bookingRef,
			"error", err,
		)
		return &model.SlotRecord{
			ID:         model.SlotID(resourceID, date),
			ResourceID: resourceID,
			Date:       date,
			Status:     model.StatusBooked,
			BookingRef: bookingRef,
		}, nil
	}

	return record, nil
}

func (s *bookingConfirmer) Cancel(ctx context.Context, resourceID, date, bookingRef string) error {
	return s.coordinator.CancelBooking(ctx, resourceID, date, bookingRef)
}

// release is best-effort cleanup; an expired lock gets reclaimed by the
// sweeper anyway.
func (s *bookingConfirmer) release(ctx context.Context, handle *model.LockHandle) {
	if err := s.coordinator.Release(ctx, handle.ResourceID, handle.Date, handle.LockToken); err != nil {
		s.cfg.Log.Warn("Failed to release claim after aborted booking",
			"resource_id", handle.ResourceID,
			"date", handle.Date,
			"error", err,
		)
	}
}
