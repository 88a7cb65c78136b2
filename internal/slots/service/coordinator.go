package service

import (
	"context"
	"errors"
	"fmt"
	sloterrors "reserva/internal/slots/errors"
	"reserva/internal/slots/events"
	"reserva/internal/slots/repository"
	"reserva/pkg/clock"
	"reserva/pkg/config"
	apperrors "reserva/pkg/errors"
	"reserva/pkg/model"
	"sync"
	"time"

	"github.com/google/uuid"
)

// casRetries bounds how many times Reserve re-reads after losing a CAS race.
// One retry absorbs the single-instant race; a sustained loss is a genuine
// conflict and propagates.
const casRetries = 1

// ReservationCoordinator arbitrates concurrent claims over slots. At most
// one caller holds the lock for a (resource, date) pair at any instant;
// the store's conditional write is the only tie-break.
type ReservationCoordinator interface {
	Reserve(ctx context.Context, resourceID, date, requesterToken string, ttl time.Duration) (*model.LockHandle, error)
	Confirm(ctx context.Context, resourceID, date, lockToken, bookingRef string) error
	Release(ctx context.Context, resourceID, date, lockToken string) error
	CancelBooking(ctx context.Context, resourceID, date, bookingRef string) error

	Get(ctx context.Context, resourceID, date string) (*model.SlotRecord, error)
	ListCalendar(ctx context.Context, resourceID string, limit int, offset int64) ([]*model.SlotRecord, int64, error)
	Provision(ctx context.Context, resourceID string, dates []string) (int, error)

	Block(ctx context.Context, resourceID, date, status string) error
	Unblock(ctx context.Context, resourceID, date string) error
}

type reservationCoordinator struct {
	store  repository.SlotStore
	clock  clock.Clock
	events events.Publisher
	cfg    *config.Config
}

func NewReservationCoordinator(store repository.SlotStore, clk clock.Clock, publisher events.Publisher, cfg *config.Config) ReservationCoordinator {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &reservationCoordinator{
		store:  store,
		clock:  clk,
		events: publisher,
		cfg:    cfg,
	}
}

func (s *reservationCoordinator) Reserve(ctx context.Context, resourceID, date, requesterToken string, ttl time.Duration) (*model.LockHandle, error) {
	if resourceID == "" || date == "" {
		return nil, apperrors.InvalidInput("resource_id and date are required")
	}

	ttl, err := s.clampTTL(ttl)
	if err != nil {
		return nil, err
	}

	token := requesterToken
	if token == "" {
		token = uuid.New().String()
	}

	rec, err := s.getSlot(ctx, resourceID, date)
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		now := s.clock.Now()

		switch {
		case rec.Status == model.StatusBooked,
			rec.Status == model.StatusBlocked,
			rec.Status == model.StatusMaintenance:
			return nil, apperrors.NotAvailable(fmt.Sprintf("Slot %s is %s", rec.ID, rec.Status))

		case rec.Status == model.StatusLocked && !rec.LockExpired(now):
			// Active lock held by someone else. Never retried here: the
			// business layer needs to know the slot is contended.
			return nil, apperrors.Conflict(fmt.Sprintf("Slot %s is held by another reservation", rec.ID))
		}

		// Available, or stale-locked: the sweeper has not run yet but the
		// lock is past its TTL, so it is claimable right now.
		expiresAt := now.Add(ttl)
		update := &model.SlotRecord{
			Status:        model.StatusLocked,
			LockToken:     token,
			LockExpiresAt: &expiresAt,
		}

		updated, err := s.casSlot(ctx, resourceID, date, rec.Version, update)
		if err == nil {
			s.cfg.Log.Info("Slot reserved",
				"resource_id", resourceID,
				"date", date,
				"lock_expires_at", expiresAt,
			)
			s.events.Publish(ctx, events.TypeSlotLocked, updated)
			return &model.LockHandle{
				ResourceID: resourceID,
				Date:       date,
				LockToken:  token,
				ExpiresAt:  expiresAt,
			}, nil
		}

		if errors.Is(err, sloterrors.ErrVersionMismatch) {
			if updated != nil && attempt < casRetries {
				rec = updated
				continue
			}
			return nil, apperrors.Conflict(fmt.Sprintf("Slot %s was claimed by a concurrent request", rec.ID))
		}
		return nil, err
	}
}

func (s *reservationCoordinator) Confirm(ctx context.Context, resourceID, date, lockToken, bookingRef string) error {
	if resourceID == "" || date == "" || lockToken == "" || bookingRef == "" {
		return apperrors.InvalidInput("resource_id, date, lock_token and booking_ref are required")
	}

	rec, err := s.getSlot(ctx, resourceID, date)
	if err != nil {
		return err
	}

	for attempt := 0; ; attempt++ {
		if rec.Status == model.StatusBooked {
			if rec.BookingRef == bookingRef {
				// Retried confirm after a timeout; the first application
				// already landed.
				return nil
			}
			s.cfg.Log.Error("Confirm against slot booked under another reference",
				"resource_id", resourceID,
				"date", date,
				"existing_ref", rec.BookingRef,
				"requested_ref", bookingRef,
			)
			return apperrors.AlreadyBooked(fmt.Sprintf("Slot %s is booked under a different reference", rec.ID))
		}

		now := s.clock.Now()
		if rec.Status != model.StatusLocked || rec.LockToken != lockToken || rec.LockExpired(now) {
			return apperrors.LockInvalid(fmt.Sprintf("Lock on slot %s is no longer valid", rec.ID))
		}

		update := &model.SlotRecord{
			Status:     model.StatusBooked,
			BookingRef: bookingRef,
		}

		updated, err := s.casSlot(ctx, resourceID, date, rec.Version, update)
		if err == nil {
			s.cfg.Log.Info("Slot booked",
				"resource_id", resourceID,
				"date", date,
				"booking_ref", bookingRef,
			)
			s.events.Publish(ctx, events.TypeSlotBooked, updated)
			return nil
		}

		if errors.Is(err, sloterrors.ErrVersionMismatch) {
			if updated != nil && attempt < casRetries {
				rec = updated
				continue
			}
			return apperrors.LockInvalid(fmt.Sprintf("Lock on slot %s is no longer valid", rec.ID))
		}
		return err
	}
}

func (s *reservationCoordinator) Release(ctx context.Context, resourceID, date, lockToken string) error {
	if resourceID == "" || date == "" || lockToken == "" {
		return apperrors.InvalidInput("resource_id, date and lock_token are required")
	}

	rec, err := s.getSlot(ctx, resourceID, date)
	if err != nil {
		return err
	}

	for attempt := 0; ; attempt++ {
		if rec.Status != model.StatusLocked || rec.LockToken != lockToken {
			// The lock expired and was reclaimed, or the state already moved
			// on. Releasing something already released is not an error.
			return nil
		}

		update := &model.SlotRecord{Status: model.StatusAvailable}

		updated, err := s.casSlot(ctx, resourceID, date, rec.Version, update)
		if err == nil {
			s.cfg.Log.Info("Slot released", "resource_id", resourceID, "date", date)
			s.events.Publish(ctx, events.TypeSlotReleased, updated)
			return nil
		}

		if errors.Is(err, sloterrors.ErrVersionMismatch) {
			if updated != nil && attempt < casRetries {
				rec = updated
				continue
			}
			return nil
		}
		return err
	}
}

// CancelBooking moves a booked slot back to available. Structurally a
// Release permitted from booked; cancellation policy lives upstream.
func (s *reservationCoordinator) CancelBooking(ctx context.Context, resourceID, date, bookingRef string) error {
	if resourceID == "" || date == "" || bookingRef == "" {
		return apperrors.InvalidInput("resource_id, date and booking_ref are required")
	}

	rec, err := s.getSlot(ctx, resourceID, date)
	if err != nil {
		return err
	}

	for attempt := 0; ; attempt++ {
		if rec.Status != model.StatusBooked {
			// Already cancelled or never booked; cancelling twice is safe.
			return nil
		}
		if rec.BookingRef != bookingRef {
			return apperrors.AlreadyBooked(fmt.Sprintf("Slot %s is booked under a different reference", rec.ID))
		}

		update := &model.SlotRecord{Status: model.StatusAvailable}

		updated, err := s.casSlot(ctx, resourceID, date, rec.Version, update)
		if err == nil {
			s.cfg.Log.Info("Booking cancelled",
				"resource_id", resourceID,
				"date", date,
				"booking_ref", bookingRef,
			)
			s.events.Publish(ctx, events.TypeSlotCancelled, updated)
			return nil
		}

		if errors.Is(err, sloterrors.ErrVersionMismatch) {
			if updated != nil && attempt < casRetries {
				rec = updated
				continue
			}
			return apperrors.Conflict(fmt.Sprintf("Slot %s changed during cancellation", rec.ID))
		}
		return err
	}
}

func (s *reservationCoordinator) Get(ctx context.Context, resourceID, date string) (*model.SlotRecord, error) {
	if resourceID == "" || date == "" {
		return nil, apperrors.InvalidInput("resource_id and date are required")
	}
	return s.getSlot(ctx, resourceID, date)
}

func (s *reservationCoordinator) ListCalendar(ctx context.Context, resourceID string, limit int, offset int64) ([]*model.SlotRecord, int64, error) {
	if resourceID == "" {
		return nil, 0, apperrors.InvalidInput("resource_id is required")
	}

	var count int64
	var records []*model.SlotRecord
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.store.CountByResource(ctx, resourceID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count slots", "resource_id", resourceID, "error", errCount)
			errCount = s.mapStoreError(errCount, "Failed to count slots")
		}
	}()

	go func() {
		defer wg.Done()
		records, errFind = s.store.ListByResource(ctx, resourceID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list slots", "resource_id", resourceID, "error", errFind)
			errFind = s.mapStoreError(errFind, "Failed to list slots")
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return records, count, nil
}

// Provision creates available records for a resource's calendar. Dates that
// already exist are skipped; the count of newly created slots is returned.
func (s *reservationCoordinator) Provision(ctx context.Context, resourceID string, dates []string) (int, error) {
	if resourceID == "" || len(dates) == 0 {
		return 0, apperrors.InvalidInput("resource_id and at least one date are required")
	}

	created := 0
	for _, date := range dates {
		record := &model.SlotRecord{
			ResourceID: resourceID,
			Date:       date,
		}
		err := s.store.Provision(ctx, record)
		if err != nil {
			if errors.Is(err, sloterrors.ErrAlreadyExists) {
				continue
			}
			return created, s.mapStoreError(err, "Failed to provision slot")
		}
		created++
	}

	s.cfg.Log.Info("Calendar provisioned",
		"resource_id", resourceID,
		"requested", len(dates),
		"created", created,
	)
	return created, nil
}

// Block moves an available slot into an operator-held state. Only available
// slots may be taken out of service; locked and booked ones carry claims
// that must resolve first.
func (s *reservationCoordinator) Block(ctx context.Context, resourceID, date, status string) error {
	if status != model.StatusBlocked && status != model.StatusMaintenance {
		return apperrors.InvalidInput("status must be blocked or maintenance")
	}

	rec, err := s.getSlot(ctx, resourceID, date)
	if err != nil {
		return err
	}

	if rec.Status == status {
		return nil
	}
	if rec.Status != model.StatusAvailable {
		return apperrors.NotAvailable(fmt.Sprintf("Slot %s is %s and cannot be blocked", rec.ID, rec.Status))
	}

	update := &model.SlotRecord{Status: status}
	updated, err := s.casSlot(ctx, resourceID, date, rec.Version, update)
	if err != nil {
		if errors.Is(err, sloterrors.ErrVersionMismatch) {
			return apperrors.Conflict(fmt.Sprintf("Slot %s changed while being blocked", rec.ID))
		}
		return err
	}

	s.cfg.Log.Info("Slot blocked", "resource_id", resourceID, "date", date, "status", status)
	s.events.Publish(ctx, events.TypeSlotBlocked, updated)
	return nil
}

func (s *reservationCoordinator) Unblock(ctx context.Context, resourceID, date string) error {
	rec, err := s.getSlot(ctx, resourceID, date)
	if err != nil {
		return err
	}

	if rec.Status == model.StatusAvailable {
		return nil
	}
	if rec.Status != model.StatusBlocked && rec.Status != model.StatusMaintenance {
		return apperrors.NotAvailable(fmt.Sprintf("Slot %s is %s, not operator-held", rec.ID, rec.Status))
	}

	update := &model.SlotRecord{Status: model.StatusAvailable}
	updated, err := s.casSlot(ctx, resourceID, date, rec.Version, update)
	if err != nil {
		if errors.Is(err, sloterrors.ErrVersionMismatch) {
			return apperrors.Conflict(fmt.Sprintf("Slot %s changed while being unblocked", rec.ID))
		}
		return err
	}

	s.cfg.Log.Info("Slot unblocked", "resource_id", resourceID, "date", date)
	s.events.Publish(ctx, events.TypeSlotUnblocked, updated)
	return nil
}

// --- Helpers ---

func (s *reservationCoordinator) clampTTL(ttl time.Duration) (time.Duration, error) {
	if ttl <= 0 {
		return s.cfg.DefaultLockTTL, nil
	}
	if ttl > s.cfg.MaxLockTTL {
		return 0, apperrors.InvalidInput(fmt.Sprintf("ttl must not exceed %s", s.cfg.MaxLockTTL))
	}
	return ttl, nil
}

// getSlot reads the current record, retrying transient store failures up to
// the configured bound. Any other failure propagates untouched.
func (s *reservationCoordinator) getSlot(ctx context.Context, resourceID, date string) (*model.SlotRecord, error) {
	var rec *model.SlotRecord
	err := s.withStoreRetry(ctx, func() error {
		var getErr error
		rec, getErr = s.store.Get(ctx, resourceID, date)
		return getErr
	})
	if err != nil {
		if errors.Is(err, sloterrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Slot", model.SlotID(resourceID, date))
		}
		return nil, s.mapStoreError(err, "Failed to read slot")
	}
	return rec, nil
}

// casSlot issues the conditional write, retrying only transient store
// failures. A version mismatch is returned as-is so callers can inspect the
// current record.
func (s *reservationCoordinator) casSlot(ctx context.Context, resourceID, date string, expectedVersion int64, update *model.SlotRecord) (*model.SlotRecord, error) {
	var result *model.SlotRecord
	var mismatchCurrent *model.SlotRecord

	err := s.withStoreRetry(ctx, func() error {
		current, casErr := s.store.CompareAndSwap(ctx, resourceID, date, expectedVersion, update)
		if casErr == nil {
			result = current
			return nil
		}
		if errors.Is(casErr, sloterrors.ErrVersionMismatch) {
			mismatchCurrent = current
		}
		return casErr
	})
	if err == nil {
		return result, nil
	}
	if errors.Is(err, sloterrors.ErrVersionMismatch) {
		return mismatchCurrent, err
	}
	if errors.Is(err, sloterrors.ErrNotFound) {
		return nil, apperrors.NotFoundWithID("Slot", model.SlotID(resourceID, date))
	}
	return nil, s.mapStoreError(err, "Failed to update slot")
}

// withStoreRetry retries fn on transient store failures with a small linear
// backoff. Conflicts and not-found are business outcomes, never retried.
func (s *reservationCoordinator) withStoreRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= s.cfg.StoreRetryAttempts; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, sloterrors.ErrStoreUnavailable) {
			return err
		}

		if attempt < s.cfg.StoreRetryAttempts {
			s.cfg.Log.Warn("Slot store unavailable, retrying",
				"attempt", attempt,
				"error", err,
			)
			select {
			case <-ctx.Done():
				return err
			case <-time.After(s.cfg.StoreRetryBackoff * time.Duration(attempt)):
			}
		}
	}
	return err
}

func (s *reservationCoordinator) mapStoreError(err error, message string) error {
	if apperrors.IsAppError(err) {
		return err
	}
	if errors.Is(err, sloterrors.ErrStoreUnavailable) {
		return apperrors.Unavailable("Slot store")
	}
	return apperrors.Internal(message, err)
}
