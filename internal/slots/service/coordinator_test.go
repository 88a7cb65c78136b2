package service

import (
	"context"
	"sync"
	"testing"
	"time"

	sloterrors "reserva/internal/slots/errors"
	"reserva/internal/slots/repository"
	"reserva/pkg/clock"
	"reserva/pkg/config"
	apperrors "reserva/pkg/errors"
	"reserva/pkg/logger"
	"reserva/pkg/model"
)

func newTestConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   logger.ERROR,
			Format:  logger.JSON,
			Service: "test",
		}),
		DefaultLockTTL:     15 * time.Minute,
		MaxLockTTL:         24 * time.Hour,
		StoreRetryAttempts: 3,
		StoreRetryBackoff:  time.Millisecond,
	}
}

func newTestCoordinator(t *testing.T) (ReservationCoordinator, *repository.MemorySlotStore, *clock.Fake) {
	t.Helper()
	store := repository.NewMemorySlotStore()
	clk := clock.NewFake(time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC))
	coordinator := NewReservationCoordinator(store, clk, nil, newTestConfig())
	return coordinator, store, clk
}

func provision(t *testing.T, coordinator ReservationCoordinator, resourceID string, dates ...string) {
	t.Helper()
	if _, err := coordinator.Provision(context.Background(), resourceID, dates); err != nil {
		t.Fatalf("Provision() failed: %v", err)
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected error with code %s, got nil", code)
	}
	if !apperrors.IsCode(err, code) {
		t.Fatalf("Expected error code %s, got %v", code, err)
	}
}

func TestReserve_ClaimsAvailableSlot(t *testing.T) {
	coordinator, store, clk := newTestCoordinator(t)
	provision(t, coordinator, "R1", "2025-12-25")

	handle, err := coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-aaaaaaaa", 0)
	if err != nil {
		t.Fatalf("Reserve() failed: %v", err)
	}
	if handle.LockToken != "tok-aaaaaaaa" {
		t.Errorf("Expected caller token to be used, got %q", handle.LockToken)
	}
	wantExpiry := clk.Now().Add(15 * time.Minute)
	if !handle.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("Expected expiry %v, got %v", wantExpiry, handle.ExpiresAt)
	}

	rec, err := store.Get(context.Background(), "R1", "2025-12-25")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if rec.Status != model.StatusLocked {
		t.Errorf("Expected status %q, got %q", model.StatusLocked, rec.Status)
	}
	if rec.Version != 2 {
		t.Errorf("Expected version 2, got %d", rec.Version)
	}
}

func TestReserve_GeneratesTokenWhenNoneProvided(t *testing.T) {
	coordinator, _, _ := newTestCoordinator(t)
	provision(t, coordinator, "R1", "2025-12-25")

	handle, err := coordinator.Reserve(context.Background(), "R1", "2025-12-25", "", 0)
	if err != nil {
		t.Fatalf("Reserve() failed: %v", err)
	}
	if handle.LockToken == "" {
		t.Fatal("Expected a generated lock token")
	}
}

func TestReserve_OnlyOneWinnerUnderContention(t *testing.T) {
	coordinator, _, _ := newTestCoordinator(t)
	provision(t, coordinator, "R1", "2025-12-25")

	const callers = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	conflicts := 0

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := coordinator.Reserve(context.Background(), "R1", "2025-12-25", "", 0)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case apperrors.IsCode(err, apperrors.CodeConflict):
				conflicts++
			default:
				t.Errorf("Unexpected error under contention: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("Expected exactly 1 winner, got %d", wins)
	}
	if conflicts != callers-1 {
		t.Errorf("Expected %d conflicts, got %d", callers-1, conflicts)
	}
}

func TestReserve_ActiveLockConflicts(t *testing.T) {
	coordinator, _, _ := newTestCoordinator(t)
	provision(t, coordinator, "R1", "2025-12-25")

	if _, err := coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-aaaaaaaa", 0); err != nil {
		t.Fatalf("Reserve() failed: %v", err)
	}

	_, err := coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-bbbbbbbb", 0)
	assertCode(t, err, apperrors.CodeConflict)
}

func TestReserve_ExpiredLockIsClaimable(t *testing.T) {
	coordinator, _, clk := newTestCoordinator(t)
	provision(t, coordinator, "R1", "2025-12-25")

	if _, err := coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-aaaaaaaa", 0); err != nil {
		t.Fatalf("Reserve() failed: %v", err)
	}

	clk.Advance(16 * time.Minute)

	handle, err := coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-bbbbbbbb", 0)
	if err != nil {
		t.Fatalf("Reserve() over an expired lock failed: %v", err)
	}
	if handle.LockToken != "tok-bbbbbbbb" {
		t.Errorf("Expected the new claimer's token, got %q", handle.LockToken)
	}

	// The original holder's token is dead.
	err = coordinator.Confirm(context.Background(), "R1", "2025-12-25", "tok-aaaaaaaa", "bkg-1")
	assertCode(t, err, apperrors.CodeLockInvalid)
}

func TestReserve_BookedSlotNotAvailable(t *testing.T) {
	coordinator, _, _ := newTestCoordinator(t)
	provision(t, coordinator, "R1", "2025-12-25")

	handle, err := coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-aaaaaaaa", 0)
	if err != nil {
		t.Fatalf("Reserve() failed: %v", err)
	}
	if err := coordinator.Confirm(context.Background(), "R1", "2025-12-25", handle.LockToken, "bkg-1"); err != nil {
		t.Fatalf("Confirm() failed: %v", err)
	}

	_, err = coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-bbbbbbbb", 0)
	assertCode(t, err, apperrors.CodeNotAvailable)
}

func TestReserve_TTLBounds(t *testing.T) {
	coordinator, _, clk := newTestCoordinator(t)
	provision(t, coordinator, "R1", "2025-12-25", "2025-12-26")

	_, err := coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-aaaaaaaa", 25*time.Hour)
	assertCode(t, err, apperrors.CodeInvalidInput)

	handle, err := coordinator.Reserve(context.Background(), "R1", "2025-12-26", "tok-aaaaaaaa", 30*time.Second)
	if err != nil {
		t.Fatalf("Reserve() failed: %v", err)
	}
	if !handle.ExpiresAt.Equal(clk.Now().Add(30 * time.Second)) {
		t.Errorf("Expected the requested TTL to be honored, got expiry %v", handle.ExpiresAt)
	}
}

func TestReserve_UnknownSlot(t *testing.T) {
	coordinator, _, _ := newTestCoordinator(t)

	_, err := coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-aaaaaaaa", 0)
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestConfirm_BooksLockedSlot(t *testing.T) {
	coordinator, store, _ := newTestCoordinator(t)
	provision(t, coordinator, "R1", "2025-12-25")

	handle, err := coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-aaaaaaaa", 0)
	if err != nil {
		t.Fatalf("Reserve() failed: %v", err)
	}
	if err := coordinator.Confirm(context.Background(), "R1", "2025-12-25", handle.LockToken, "bkg-1"); err != nil {
		t.Fatalf("Confirm() failed: %v", err)
	}

	rec, err := store.Get(context.Background(), "R1", "2025-12-25")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if rec.Status != model.StatusBooked {
		t.Errorf("Expected status %q, got %q", model.StatusBooked, rec.Status)
	}
	if rec.BookingRef != "bkg-1" {
		t.Errorf("Expected booking ref bkg-1, got %q", rec.BookingRef)
	}
	if rec.LockToken != "" || rec.LockExpiresAt != nil {
		t.Error("Expected lock fields cleared after confirm")
	}
}

func TestConfirm_RetryWithSameRefIsIdempotent(t *testing.T) {
	coordinator, store, _ := newTestCoordinator(t)
	provision(t, coordinator, "R1", "2025-12-25")

	handle, err := coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-aaaaaaaa", 0)
	if err != nil {
		t.Fatalf("Reserve() failed: %v", err)
	}
	if err := coordinator.Confirm(context.Background(), "R1", "2025-12-25", handle.LockToken, "bkg-1"); err != nil {
		t.Fatalf("Confirm() failed: %v", err)
	}

	before, _ := store.Get(context.Background(), "R1", "2025-12-25")

	if err := coordinator.Confirm(context.Background(), "R1", "2025-12-25", handle.LockToken, "bkg-1"); err != nil {
		t.Fatalf("Retried Confirm() with the same ref must succeed, got: %v", err)
	}

	after, _ := store.Get(context.Background(), "R1", "2025-12-25")
	if after.Version != before.Version {
		t.Errorf("Idempotent confirm must not write, version went %d -> %d", before.Version, after.Version)
	}
}

func TestConfirm_DifferentRefOnBookedSlot(t *testing.T) {
	coordinator, _, _ := newTestCoordinator(t)
	provision(t, coordinator, "R1", "2025-12-25")

	handle, err := coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-aaaaaaaa", 0)
	if err != nil {
		t.Fatalf("Reserve() failed: %v", err)
	}
	if err := coordinator.Confirm(context.Background(), "R1", "2025-12-25", handle.LockToken, "bkg-1"); err != nil {
		t.Fatalf("Confirm() failed: %v", err)
	}

	err = coordinator.Confirm(context.Background(), "R1", "2025-12-25", handle.LockToken, "bkg-2")
	assertCode(t, err, apperrors.CodeAlreadyBooked)
}

func TestConfirm_WrongToken(t *testing.T) {
	coordinator, _, _ := newTestCoordinator(t)
	provision(t, coordinator, "R1", "2025-12-25")

	if _, err := coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-aaaaaaaa", 0); err != nil {
		t.Fatalf("Reserve() failed: %v", err)
	}

	err := coordinator.Confirm(context.Background(), "R1", "2025-12-25", "tok-bbbbbbbb", "bkg-1")
	assertCode(t, err, apperrors.CodeLockInvalid)
}

func TestConfirm_ExpiredLock(t *testing.T) {
	coordinator, _, clk := newTestCoordinator(t)
	provision(t, coordinator, "R1", "2025-12-25")

	handle, err := coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-aaaaaaaa", 0)
	if err != nil {
		t.Fatalf("Reserve() failed: %v", err)
	}

	clk.Advance(16 * time.Minute)

	err = coordinator.Confirm(context.Background(), "R1", "2025-12-25", handle.LockToken, "bkg-1")
	assertCode(t, err, apperrors.CodeLockInvalid)
}

func TestConfirm_UnlockedSlot(t *testing.T) {
	coordinator, _, _ := newTestCoordinator(t)
	provision(t, coordinator, "R1", "2025-12-25")

	err := coordinator.Confirm(context.Background(), "R1", "2025-12-25", "tok-aaaaaaaa", "bkg-1")
	assertCode(t, err, apperrors.CodeLockInvalid)
}

func TestRelease_ReturnsSlotToAvailable(t *testing.T) {
	coordinator, store, _ := newTestCoordinator(t)
	provision(t, coordinator, "R1", "2025-12-25")

	handle, err := coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-aaaaaaaa", 0)
	if err != nil {
		t.Fatalf("Reserve() failed: %v", err)
	}
	if err := coordinator.Release(context.Background(), "R1", "2025-12-25", handle.LockToken); err != nil {
		t.Fatalf("Release() failed: %v", err)
	}

	rec, _ := store.Get(context.Background(), "R1", "2025-12-25")
	if rec.Status != model.StatusAvailable {
		t.Errorf("Expected status %q, got %q", model.StatusAvailable, rec.Status)
	}

	// The slot is immediately claimable by someone else.
	if _, err := coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-bbbbbbbb", 0); err != nil {
		t.Errorf("Reserve() after release failed: %v", err)
	}
}

func TestRelease_WrongTokenIsANoOp(t *testing.T) {
	coordinator, store, _ := newTestCoordinator(t)
	provision(t, coordinator, "R1", "2025-12-25")

	if _, err := coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-aaaaaaaa", 0); err != nil {
		t.Fatalf("Reserve() failed: %v", err)
	}

	if err := coordinator.Release(context.Background(), "R1", "2025-12-25", "tok-bbbbbbbb"); err != nil {
		t.Fatalf("Release() with a foreign token must be a no-op, got: %v", err)
	}

	rec, _ := store.Get(context.Background(), "R1", "2025-12-25")
	if rec.Status != model.StatusLocked || rec.LockToken != "tok-aaaaaaaa" {
		t.Error("A foreign release must not disturb the holder's lock")
	}
}

func TestRelease_AfterReclaimIsANoOp(t *testing.T) {
	coordinator, _, clk := newTestCoordinator(t)
	provision(t, coordinator, "R1", "2025-12-25")

	handle, err := coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-aaaaaaaa", 0)
	if err != nil {
		t.Fatalf("Reserve() failed: %v", err)
	}

	clk.Advance(16 * time.Minute)
	if _, err := coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-bbbbbbbb", 0); err != nil {
		t.Fatalf("Reserve() over an expired lock failed: %v", err)
	}

	if err := coordinator.Release(context.Background(), "R1", "2025-12-25", handle.LockToken); err != nil {
		t.Fatalf("Release() of a reclaimed lock must be a no-op, got: %v", err)
	}
}

// Two parties compete for the Christmas slot; the loser backs off, the
// winner books, and the winner's retried confirm stays idempotent.
func TestReservationLifecycle_TwoParties(t *testing.T) {
	coordinator, _, _ := newTestCoordinator(t)
	provision(t, coordinator, "R1", "2025-12-25")

	handleA, err := coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-aaaaaaaa", 0)
	if err != nil {
		t.Fatalf("First Reserve() failed: %v", err)
	}

	_, err = coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-bbbbbbbb", 0)
	assertCode(t, err, apperrors.CodeConflict)

	if err := coordinator.Confirm(context.Background(), "R1", "2025-12-25", handleA.LockToken, "bkg-1"); err != nil {
		t.Fatalf("Confirm() failed: %v", err)
	}

	_, err = coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-bbbbbbbb", 0)
	assertCode(t, err, apperrors.CodeNotAvailable)

	if err := coordinator.Confirm(context.Background(), "R1", "2025-12-25", handleA.LockToken, "bkg-1"); err != nil {
		t.Fatalf("Retried Confirm() failed: %v", err)
	}
}

func TestCancelBooking_ReopensSlot(t *testing.T) {
	coordinator, store, _ := newTestCoordinator(t)
	provision(t, coordinator, "R1", "2025-12-25")

	handle, err := coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-aaaaaaaa", 0)
	if err != nil {
		t.Fatalf("Reserve() failed: %v", err)
	}
	if err := coordinator.Confirm(context.Background(), "R1", "2025-12-25", handle.LockToken, "bkg-1"); err != nil {
		t.Fatalf("Confirm() failed: %v", err)
	}

	if err := coordinator.CancelBooking(context.Background(), "R1", "2025-12-25", "bkg-1"); err != nil {
		t.Fatalf("CancelBooking() failed: %v", err)
	}

	rec, _ := store.Get(context.Background(), "R1", "2025-12-25")
	if rec.Status != model.StatusAvailable {
		t.Errorf("Expected status %q, got %q", model.StatusAvailable, rec.Status)
	}
	if rec.BookingRef != "" {
		t.Errorf("Expected booking ref cleared, got %q", rec.BookingRef)
	}

	// Cancelling again is safe.
	if err := coordinator.CancelBooking(context.Background(), "R1", "2025-12-25", "bkg-1"); err != nil {
		t.Fatalf("Second CancelBooking() must be a no-op, got: %v", err)
	}
}

func TestCancelBooking_WrongRef(t *testing.T) {
	coordinator, _, _ := newTestCoordinator(t)
	provision(t, coordinator, "R1", "2025-12-25")

	handle, err := coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-aaaaaaaa", 0)
	if err != nil {
		t.Fatalf("Reserve() failed: %v", err)
	}
	if err := coordinator.Confirm(context.Background(), "R1", "2025-12-25", handle.LockToken, "bkg-1"); err != nil {
		t.Fatalf("Confirm() failed: %v", err)
	}

	err = coordinator.CancelBooking(context.Background(), "R1", "2025-12-25", "bkg-2")
	assertCode(t, err, apperrors.CodeAlreadyBooked)
}

func TestBlock_TakesAvailableSlotOutOfService(t *testing.T) {
	coordinator, _, _ := newTestCoordinator(t)
	provision(t, coordinator, "R1", "2025-12-25")

	if err := coordinator.Block(context.Background(), "R1", "2025-12-25", model.StatusMaintenance); err != nil {
		t.Fatalf("Block() failed: %v", err)
	}

	_, err := coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-aaaaaaaa", 0)
	assertCode(t, err, apperrors.CodeNotAvailable)

	if err := coordinator.Unblock(context.Background(), "R1", "2025-12-25"); err != nil {
		t.Fatalf("Unblock() failed: %v", err)
	}
	if _, err := coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-aaaaaaaa", 0); err != nil {
		t.Errorf("Reserve() after unblock failed: %v", err)
	}
}

func TestBlock_RefusesLockedSlot(t *testing.T) {
	coordinator, _, _ := newTestCoordinator(t)
	provision(t, coordinator, "R1", "2025-12-25")

	if _, err := coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-aaaaaaaa", 0); err != nil {
		t.Fatalf("Reserve() failed: %v", err)
	}

	err := coordinator.Block(context.Background(), "R1", "2025-12-25", model.StatusBlocked)
	assertCode(t, err, apperrors.CodeNotAvailable)
}

func TestProvision_SkipsExistingDates(t *testing.T) {
	coordinator, _, _ := newTestCoordinator(t)
	provision(t, coordinator, "R1", "2025-12-25")

	created, err := coordinator.Provision(context.Background(), "R1", []string{"2025-12-25", "2025-12-26"})
	if err != nil {
		t.Fatalf("Provision() failed: %v", err)
	}
	if created != 1 {
		t.Errorf("Expected 1 newly created slot, got %d", created)
	}
}

func TestListCalendar_ReturnsRecordsAndTotal(t *testing.T) {
	coordinator, _, _ := newTestCoordinator(t)
	provision(t, coordinator, "R1", "2025-12-25", "2025-12-26", "2025-12-27")

	records, total, err := coordinator.ListCalendar(context.Background(), "R1", 2, 0)
	if err != nil {
		t.Fatalf("ListCalendar() failed: %v", err)
	}
	if total != 3 {
		t.Errorf("Expected total 3, got %d", total)
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 records, got %d", len(records))
	}
}

// Mock store for transient-failure tests
type mockSlotStore struct {
	getFunc  func(ctx context.Context, resourceID, date string) (*model.SlotRecord, error)
	casFunc  func(ctx context.Context, resourceID, date string, expectedVersion int64, update *model.SlotRecord) (*model.SlotRecord, error)
	getCalls int
	casCalls int
}

func (m *mockSlotStore) Get(ctx context.Context, resourceID, date string) (*model.SlotRecord, error) {
	m.getCalls++
	if m.getFunc != nil {
		return m.getFunc(ctx, resourceID, date)
	}
	return nil, sloterrors.ErrNotFound
}

func (m *mockSlotStore) CompareAndSwap(ctx context.Context, resourceID, date string, expectedVersion int64, update *model.SlotRecord) (*model.SlotRecord, error) {
	m.casCalls++
	if m.casFunc != nil {
		return m.casFunc(ctx, resourceID, date, expectedVersion, update)
	}
	return nil, sloterrors.ErrNotFound
}

func (m *mockSlotStore) ScanExpiredLocks(ctx context.Context, now time.Time, limit int) ([]*model.SlotRecord, error) {
	return nil, nil
}

func (m *mockSlotStore) Provision(ctx context.Context, record *model.SlotRecord) error {
	return nil
}

func (m *mockSlotStore) ListByResource(ctx context.Context, resourceID string, limit int, offset int64) ([]*model.SlotRecord, error) {
	return nil, nil
}

func (m *mockSlotStore) CountByResource(ctx context.Context, resourceID string) (int64, error) {
	return 0, nil
}

func TestReserve_StoreOutageRetriedThenSurfaced(t *testing.T) {
	mock := &mockSlotStore{
		getFunc: func(ctx context.Context, resourceID, date string) (*model.SlotRecord, error) {
			return nil, sloterrors.ErrStoreUnavailable
		},
	}
	cfg := newTestConfig()
	coordinator := NewReservationCoordinator(mock, clock.System(), nil, cfg)

	_, err := coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-aaaaaaaa", 0)
	assertCode(t, err, apperrors.CodeUnavailable)

	if mock.getCalls != cfg.StoreRetryAttempts {
		t.Errorf("Expected %d attempts against an unavailable store, got %d", cfg.StoreRetryAttempts, mock.getCalls)
	}
}

func TestReserve_TransientOutageRecovers(t *testing.T) {
	now := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)
	available := &model.SlotRecord{
		ID:         "R1:2025-12-25",
		ResourceID: "R1",
		Date:       "2025-12-25",
		Status:     model.StatusAvailable,
		Version:    1,
	}

	failures := 1
	mock := &mockSlotStore{}
	mock.getFunc = func(ctx context.Context, resourceID, date string) (*model.SlotRecord, error) {
		if failures > 0 {
			failures--
			return nil, sloterrors.ErrStoreUnavailable
		}
		return available, nil
	}
	mock.casFunc = func(ctx context.Context, resourceID, date string, expectedVersion int64, update *model.SlotRecord) (*model.SlotRecord, error) {
		locked := *update
		locked.ID = available.ID
		locked.ResourceID = "R1"
		locked.Date = "2025-12-25"
		locked.Version = expectedVersion + 1
		return &locked, nil
	}

	coordinator := NewReservationCoordinator(mock, clock.NewFake(now), nil, newTestConfig())

	handle, err := coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-aaaaaaaa", 0)
	if err != nil {
		t.Fatalf("Reserve() must recover from a transient outage, got: %v", err)
	}
	if handle.LockToken != "tok-aaaaaaaa" {
		t.Errorf("Expected the caller's token, got %q", handle.LockToken)
	}
	if mock.getCalls != 2 {
		t.Errorf("Expected 2 read attempts, got %d", mock.getCalls)
	}
}
