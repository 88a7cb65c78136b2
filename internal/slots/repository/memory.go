package repository

import (
	"context"
	"fmt"
	sloterrors "reserva/internal/slots/errors"
	"reserva/pkg/model"
	"sort"
	"sync"
	"time"
)

// MemorySlotStore is a CAS-faithful in-memory SlotStore. It backs the
// package tests and local runs without a Mongo deployment; the conditional
// write semantics match the Mongo implementation exactly.
type MemorySlotStore struct {
	mu    sync.Mutex
	slots map[string]*model.SlotRecord
}

func NewMemorySlotStore() *MemorySlotStore {
	return &MemorySlotStore{
		slots: make(map[string]*model.SlotRecord),
	}
}

func cloneRecord(rec *model.SlotRecord) *model.SlotRecord {
	copied := *rec
	if rec.LockExpiresAt != nil {
		exp := *rec.LockExpiresAt
		copied.LockExpiresAt = &exp
	}
	return &copied
}

func (s *MemorySlotStore) Get(_ context.Context, resourceID, date string) (*model.SlotRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.slots[model.SlotID(resourceID, date)]
	if !ok {
		return nil, sloterrors.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (s *MemorySlotStore) CompareAndSwap(_ context.Context, resourceID, date string, expectedVersion int64, update *model.SlotRecord) (*model.SlotRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := model.SlotID(resourceID, date)
	rec, ok := s.slots[id]
	if !ok {
		return nil, sloterrors.ErrNotFound
	}

	if rec.Version != expectedVersion {
		return cloneRecord(rec), fmt.Errorf("%w: expected version %d, found %d", sloterrors.ErrVersionMismatch, expectedVersion, rec.Version)
	}

	next := cloneRecord(rec)
	next.Status = update.Status
	next.LockToken = update.LockToken
	if update.LockExpiresAt != nil {
		exp := *update.LockExpiresAt
		next.LockExpiresAt = &exp
	} else {
		next.LockExpiresAt = nil
	}
	next.BookingRef = update.BookingRef
	next.Version = rec.Version + 1
	next.UpdatedAt = time.Now().UTC()

	s.slots[id] = next
	return cloneRecord(next), nil
}

func (s *MemorySlotStore) ScanExpiredLocks(_ context.Context, now time.Time, limit int) ([]*model.SlotRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []*model.SlotRecord
	for _, rec := range s.slots {
		if rec.LockExpired(now) {
			expired = append(expired, cloneRecord(rec))
		}
	}

	sort.Slice(expired, func(i, j int) bool {
		return expired[i].LockExpiresAt.Before(*expired[j].LockExpiresAt)
	})

	if len(expired) > limit {
		expired = expired[:limit]
	}
	return expired, nil
}

func (s *MemorySlotStore) Provision(_ context.Context, record *model.SlotRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := model.SlotID(record.ResourceID, record.Date)
	if _, ok := s.slots[id]; ok {
		return sloterrors.ErrAlreadyExists
	}

	record.ID = id
	record.Status = model.StatusAvailable
	record.Version = 1
	record.CreatedAt = time.Now().UTC()
	record.UpdatedAt = record.CreatedAt

	s.slots[id] = cloneRecord(record)
	return nil
}

func (s *MemorySlotStore) ListByResource(_ context.Context, resourceID string, limit int, offset int64) ([]*model.SlotRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []*model.SlotRecord
	for _, rec := range s.slots {
		if rec.ResourceID == resourceID {
			records = append(records, cloneRecord(rec))
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Date < records[j].Date
	})

	if offset >= int64(len(records)) {
		return nil, nil
	}
	records = records[offset:]
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (s *MemorySlotStore) CountByResource(_ context.Context, resourceID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, rec := range s.slots {
		if rec.ResourceID == resourceID {
			count++
		}
	}
	return count, nil
}
