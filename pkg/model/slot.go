package model

import (
	"fmt"
	"time"
)

// Slot statuses. A slot cycles available -> locked -> booked on the happy
// path; blocked and maintenance are operator-set and never entered by the
// reservation protocol itself.
const (
	StatusAvailable   = "available"
	StatusLocked      = "locked"
	StatusBooked      = "booked"
	StatusBlocked     = "blocked"
	StatusMaintenance = "maintenance"
)

// SlotRecord is one bookable day of one resource, the only entity the
// reservation core persists. Every mutation goes through a conditional
// write keyed on Version.
type SlotRecord struct {
	ID            string     `json:"id" bson:"_id" validate:"omitempty"`
	ResourceID    string     `json:"resource_id" bson:"resource_id" validate:"required,min=1,max=64"`
	Date          string     `json:"date" bson:"date" validate:"required,slot_date"`
	Status        string     `json:"status" bson:"status" validate:"required,oneof=available locked booked blocked maintenance"`
	LockToken     string     `json:"lock_token,omitempty" bson:"lock_token,omitempty"`
	LockExpiresAt *time.Time `json:"lock_expires_at,omitempty" bson:"lock_expires_at,omitempty"`
	BookingRef    string     `json:"booking_ref,omitempty" bson:"booking_ref,omitempty"`
	Version       int64      `json:"version" bson:"version"`
	CreatedAt     time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" bson:"updated_at"`
}

// SlotID builds the composite key for a (resource, date) pair.
func SlotID(resourceID, date string) string {
	return fmt.Sprintf("%s:%s", resourceID, date)
}

// LockExpired reports whether a held lock has passed its TTL. Always false
// for records that are not locked.
func (s *SlotRecord) LockExpired(now time.Time) bool {
	return s.Status == StatusLocked && s.LockExpiresAt != nil && now.After(*s.LockExpiresAt)
}

// Claimable reports whether Reserve may take the slot at the given instant.
// A stale lock counts as claimable even before the sweeper has run.
func (s *SlotRecord) Claimable(now time.Time) bool {
	return s.Status == StatusAvailable || s.LockExpired(now)
}

// LockHandle is handed to the caller that won a Reserve race. The token
// proves ownership for the follow-up Confirm or Release.
type LockHandle struct {
	ResourceID string    `json:"resource_id"`
	Date       string    `json:"date"`
	LockToken  string    `json:"lock_token"`
	ExpiresAt  time.Time `json:"expires_at"`
}
