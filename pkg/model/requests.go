package model

// Request payloads accepted by the HTTP surface. Dates are calendar days in
// ISO form; TTLs arrive in seconds and are clamped by configuration.

type ReserveRequest struct {
	ResourceID     string `json:"resource_id" validate:"required,min=1,max=64"`
	Date           string `json:"date" validate:"required,slot_date"`
	RequesterToken string `json:"requester_token" validate:"omitempty,min=8,max=128"`
	TTLSeconds     int    `json:"ttl_seconds" validate:"omitempty,min=1,max=86400"`
}

type ConfirmRequest struct {
	ResourceID string `json:"resource_id" validate:"required,min=1,max=64"`
	Date       string `json:"date" validate:"required,slot_date"`
	LockToken  string `json:"lock_token" validate:"required,min=8,max=128"`
	BookingRef string `json:"booking_ref" validate:"required,min=1,max=128"`
}

type ReleaseRequest struct {
	ResourceID string `json:"resource_id" validate:"required,min=1,max=64"`
	Date       string `json:"date" validate:"required,slot_date"`
	LockToken  string `json:"lock_token" validate:"required,min=8,max=128"`
}

type TryBookRequest struct {
	ResourceID string `json:"resource_id" validate:"required,min=1,max=64"`
	Date       string `json:"date" validate:"required,slot_date"`
	BookingRef string `json:"booking_ref" validate:"required,min=1,max=128"`
	TTLSeconds int    `json:"ttl_seconds" validate:"omitempty,min=1,max=86400"`
}

type CancelRequest struct {
	ResourceID string `json:"resource_id" validate:"required,min=1,max=64"`
	Date       string `json:"date" validate:"required,slot_date"`
	BookingRef string `json:"booking_ref" validate:"required,min=1,max=128"`
}

type ProvisionRequest struct {
	ResourceID string   `json:"resource_id" validate:"required,min=1,max=64"`
	Dates      []string `json:"dates" validate:"required,min=1,max=366,dive,slot_date"`
}

type BlockRequest struct {
	ResourceID string `json:"resource_id" validate:"required,min=1,max=64"`
	Date       string `json:"date" validate:"required,slot_date"`
	Status     string `json:"status" validate:"required,oneof=blocked maintenance"`
}

type UnblockRequest struct {
	ResourceID string `json:"resource_id" validate:"required,min=1,max=64"`
	Date       string `json:"date" validate:"required,slot_date"`
}
