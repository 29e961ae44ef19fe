package models

import "time"

// AvailabilityStatus is the lifecycle of an offer or request record.
type AvailabilityStatus string

const (
	AvailabilityOpen      AvailabilityStatus = "open"
	AvailabilityWithdrawn AvailabilityStatus = "withdrawn"
	AvailabilityExpired   AvailabilityStatus = "expired"
)

// AvailabilityOffer is an owner's advertised care window for a dog.
// The interval is half-open: [StartAt, EndAt).
type AvailabilityOffer struct {
	ID        uint               `json:"id" gorm:"primaryKey"`
	UserID    uint               `json:"user_id" gorm:"index"`
	DogID     uint               `json:"dog_id" gorm:"index"`
	StartAt   time.Time          `json:"start_at" gorm:"index"`
	EndAt     time.Time          `json:"end_at" gorm:"index"`
	Lat       float64            `json:"lat"`
	Lng       float64            `json:"lng"`
	Status    AvailabilityStatus `json:"status" gorm:"size:20;index;default:open"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// AvailabilityRequest is a seeker's advertised need for care within a window.
// RadiusM is the seeker's willingness to travel, in meters; it alone governs
// the proximity check against candidate offers.
type AvailabilityRequest struct {
	ID        uint               `json:"id" gorm:"primaryKey"`
	UserID    uint               `json:"user_id" gorm:"index"`
	StartAt   time.Time          `json:"start_at" gorm:"index"`
	EndAt     time.Time          `json:"end_at" gorm:"index"`
	Lat       float64            `json:"lat"`
	Lng       float64            `json:"lng"`
	RadiusM   float64            `json:"radius_m"`
	Status    AvailabilityStatus `json:"status" gorm:"size:20;index;default:open"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// CreateOfferRequest defines the request body for posting a care offer
type CreateOfferRequest struct {
	DogID   uint      `json:"dog_id" validate:"required"`
	StartAt time.Time `json:"start_at" validate:"required"`
	EndAt   time.Time `json:"end_at" validate:"required"`
	Lat     float64   `json:"lat" validate:"min=-90,max=90"`
	Lng     float64   `json:"lng" validate:"min=-180,max=180"`
}

// CreateCareRequestRequest defines the request body for posting a care request
type CreateCareRequestRequest struct {
	StartAt time.Time `json:"start_at" validate:"required"`
	EndAt   time.Time `json:"end_at" validate:"required"`
	Lat     float64   `json:"lat" validate:"min=-90,max=90"`
	Lng     float64   `json:"lng" validate:"min=-180,max=180"`
	RadiusM float64   `json:"radius_m" validate:"required,gt=0"`
}
