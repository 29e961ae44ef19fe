package models

import "time"

// User holds the minimal account data this service needs: identity for
// ownership checks and the FCM device token for push delivery. Account
// management itself lives in the auth service.
type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Email       string    `json:"email" gorm:"size:254;uniqueIndex"`
	DeviceToken string    `json:"-" gorm:"size:255"`
	CreatedAt   time.Time `json:"created_at"`
}

// UpdateDeviceTokenRequest defines the request body for registering an FCM device token
type UpdateDeviceTokenRequest struct {
	Token string `json:"token" validate:"required,max=255"`
}
