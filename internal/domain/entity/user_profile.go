package entity

import (
	"time"
)

// UserProfile is the aggregate root for the profile domain.
// ID and the two timestamps are owned by the database: ID is generated at
// insert, UpdatedAt advances on every mutation via trigger. Optional fields
// are stored as NULL and normalized to "" on read.
type UserProfile struct {
	ID          string
	FullName    string
	Email       string
	PhoneNumber string
	Bio         string
	AvatarURL   string
	DateOfBirth string
	Location    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
