package repository

import (
	"context"

	"github.com/oksasatya/profile-hub/internal/domain/entity"
)

// CreateInput carries the writable fields for a new profile. Optional fields
// left as "" are written as NULL (unset), not as empty strings.
type CreateInput struct {
	FullName    string
	Email       string
	PhoneNumber string
	Bio         string
	AvatarURL   string
	DateOfBirth string
	Location    string
}

// UpdateInput carries a partial update. A nil field means "leave unchanged";
// a pointer to "" clears the column back to NULL for optional fields. This
// replaces presence checks on loosely-typed maps with an explicit shape.
type UpdateInput struct {
	FullName    *string
	Email       *string
	PhoneNumber *string
	Bio         *string
	AvatarURL   *string
	DateOfBirth *string
	Location    *string
}

// Empty reports whether the update would touch no column.
func (in UpdateInput) Empty() bool {
	return in.FullName == nil && in.Email == nil && in.PhoneNumber == nil &&
		in.Bio == nil && in.AvatarURL == nil && in.DateOfBirth == nil && in.Location == nil
}

// UserRepository defines the store operations the data-access facade needs.
// Implementations return *storeerr.Error for every failure so callers can
// branch on the outcome kind without inspecting driver errors.
type UserRepository interface {
	// List returns one window of profiles ordered by created_at descending,
	// plus the exact total count irrespective of the window.
	List(ctx context.Context, offset, limit int) ([]entity.UserProfile, int64, error)
	// GetByID returns storeerr.KindNotFound when no row matches.
	GetByID(ctx context.Context, id string) (*entity.UserProfile, error)
	// Search matches q as a case-insensitive substring of full_name, email,
	// location or bio, with List's ordering and count semantics.
	Search(ctx context.Context, q string, offset, limit int) ([]entity.UserProfile, int64, error)
	Create(ctx context.Context, in CreateInput) (*entity.UserProfile, error)
	Update(ctx context.Context, id string, in UpdateInput) (*entity.UserProfile, error)
	Delete(ctx context.Context, id string) error
}
