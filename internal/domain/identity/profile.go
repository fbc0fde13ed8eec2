package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/bazargo/backend/internal/domain/shared"
)

// Profile is the slice of a user account the core needs: the shipping
// address and document used when building label payloads. Account
// management itself lives outside this module.
type Profile struct {
	UserID     uuid.UUID `gorm:"primaryKey"`
	FullName   string
	Document   string
	Phone      string
	Email      string
	Street     string
	Number     string
	Complement string
	District   string
	City       string
	State      string
	PostalCode string
	IsAdmin    bool
}

// NewProfile creates a profile for a user
func NewProfile(userID uuid.UUID, fullName string) (*Profile, error) {
	if userID == uuid.Nil {
		return nil, shared.ErrInvalidInput
	}
	return &Profile{UserID: userID, FullName: fullName}, nil
}

// ProfileRepository looks up profiles by user
type ProfileRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	Save(ctx context.Context, p *Profile) error
	FindAdmins(ctx context.Context) ([]Profile, error)
}
