package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazargo/backend/internal/domain/identity"
	"github.com/bazargo/backend/internal/domain/shared"
)

// GormProfileRepository implements identity.ProfileRepository using GORM
type GormProfileRepository struct {
	db *gorm.DB
}

// NewGormProfileRepository creates a new GormProfileRepository
func NewGormProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

// FindByUserID finds a profile by user ID
func (r *GormProfileRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*identity.Profile, error) {
	var p identity.Profile
	if err := r.db.WithContext(ctx).First(&p, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Save creates or updates a profile
func (r *GormProfileRepository) Save(ctx context.Context, p *identity.Profile) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// FindAdmins returns all admin profiles
func (r *GormProfileRepository) FindAdmins(ctx context.Context) ([]identity.Profile, error) {
	var profiles []identity.Profile
	if err := r.db.WithContext(ctx).Where("is_admin = ?", true).Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

var _ identity.ProfileRepository = (*GormProfileRepository)(nil)
