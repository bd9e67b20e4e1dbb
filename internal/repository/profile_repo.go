package repository

import (
	"context"

	"github.com/Eursukkul/trainer-booking-service/internal/models"
	"gorm.io/gorm"
)

type ProfileRepository interface {
	FindByIDs(ctx context.Context, tx *gorm.DB, ids ...string) (map[string]models.Profile, error)
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) FindByIDs(ctx context.Context, tx *gorm.DB, ids ...string) (map[string]models.Profile, error) {
	var profiles []models.Profile
	if err := conn(ctx, r.db, tx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	out := make(map[string]models.Profile, len(profiles))
	for _, p := range profiles {
		out[p.ID] = p
	}
	return out, nil
}
