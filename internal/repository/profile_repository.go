package repository

import (
	"gorm.io/gorm"

	"github.com/nboard/nboard-api/internal/models"
)

// GormProfileRepository is a GORM implementation of ProfileRepository
type GormProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &GormProfileRepository{db: db}
}

// Create inserts a profile row
func (r *GormProfileRepository) Create(profile *models.Profile) error {
	return r.db.Create(profile).Error
}

// FindByID finds a profile by ID
func (r *GormProfileRepository) FindByID(id string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// List returns all profiles, newest first
func (r *GormProfileRepository) List() ([]models.Profile, error) {
	var profiles []models.Profile
	if err := r.db.Order("created_at DESC").Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

// UpdateFields applies the given column values to a profile
func (r *GormProfileRepository) UpdateFields(id string, fields map[string]any) error {
	return r.db.Model(&models.Profile{}).Where("id = ?", id).Updates(fields).Error
}
