package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/trainer-booking-service/internal/models"
	"gorm.io/gorm"
)

type ApplicationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, app *models.TrainingApplication) error
	FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.TrainingApplication, error)
	FindByRequestAndTrainer(ctx context.Context, tx *gorm.DB, requestID uint, trainerID string) (*models.TrainingApplication, error)
	ListByRequest(ctx context.Context, requestID uint, trainerID string) ([]models.TrainingApplication, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, from, to models.ApplicationStatus) error
	RejectOthers(ctx context.Context, tx *gorm.DB, requestID, keepID uint) ([]models.TrainingApplication, error)
}

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, tx *gorm.DB, app *models.TrainingApplication) error {
	return translate(conn(ctx, r.db, tx).Create(app).Error)
}

func (r *applicationRepository) FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.TrainingApplication, error) {
	var app models.TrainingApplication
	if err := conn(ctx, r.db, tx).First(&app, id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) FindByRequestAndTrainer(ctx context.Context, tx *gorm.DB, requestID uint, trainerID string) (*models.TrainingApplication, error) {
	var app models.TrainingApplication
	err := conn(ctx, r.db, tx).
		Where("request_id = ? AND trainer_id = ?", requestID, trainerID).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// ListByRequest returns a request's applications, narrowed to one trainer when trainerID is set.
func (r *applicationRepository) ListByRequest(ctx context.Context, requestID uint, trainerID string) ([]models.TrainingApplication, error) {
	var apps []models.TrainingApplication
	q := r.db.WithContext(ctx).Where("request_id = ?", requestID)
	if trainerID != "" {
		q = q.Where("trainer_id = ?", trainerID)
	}
	if err := q.Order("id ASC").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *applicationRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, from, to models.ApplicationStatus) error {
	return guarded(tx.WithContext(ctx).
		Model(&models.TrainingApplication{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now()}))
}

// RejectOthers rejects every sibling of keepID that is not already rejected and
// returns them as they were before the update. Callers hold the request lock.
func (r *applicationRepository) RejectOthers(ctx context.Context, tx *gorm.DB, requestID, keepID uint) ([]models.TrainingApplication, error) {
	var siblings []models.TrainingApplication
	err := tx.WithContext(ctx).
		Where("request_id = ? AND id <> ? AND status <> ?", requestID, keepID, models.ApplicationRejected).
		Order("id ASC").
		Find(&siblings).Error
	if err != nil {
		return nil, err
	}
	if len(siblings) == 0 {
		return nil, nil
	}

	ids := make([]uint, len(siblings))
	for i, s := range siblings {
		ids[i] = s.ID
	}
	err = tx.WithContext(ctx).
		Model(&models.TrainingApplication{}).
		Where("id IN ?", ids).
		Updates(map[string]any{"status": models.ApplicationRejected, "updated_at": time.Now()}).Error
	if err != nil {
		return nil, err
	}
	return siblings, nil
}
