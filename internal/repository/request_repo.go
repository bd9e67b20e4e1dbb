package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/trainer-booking-service/internal/models"
	"gorm.io/gorm"
)

type RequestRepository interface {
	Create(ctx context.Context, tx *gorm.DB, req *models.TrainingRequest) error
	FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.TrainingRequest, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.TrainingRequest, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.TrainingRequest, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, from, to models.RequestStatus) error
	MarkTrainerSelected(ctx context.Context, tx *gorm.DB, id uint, trainerID string) error
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, tx *gorm.DB, req *models.TrainingRequest) error {
	return conn(ctx, r.db, tx).Create(req).Error
}

func (r *requestRepository) FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.TrainingRequest, error) {
	var req models.TrainingRequest
	if err := conn(ctx, r.db, tx).First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// FindByIDForUpdate locks the request row for the rest of tx. Every change to a
// request's applications goes through this lock.
func (r *requestRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.TrainingRequest, error) {
	var req models.TrainingRequest
	if err := forUpdate(tx.WithContext(ctx)).First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.TrainingRequest, error) {
	var reqs []models.TrainingRequest
	q := r.db.WithContext(ctx)
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.ClientID != "" {
		q = q.Where("client_id = ?", filter.ClientID)
	}
	if err := q.Order("created_at DESC, id DESC").Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *requestRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, from, to models.RequestStatus) error {
	return guarded(tx.WithContext(ctx).
		Model(&models.TrainingRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now()}))
}

func (r *requestRepository) MarkTrainerSelected(ctx context.Context, tx *gorm.DB, id uint, trainerID string) error {
	return guarded(tx.WithContext(ctx).
		Model(&models.TrainingRequest{}).
		Where("id = ? AND status = ?", id, models.RequestOpen).
		Updates(map[string]any{
			"status":              models.RequestTrainerSelected,
			"selected_trainer_id": trainerID,
			"updated_at":          time.Now(),
		}))
}
