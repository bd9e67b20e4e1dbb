package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/trainer-booking-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FeedbackRepository interface {
	FindActiveLink(ctx context.Context, tx *gorm.DB, bookingID uint) (*models.FeedbackLink, error)
	FindLinkByToken(ctx context.Context, token string) (*models.FeedbackLink, error)
	CreateLinkIfAbsent(ctx context.Context, tx *gorm.DB, link *models.FeedbackLink) (bool, error)
	DeactivateExpired(ctx context.Context, tx *gorm.DB, bookingID uint, now time.Time) error
	DeactivateLinks(ctx context.Context, tx *gorm.DB, bookingID uint) (int64, error)
	FindResponse(ctx context.Context, tx *gorm.DB, linkID uint, email string) (*models.FeedbackResponse, error)
	CreateResponse(ctx context.Context, tx *gorm.DB, resp *models.FeedbackResponse) error
}

type feedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) FindActiveLink(ctx context.Context, tx *gorm.DB, bookingID uint) (*models.FeedbackLink, error) {
	var link models.FeedbackLink
	err := conn(ctx, r.db, tx).
		Where("booking_id = ? AND is_active", bookingID).
		First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *feedbackRepository) FindLinkByToken(ctx context.Context, token string) (*models.FeedbackLink, error) {
	var link models.FeedbackLink
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// CreateLinkIfAbsent relies on the partial unique index over active links per booking.
func (r *feedbackRepository) CreateLinkIfAbsent(ctx context.Context, tx *gorm.DB, link *models.FeedbackLink) (bool, error) {
	res := conn(ctx, r.db, tx).Clauses(clause.OnConflict{DoNothing: true}).Create(link)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *feedbackRepository) DeactivateExpired(ctx context.Context, tx *gorm.DB, bookingID uint, now time.Time) error {
	return conn(ctx, r.db, tx).
		Model(&models.FeedbackLink{}).
		Where("booking_id = ? AND is_active AND expires_at <= ?", bookingID, now).
		Update("is_active", false).Error
}

func (r *feedbackRepository) DeactivateLinks(ctx context.Context, tx *gorm.DB, bookingID uint) (int64, error) {
	res := conn(ctx, r.db, tx).
		Model(&models.FeedbackLink{}).
		Where("booking_id = ? AND is_active", bookingID).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

func (r *feedbackRepository) FindResponse(ctx context.Context, tx *gorm.DB, linkID uint, email string) (*models.FeedbackResponse, error) {
	var resp models.FeedbackResponse
	err := conn(ctx, r.db, tx).
		Where("link_id = ? AND respondent_email = ?", linkID, email).
		First(&resp).Error
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *feedbackRepository) CreateResponse(ctx context.Context, tx *gorm.DB, resp *models.FeedbackResponse) error {
	return translate(conn(ctx, r.db, tx).Create(resp).Error)
}
