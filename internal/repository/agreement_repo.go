package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/trainer-booking-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AgreementRepository interface {
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, agreement *models.Agreement) (bool, error)
	FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Agreement, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Agreement, error)
	FindByBookingID(ctx context.Context, tx *gorm.DB, bookingID uint) (*models.Agreement, error)
	SaveSignatures(ctx context.Context, tx *gorm.DB, agreement *models.Agreement, readVersion int) error
	MarkRejected(ctx context.Context, tx *gorm.DB, agreement *models.Agreement, by models.Party, at time.Time) error
}

type agreementRepository struct {
	db *gorm.DB
}

func NewAgreementRepository(db *gorm.DB) AgreementRepository {
	return &agreementRepository{db: db}
}

// CreateIfAbsent inserts agreement unless the booking already has one. It reports
// whether this call created the row; agreement.ID is only set when it did.
func (r *agreementRepository) CreateIfAbsent(ctx context.Context, tx *gorm.DB, agreement *models.Agreement) (bool, error) {
	res := conn(ctx, r.db, tx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "booking_id"}}, DoNothing: true}).
		Create(agreement)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *agreementRepository) FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Agreement, error) {
	var agreement models.Agreement
	if err := conn(ctx, r.db, tx).First(&agreement, id).Error; err != nil {
		return nil, err
	}
	return &agreement, nil
}

// FindByIDForUpdate locks the agreement so concurrent signatures serialize.
func (r *agreementRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Agreement, error) {
	var agreement models.Agreement
	if err := forUpdate(tx.WithContext(ctx)).First(&agreement, id).Error; err != nil {
		return nil, err
	}
	return &agreement, nil
}

func (r *agreementRepository) FindByBookingID(ctx context.Context, tx *gorm.DB, bookingID uint) (*models.Agreement, error) {
	var agreement models.Agreement
	if err := conn(ctx, r.db, tx).Where("booking_id = ?", bookingID).First(&agreement).Error; err != nil {
		return nil, err
	}
	return &agreement, nil
}

// SaveSignatures writes the signature columns only. agreement_terms is never part of an update.
func (r *agreementRepository) SaveSignatures(ctx context.Context, tx *gorm.DB, agreement *models.Agreement, readVersion int) error {
	agreement.UpdatedAt = time.Now()
	return guarded(tx.WithContext(ctx).
		Model(&models.Agreement{}).
		Where("id = ? AND version = ?", agreement.ID, readVersion).
		Updates(map[string]any{
			"client_signature_status":  agreement.ClientSignatureStatus,
			"trainer_signature_status": agreement.TrainerSignatureStatus,
			"client_agreed_at":         agreement.ClientAgreedAt,
			"trainer_agreed_at":        agreement.TrainerAgreedAt,
			"completed_at":             agreement.CompletedAt,
			"version":                  agreement.Version,
			"updated_at":               agreement.UpdatedAt,
		}))
}

func (r *agreementRepository) MarkRejected(ctx context.Context, tx *gorm.DB, agreement *models.Agreement, by models.Party, at time.Time) error {
	err := guarded(tx.WithContext(ctx).
		Model(&models.Agreement{}).
		Where("id = ? AND version = ?", agreement.ID, agreement.Version).
		Updates(map[string]any{
			"rejected_by": by,
			"rejected_at": at,
			"version":     agreement.Version + 1,
			"updated_at":  at,
		}))
	if err != nil {
		return err
	}
	agreement.RejectedBy = &by
	agreement.RejectedAt = &at
	agreement.Version++
	agreement.UpdatedAt = at
	return nil
}
